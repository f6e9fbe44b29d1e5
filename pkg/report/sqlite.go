package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	errs "igvision/pkg/errors"
)

// DefaultTable is the SQLite table used when none is configured
const DefaultTable = "posts"

// WriteSQLite replaces table in the database at path with the report rows.
// The table is dropped, recreated and filled in a single transaction.
func WriteSQLite(rep *Report, path, table string) error {
	if table == "" {
		table = DefaultTable
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errs.Write(path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return errs.Write(path, fmt.Errorf("failed to open database: %w", err))
	}
	defer db.Close()

	if err := writeTable(db, rep, table); err != nil {
		return errs.Write(path, err)
	}
	return nil
}

func writeTable(db *sql.DB, rep *Report, table string) error {
	header := rep.Header()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DROP TABLE IF EXISTS " + quoteIdent(table)); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	if _, err := tx.Exec(createTableSQL(table, header)); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	columns := make([]string, 0, len(header)+1)
	columns = append(columns, quoteIdent(idColumn))
	for _, name := range header {
		columns = append(columns, quoteIdent(name))
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table),
		strings.Join(columns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "))

	stmt, err := tx.Prepare(insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rep.Rows {
		args := []any{
			i,
			row.Handle,
			row.Date,
			row.Likes,
			row.Comments,
			row.TextLength,
			row.TagAmount,
			strconv.FormatBool(row.Video),
		}
		for _, n := range row.Counts {
			args = append(args, n)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// createTableSQL declares handle, date and video as TEXT and every other
// column as INTEGER
func createTableSQL(table string, header []string) string {
	defs := []string{quoteIdent(idColumn) + " INTEGER PRIMARY KEY"}
	for _, name := range header {
		kind := "INTEGER"
		switch name {
		case "handle", "date", "video":
			kind = "TEXT"
		}
		defs = append(defs, quoteIdent(name)+" "+kind)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", quoteIdent(table), strings.Join(defs, ",\n\t"))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
