package ui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"igvision/pkg/pipeline"
)

// Summary prints a per-handle table and where the report was written
func (p *Printer) Summary(result *pipeline.Result, outputs pipeline.Outputs) {
	if p.quiet || result == nil {
		return
	}

	rows := make([][]string, 0, len(result.Handles))
	for _, h := range result.Handles {
		status := "ok"
		if h.Err != nil {
			status = "failed"
		}
		rows = append(rows, []string{h.Handle, strconv.Itoa(h.Posts), strconv.Itoa(h.Images), status})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.dim).
		Headers("HANDLE", "POSTS", "IMAGES", "STATUS").
		Rows(rows...)
	fmt.Fprintln(p.out, t.String())

	if failed := result.Failed(); len(failed) > 0 {
		p.Warning(fmt.Sprintf("%d of %d handles failed", len(failed), len(result.Handles)))
		for _, h := range failed {
			p.Dim(fmt.Sprintf("  %s: %v", h.Handle, h.Err))
		}
	}

	if result.Report != nil {
		p.Info("Rows", strconv.Itoa(len(result.Report.Rows)))
	}
	p.Info("CSV", outputs.CSV)
	if outputs.SQLitePath != "" {
		p.Info("SQLite", fmt.Sprintf("%s (table %s)", outputs.SQLitePath, outputs.SQLiteTable))
	}
}
