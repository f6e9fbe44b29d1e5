// Package report assembles analysed posts into a rectangular table and
// writes it as CSV or into a SQLite table.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"igvision/pkg/analyser"
	"igvision/pkg/labels"
)

// DateLayout is how post dates are rendered
const DateLayout = "2006-01-02 15:04:05"

// coreColumns precede one column per label
var coreColumns = []string{
	"handle",
	"date",
	"likes",
	"comments",
	"text_length",
	"tag_amount",
	"video",
}

// idColumn leads every written table
const idColumn = "id"

// CheckLabels rejects label sets that cannot become report columns: a label
// may not shadow the id or a core column, and no two labels may differ only
// in case, as SQLite column names are case-insensitive.
func CheckLabels(set *labels.Set) error {
	seen := make(map[string]string, len(coreColumns)+set.Len()+1)
	for _, col := range append([]string{idColumn}, coreColumns...) {
		seen[col] = ""
	}
	for _, name := range set.Names() {
		key := strings.ToLower(name)
		prev, taken := seen[key]
		switch {
		case taken && prev == "":
			return fmt.Errorf("label %q clashes with report column %q", name, key)
		case taken:
			return fmt.Errorf("labels %q and %q clash as report columns", prev, name)
		}
		seen[key] = name
	}
	return nil
}

// Row is one finalized post. Unknown metadata and missing counts are 0.
type Row struct {
	Handle     string
	Date       string
	Likes      int
	Comments   int
	TextLength int
	TagAmount  int
	Video      bool
	// Counts follows the label order of the report header
	Counts []int
}

// Values renders the row in header order
func (r Row) Values() []string {
	values := []string{
		r.Handle,
		r.Date,
		strconv.Itoa(r.Likes),
		strconv.Itoa(r.Comments),
		strconv.Itoa(r.TextLength),
		strconv.Itoa(r.TagAmount),
		strconv.FormatBool(r.Video),
	}
	for _, n := range r.Counts {
		values = append(values, strconv.Itoa(n))
	}
	return values
}

// Report is a finalized table. Every row has len(Header()) values.
type Report struct {
	Labels []string
	Rows   []Row
}

// Header returns the column names without the leading id column
func (r *Report) Header() []string {
	header := make([]string, 0, len(coreColumns)+len(r.Labels))
	header = append(header, coreColumns...)
	return append(header, r.Labels...)
}

// Builder collects records in arrival order. Its column set is fixed by the
// label set given at construction.
type Builder struct {
	labels  []string
	records []*analyser.Record
}

// NewBuilder creates a builder with one count column per label
func NewBuilder(set *labels.Set) *Builder {
	return &Builder{labels: set.Names()}
}

// Append adds a row
func (b *Builder) Append(rec *analyser.Record) {
	if rec == nil {
		return
	}
	b.records = append(b.records, rec)
}

// Len returns the number of rows appended
func (b *Builder) Len() int {
	return len(b.records)
}

// Finalize normalizes every record into a Row. It does not modify the
// builder, so repeated calls return equal reports.
func (b *Builder) Finalize() *Report {
	rep := &Report{
		Labels: append([]string(nil), b.labels...),
		Rows:   make([]Row, 0, len(b.records)),
	}
	for _, rec := range b.records {
		rep.Rows = append(rep.Rows, b.row(rec))
	}
	return rep
}

func (b *Builder) row(rec *analyser.Record) Row {
	date := "0"
	if t, ok := rec.Date.Get(); ok {
		date = t.Format(DateLayout)
	}

	counts := make([]int, len(b.labels))
	for i, name := range b.labels {
		counts[i] = rec.Counts[name]
	}

	return Row{
		Handle:     rec.Handle,
		Date:       date,
		Likes:      rec.Likes.Or(0),
		Comments:   rec.Comments.Or(0),
		TextLength: rec.TextLength.Or(0),
		TagAmount:  rec.TagAmount.Or(0),
		Video:      rec.Video,
		Counts:     counts,
	}
}
