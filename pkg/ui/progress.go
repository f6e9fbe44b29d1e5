package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"igvision/pkg/analyser"
	"igvision/pkg/detector"
	"igvision/pkg/instagram"
	"igvision/pkg/pipeline"
	"igvision/pkg/report"
)

// ProgressDisplay reports pipeline progress, one line per handle and, when
// verbose, one per post
type ProgressDisplay struct {
	printer *Printer
	verbose bool
	now     func() time.Time

	started time.Time
}

var _ pipeline.Progress = (*ProgressDisplay)(nil)

// NewProgressDisplay creates a display printing through p
func NewProgressDisplay(p *Printer, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{printer: p, verbose: verbose, now: time.Now}
}

// HandleStarted implements pipeline.Progress
func (d *ProgressDisplay) HandleStarted(handle string) {
	d.started = d.now()
	d.printer.Highlight("▸ " + handle)
}

// RecordAnalysed implements pipeline.Progress
func (d *ProgressDisplay) RecordAnalysed(rec *analyser.Record) {
	if !d.verbose {
		return
	}

	date := "unknown date"
	if t, ok := rec.Date.Get(); ok {
		date = t.Format(report.DateLayout)
	}

	var detail string
	switch {
	case rec.Video:
		detail = "video"
	case !rec.Detected():
		detail = "no detection"
	default:
		detail = FormatCounts(rec.Counts)
	}
	line := fmt.Sprintf("  %-12s %s  %s", rec.Shortcode, date, detail)
	if url := instagram.PostURL(rec.Shortcode); url != "" {
		line += "  " + url
	}
	d.printer.Dim(line)
}

// HandleFinished implements pipeline.Progress
func (d *ProgressDisplay) HandleFinished(res pipeline.HandleResult) {
	elapsed := d.now().Sub(d.started).Round(100 * time.Millisecond)
	stats := fmt.Sprintf("%d posts • %d images • %s", res.Posts, res.Images, elapsed)
	if res.Err != nil {
		d.printer.Warning(fmt.Sprintf("✗ %s  %s", res.Handle, stats), res.Err)
		return
	}
	d.printer.Success(fmt.Sprintf("✓ %s  %s", res.Handle, stats))
}

// FormatCounts lists the non-zero counts as label×n, most frequent first
func FormatCounts(counts detector.Counts) string {
	type entry struct {
		label string
		n     int
	}
	var entries []entry
	for label, n := range counts {
		if n > 0 {
			entries = append(entries, entry{label, n})
		}
	}
	if len(entries) == 0 {
		return "no objects"
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].n != entries[j].n {
			return entries[i].n > entries[j].n
		}
		return entries[i].label < entries[j].label
	})

	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s×%d", e.label, e.n)
	}
	return strings.Join(parts, " ")
}
