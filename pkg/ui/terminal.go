// Package ui prints human-facing status lines for the CLI. Structured
// diagnostics go through pkg/logger; this package only renders progress and
// the end-of-run summary.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	neonCyan    = lipgloss.Color("#00FFFF")
	neonMagenta = lipgloss.Color("#FF00FF")
	neonGreen   = lipgloss.Color("#39FF14")
	neonYellow  = lipgloss.Color("#FFFF00")
	neonRed     = lipgloss.Color("#FF3131")
	dimWhite    = lipgloss.Color("#B0B0B0")
)

// Printer writes styled lines to out. Colours are dropped when out is not
// a terminal. A quiet printer only prints errors.
type Printer struct {
	out   io.Writer
	quiet bool

	label     lipgloss.Style
	value     lipgloss.Style
	errStyle  lipgloss.Style
	warning   lipgloss.Style
	success   lipgloss.Style
	highlight lipgloss.Style
	dim       lipgloss.Style
}

// NewPrinter creates a Printer writing to out
func NewPrinter(out io.Writer, quiet bool) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:       out,
		quiet:     quiet,
		label:     r.NewStyle().Foreground(neonCyan).Bold(true),
		value:     r.NewStyle().Foreground(neonYellow),
		errStyle:  r.NewStyle().Foreground(neonRed).Bold(true),
		warning:   r.NewStyle().Foreground(neonYellow),
		success:   r.NewStyle().Foreground(neonGreen).Bold(true),
		highlight: r.NewStyle().Foreground(neonMagenta).Bold(true),
		dim:       r.NewStyle().Foreground(dimWhite),
	}
}

// Error prints msg, followed by the first arg when given. It prints even
// when quiet.
func (p *Printer) Error(msg string, args ...interface{}) {
	fmt.Fprintln(p.out, p.errStyle.Render(withDetail(msg, args)))
}

// Warning prints a warning line
func (p *Printer) Warning(msg string, args ...interface{}) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.warning.Render(withDetail(msg, args)))
}

// Success prints a success line
func (p *Printer) Success(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.success.Render(msg))
}

// Info prints a label: value line
func (p *Printer) Info(label, value string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, "%s: %s\n", p.label.Render(label), p.value.Render(value))
}

// Highlight prints an emphasised line
func (p *Printer) Highlight(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.highlight.Render(msg))
}

// Dim prints a de-emphasised line
func (p *Printer) Dim(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.dim.Render(msg))
}

func withDetail(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, args[0])
}
