package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	Primary = lipgloss.Color("#1cc2e3")
	Success = lipgloss.Color("#10B981") // Green
	Warning = lipgloss.Color("#F59E0B") // Amber
	Error   = lipgloss.Color("#EF4444") // Red
	Muted   = lipgloss.Color("#6B7280") // Gray
)

// Printer writes styled lines. Styling is dropped automatically when the
// destination is not a terminal, so scripts see plain text.
type Printer struct {
	w io.Writer

	errorStyle   lipgloss.Style
	successStyle lipgloss.Style
	labelStyle   lipgloss.Style
	mutedStyle   lipgloss.Style
}

// NewPrinter binds a lipgloss renderer to w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:            w,
		errorStyle:   r.NewStyle().Bold(true).Foreground(Error),
		successStyle: r.NewStyle().Bold(true).Foreground(Success),
		labelStyle:   r.NewStyle().Foreground(Muted).Width(12),
		mutedStyle:   r.NewStyle().Foreground(Muted),
	}
}

// Error prints "Error: <msg>".
func (p *Printer) Error(msg string) {
	fmt.Fprintln(p.w, p.errorStyle.Render("Error:")+" "+msg)
}

// Success prints a success message with checkmark
func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.w, p.successStyle.Render("✓ "+msg))
}

// Field prints an aligned "label value" line.
func (p *Printer) Field(label, value string) {
	fmt.Fprintln(p.w, p.labelStyle.Render(label)+value)
}

// Info prints a muted informational line.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.w, p.mutedStyle.Render(msg))
}
