package console

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes coloured, line-oriented status messages. Colours are
// dropped automatically when w is not a terminal.
type Printer struct {
	w io.Writer

	success   lipgloss.Style
	info      lipgloss.Style
	detail    lipgloss.Style
	highlight lipgloss.Style
}

// New returns a Printer bound to w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:         w,
		success:   r.NewStyle().Foreground(lipgloss.Color("2")),
		info:      r.NewStyle().Foreground(lipgloss.Color("4")),
		detail:    r.NewStyle().Foreground(lipgloss.Color("6")),
		highlight: r.NewStyle().Foreground(lipgloss.Color("5")),
	}
}

// Success prints in green.
func (p *Printer) Success(format string, args ...any) error { return p.line(p.success, format, args) }

// Info prints in blue.
func (p *Printer) Info(format string, args ...any) error { return p.line(p.info, format, args) }

// Detail prints in cyan.
func (p *Printer) Detail(format string, args ...any) error { return p.line(p.detail, format, args) }

// Highlight prints in magenta.
func (p *Printer) Highlight(format string, args ...any) error {
	return p.line(p.highlight, format, args)
}

func (p *Printer) line(style lipgloss.Style, format string, args []any) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	// Styles pad multi-line blocks to a rectangle; render line by line instead.
	lines := strings.Split(msg, "\n")
	for i, l := range lines {
		lines[i] = style.Render(l)
	}
	_, err := fmt.Fprintln(p.w, strings.Join(lines, "\n"))
	return err
}

// EncodeJSON writes v as two-space indented JSON followed by a newline.
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
