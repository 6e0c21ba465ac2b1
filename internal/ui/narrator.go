// Package ui renders human-facing progress for glflow commands.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rodaine/table"
)

// Narrator prints phase-by-phase progress lines.
type Narrator struct {
	out    io.Writer
	styles styles
}

type styles struct {
	phase   lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	detail  lipgloss.Style
	header  lipgloss.Style
	enabled bool
}

// NewNarrator returns a Narrator writing to out. When color is false, or out
// is not a terminal, output is plain text.
func NewNarrator(out io.Writer, color bool) *Narrator {
	r := lipgloss.NewRenderer(out)
	return &Narrator{
		out: out,
		styles: styles{
			phase:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
			success: r.NewStyle().Foreground(lipgloss.Color("42")),
			warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
			fail:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
			detail:  r.NewStyle().Foreground(lipgloss.Color("245")),
			header:  r.NewStyle().Bold(true).Underline(true),
			enabled: color,
		},
	}
}

func (n *Narrator) render(s lipgloss.Style, text string) string {
	if !n.styles.enabled {
		return text
	}
	return s.Render(text)
}

func (n *Narrator) println(s string) {
	_, _ = fmt.Fprintln(n.out, s)
}

// Phase announces step i of total.
func (n *Narrator) Phase(i, total int, title string) {
	n.println(n.render(n.styles.phase, fmt.Sprintf("\n[%d/%d] %s", i, total, title)))
}

// Success prints a completed action.
func (n *Narrator) Success(format string, args ...any) {
	n.println(n.render(n.styles.success, "✅ "+fmt.Sprintf(format, args...)))
}

// Warn prints a non-fatal problem.
func (n *Narrator) Warn(format string, args ...any) {
	n.println(n.render(n.styles.warn, "⚠️  "+fmt.Sprintf(format, args...)))
}

// Fail prints a fatal problem.
func (n *Narrator) Fail(format string, args ...any) {
	n.println(n.render(n.styles.fail, "❌ "+fmt.Sprintf(format, args...)))
}

// Info prints an indented detail line.
func (n *Narrator) Info(format string, args ...any) {
	n.println(n.render(n.styles.detail, "   "+fmt.Sprintf(format, args...)))
}

// Banner prints a title between rules.
func (n *Narrator) Banner(title string) {
	rule := strings.Repeat("━", 60)
	n.println(rule)
	n.println(n.render(n.styles.header, title))
	n.println(rule)
}

// Table prints rows under headers.
func (n *Narrator) Table(headers []string, rows [][]string) {
	cols := make([]any, len(headers))
	for i, h := range headers {
		cols[i] = h
	}

	tbl := table.New(cols...).WithWriter(n.out)
	if n.styles.enabled {
		tbl.WithHeaderFormatter(func(format string, vals ...any) string {
			return n.styles.header.Render(fmt.Sprintf(format, vals...))
		})
	}

	for _, row := range rows {
		vals := make([]any, len(row))
		for i, v := range row {
			vals[i] = v
		}
		tbl.AddRow(vals...)
	}
	tbl.Print()
}
