package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	quoteStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("14"))
)

// printer styles output only when it goes to a terminal.
type printer struct {
	w      io.Writer
	styled bool
}

func newPrinter(w io.Writer) *printer {
	f, ok := w.(*os.File)
	return &printer{w: w, styled: ok && term.IsTerminal(int(f.Fd()))}
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func (p *printer) title(s string) string { return p.render(titleStyle, s) }
func (p *printer) label(s string) string { return p.render(labelStyle, s) }
func (p *printer) dim(s string) string   { return p.render(dimStyle, s) }
func (p *printer) err(s string) string   { return p.render(errorStyle, s) }
func (p *printer) quote(s string) string { return p.render(quoteStyle, s) }
