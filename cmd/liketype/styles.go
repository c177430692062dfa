package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

const (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	subtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle  = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorError)
)

// painter applies styles only when writing to a terminal.
type painter struct {
	color bool
}

func newPainter(w io.Writer) painter {
	f, ok := w.(*os.File)
	if !ok {
		return painter{}
	}
	fd := f.Fd()
	return painter{color: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)}
}

func (p painter) render(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p painter) verdict(ok bool) string {
	if ok {
		return p.render(successStyle, "true")
	}
	return p.render(errorStyle, "false")
}
