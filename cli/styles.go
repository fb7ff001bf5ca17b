package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	labelStyle   = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD787"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB454"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
	kindStyleMap = map[string]lipgloss.Style{
		"text":        okStyle,
		"image":       okStyle,
		"audio":       okStyle,
		"pdf":         okStyle,
		"unsupported": errorStyle,
	}
)

func renderKind(kind string) string {
	style, ok := kindStyleMap[kind]
	if !ok {
		style = labelStyle
	}
	return style.Render(kind)
}

// isTerminalWriter reports whether w is an interactive terminal that
// accepts color. NO_COLOR disables color regardless.
func isTerminalWriter(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
