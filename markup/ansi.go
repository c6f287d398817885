package markup

import "github.com/charmbracelet/lipgloss"

var (
	boldStyle   = lipgloss.NewStyle().Bold(true)
	italicStyle = lipgloss.NewStyle().Italic(true)
	strikeStyle = lipgloss.NewStyle().Strikethrough(true)
	codeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	linkStyle   = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("4"))
)

// ANSI renders source for the terminal. Link targets are appended in
// parentheses when they differ from the label.
func ANSI(source string) string {
	return render(source, ansiStyle{})
}

type ansiStyle struct{}

func (ansiStyle) text(s string) string   { return s }
func (ansiStyle) bold(s string) string   { return boldStyle.Render(s) }
func (ansiStyle) italic(s string) string { return italicStyle.Render(s) }
func (ansiStyle) strike(s string) string { return strikeStyle.Render(s) }
func (ansiStyle) code(s string) string   { return codeStyle.Render(s) }

func (ansiStyle) link(label, url string) string {
	if label == url {
		return linkStyle.Render(label)
	}
	return linkStyle.Render(label) + " (" + url + ")"
}
