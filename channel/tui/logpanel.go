package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const defaultMaxLogLines = 1000

// LogPanel displays log output in a scrollable viewport.
type LogPanel struct {
	viewport viewport.Model
	lines    []string
	maxLines int
}

// NewLogPanel creates a log panel.
func NewLogPanel() *LogPanel {
	vp := viewport.New(0, 0)
	vp.SetContent("")
	return &LogPanel{
		viewport: vp,
		maxLines: defaultMaxLogLines,
	}
}

func (p *LogPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case LogLineMsg:
		p.lines = append(p.lines, styleLogLine(strings.TrimRight(msg.Line, "\n")))
		if len(p.lines) > p.maxLines {
			p.lines = p.lines[len(p.lines)-p.maxLines:]
		}
		p.viewport.SetContent(strings.Join(p.lines, "\n"))
		p.viewport.GotoBottom()
		return p, nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

// styleLogLine dims routine lines and highlights warnings and errors.
func styleLogLine(line string) string {
	switch {
	case strings.Contains(line, " ERRO "):
		return logErrorStyle.Render(line)
	case strings.Contains(line, " WARN "):
		return logWarnStyle.Render(line)
	default:
		return logLineStyle.Render(line)
	}
}

func (p *LogPanel) View() string {
	return p.viewport.View()
}

func (p *LogPanel) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = height
	p.viewport.GotoBottom()
}
