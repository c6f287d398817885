package tui

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kinodev/chatfolio/conversation"
)

// InputPanel mirrors the conversation's input widget. Keys are only
// accepted while the visitor may send; the App forwards the resulting edits.
type InputPanel struct {
	input         textinput.Model
	view          conversation.InputView
	width, height int
}

// NewInputPanel creates an input panel with the given prompt.
func NewInputPanel(prompt string) *InputPanel {
	ti := textinput.New()
	ti.Prompt = inputPromptStyle.Render(prompt)
	ti.Placeholder = "…"
	ti.PlaceholderStyle = inputPlaceholderStyle
	// Static cursor; the reveal animates the text.
	ti.Cursor.SetMode(cursor.CursorStatic)
	return &InputPanel{input: ti}
}

func (p *InputPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		if msg.Event.Type == conversation.EventInput && msg.Event.Input != nil {
			return p, p.setView(*msg.Event.Input)
		}
		return p, nil

	case tea.KeyMsg:
		if !p.view.Sendable {
			return p, nil
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// setView applies the widget state. While the visitor's turn lasts the
// typed text wins: echoes of earlier keystrokes may still be in flight.
func (p *InputPanel) setView(v conversation.InputView) tea.Cmd {
	keepLocal := p.view.Sendable && v.Sendable
	p.view = v
	if !keepLocal && v.Text != p.input.Value() {
		p.input.SetValue(v.Text)
		p.input.CursorEnd()
	}
	if v.Sendable {
		return p.input.Focus()
	}
	p.input.Blur()
	return nil
}

// Sendable reports whether Enter would send.
func (p *InputPanel) Sendable() bool { return p.view.Sendable }

// Value returns the text currently shown.
func (p *InputPanel) Value() string { return p.input.Value() }

func (p *InputPanel) View() string {
	return p.input.View()
}

func (p *InputPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = max(width-lipgloss.Width(p.input.Prompt)-1, 1)
}
