package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kinodev/chatfolio/script"
)

const pickerColumns = 4

// ReactionPicker is the emoji grid offered once the script has finished.
type ReactionPicker struct {
	reactions []script.Reaction
	cursor    int
	keys      keyMap
	width     int
}

func NewReactionPicker(reactions []script.Reaction) *ReactionPicker {
	return &ReactionPicker{reactions: reactions, keys: defaultKeyMap()}
}

func (p *ReactionPicker) Update(msg tea.Msg) (Panel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || len(p.reactions) == 0 {
		return p, nil
	}
	n := len(p.reactions)
	switch {
	case key.Matches(km, p.keys.React):
		r, _ := p.Selected()
		return p, func() tea.Msg { return reactMsg{Key: r.Key} }
	case key.Matches(km, p.keys.Left):
		p.cursor = (p.cursor - 1 + n) % n
	case key.Matches(km, p.keys.Right):
		p.cursor = (p.cursor + 1) % n
	case km.String() == "up":
		p.cursor = max(p.cursor-pickerColumns, 0)
	case km.String() == "down":
		p.cursor = min(p.cursor+pickerColumns, n-1)
	default:
		// 1-9 picks directly.
		if i, err := strconv.Atoi(km.String()); err == nil && i >= 1 && i <= n {
			p.cursor = i - 1
			r, _ := p.Selected()
			return p, func() tea.Msg { return reactMsg{Key: r.Key} }
		}
	}
	return p, nil
}

// Selected returns the reaction under the cursor.
func (p *ReactionPicker) Selected() (script.Reaction, bool) {
	if len(p.reactions) == 0 {
		return script.Reaction{}, false
	}
	return p.reactions[p.cursor], true
}

// Rows is the number of lines View renders.
func (p *ReactionPicker) Rows() int {
	return (len(p.reactions)+pickerColumns-1)/pickerColumns + 1
}

func (p *ReactionPicker) View() string {
	if len(p.reactions) == 0 {
		return dimStyle.Render("Thanks for stopping by!")
	}
	var rows []string
	for start := 0; start < len(p.reactions); start += pickerColumns {
		end := min(start+pickerColumns, len(p.reactions))
		cells := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			r := p.reactions[i]
			style := pickerItemStyle
			if i == p.cursor {
				style = pickerSelectedStyle
			}
			cells = append(cells, style.Render(r.Emoji+" "+r.Label))
		}
		rows = append(rows, strings.Join(cells, " "))
	}
	rows = append(rows, dimStyle.Render("Send a reaction"))
	return lipgloss.NewStyle().MaxWidth(max(p.width, 1)).Render(strings.Join(rows, "\n"))
}

func (p *ReactionPicker) SetSize(width, _ int) { p.width = width }
