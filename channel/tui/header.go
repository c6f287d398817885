package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kinodev/chatfolio/script"
)

// Header shows the avatar initial, the name and the status line.
type Header struct {
	profile script.Profile
	width   int
}

func NewHeader(p script.Profile) *Header {
	return &Header{profile: p}
}

func (h *Header) SetSize(width, _ int) { h.width = width }

func (h *Header) View() string {
	status := h.profile.Status
	if status == "" {
		status = "Online"
	}
	row := lipgloss.JoinHorizontal(lipgloss.Center,
		avatarStyle.Render(h.profile.InitialOrDefault()),
		" ",
		nameStyle.Render(h.profile.Name),
		"  ",
		onlineStyle.Render("● "+status),
	)
	return lipgloss.NewStyle().MaxWidth(max(h.width, 1)).Render(row)
}
