package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Send       key.Binding
	React      key.Binding
	Left       key.Binding
	Right      key.Binding
	ToggleLogs key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		React: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "react"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "prev"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "tab"),
			key.WithHelp("→", "next"),
		),
		ToggleLogs: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "logs"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
	}
}

func (k keyMap) chatHelp() []key.Binding {
	return []key.Binding{k.Send, k.ScrollUp, k.ToggleLogs, k.Quit}
}

func (k keyMap) pickerHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.React, k.ToggleLogs, k.Quit}
}
