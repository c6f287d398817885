// Package tui provides the full-screen terminal surface for a scripted
// conversation.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kinodev/chatfolio/conversation"
)

// Panel is a composable TUI region with its own state, update logic, and view.
// The root App model orchestrates panels without knowing their internals.
type Panel interface {
	Update(tea.Msg) (Panel, tea.Cmd)
	View() string
	SetSize(width, height int)
}

// Controller is the conversation the App drives. Calls may block briefly
// and are always made from a tea.Cmd, never from Update.
type Controller interface {
	Submit() bool
	Edit(text string) bool
	React(key string) bool
}

// LogLineMsg carries a single log line from the logger writer.
type LogLineMsg struct{ Line string }

// EventMsg carries one orchestrator event into the program.
type EventMsg struct{ Event conversation.Event }

type (
	reactMsg struct{ Key string }

	// actionResultMsg reports whether the controller accepted an action.
	actionResultMsg struct {
		Action string
		OK     bool
	}
)
