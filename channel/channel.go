// Package channel hosts scripted conversations on concrete surfaces: the
// terminal (full-screen or plain) and the browser over websocket.
package channel

import (
	"context"

	"github.com/kinodev/chatfolio/logger"
)

// Channel is a surface that runs conversations until stopped.
type Channel interface {
	// Name returns the channel name (e.g., "tui", "plain", "web").
	Name() string

	// Start begins serving. It must not block.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the channel.
	Stop() error
}

// Manager manages multiple channels as a pure registry. Channels start in
// registration order and stop in reverse.
type Manager struct {
	channels []Channel
}

// NewManager creates a new channel manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds a channel to the manager and logs it. Nil is silently ignored.
func (m *Manager) Register(ch Channel) {
	if ch == nil {
		return
	}
	m.channels = append(m.channels, ch)
	logger.Info("channel registered", "channel", ch.Name())
}

// Get returns a channel by name.
func (m *Manager) Get(name string) (Channel, bool) {
	for _, ch := range m.channels {
		if ch.Name() == name {
			return ch, true
		}
	}
	return nil, false
}

// StartAll starts all registered channels. Channels started before a
// failure are stopped again.
func (m *Manager) StartAll(ctx context.Context) error {
	for i, ch := range m.channels {
		if err := ch.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = m.channels[j].Stop()
			}
			return err
		}
	}
	return nil
}

// StopAll stops all registered channels and returns the first error.
func (m *Manager) StopAll() error {
	var first error
	for i := len(m.channels) - 1; i >= 0; i-- {
		if err := m.channels[i].Stop(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Each iterates over all registered channels.
func (m *Manager) Each(fn func(Channel)) {
	for _, ch := range m.channels {
		fn(ch)
	}
}
