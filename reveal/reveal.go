// Package reveal implements the "type it for the visitor" effect: a string is
// written into a target a few characters at a time, then a completion
// callback fires.
package reveal

import (
	"errors"
	"time"
)

// ErrHandleClosed is returned by Destroy on a handle that already finished or
// was already destroyed. Callers are expected to ignore it.
var ErrHandleClosed = errors.New("reveal: handle already closed")

// DefaultSpeed is the delay between revealed characters.
const DefaultSpeed = 50 * time.Millisecond

// Target receives the progressively revealed text.
type Target interface {
	SetText(text string)
}

// TargetFunc adapts a function to Target.
type TargetFunc func(text string)

func (f TargetFunc) SetText(text string) { f(text) }

// Options configures one reveal run.
type Options struct {
	Text       string
	Speed      time.Duration
	OnComplete func()
}

// Handle controls one reveal run.
type Handle interface {
	// Start begins writing into the target. Calling it more than once has no
	// effect.
	Start()
	// Destroy stops the run and releases its resources. OnComplete never fires
	// after Destroy returns nil.
	Destroy() error
}

// Effect creates reveal runs.
type Effect interface {
	Create(target Target, opts Options) Handle
}
