package conversation

import (
	"time"

	"github.com/kinodev/chatfolio/reveal"
)

// Pacing holds every scripted delay.
type Pacing struct {
	// Startup is the pause before the first prompt is revealed.
	Startup time.Duration
	// Reply is the pause between the visitor's send and the first line.
	Reply time.Duration
	// Thinking is how long the typing indicator shows before a line.
	Thinking time.Duration
	// Between separates consecutive assistant lines.
	Between time.Duration
	// FooterSettle replaces the typing cycle for the footer marker.
	FooterSettle time.Duration
	// StageBuffer is the pause after a stage before the next prompt.
	StageBuffer time.Duration
	// RevealSpeed is the per-character delay of the input reveal.
	RevealSpeed time.Duration
	// SkipLineDelays ignores the per-line delays written in the script.
	SkipLineDelays bool
}

// DefaultPacing returns the stock timings.
func DefaultPacing() Pacing {
	return Pacing{
		Startup:      time.Second,
		Reply:        500 * time.Millisecond,
		Thinking:     800 * time.Millisecond,
		Between:      500 * time.Millisecond,
		FooterSettle: time.Second,
		StageBuffer:  time.Second,
		RevealSpeed:  reveal.DefaultSpeed,
	}
}

// InstantPacing returns pacing with every delay removed, for headless playback.
func InstantPacing() Pacing {
	return Pacing{RevealSpeed: time.Millisecond, SkipLineDelays: true}
}
