package reveal

import (
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rivo/uniseg"
)

// Typewriter reveals text one grapheme cluster per tick, so emoji and
// combining sequences never appear half drawn.
type Typewriter struct {
	clock clockwork.Clock
}

// NewTypewriter creates a typewriter effect driven by clock. A nil clock uses
// the real one.
func NewTypewriter(clock clockwork.Clock) *Typewriter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Typewriter{clock: clock}
}

func (t *Typewriter) Create(target Target, opts Options) Handle {
	if opts.Speed <= 0 {
		opts.Speed = DefaultSpeed
	}
	return &typewriterHandle{
		clock:    t.clock,
		target:   target,
		opts:     opts,
		clusters: graphemes(opts.Text),
		stop:     make(chan struct{}),
	}
}

type handleState int

const (
	stateIdle handleState = iota
	stateRunning
	stateDone
	stateDestroyed
)

type typewriterHandle struct {
	clock    clockwork.Clock
	target   Target
	opts     Options
	clusters []string
	stop     chan struct{}

	mu    sync.Mutex
	state handleState
}

func (h *typewriterHandle) Start() {
	h.mu.Lock()
	if h.state != stateIdle {
		h.mu.Unlock()
		return
	}
	h.state = stateRunning
	h.mu.Unlock()

	go h.run()
}

func (h *typewriterHandle) run() {
	ticker := h.clock.NewTicker(h.opts.Speed)
	defer ticker.Stop()

	var b strings.Builder
	for _, c := range h.clusters {
		select {
		case <-h.stop:
			return
		case <-ticker.Chan():
		}

		b.WriteString(c)
		h.mu.Lock()
		if h.state != stateRunning {
			h.mu.Unlock()
			return
		}
		h.target.SetText(b.String())
		h.mu.Unlock()
	}

	h.mu.Lock()
	if h.state != stateRunning {
		h.mu.Unlock()
		return
	}
	h.state = stateDone
	h.mu.Unlock()

	if h.opts.OnComplete != nil {
		h.opts.OnComplete()
	}
}

func (h *typewriterHandle) Destroy() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case stateDone, stateDestroyed:
		return ErrHandleClosed
	case stateRunning:
		close(h.stop)
	}
	h.state = stateDestroyed
	return nil
}

func graphemes(s string) []string {
	var out []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}
