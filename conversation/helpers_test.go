package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/kinodev/chatfolio/reveal"
	"github.com/kinodev/chatfolio/script"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

type harness struct {
	o      *Orchestrator
	clock  *clockwork.FakeClock
	rec    *recorder
	cancel context.CancelFunc
	errc   chan error
}

// startHarness runs the default script on a fake clock. animated selects the
// typewriter effect instead of the instant one.
func startHarness(t *testing.T, animated bool) *harness {
	t.Helper()
	clock := clockwork.NewFakeClock()
	var effect reveal.Effect = reveal.Instant{}
	if animated {
		effect = reveal.NewTypewriter(clock)
	}
	rec := &recorder{}
	o := New(script.Default(), WithClock(clock), WithEffect(effect), WithSink(rec))

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{o: o, clock: clock, rec: rec, cancel: cancel, errc: make(chan error, 1)}
	go func() { h.errc <- o.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-o.Done()
	})
	require.Eventually(t, o.running.Load, time.Second, time.Millisecond)
	return h
}

// advanceUntil fires pending timers one at a time until cond holds.
func (h *harness) advanceUntil(t *testing.T, cond func(State) bool) State {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s := h.o.Snapshot(); cond(s) {
			return s
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		err := h.clock.BlockUntilContext(ctx, 1)
		cancel()
		if err == nil {
			h.clock.Advance(time.Minute)
		}
	}
	t.Fatalf("condition not reached; state = %+v", h.o.Snapshot().Status)
	return State{}
}

func (h *harness) untilUserTurn(t *testing.T, stage int) State {
	t.Helper()
	return h.advanceUntil(t, func(s State) bool {
		return s.Phase == PhaseUserTurn && s.StageCursor == stage
	})
}

func (h *harness) untilFinished(t *testing.T) State {
	t.Helper()
	return h.advanceUntil(t, func(s State) bool { return s.ScriptComplete })
}

func assistantMessages(history []Message) []Message {
	var out []Message
	for _, m := range history {
		if m.Speaker == SpeakerAssistant {
			out = append(out, m)
		}
	}
	return out
}
