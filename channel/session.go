package channel

import (
	"context"
	"errors"

	"github.com/kinodev/chatfolio/bus"
	"github.com/kinodev/chatfolio/conversation"
	"github.com/kinodev/chatfolio/logger"
	"github.com/kinodev/chatfolio/script"
)

// BusSink publishes orchestrator events on a bus, tagged with the session.
type BusSink struct {
	Bus     *bus.Bus
	Session string
}

func (s BusSink) Emit(ev conversation.Event) {
	s.Bus.Publish(bus.ConversationEvent(s.Session, ev))
}

// Session is one conversation whose events go out on a bus.
type Session struct {
	ID           string
	Orchestrator *conversation.Orchestrator

	bus    *bus.Bus
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession prepares an orchestrator for sc that publishes as id.
func NewSession(b *bus.Bus, id string, sc *script.Script, opts ...conversation.Option) *Session {
	opts = append(opts, conversation.WithSink(BusSink{Bus: b, Session: id}))
	return &Session{
		ID:           id,
		Orchestrator: conversation.New(sc, opts...),
		bus:          b,
		done:         make(chan struct{}),
	}
}

// Start runs the conversation until ctx is cancelled or Stop is called.
// session.started and session.ended bracket its events.
func (s *Session) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.bus.Publish(bus.NewEvent(bus.EventSessionStarted, s.ID))
	go func() {
		defer close(s.done)
		err := s.Orchestrator.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("conversation ended with error", "session", s.ID, "err", err)
		}
		s.bus.Publish(bus.NewEvent(bus.EventSessionEnded, s.ID))
	}()
}

// Stop cancels the conversation and waits for it to wind down. Stopping a
// session that never started is a no-op.
func (s *Session) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

// Done is closed once the conversation has stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Finished reports whether the script has played to the end.
func (s *Session) Finished() bool {
	return s.Orchestrator.Snapshot().ScriptComplete
}
