package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kinodev/chatfolio/conversation"
)

func TestPublishPreservesOrder(t *testing.T) {
	b := NewBus(4)

	var mu sync.Mutex
	var got []int
	b.Subscribe(EventConversation, func(_ context.Context, e *Event) {
		mu.Lock()
		got = append(got, e.Conversation.Status.StageCursor)
		mu.Unlock()
	})

	const n = 200
	for i := 0; i < n; i++ {
		b.Publish(ConversationEvent("s1", conversation.Event{
			Type:   conversation.EventState,
			Status: &conversation.Status{StageCursor: i},
		}))
	}
	b.Close()

	if len(got) != n {
		t.Fatalf("delivered %d events, want %d", len(got), n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("event %d carried %d; delivery out of order", i, v)
		}
	}
}

func TestHandlersRunInSubscriptionOrder(t *testing.T) {
	b := NewBus(0)

	var calls []string
	b.Subscribe(EventSessionStarted, func(context.Context, *Event) { calls = append(calls, "first") })
	b.Subscribe(EventSessionStarted, func(context.Context, *Event) { calls = append(calls, "second") })
	b.Subscribe(EventSessionEnded, func(context.Context, *Event) { calls = append(calls, "other") })

	b.Publish(NewEvent(EventSessionStarted, "s1"))
	b.Close()

	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("calls = %v, want [first second]", calls)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := NewBus(0)
	defer b.Close()

	delivered := make(chan string, 4)
	id := b.Subscribe(EventSessionStarted, func(_ context.Context, e *Event) { delivered <- e.Source })

	b.Publish(NewEvent(EventSessionStarted, "a"))
	waitFor(t, delivered, "a")

	b.Unsubscribe(id)
	b.Unsubscribe("sub-missing")
	b.Publish(NewEvent(EventSessionStarted, "b"))

	// A second subscriber proves the event was dispatched.
	seen := make(chan struct{})
	b.Subscribe(EventSessionEnded, func(context.Context, *Event) { close(seen) })
	b.Publish(NewEvent(EventSessionEnded, "c"))
	select {
	case <-seen:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for session.ended")
	}
	select {
	case src := <-delivered:
		t.Fatalf("unsubscribed handler received %q", src)
	default:
	}
}

func TestHandlerPanicDoesNotStopBus(t *testing.T) {
	b := NewBus(0)
	defer b.Close()

	delivered := make(chan string, 1)
	b.Subscribe(EventSessionStarted, func(context.Context, *Event) { panic("boom") })
	b.Subscribe(EventSessionStarted, func(_ context.Context, e *Event) { delivered <- e.Source })

	b.Publish(NewEvent(EventSessionStarted, "after-panic"))
	waitFor(t, delivered, "after-panic")
}

func TestPublishAfterCloseIsDropped(t *testing.T) {
	b := NewBus(0)
	called := false
	b.Subscribe(EventSessionStarted, func(context.Context, *Event) { called = true })
	b.Close()
	b.Close()

	b.Publish(NewEvent(EventSessionStarted, "late"))
	if called {
		t.Fatal("handler called after Close")
	}
}

func TestConversationEventWrapsPayload(t *testing.T) {
	msg := &conversation.Message{Text: "hi", Speaker: conversation.SpeakerAssistant}
	e := ConversationEvent("s9", conversation.Event{Type: conversation.EventMessage, Message: msg})

	if e.Type != EventConversation || e.Source != "s9" {
		t.Fatalf("event = %+v", e)
	}
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Fatalf("event missing id or timestamp: %+v", e)
	}
	if e.Conversation.Message.Text != "hi" {
		t.Fatalf("payload = %+v", e.Conversation)
	}
}

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for %q", want)
	}
}
