// Package bus carries conversation events from running orchestrators to the
// surfaces and observers that render or record them.
package bus

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kinodev/chatfolio/conversation"
)

// EventType represents the type of event.
type EventType string

const (
	// EventConversation wraps one orchestrator event.
	EventConversation EventType = "conversation"

	// Session lifecycle, published by the surface hosting the orchestrator.
	EventSessionStarted EventType = "session.started"
	EventSessionEnded   EventType = "session.ended"
)

// Event represents a bus event. Source is the session the event belongs to.
type Event struct {
	ID           string              `json:"id"`
	Type         EventType           `json:"type"`
	Source       string              `json:"source"`
	Timestamp    time.Time           `json:"timestamp"`
	Conversation *conversation.Event `json:"conversation,omitempty"`
}

// NewEvent creates a new event.
func NewEvent(eventType EventType, source string) *Event {
	return &Event{
		ID:        generateEventID(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now(),
	}
}

// ConversationEvent wraps an orchestrator event for source.
func ConversationEvent(source string, ev conversation.Event) *Event {
	e := NewEvent(EventConversation, source)
	e.Conversation = &ev
	return e
}

var eventCounter atomic.Int64

func generateEventID() string {
	n := eventCounter.Add(1)
	return fmt.Sprintf("evt-%d-%d", time.Now().UnixMilli(), n)
}
