package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/kinodev/chatfolio/logger"
)

const defaultBufferSize = 256

// Handler is a function that handles events. Handlers run on the bus
// goroutine and must not publish back into the same bus.
type Handler func(ctx context.Context, event *Event)

// Subscription represents a subscription to events.
type Subscription struct {
	ID        string
	EventType EventType
	Handler   Handler
}

// Bus delivers events in publish order. Every handler sees events one at a
// time, and handlers for one event run in subscription order.
type Bus struct {
	mu            sync.RWMutex
	subscriptions []*Subscription
	subCounter    int64

	eventChan chan *Event
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewBus creates a new event bus.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	b := &Bus{
		eventChan: make(chan *Event, bufferSize),
		done:      make(chan struct{}),
	}

	b.wg.Add(1)
	go b.processEvents()

	return b
}

// Subscribe registers a handler for a specific event type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subCounter++
	id := fmt.Sprintf("sub-%d", b.subCounter)

	b.subscriptions = append(b.subscriptions, &Subscription{
		ID:        id,
		EventType: eventType,
		Handler:   handler,
	})

	logger.Debug("subscription added", "id", id, "eventType", eventType)
	return id
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscriptions {
		if sub.ID == id {
			b.subscriptions = append(b.subscriptions[:i:i], b.subscriptions[i+1:]...)
			logger.Debug("subscription removed", "id", id)
			return
		}
	}
}

// Publish queues an event. It waits for buffer room rather than dropping,
// since surfaces rebuild their view from the event stream. Events published
// after Close are dropped.
func (b *Bus) Publish(event *Event) {
	select {
	case <-b.done:
		logger.Warn("bus closed, event dropped", "type", event.Type, "source", event.Source)
		return
	default:
	}

	select {
	case b.eventChan <- event:
	case <-b.done:
		logger.Warn("bus closed, event dropped", "type", event.Type, "source", event.Source)
	}
}

// Close shuts down the event bus after delivering what is already queued.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
		b.wg.Wait()
	})
}

// processEvents is the main event processing loop.
func (b *Bus) processEvents() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			b.dispatch(event)
		case <-b.done:
			// Drain remaining events
			for {
				select {
				case event := <-b.eventChan:
					b.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

// dispatch sends an event to all matching subscribers.
func (b *Bus) dispatch(event *Event) {
	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		if sub.EventType == event.Type {
			subs = append(subs, sub)
		}
	}
	b.mu.RUnlock()

	ctx := context.Background()
	for _, sub := range subs {
		b.call(ctx, sub, event)
	}
}

func (b *Bus) call(ctx context.Context, s *Subscription, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panic", "subscription", s.ID, "panic", r)
		}
	}()
	s.Handler(ctx, event)
}
