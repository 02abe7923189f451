package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeUserCreated  EventType = "user_created"
	EventTypeScoreChanged EventType = "score_changed"
	EventTypeBadgeAwarded EventType = "badge_awarded"
)

// AllEventTypes lists every event type the services publish
var AllEventTypes = []EventType{
	EventTypeUserCreated,
	EventTypeScoreChanged,
	EventTypeBadgeAwarded,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// UserCreatedEvent represents a new user creation
type UserCreatedEvent struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// ScoreChangedEvent represents a committed score change
type ScoreChangedEvent struct {
	UserID   int64  `json:"userId"`
	OldScore int64  `json:"oldScore"`
	NewScore int64  `json:"newScore"`
	Delta    int64  `json:"delta"`
	Category string `json:"category,omitempty"`
	Source   string `json:"source"` // "score" or "quiz"
}

func (e ScoreChangedEvent) Type() EventType {
	return EventTypeScoreChanged
}

// BadgeAwardedEvent represents a badge newly added to a user
type BadgeAwardedEvent struct {
	UserID int64  `json:"userId"`
	Badge  string `json:"badge"`
}

func (e BadgeAwardedEvent) Type() EventType {
	return EventTypeBadgeAwarded
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	inflight sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers.
// Handlers run asynchronously; use Wait to drain them.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for i, handler := range handlers {
		b.inflight.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started by Emit has returned
func (b *Bus) Wait() {
	b.inflight.Wait()
}

// TransactionalBus holds events published inside a unit of work and
// forwards them to the real bus only once the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Flush is called after a successful commit
func (b *TransactionalBus) Flush() {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events to main event bus")

	// Handlers outlive the request, so they must not inherit its context
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of buffered events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
