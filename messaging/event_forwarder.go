package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mondesavoir/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const eventSource = "mondesavoir"

// Publisher sends raw bytes to a subject
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Envelope is the wire format of a forwarded domain event
type Envelope struct {
	EventID   string           `json:"eventId"`
	EventType events.EventType `json:"eventType"`
	Timestamp time.Time        `json:"timestamp"`
	Source    string           `json:"source"`
	Payload   events.Event     `json:"payload"`
}

// EventForwarder republishes committed bus events to NATS subjects
type EventForwarder struct {
	publisher     Publisher
	subjectPrefix string
}

// NewEventForwarder creates a forwarder publishing under subjectPrefix
func NewEventForwarder(publisher Publisher, subjectPrefix string) *EventForwarder {
	return &EventForwarder{
		publisher:     publisher,
		subjectPrefix: subjectPrefix,
	}
}

// Register subscribes the forwarder to every domain event type on the bus
func (f *EventForwarder) Register(bus *events.Bus) {
	for _, eventType := range events.AllEventTypes {
		bus.Subscribe(eventType, f.Handle)
	}
}

// Subject returns the NATS subject for an event type
func (f *EventForwarder) Subject(eventType events.EventType) string {
	return fmt.Sprintf("%s.%s", f.subjectPrefix, eventType)
}

// Handle publishes one event. Failures are logged; the transaction that
// produced the event has already committed.
func (f *EventForwarder) Handle(ctx context.Context, event events.Event) {
	data, err := json.Marshal(newEnvelope(event))
	if err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to encode event envelope")
		return
	}

	subject := f.Subject(event.Type())
	if err := f.publisher.Publish(subject, data); err != nil {
		log.WithError(err).WithField("subject", subject).Error("Failed to forward event")
	}
}

func newEnvelope(event events.Event) Envelope {
	return Envelope{
		EventID:   uuid.New().String(),
		EventType: event.Type(),
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Payload:   event,
	}
}
