// Package events defines the events exchanged between the automation engine,
// its inbound API and the outbound delivery services.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every automaton event; consumers filter on the event_type metadata.
const Topic = "automaton.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Inbound domain events that may start enrollments.
	TriggerReceivedEvent EventType = "automation.trigger.received"

	// Enrollment lifecycle events.
	EnrollmentStartedEvent   EventType = "enrollment.started"
	EnrollmentCompletedEvent EventType = "enrollment.completed"

	// Delivery requests consumed by the email, sms and inbox services.
	EmailRequestedEvent      EventType = "email.requested"
	SMSRequestedEvent        EventType = "sms.requested"
	ConversationCommandEvent EventType = "conversation.command"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	AccountID string         `json:"account_id"`
	WorkerID  string         `json:"worker_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, accountID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		AccountID: accountID,
		Metadata:  make(map[string]any),
	}
}

// New returns an empty event value for eventType, ready to be unmarshaled into.
func New(eventType EventType) (any, bool) {
	switch eventType {
	case TriggerReceivedEvent:
		return &TriggerReceived{}, true
	case EnrollmentStartedEvent:
		return &EnrollmentStarted{}, true
	case EnrollmentCompletedEvent:
		return &EnrollmentCompleted{}, true
	case EmailRequestedEvent:
		return &EmailRequested{}, true
	case SMSRequestedEvent:
		return &SMSRequested{}, true
	case ConversationCommandEvent:
		return &ConversationCommand{}, true
	default:
		return nil, false
	}
}
