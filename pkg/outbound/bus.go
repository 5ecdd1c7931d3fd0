// Package outbound adapts the engine's collaborator contracts to the services
// that perform delivery: email, sms and inbox commands are published on the
// event bus, invoices are rendered over HTTP.
package outbound

import (
	"context"
	"fmt"

	"github.com/dukex/automaton/pkg/eventbus"
	"github.com/dukex/automaton/pkg/events"
	"github.com/dukex/automaton/pkg/protocol"
)

// EmailPublisher implements protocol.EmailDispatcher by publishing email.requested.
type EmailPublisher struct {
	publisher eventbus.EventPublisher
	newID     func() string
}

// NewEmailPublisher creates an email dispatcher on bus.
func NewEmailPublisher(bus eventbus.EventBus) *EmailPublisher {
	return &EmailPublisher{publisher: bus, newID: bus.GenerateID}
}

// Send publishes the message and returns the id the email service will deliver it under.
func (p *EmailPublisher) Send(ctx context.Context, message protocol.EmailMessage) (string, error) {
	event := &events.EmailRequested{
		BaseEvent:      events.NewBaseEvent(events.EmailRequestedEvent, message.AccountID),
		MessageID:      "email-" + p.newID(),
		EmailAccountID: message.EmailAccountID,
		To:             message.To,
		Subject:        message.Subject,
		HTML:           message.HTML,
		Attachments:    message.Attachments,
	}

	err := p.publisher.Publish(ctx, message.AccountID, event)
	if err != nil {
		return "", fmt.Errorf("failed to request email: %w", err)
	}

	return event.MessageID, nil
}

// SMSPublisher implements protocol.SMSSender by publishing sms.requested.
type SMSPublisher struct {
	publisher eventbus.EventPublisher
	newID     func() string
}

// NewSMSPublisher creates an sms sender on bus.
func NewSMSPublisher(bus eventbus.EventBus) *SMSPublisher {
	return &SMSPublisher{publisher: bus, newID: bus.GenerateID}
}

func (p *SMSPublisher) Send(ctx context.Context, accountID, to, body string) (string, error) {
	event := &events.SMSRequested{
		BaseEvent: events.NewBaseEvent(events.SMSRequestedEvent, accountID),
		MessageID: "sms-" + p.newID(),
		To:        to,
		Body:      body,
	}

	err := p.publisher.Publish(ctx, accountID, event)
	if err != nil {
		return "", fmt.Errorf("failed to request sms: %w", err)
	}

	return event.MessageID, nil
}

// ConversationPublisher implements protocol.ConversationStore by publishing
// conversation.command events keyed by conversation, so one conversation's
// commands stay ordered on a partitioned bus.
type ConversationPublisher struct {
	publisher eventbus.EventPublisher
}

func NewConversationPublisher(publisher eventbus.EventPublisher) *ConversationPublisher {
	return &ConversationPublisher{publisher: publisher}
}

func (p *ConversationPublisher) Assign(ctx context.Context, accountID, conversationID, userID string) error {
	return p.command(ctx, accountID, conversationID, events.ConversationAssign, userID)
}

func (p *ConversationPublisher) AddTag(ctx context.Context, accountID, conversationID, tag string) error {
	return p.command(ctx, accountID, conversationID, events.ConversationAddTag, tag)
}

func (p *ConversationPublisher) Close(ctx context.Context, accountID, conversationID string) error {
	return p.command(ctx, accountID, conversationID, events.ConversationClose, "")
}

func (p *ConversationPublisher) AddNote(ctx context.Context, accountID, conversationID, content string) error {
	return p.command(ctx, accountID, conversationID, events.ConversationAddNote, content)
}

func (p *ConversationPublisher) SendCannedResponse(ctx context.Context, accountID, conversationID, cannedResponseID string) error {
	return p.command(ctx, accountID, conversationID, events.ConversationSendCannedResponse, cannedResponseID)
}

func (p *ConversationPublisher) command(
	ctx context.Context,
	accountID, conversationID string,
	operation events.ConversationOperation,
	argument string,
) error {
	event := &events.ConversationCommand{
		BaseEvent:      events.NewBaseEvent(events.ConversationCommandEvent, accountID),
		ConversationID: conversationID,
		Operation:      operation,
		Argument:       argument,
	}

	err := p.publisher.Publish(ctx, conversationID, event)
	if err != nil {
		return fmt.Errorf("failed to publish %s command: %w", operation, err)
	}

	return nil
}
