package events

import "github.com/dukex/automaton/pkg/models"

// EmailRequested asks the email service to deliver a rendered message.
// MessageID is assigned by the publisher so callers can track delivery.
type EmailRequested struct {
	BaseEvent

	MessageID      string              `json:"message_id"`
	EmailAccountID string              `json:"email_account_id"`
	To             string              `json:"to"`
	Subject        string              `json:"subject"`
	HTML           string              `json:"html"`
	Attachments    []models.Attachment `json:"attachments,omitempty"`
}

func (e EmailRequested) GetType() EventType {
	return EmailRequestedEvent
}

type SMSRequested struct {
	BaseEvent

	MessageID string `json:"message_id"`
	To        string `json:"to"`
	Body      string `json:"body"`
}

func (e SMSRequested) GetType() EventType {
	return SMSRequestedEvent
}

// ConversationOperation names an inbox mutation.
type ConversationOperation string

const (
	ConversationAssign             ConversationOperation = "assign"
	ConversationAddTag             ConversationOperation = "add_tag"
	ConversationClose              ConversationOperation = "close"
	ConversationAddNote            ConversationOperation = "add_note"
	ConversationSendCannedResponse ConversationOperation = "send_canned_response"
)

// ConversationCommand asks the inbox service to mutate a conversation.
// Argument holds the user id, tag, note content or canned response id.
type ConversationCommand struct {
	BaseEvent

	ConversationID string                `json:"conversation_id"`
	Operation      ConversationOperation `json:"operation"`
	Argument       string                `json:"argument,omitempty"`
}

func (c ConversationCommand) GetType() EventType {
	return ConversationCommandEvent
}
