package protocol

import "context"

// ConversationStore exposes the inbox operations automations can perform.
// Every operation is addressed by the conversation id found in the enrollment context.
type ConversationStore interface {
	Assign(ctx context.Context, accountID, conversationID, userID string) error
	AddTag(ctx context.Context, accountID, conversationID, tag string) error
	Close(ctx context.Context, accountID, conversationID string) error
	AddNote(ctx context.Context, accountID, conversationID, content string) error
	SendCannedResponse(ctx context.Context, accountID, conversationID, cannedResponseID string) error
}
