// Package protocol defines the contracts of the collaborators the automation
// engine drives. Their implementations live outside the engine.
package protocol

import (
	"context"

	"github.com/dukex/automaton/pkg/models"
)

// EmailMessage is a rendered email ready for delivery.
type EmailMessage struct {
	AccountID      string              `json:"account_id"`
	EmailAccountID string              `json:"email_account_id"`
	To             string              `json:"to"`
	Subject        string              `json:"subject"`
	HTML           string              `json:"html"`
	Attachments    []models.Attachment `json:"attachments,omitempty"`
}

// EmailDispatcher delivers emails on behalf of an account.
type EmailDispatcher interface {
	Send(ctx context.Context, message EmailMessage) (messageID string, err error)
}
