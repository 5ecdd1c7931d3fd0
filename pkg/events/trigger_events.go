package events

import (
	"errors"

	"github.com/dukex/automaton/pkg/models"
)

// TriggerReceived is published when a store or inbox integration reports a domain event.
type TriggerReceived struct {
	BaseEvent

	TriggerType models.TriggerType `json:"trigger_type"`
	Data        map[string]any     `json:"data"`
}

func (t TriggerReceived) GetType() EventType {
	return TriggerReceivedEvent
}

// NewTriggerReceived creates a trigger event for an account.
func NewTriggerReceived(accountID string, triggerType models.TriggerType, data map[string]any) *TriggerReceived {
	return &TriggerReceived{
		BaseEvent:   NewBaseEvent(TriggerReceivedEvent, accountID),
		TriggerType: triggerType,
		Data:        data,
	}
}

// Validate validates the trigger event.
func (t *TriggerReceived) Validate() error {
	if t.AccountID == "" {
		return errors.New("account_id is required")
	}

	if t.TriggerType == "" {
		return errors.New("trigger_type is required")
	}

	return nil
}
