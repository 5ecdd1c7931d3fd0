// Package web provides the HTTP surface of the automation engine: inbound
// trigger events, enrollment inspection and automation authoring.
package web

import (
	"time"

	"github.com/dukex/automaton/pkg/models"
)

// TriggerRequest identifies a domain event posted to the trigger endpoint.
// The request body is the raw event payload.
type TriggerRequest struct {
	AccountID   string `validate:"required"`
	TriggerType string `validate:"required,oneof=ORDER_CREATED ORDER_COMPLETED ABANDONED_CART CUSTOMER_CREATED REVIEW_LEFT CONVERSATION_CREATED CONVERSATION_CLOSED"`
}

// TriggerAccepted is returned once a trigger event has been queued.
type TriggerAccepted struct {
	EventID     string             `json:"event_id"`
	AccountID   string             `json:"account_id"`
	TriggerType models.TriggerType `json:"trigger_type"`
}

// SaveAutomationRequest is the body of an automation upsert.
type SaveAutomationRequest struct {
	Name           string                `json:"name"           validate:"required,min=1"`
	TriggerType    models.TriggerType    `json:"triggerType"    validate:"required"`
	TriggerConfig  models.TriggerConfig  `json:"triggerConfig"`
	FlowDefinition models.FlowDefinition `json:"flowDefinition"`
	IsActive       bool                  `json:"isActive"`
}

// EnrollmentResponse is the public view of an enrollment.
type EnrollmentResponse struct {
	ID            string                  `json:"id"`
	AutomationID  string                  `json:"automation_id"`
	AccountID     string                  `json:"account_id"`
	Email         string                  `json:"email"`
	Status        models.EnrollmentStatus `json:"status"`
	CurrentNodeID *string                 `json:"current_node_id"`
	NextRunAt     *time.Time              `json:"next_run_at"`
	Context       map[string]any          `json:"context"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// TransformEnrollmentResponse flattens an enrollment for the API.
func TransformEnrollmentResponse(enrollment *models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:            enrollment.ID,
		AutomationID:  enrollment.AutomationID,
		AccountID:     enrollment.AccountID,
		Email:         enrollment.Email,
		Status:        enrollment.Status,
		CurrentNodeID: enrollment.CurrentNodeID,
		NextRunAt:     enrollment.NextRunAt,
		Context:       enrollment.ContextData.Map(),
		CreatedAt:     enrollment.CreatedAt,
		UpdatedAt:     enrollment.UpdatedAt,
	}
}
