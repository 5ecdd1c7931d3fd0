// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/dukex/automaton/pkg/models"
	"github.com/google/uuid"
)

// NewAutomation creates an active ORDER_CREATED automation with a single
// SEND_EMAIL step. Overrides are applied in order.
func NewAutomation(overrides ...func(*models.Automation)) *models.Automation {
	automation := &models.Automation{
		ID:          uuid.New().String(),
		AccountID:   "acc-1",
		Name:        "Test Automation",
		TriggerType: models.TriggerOrderCreated,
		FlowDefinition: Linear(
			TriggerNode("t1"),
			ActionNode("a1", models.ActionTypeSendEmail, map[string]any{"subject": "Hello"}),
		),
		IsActive: true,
	}

	for _, override := range overrides {
		override(automation)
	}

	return automation
}

// WithID sets the automation ID.
func WithID(id string) func(*models.Automation) {
	return func(a *models.Automation) {
		a.ID = id
	}
}

// WithAccount sets the owning account.
func WithAccount(accountID string) func(*models.Automation) {
	return func(a *models.Automation) {
		a.AccountID = accountID
	}
}

// WithTrigger sets the trigger type and filters.
func WithTrigger(triggerType models.TriggerType, config models.TriggerConfig) func(*models.Automation) {
	return func(a *models.Automation) {
		a.TriggerType = triggerType
		a.TriggerConfig = config
	}
}

// WithFlow replaces the flow definition.
func WithFlow(definition models.FlowDefinition) func(*models.Automation) {
	return func(a *models.Automation) {
		a.FlowDefinition = definition
	}
}

// Inactive marks the automation inactive.
func Inactive() func(*models.Automation) {
	return func(a *models.Automation) {
		a.IsActive = false
	}
}

// Linear chains nodes in the given order.
func Linear(nodes ...*models.FlowNode) models.FlowDefinition {
	edges := make([]*models.FlowEdge, 0, len(nodes))

	for i := 1; i < len(nodes); i++ {
		edges = append(edges, &models.FlowEdge{
			ID:     "e-" + nodes[i-1].ID + "-" + nodes[i].ID,
			Source: nodes[i-1].ID,
			Target: nodes[i].ID,
		})
	}

	return models.FlowDefinition{Nodes: nodes, Edges: edges}
}

func TriggerNode(id string) *models.FlowNode {
	return &models.FlowNode{ID: id, Type: models.NodeTypeTrigger}
}

func DelayNode(id string, value any, unit string) *models.FlowNode {
	return &models.FlowNode{ID: id, Type: models.NodeTypeDelay, Data: map[string]any{"value": value, "unit": unit}}
}

// ActionNode creates an ACTION node; data may be nil.
func ActionNode(id string, actionType models.ActionType, data map[string]any) *models.FlowNode {
	merged := map[string]any{"actionType": string(actionType)}
	for key, value := range data {
		merged[key] = value
	}

	return &models.FlowNode{ID: id, Type: models.NodeTypeAction, Data: merged}
}

// NewEnrollment creates an ACTIVE enrollment of automationID positioned at nodeID.
func NewEnrollment(id, automationID, nodeID string, nextRunAt time.Time) *models.Enrollment {
	return &models.Enrollment{
		ID:            id,
		AutomationID:  automationID,
		AccountID:     "acc-1",
		Email:         "ana@example.com",
		ContextData:   models.ContextData{Email: "ana@example.com", Extra: map[string]any{}},
		Status:        models.EnrollmentStatusActive,
		CurrentNodeID: &nodeID,
		NextRunAt:     &nextRunAt,
		CreatedAt:     nextRunAt,
		UpdatedAt:     nextRunAt,
	}
}
