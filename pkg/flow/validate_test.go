package flow_test

import (
	"testing"

	"github.com/dukex/automaton/pkg/flow"
	"github.com/dukex/automaton/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefinition_Valid(t *testing.T) {
	err := flow.ValidateDefinition(branchingFlow())
	require.NoError(t, err)
}

func TestValidateDefinition_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		definition *models.FlowDefinition
		contains   string
	}{
		{
			name: "missing trigger",
			definition: &models.FlowDefinition{
				Nodes: []*models.FlowNode{{ID: "a1", Type: models.NodeTypeAction}},
			},
			contains: "no TRIGGER",
		},
		{
			name: "dangling edge",
			definition: &models.FlowDefinition{
				Nodes: []*models.FlowNode{{ID: "t1", Type: models.NodeTypeTrigger}},
				Edges: []*models.FlowEdge{{ID: "e1", Source: "t1", Target: "gone"}},
			},
			contains: "unknown target gone",
		},
		{
			name: "duplicate ids",
			definition: &models.FlowDefinition{
				Nodes: []*models.FlowNode{
					{ID: "t1", Type: models.NodeTypeTrigger},
					{ID: "t1", Type: models.NodeTypeAction},
				},
			},
			contains: "duplicate node id t1",
		},
		{
			name: "unknown node type",
			definition: &models.FlowDefinition{
				Nodes: []*models.FlowNode{
					{ID: "t1", Type: models.NodeTypeTrigger},
					{ID: "w1", Type: "WEBHOOK"},
				},
			},
			contains: "type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := flow.ValidateDefinition(tt.definition)

			require.Error(t, err)
			require.ErrorIs(t, err, flow.ErrInvalidDefinition)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestValidateAutomation(t *testing.T) {
	automation := &models.Automation{
		ID:             "auto-1",
		AccountID:      "acc-1",
		TriggerType:    models.TriggerOrderCreated,
		FlowDefinition: *branchingFlow(),
		IsActive:       true,
	}

	require.NoError(t, flow.ValidateAutomation(automation))

	automation.AccountID = ""
	err := flow.ValidateAutomation(automation)
	require.ErrorIs(t, err, flow.ErrInvalidDefinition)
	assert.Contains(t, err.Error(), "AccountID")
}
