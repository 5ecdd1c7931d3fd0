package flow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/automaton/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidDefinition is returned when an automation or its flow is malformed.
var ErrInvalidDefinition = errors.New("invalid automation definition")

var definitionSchema = map[string]any{
	"type":     "object",
	"required": []any{"nodes", "edges"},
	"properties": map[string]any{
		"nodes": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "type"},
				"properties": map[string]any{
					"id":   map[string]any{"type": "string", "minLength": 1},
					"type": map[string]any{"enum": []any{"TRIGGER", "ACTION", "CONDITION", "DELAY"}},
					"data": map[string]any{"type": []any{"object", "null"}},
				},
			},
		},
		"edges": map[string]any{
			"type": []any{"array", "null"},
			"items": map[string]any{
				"type":     "object",
				"required": []any{"source", "target"},
				"properties": map[string]any{
					"id":           map[string]any{"type": "string"},
					"source":       map[string]any{"type": "string", "minLength": 1},
					"target":       map[string]any{"type": "string", "minLength": 1},
					"sourceHandle": map[string]any{"type": "string"},
				},
			},
		},
	},
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateAutomation checks an authored automation. The engine does not require
// this to run: structural gaps at runtime end an enrollment instead of failing it.
func ValidateAutomation(automation *models.Automation) error {
	if automation == nil {
		return fmt.Errorf("%w: automation is nil", ErrInvalidDefinition)
	}

	err := validate.Struct(automation)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	return ValidateDefinition(&automation.FlowDefinition)
}

// ValidateDefinition checks the flow against its JSON schema and verifies
// that node ids are unique, edges reference existing nodes and a TRIGGER exists.
func ValidateDefinition(definition *models.FlowDefinition) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(definitionSchema),
		gojsonschema.NewGoLoader(definition),
	)
	if err != nil {
		return fmt.Errorf("failed to validate flow definition: %w", err)
	}

	var problems []string

	if !result.Valid() {
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
	}

	problems = append(problems, graphProblems(definition)...)

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDefinition, strings.Join(problems, "; "))
	}

	return nil
}

func graphProblems(definition *models.FlowDefinition) []string {
	var problems []string

	seen := make(map[string]bool, len(definition.Nodes))

	for _, node := range definition.Nodes {
		if node == nil {
			continue
		}

		if seen[node.ID] {
			problems = append(problems, "duplicate node id "+node.ID)
		}

		seen[node.ID] = true
	}

	if _, ok := definition.TriggerNode(); !ok {
		problems = append(problems, "flow has no TRIGGER node")
	}

	for _, edge := range definition.Edges {
		if edge == nil {
			continue
		}

		if !seen[edge.Source] {
			problems = append(problems, fmt.Sprintf("edge %s references unknown source %s", edge.ID, edge.Source))
		}

		if !seen[edge.Target] {
			problems = append(problems, fmt.Sprintf("edge %s references unknown target %s", edge.ID, edge.Target))
		}
	}

	return problems
}
