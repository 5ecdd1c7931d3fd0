// Package config loads automation catalogs from YAML or JSON files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dukex/automaton/pkg/models"
	"gopkg.in/yaml.v3"
)

// ErrEmptyCatalog is returned when a file declares no automations.
var ErrEmptyCatalog = errors.New("no automations declared")

// CatalogFile is the structure of an automations file:
//
//	automations:
//	  - id: welcome
//	    accountId: acc-1
//	    triggerType: CUSTOMER_CREATED
//	    flowDefinition: {nodes: [...], edges: [...]}
//
// A file holding a single automation object or a bare list is accepted too.
type CatalogFile struct {
	Automations []map[string]any `yaml:"automations"`
}

// LoadAutomations reads the automations declared in filepath. Field names
// follow the JSON form of models.Automation. Nothing is validated here.
func LoadAutomations(filepath string) ([]*models.Automation, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	return ParseAutomations(data)
}

// ParseAutomations decodes a YAML (or JSON) automation catalog.
func ParseAutomations(data []byte) ([]*models.Automation, error) {
	var document any

	err := yaml.Unmarshal(data, &document)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	var raw []any

	switch doc := document.(type) {
	case []any:
		raw = doc
	case map[string]any:
		if list, ok := doc["automations"]; ok {
			raw, ok = list.([]any)
			if !ok {
				return nil, fmt.Errorf("automations must be a list, got %T", list)
			}
		} else {
			raw = []any{doc}
		}
	case nil:
	default:
		return nil, fmt.Errorf("unexpected config document of type %T", document)
	}

	if len(raw) == 0 {
		return nil, ErrEmptyCatalog
	}

	automations := make([]*models.Automation, 0, len(raw))

	for i, entry := range raw {
		automation, err := decodeAutomation(entry)
		if err != nil {
			return nil, fmt.Errorf("automations[%d]: %w", i, err)
		}

		automations = append(automations, automation)
	}

	return automations, nil
}

// decodeAutomation reuses the JSON tags of models.Automation by round
// tripping the YAML value through encoding/json.
func decodeAutomation(entry any) (*models.Automation, error) {
	if _, ok := entry.(map[string]any); !ok {
		return nil, fmt.Errorf("automation must be an object, got %T", entry)
	}

	encoded, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode automation: %w", err)
	}

	var automation models.Automation

	err = json.Unmarshal(encoded, &automation)
	if err != nil {
		return nil, fmt.Errorf("failed to decode automation: %w", err)
	}

	return &automation, nil
}
