package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dukex/automaton/pkg/flow"
	"github.com/dukex/automaton/pkg/models"
	"github.com/dukex/automaton/pkg/persistence"
)

// AutomationRepository stores one JSON file per automation under <root>/automations.
type AutomationRepository struct {
	root string
}

// NewAutomationRepository creates a new automation repository.
func NewAutomationRepository(root string) *AutomationRepository {
	return &AutomationRepository{root: root}
}

// GetByID returns the automation with the given id.
func (ar *AutomationRepository) GetByID(_ context.Context, id string) (*models.Automation, error) {
	err := validateID(id)
	if err != nil {
		return nil, persistence.NewAutomationError("GetByID", id, err)
	}

	filePath := filepath.Join(ar.root, automationsDir, id+".json")

	data, err := os.ReadFile(filePath) // #nosec G304 -- id is validated above
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewAutomationError("GetByID", id, persistence.ErrAutomationNotFound)
		}

		return nil, fmt.Errorf("failed to read automation %s: %w", id, err)
	}

	var automation models.Automation

	err = json.Unmarshal(data, &automation)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal automation %s: %w", id, err)
	}

	return &automation, nil
}

// ActiveByTrigger returns the active automations of an account listening to triggerType.
func (ar *AutomationRepository) ActiveByTrigger(ctx context.Context, accountID string, triggerType models.TriggerType) ([]*models.Automation, error) {
	all, err := ar.all(ctx)
	if err != nil {
		return nil, err
	}

	matching := make([]*models.Automation, 0)

	for _, automation := range all {
		if automation.IsActive && automation.AccountID == accountID && automation.TriggerType == triggerType {
			matching = append(matching, automation)
		}
	}

	return matching, nil
}

// Save validates and writes an automation.
func (ar *AutomationRepository) Save(_ context.Context, automation *models.Automation) error {
	err := flow.ValidateAutomation(automation)
	if err != nil {
		return persistence.NewAutomationError("Save", automation.ID, err)
	}

	err = validateID(automation.ID)
	if err != nil {
		return persistence.NewAutomationError("Save", automation.ID, err)
	}

	now := time.Now().UTC()
	if automation.CreatedAt.IsZero() {
		automation.CreatedAt = now
	}

	automation.UpdatedAt = now

	dir := filepath.Join(ar.root, automationsDir)

	err = os.MkdirAll(dir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create automations directory: %w", err)
	}

	data, err := json.MarshalIndent(automation, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal automation %s: %w", automation.ID, err)
	}

	err = os.WriteFile(filepath.Join(dir, automation.ID+".json"), data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write automation %s: %w", automation.ID, err)
	}

	return nil
}

func (ar *AutomationRepository) all(ctx context.Context) ([]*models.Automation, error) {
	jsonFiles, err := fs.Glob(os.DirFS(filepath.Join(ar.root, automationsDir)), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list automation files: %w", err)
	}

	sort.Strings(jsonFiles)

	automations := make([]*models.Automation, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		automation, err := ar.GetByID(ctx, strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		automations = append(automations, automation)
	}

	return automations, nil
}
