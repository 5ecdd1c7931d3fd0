package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/automaton/pkg/flow"
	"github.com/dukex/automaton/pkg/models"
	"github.com/dukex/automaton/pkg/persistence"
)

const automationColumns = `
	id
  , account_id
  , name
  , trigger_type
  , trigger_config
  , flow_definition
  , is_active
  , created_at
  , updated_at
`

// AutomationRepository handles automation-related database operations.
type AutomationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAutomationRepository creates a new automation repository.
func NewAutomationRepository(db *sql.DB, logger *slog.Logger) *AutomationRepository {
	return &AutomationRepository{db: db, logger: logger}
}

// GetByID returns the automation with the given id.
func (r *AutomationRepository) GetByID(ctx context.Context, id string) (*models.Automation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+automationColumns+` FROM automations WHERE id = $1`, id)

	automation, err := scanAutomation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewAutomationError("GetByID", id, persistence.ErrAutomationNotFound)
		}

		return nil, fmt.Errorf("failed to scan automation: %w", err)
	}

	return automation, nil
}

// ActiveByTrigger returns the active automations of an account listening to triggerType,
// oldest first.
func (r *AutomationRepository) ActiveByTrigger(
	ctx context.Context,
	accountID string,
	triggerType models.TriggerType,
) ([]*models.Automation, error) {
	query := `SELECT ` + automationColumns + `
		FROM automations
		WHERE account_id = $1 AND trigger_type = $2 AND is_active
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, string(triggerType))
	if err != nil {
		return nil, fmt.Errorf("failed to query automations: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	automations := make([]*models.Automation, 0)

	for rows.Next() {
		automation, err := scanAutomation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation: %w", err)
		}

		automations = append(automations, automation)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating automations: %w", err)
	}

	return automations, nil
}

// Save validates and upserts an automation.
func (r *AutomationRepository) Save(ctx context.Context, automation *models.Automation) error {
	err := flow.ValidateAutomation(automation)
	if err != nil {
		return persistence.NewAutomationError("Save", automation.ID, err)
	}

	triggerConfigJSON, err := json.Marshal(automation.TriggerConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger config: %w", err)
	}

	definitionJSON, err := json.Marshal(automation.FlowDefinition)
	if err != nil {
		return fmt.Errorf("failed to marshal flow definition: %w", err)
	}

	now := time.Now().UTC()
	if automation.CreatedAt.IsZero() {
		automation.CreatedAt = now
	}

	automation.UpdatedAt = now

	query := `
		INSERT INTO automations (` + automationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			name = EXCLUDED.name,
			trigger_type = EXCLUDED.trigger_type,
			trigger_config = EXCLUDED.trigger_config,
			flow_definition = EXCLUDED.flow_definition,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		automation.ID,
		automation.AccountID,
		automation.Name,
		string(automation.TriggerType),
		triggerConfigJSON,
		definitionJSON,
		automation.IsActive,
		automation.CreatedAt,
		automation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save automation: %w", err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAutomation(row scanner) (*models.Automation, error) {
	var (
		automation        models.Automation
		triggerType       string
		triggerConfigJSON []byte
		definitionJSON    []byte
	)

	err := row.Scan(
		&automation.ID,
		&automation.AccountID,
		&automation.Name,
		&triggerType,
		&triggerConfigJSON,
		&definitionJSON,
		&automation.IsActive,
		&automation.CreatedAt,
		&automation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	automation.TriggerType = models.TriggerType(triggerType)

	err = json.Unmarshal(triggerConfigJSON, &automation.TriggerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger config: %w", err)
	}

	err = json.Unmarshal(definitionJSON, &automation.FlowDefinition)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow definition: %w", err)
	}

	return &automation, nil
}
