package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/automaton/pkg/models"
	"github.com/dukex/automaton/pkg/persistence"
	"github.com/lib/pq"
)

const enrollmentColumns = `
	id
  , automation_id
  , account_id
  , email
  , customer_id
  , context_data
  , status
  , current_node_id
  , next_run_at
  , created_at
  , updated_at
`

// pq error code for unique_violation.
const uniqueViolation = "23505"

// EnrollmentRepository handles enrollment-related database operations.
type EnrollmentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewEnrollmentRepository creates a new enrollment repository.
func NewEnrollmentRepository(db *sql.DB, logger *slog.Logger) *EnrollmentRepository {
	return &EnrollmentRepository{db: db, logger: logger}
}

// Create inserts a new enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	contextJSON, err := json.Marshal(enrollment.ContextData)
	if err != nil {
		return fmt.Errorf("failed to marshal context data: %w", err)
	}

	query := `
		INSERT INTO enrollments (` + enrollmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.ExecContext(ctx, query,
		enrollment.ID,
		enrollment.AutomationID,
		enrollment.AccountID,
		enrollment.Email,
		enrollment.CustomerID,
		contextJSON,
		string(enrollment.Status),
		enrollment.CurrentNodeID,
		enrollment.NextRunAt,
		enrollment.CreatedAt,
		enrollment.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return persistence.NewEnrollmentError("Create", enrollment.ID, persistence.ErrEnrollmentAlreadyExists)
		}

		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	return nil
}

// GetByID returns the enrollment with the given id.
func (r *EnrollmentRepository) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id)

	enrollment, err := scanEnrollment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewEnrollmentError("GetByID", id, persistence.ErrEnrollmentNotFound)
		}

		return nil, fmt.Errorf("failed to scan enrollment: %w", err)
	}

	return enrollment, nil
}

// UpdatePosition moves the execution pointer of an active enrollment.
func (r *EnrollmentRepository) UpdatePosition(ctx context.Context, id string, currentNodeID string, nextRunAt *time.Time) error {
	query := `
		UPDATE enrollments
		SET current_node_id = $2, next_run_at = $3, updated_at = $4
		WHERE id = $1 AND status = 'ACTIVE'
	`

	result, err := r.db.ExecContext(ctx, query, id, currentNodeID, nextRunAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update enrollment position: %w", err)
	}

	return r.checkAffected(ctx, "UpdatePosition", id, result, persistence.ErrEnrollmentNotActive)
}

// UpdateContext replaces the context data of an enrollment.
func (r *EnrollmentRepository) UpdateContext(ctx context.Context, id string, contextData models.ContextData) error {
	contextJSON, err := json.Marshal(contextData)
	if err != nil {
		return fmt.Errorf("failed to marshal context data: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE enrollments SET context_data = $2, updated_at = $3 WHERE id = $1`,
		id, contextJSON, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update enrollment context: %w", err)
	}

	return r.checkAffected(ctx, "UpdateContext", id, result, persistence.ErrEnrollmentNotFound)
}

// Complete marks an enrollment COMPLETED and clears its pointer and timer.
func (r *EnrollmentRepository) Complete(ctx context.Context, id string) error {
	query := `
		UPDATE enrollments
		SET status = 'COMPLETED', current_node_id = NULL, next_run_at = NULL, updated_at = $2
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to complete enrollment: %w", err)
	}

	return r.checkAffected(ctx, "Complete", id, result, persistence.ErrEnrollmentNotFound)
}

// CountDue counts active enrollments due at now.
func (r *EnrollmentRepository) CountDue(ctx context.Context, now time.Time) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM enrollments
		WHERE status = 'ACTIVE' AND (next_run_at IS NULL OR next_run_at <= $1)
	`, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count due enrollments: %w", err)
	}

	return count, nil
}

// Due returns up to limit active enrollments due at now, earliest wake time first.
func (r *EnrollmentRepository) Due(ctx context.Context, now time.Time, limit int) ([]*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE status = 'ACTIVE' AND (next_run_at IS NULL OR next_run_at <= $1)
		ORDER BY next_run_at NULLS FIRST, id
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due enrollments: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	enrollments := make([]*models.Enrollment, 0)

	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}

		enrollments = append(enrollments, enrollment)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating enrollments: %w", err)
	}

	return enrollments, nil
}

// checkAffected maps a zero-row update to not found, or to cause when the row exists.
func (r *EnrollmentRepository) checkAffected(ctx context.Context, op, id string, result sql.Result, cause error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected > 0 {
		return nil
	}

	var exists bool

	err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM enrollments WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check enrollment existence: %w", err)
	}

	if !exists {
		return persistence.NewEnrollmentError(op, id, persistence.ErrEnrollmentNotFound)
	}

	return persistence.NewEnrollmentError(op, id, cause)
}

func scanEnrollment(row scanner) (*models.Enrollment, error) {
	var (
		enrollment    models.Enrollment
		customerID    sql.NullString
		contextJSON   []byte
		status        string
		currentNodeID sql.NullString
		nextRunAt     sql.NullTime
	)

	err := row.Scan(
		&enrollment.ID,
		&enrollment.AutomationID,
		&enrollment.AccountID,
		&enrollment.Email,
		&customerID,
		&contextJSON,
		&status,
		&currentNodeID,
		&nextRunAt,
		&enrollment.CreatedAt,
		&enrollment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	enrollment.Status = models.EnrollmentStatus(status)

	if customerID.Valid {
		enrollment.CustomerID = &customerID.String
	}

	if currentNodeID.Valid {
		enrollment.CurrentNodeID = &currentNodeID.String
	}

	if nextRunAt.Valid {
		next := nextRunAt.Time.UTC()
		enrollment.NextRunAt = &next
	}

	err = json.Unmarshal(contextJSON, &enrollment.ContextData)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal context data: %w", err)
	}

	return &enrollment, nil
}
