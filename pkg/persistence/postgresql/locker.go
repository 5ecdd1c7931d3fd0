package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/automaton/pkg/lease"
	"github.com/google/uuid"
)

// Locker leases enrollments through the lease_owner and lease_expires_at columns.
// Keys are enrollment ids.
type Locker struct {
	db     *sql.DB
	logger *slog.Logger
	owner  string
}

// NewLocker creates a locker that stamps leases with owner.
func NewLocker(db *sql.DB, logger *slog.Logger, owner string) *Locker {
	if owner == "" {
		owner = uuid.NewString()
	}

	return &Locker{db: db, logger: logger, owner: owner}
}

// Acquire claims the enrollment row when no unexpired lease is held on it.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (lease.Release, bool, error) {
	token := l.owner + ":" + uuid.NewString()
	now := time.Now().UTC()

	result, err := l.db.ExecContext(ctx, `
		UPDATE enrollments
		SET lease_owner = $2, lease_expires_at = $3
		WHERE id = $1 AND (lease_expires_at IS NULL OR lease_expires_at <= $4)
	`, key, token, now.Add(ttl), now)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lease on %s: %w", key, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		_, err := l.db.ExecContext(ctx, `
			UPDATE enrollments
			SET lease_owner = NULL, lease_expires_at = NULL
			WHERE id = $1 AND lease_owner = $2
		`, key, token)
		if err != nil {
			return fmt.Errorf("failed to release lease on %s: %w", key, err)
		}

		return nil
	}

	return release, true, nil
}
