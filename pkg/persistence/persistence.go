// Package persistence provides the data storage abstraction for automations and enrollments.
package persistence

import (
	"context"
	"time"

	"github.com/dukex/automaton/pkg/models"
)

// Persistence groups the repositories of one storage backend.
type Persistence interface {
	AutomationRepository() AutomationRepository
	EnrollmentRepository() EnrollmentRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// AutomationRepository reads authored automations. The engine never mutates them;
// Save exists for seeding and tooling.
type AutomationRepository interface {
	GetByID(ctx context.Context, id string) (*models.Automation, error)
	ActiveByTrigger(ctx context.Context, accountID string, triggerType models.TriggerType) ([]*models.Automation, error)
	Save(ctx context.Context, automation *models.Automation) error
}

// EnrollmentRepository persists per-subject execution state.
//
// Pointer moves and context updates are separate writes; callers must not
// assume they are applied atomically together.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id string) (*models.Enrollment, error)

	// UpdatePosition persists the execution pointer and wake time of an active enrollment.
	UpdatePosition(ctx context.Context, id string, currentNodeID string, nextRunAt *time.Time) error

	// UpdateContext persists the accumulated context data.
	UpdateContext(ctx context.Context, id string, contextData models.ContextData) error

	// Complete marks the enrollment COMPLETED and clears its pointer and timer.
	Complete(ctx context.Context, id string) error

	// CountDue counts ACTIVE enrollments whose wake time is at or before now.
	CountDue(ctx context.Context, now time.Time) (int, error)

	// Due returns up to limit ACTIVE enrollments whose wake time is at or before now,
	// earliest first.
	Due(ctx context.Context, now time.Time, limit int) ([]*models.Enrollment, error)
}
