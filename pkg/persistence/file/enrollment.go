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
	"sync"
	"time"

	"github.com/dukex/automaton/pkg/models"
	"github.com/dukex/automaton/pkg/persistence"
)

// EnrollmentRepository stores one JSON file per enrollment under <root>/enrollments.
// Writes are serialized within the process only.
type EnrollmentRepository struct {
	root string
	mu   sync.Mutex
}

// NewEnrollmentRepository creates a new enrollment repository.
func NewEnrollmentRepository(root string) *EnrollmentRepository {
	return &EnrollmentRepository{root: root}
}

// Create writes a new enrollment.
func (er *EnrollmentRepository) Create(_ context.Context, enrollment *models.Enrollment) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	err := validateID(enrollment.ID)
	if err != nil {
		return persistence.NewEnrollmentError("Create", enrollment.ID, err)
	}

	_, err = os.Stat(er.path(enrollment.ID))
	if err == nil {
		return persistence.NewEnrollmentError("Create", enrollment.ID, persistence.ErrEnrollmentAlreadyExists)
	}

	return er.write(enrollment)
}

// GetByID returns the enrollment with the given id.
func (er *EnrollmentRepository) GetByID(_ context.Context, id string) (*models.Enrollment, error) {
	er.mu.Lock()
	defer er.mu.Unlock()

	return er.read(id)
}

// UpdatePosition moves the execution pointer of an active enrollment.
func (er *EnrollmentRepository) UpdatePosition(_ context.Context, id string, currentNodeID string, nextRunAt *time.Time) error {
	return er.update("UpdatePosition", id, func(enrollment *models.Enrollment) error {
		if enrollment.Status != models.EnrollmentStatusActive {
			return persistence.ErrEnrollmentNotActive
		}

		enrollment.CurrentNodeID = &currentNodeID
		enrollment.NextRunAt = nextRunAt

		return nil
	})
}

// UpdateContext replaces the context data of an enrollment.
func (er *EnrollmentRepository) UpdateContext(_ context.Context, id string, contextData models.ContextData) error {
	return er.update("UpdateContext", id, func(enrollment *models.Enrollment) error {
		enrollment.ContextData = contextData

		return nil
	})
}

// Complete marks an enrollment COMPLETED.
func (er *EnrollmentRepository) Complete(_ context.Context, id string) error {
	return er.update("Complete", id, func(enrollment *models.Enrollment) error {
		enrollment.Complete(time.Now().UTC())

		return nil
	})
}

// CountDue counts active enrollments due at now.
func (er *EnrollmentRepository) CountDue(_ context.Context, now time.Time) (int, error) {
	er.mu.Lock()
	defer er.mu.Unlock()

	due, err := er.due(now)
	if err != nil {
		return 0, err
	}

	return len(due), nil
}

// Due returns up to limit active enrollments due at now, earliest wake time first.
func (er *EnrollmentRepository) Due(_ context.Context, now time.Time, limit int) ([]*models.Enrollment, error) {
	er.mu.Lock()
	defer er.mu.Unlock()

	due, err := er.due(now)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	return due, nil
}

func (er *EnrollmentRepository) due(now time.Time) ([]*models.Enrollment, error) {
	jsonFiles, err := fs.Glob(os.DirFS(filepath.Join(er.root, enrollmentsDir)), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollment files: %w", err)
	}

	due := make([]*models.Enrollment, 0)

	for _, file := range jsonFiles {
		enrollment, err := er.read(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		if enrollment.IsDue(now) {
			due = append(due, enrollment)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return wakeTime(due[i]).Before(wakeTime(due[j]))
	})

	return due, nil
}

func wakeTime(enrollment *models.Enrollment) time.Time {
	if enrollment.NextRunAt == nil {
		return time.Time{}
	}

	return *enrollment.NextRunAt
}

func (er *EnrollmentRepository) update(op, id string, mutate func(*models.Enrollment) error) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	enrollment, err := er.read(id)
	if err != nil {
		return err
	}

	err = mutate(enrollment)
	if err != nil {
		return persistence.NewEnrollmentError(op, id, err)
	}

	enrollment.UpdatedAt = time.Now().UTC()

	return er.write(enrollment)
}

func (er *EnrollmentRepository) path(id string) string {
	return filepath.Join(er.root, enrollmentsDir, id+".json")
}

func (er *EnrollmentRepository) read(id string) (*models.Enrollment, error) {
	err := validateID(id)
	if err != nil {
		return nil, persistence.NewEnrollmentError("GetByID", id, err)
	}

	data, err := os.ReadFile(er.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewEnrollmentError("GetByID", id, persistence.ErrEnrollmentNotFound)
		}

		return nil, fmt.Errorf("failed to read enrollment %s: %w", id, err)
	}

	var enrollment models.Enrollment

	err = json.Unmarshal(data, &enrollment)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal enrollment %s: %w", id, err)
	}

	return &enrollment, nil
}

func (er *EnrollmentRepository) write(enrollment *models.Enrollment) error {
	err := os.MkdirAll(filepath.Join(er.root, enrollmentsDir), 0750)
	if err != nil {
		return fmt.Errorf("failed to create enrollments directory: %w", err)
	}

	data, err := json.Marshal(enrollment)
	if err != nil {
		return fmt.Errorf("failed to marshal enrollment %s: %w", enrollment.ID, err)
	}

	tmp := er.path(enrollment.ID) + ".tmp"

	err = os.WriteFile(tmp, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write enrollment %s: %w", enrollment.ID, err)
	}

	err = os.Rename(tmp, er.path(enrollment.ID))
	if err != nil {
		return fmt.Errorf("failed to replace enrollment %s: %w", enrollment.ID, err)
	}

	return nil
}
