// Package file provides file-based persistence for automations and enrollments.
// It is meant for development, tests and single-process deployments.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dukex/automaton/pkg/persistence"
)

const (
	automationsDir = "automations"
	enrollmentsDir = "enrollments"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root           string
	automationRepo *AutomationRepository
	enrollmentRepo *EnrollmentRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:           cleanRoot,
		automationRepo: NewAutomationRepository(cleanRoot),
		enrollmentRepo: NewEnrollmentRepository(cleanRoot),
	}
}

// AutomationRepository returns the automation repository.
func (fp *Persistence) AutomationRepository() persistence.AutomationRepository {
	return fp.automationRepo
}

// EnrollmentRepository returns the enrollment repository.
func (fp *Persistence) EnrollmentRepository() persistence.EnrollmentRepository {
	return fp.enrollmentRepo
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	_, err := os.Stat(fp.root)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("persistence root %s: %w", fp.root, os.ErrNotExist)
	}

	return err
}

// validateID validates that an id is safe for file operations.
func validateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return errors.New("id contains invalid characters")
	}

	return nil
}
