// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrAutomationNotFound indicates an automation was not found by the given identifier.
	ErrAutomationNotFound = errors.New("automation not found")

	// ErrEnrollmentNotFound indicates an enrollment was not found by the given identifier.
	ErrEnrollmentNotFound = errors.New("enrollment not found")

	// ErrEnrollmentAlreadyExists indicates an enrollment with the same identifier already exists.
	ErrEnrollmentAlreadyExists = errors.New("enrollment already exists")

	// ErrEnrollmentNotActive indicates a pointer move was attempted on a completed enrollment.
	ErrEnrollmentNotActive = errors.New("enrollment not active")
)

// AutomationError wraps automation-related errors with additional context.
type AutomationError struct {
	Op           string // Operation being performed (e.g., "GetByID", "Save")
	AutomationID string
	Err          error
}

func (e *AutomationError) Error() string {
	return fmt.Sprintf("%s operation failed for automation %s: %v", e.Op, e.AutomationID, e.Err)
}

func (e *AutomationError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for automation errors.
func (e *AutomationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewAutomationError creates a new automation error with context.
func NewAutomationError(op, automationID string, err error) *AutomationError {
	return &AutomationError{
		Op:           op,
		AutomationID: automationID,
		Err:          err,
	}
}

// EnrollmentError wraps enrollment-related errors with additional context.
type EnrollmentError struct {
	Op           string
	EnrollmentID string
	Err          error
}

func (e *EnrollmentError) Error() string {
	return fmt.Sprintf("%s operation failed for enrollment %s: %v", e.Op, e.EnrollmentID, e.Err)
}

func (e *EnrollmentError) Unwrap() error {
	return e.Err
}

func (e *EnrollmentError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewEnrollmentError creates a new enrollment error with context.
func NewEnrollmentError(op, enrollmentID string, err error) *EnrollmentError {
	return &EnrollmentError{
		Op:           op,
		EnrollmentID: enrollmentID,
		Err:          err,
	}
}

// IsAutomationNotFound checks if an error indicates an automation was not found.
func IsAutomationNotFound(err error) bool {
	return errors.Is(err, ErrAutomationNotFound)
}

// IsEnrollmentNotFound checks if an error indicates an enrollment was not found.
func IsEnrollmentNotFound(err error) bool {
	return errors.Is(err, ErrEnrollmentNotFound)
}
