package models

import "time"

// EnrollmentStatus represents the lifecycle state of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
)

// IsValid checks if the enrollment status is valid.
func (s EnrollmentStatus) IsValid() bool {
	return s == EnrollmentStatusActive || s == EnrollmentStatusCompleted
}

// Enrollment is one subject's in-progress execution of one automation.
// Status is ACTIVE exactly when CurrentNodeID is set.
type Enrollment struct {
	ID            string           `json:"id"`
	AutomationID  string           `json:"automationId"`
	AccountID     string           `json:"accountId"`
	Email         string           `json:"email"`
	CustomerID    *string          `json:"customerId,omitempty"`
	ContextData   ContextData      `json:"contextData"`
	Status        EnrollmentStatus `json:"status"`
	CurrentNodeID *string          `json:"currentNodeId"`
	NextRunAt     *time.Time       `json:"nextRunAt"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// IsActive reports whether the enrollment still has a node to execute.
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusActive && e.CurrentNodeID != nil
}

// IsDue reports whether an active enrollment may be stepped at now.
func (e *Enrollment) IsDue(now time.Time) bool {
	return e.IsActive() && (e.NextRunAt == nil || !e.NextRunAt.After(now))
}

// MoveTo points the enrollment at nodeID with the given wake time.
func (e *Enrollment) MoveTo(nodeID string, nextRunAt time.Time, now time.Time) {
	e.CurrentNodeID = &nodeID
	e.NextRunAt = &nextRunAt
	e.UpdatedAt = now
}

// Complete terminates the enrollment, clearing its pointer and timer.
func (e *Enrollment) Complete(now time.Time) {
	e.Status = EnrollmentStatusCompleted
	e.CurrentNodeID = nil
	e.NextRunAt = nil
	e.UpdatedAt = now
}
