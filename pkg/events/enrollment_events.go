package events

type EnrollmentStarted struct {
	BaseEvent

	EnrollmentID string `json:"enrollment_id"`
	AutomationID string `json:"automation_id"`
	Email        string `json:"email"`
}

func (e EnrollmentStarted) GetType() EventType {
	return EnrollmentStartedEvent
}

func NewEnrollmentStarted(accountID, automationID, enrollmentID, email string) *EnrollmentStarted {
	return &EnrollmentStarted{
		BaseEvent:    NewBaseEvent(EnrollmentStartedEvent, accountID),
		EnrollmentID: enrollmentID,
		AutomationID: automationID,
		Email:        email,
	}
}

type EnrollmentCompleted struct {
	BaseEvent

	EnrollmentID string `json:"enrollment_id"`
	AutomationID string `json:"automation_id"`
	LastNodeID   string `json:"last_node_id,omitempty"`
}

func (e EnrollmentCompleted) GetType() EventType {
	return EnrollmentCompletedEvent
}

func NewEnrollmentCompleted(accountID, automationID, enrollmentID, lastNodeID string) *EnrollmentCompleted {
	return &EnrollmentCompleted{
		BaseEvent:    NewBaseEvent(EnrollmentCompletedEvent, accountID),
		EnrollmentID: enrollmentID,
		AutomationID: automationID,
		LastNodeID:   lastNodeID,
	}
}
