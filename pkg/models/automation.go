package models

import "time"

// Automation is an authored automation definition. The engine only reads it.
type Automation struct {
	ID             string         `json:"id"                 validate:"required"`
	AccountID      string         `json:"accountId"          validate:"required"`
	Name           string         `json:"name"`
	TriggerType    TriggerType    `json:"triggerType"        validate:"required"`
	TriggerConfig  TriggerConfig  `json:"triggerConfig"`
	FlowDefinition FlowDefinition `json:"flowDefinition"`
	IsActive       bool           `json:"isActive"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
