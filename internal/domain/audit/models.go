package audit

import (
	"encoding/json"
	"time"
)

const (
	EntityEmployee      = "Employee"
	EntityInvestigation = "Investigation"
	EntityWarningLetter = "WarningLetter"
	EntityLeaveRequest  = "LeaveRequest"
	EntityUser          = "User"
	EntityAuditLog      = "AuditLog"
	EntityUnknown       = "Unknown"

	UnknownUser = "Unknown"

	// EntityQueryLimit caps the per-entity and per-user views.
	EntityQueryLimit = 500
)

type Entry struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	UserName   string          `json:"userName"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Action     string          `json:"action"`
	OldValues  json.RawMessage `json:"oldValues,omitempty"`
	NewValues  json.RawMessage `json:"newValues,omitempty"`
	Endpoint   string          `json:"endpoint"`
	HTTPMethod string          `json:"httpMethod"`
	StatusCode int             `json:"statusCode"`
	IPAddress  string          `json:"ipAddress"`
	DurationMs int64           `json:"durationMs"`
	Notes      string          `json:"notes,omitempty"`
	RequestID  string          `json:"requestId,omitempty"`
	CreatedAt  time.Time       `json:"timestamp"`
}

// Filter matches userName, action and entityType by case-insensitive
// substring. Zero times are open bounds.
type Filter struct {
	UserName   string
	Action     string
	EntityType string
	From       time.Time
	To         time.Time
}

// Actor identifies who performed an explicitly recorded change.
type Actor struct {
	UserID    string
	UserName  string
	IP        string
	RequestID string
	Endpoint  string
	Method    string
}
