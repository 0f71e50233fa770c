package models

import "time"

// Notification type values.
const (
	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationError   = "error"
	NotificationInfo    = "info"
)

// Notification priority values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Notification is a user-facing alert kept in a capped, most-recent-first
// list. Non-persistent entries are removed automatically after a short
// display window; persistent ones stay until explicitly dismissed.
type Notification struct {
	ID         string    `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	Type       string    `json:"type" db:"type"` // success|warning|error|info
	Title      string    `json:"title" db:"title"`
	Message    string    `json:"message" db:"message"`
	Priority   string    `json:"priority" db:"priority"` // low|medium|high
	Category   string    `json:"category,omitempty" db:"category"`
	Persistent bool      `json:"persistent" db:"persistent"`
	Read       bool      `json:"read" db:"read"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
