package model

import "time"

// Notification severities.
const (
	SeverityInformative = 1
	SeverityAttention   = 2
	SeverityCritical    = 3
)

// Notification is one durable per-recipient message. Immutable after
// creation except for IsRead.
type Notification struct {
	ID          int64     `json:"id"`
	WorkspaceID int64     `json:"workspace_id"`
	RecipientID int64     `json:"recipient_id"`
	TriggeredBy *int64    `json:"triggered_by,omitempty"`
	Severity    int       `json:"severity"`
	EntityKind  string    `json:"entity_kind,omitempty"`
	EntityID    *int64    `json:"entity_id,omitempty"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}
