package mq

// NotificationDispatchPayload is a direct fan-out request: assignee mention
// notifications and workspace-admin broadcasts. Mention sends are filtered
// by the recipient's mention preference before any row is created.
type NotificationDispatchPayload struct {
	Recipients  []int64 `json:"recipients"`
	WorkspaceID int64   `json:"workspace_id"`
	Severity    int     `json:"severity"`
	TriggeredBy *int64  `json:"triggered_by,omitempty"`
	Message     string  `json:"message"`
	EntityKind  string  `json:"entity_kind,omitempty"`
	EntityID    *int64  `json:"entity_id,omitempty"`
	Mention     bool    `json:"mention"`
}
