package model

import "time"

// Action kinds are a stable classification independent of display text.
const (
	ActionAdd    = "ADD"
	ActionRemove = "REMOVE"
	ActionSet    = "SET"
)

// ActivityLog is an immutable audit record of one field or relation change.
// ActorID is nullable: the acting user may be deleted later.
type ActivityLog struct {
	ID          int64     `json:"id"`
	WorkspaceID int64     `json:"workspace_id"`
	ProjectID   int64     `json:"project_id"`
	TaskID      int64     `json:"task_id"`
	ActorID     *int64    `json:"actor_id,omitempty"`
	ActionKind  string    `json:"action_kind"`
	Field       string    `json:"field"`
	Value       string    `json:"value"`
	Detail      string    `json:"detail"`
	Timestamp   time.Time `json:"timestamp"`
}
