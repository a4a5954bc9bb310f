package mq

import "time"

// ActivityLogRequestedPayload is the stage-1 input: one detected change
// event plus the recipient set captured synchronously at trigger time.
// EventID is the idempotency key for the non-idempotent log write.
type ActivityLogRequestedPayload struct {
	EventID    string    `json:"event_id"`
	TaskID     int64     `json:"task_id"`
	Fields     []string  `json:"fields,omitempty"`
	Relation   string    `json:"relation,omitempty"`
	Action     string    `json:"action,omitempty"` // ADD / REMOVE for relation deltas
	ObjectIDs  []int64   `json:"object_ids,omitempty"`
	ActorID    *int64    `json:"actor_id,omitempty"`
	Detail     string    `json:"detail,omitempty"` // caller-supplied override, wins over generated text
	OccurredAt time.Time `json:"occurred_at"`
	Recipients []int64   `json:"recipients"`
}

// LogEntryRecord is the wire form of a created activity log entry, carried
// from stage 1 to stage 2.
type LogEntryRecord struct {
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

// ActivityLoggedPayload is the stage-1 → stage-2 continuation: the entries
// that were actually written and the recipient set captured at trigger time.
// Stage 2 never re-resolves recipients.
type ActivityLoggedPayload struct {
	EventID    string           `json:"event_id"`
	Entries    []LogEntryRecord `json:"entries"`
	Recipients []int64          `json:"recipients"`
}
