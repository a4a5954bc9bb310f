package model

// TaskSubscriber registers a user to receive audit-driven notifications for
// a task. Unique per (task, subscriber).
type TaskSubscriber struct {
	TaskID       int64 `json:"task_id"`
	SubscriberID int64 `json:"subscriber_id"`
	WorkspaceID  int64 `json:"workspace_id"`
}
