package mq

// Routing keys for the two-stage activity pipeline and direct dispatch.
// Stage 1 (task.activity.log) writes the audit log; its handler publishes
// the continuation to stage 2 (task.activity.notify) only after the log
// transaction commits.
const (
	RouteActivityLog    = "task.activity.log"
	RouteActivityNotify = "task.activity.notify"
	RouteDispatch       = "notification.dispatch"
)
