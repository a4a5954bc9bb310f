package mqhandler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	mqcontracts "taskhive/contracts/mq"
	"taskhive/internal/model"
	"taskhive/internal/service/changes"
	"taskhive/pkg/logger"
	"taskhive/pkg/metrics"
)

type LogCreator interface {
	CreateFromEvent(ctx context.Context, ev changes.Event) ([]model.ActivityLog, error)
}

type Deduper interface {
	AcquireOnce(ctx context.Context, handler, eventID string) bool
	Release(ctx context.Context, handler, eventID string)
}

type Publisher interface {
	PublishWithContext(ctx context.Context, routingKey string, payload any) error
}

// ActivityLogHandler is stage 1 of the chain: write the audit log entries,
// then publish the continuation to stage 2 carrying the created entries and
// the recipient snapshot captured at trigger time. The continuation is only
// published after the log write commits, which is what enforces
// log-happens-before-notify.
type ActivityLogHandler struct {
	creator   LogCreator
	deduper   Deduper
	publisher Publisher
	logger    *zap.Logger
}

func NewActivityLogHandler(creator LogCreator, deduper Deduper, publisher Publisher, logger *zap.Logger) *ActivityLogHandler {
	return &ActivityLogHandler{
		creator:   creator,
		deduper:   deduper,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *ActivityLogHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.ActivityLogRequestedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal ActivityLogRequestedPayload", zap.Error(err))
		return err
	}

	log := logger.WithTrace(ctx, h.logger)
	log.Info("Handling task.activity.log event",
		zap.String("event_id", p.EventID),
		zap.Int64("task_id", p.TaskID),
		zap.Int("recipients", len(p.Recipients)),
	)

	// The log write is not idempotent; a redelivered event must not
	// duplicate rows.
	if !h.deduper.AcquireOnce(ctx, "activity_log", p.EventID) {
		metrics.IncrementPipelineStage("log", "skipped")
		return nil
	}

	ev := changes.Event{
		TaskID:     p.TaskID,
		Fields:     p.Fields,
		Relation:   p.Relation,
		Action:     p.Action,
		ObjectIDs:  p.ObjectIDs,
		ActorID:    p.ActorID,
		Detail:     p.Detail,
		OccurredAt: p.OccurredAt,
	}

	entries, err := h.creator.CreateFromEvent(ctx, ev)
	if err != nil {
		// Nothing was written; the redelivery must not be treated as a
		// duplicate.
		h.deduper.Release(ctx, "activity_log", p.EventID)
		metrics.IncrementPipelineStage("log", "failed")
		log.Error("Failed to create activity log entries",
			zap.String("event_id", p.EventID),
			zap.Int64("task_id", p.TaskID),
			zap.Error(err),
		)
		return err
	}
	metrics.IncrementPipelineStage("log", "success")
	metrics.AddLogEntriesWritten(len(entries))

	records := make([]mqcontracts.LogEntryRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, mqcontracts.LogEntryRecord{
			ID:          e.ID,
			WorkspaceID: e.WorkspaceID,
			ProjectID:   e.ProjectID,
			TaskID:      e.TaskID,
			ActorID:     e.ActorID,
			ActionKind:  e.ActionKind,
			Field:       e.Field,
			Value:       e.Value,
			Detail:      e.Detail,
			Timestamp:   e.Timestamp,
		})
	}

	continuation := mqcontracts.ActivityLoggedPayload{
		EventID:    p.EventID,
		Entries:    records,
		Recipients: p.Recipients,
	}
	if err := h.publisher.PublishWithContext(ctx, mqcontracts.RouteActivityNotify, continuation); err != nil {
		// The rows exist but the chain is incomplete. Release the lock so
		// the redelivery runs the handler again and gets the continuation
		// out; a re-run may duplicate log rows, a swallowed continuation
		// would lose the notifications for good.
		h.deduper.Release(ctx, "activity_log", p.EventID)
		log.Error("Failed to publish notify continuation",
			zap.String("event_id", p.EventID),
			zap.Error(err),
		)
		return err
	}

	log.Info("Activity logged, notify stage chained",
		zap.String("event_id", p.EventID),
		zap.Int("entries", len(records)),
	)
	return nil
}
