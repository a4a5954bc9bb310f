package mqhandler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	mqcontracts "taskhive/contracts/mq"
	"taskhive/internal/model"
	"taskhive/internal/service/notify"
	"taskhive/pkg/logger"
	"taskhive/pkg/metrics"
)

type NotificationDispatcher interface {
	Dispatch(ctx context.Context, recipients []int64, p notify.Payload) error
}

// NotifyHandler is stage 2 of the chain: turn the entries written by stage 1
// into one notification per recipient of the snapshot. Recipients are taken
// from the payload as-is; the subscriber table is never re-queried here.
type NotifyHandler struct {
	dispatcher NotificationDispatcher
	logger     *zap.Logger
}

func NewNotifyHandler(dispatcher NotificationDispatcher, logger *zap.Logger) *NotifyHandler {
	return &NotifyHandler{dispatcher: dispatcher, logger: logger}
}

func (h *NotifyHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.ActivityLoggedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal ActivityLoggedPayload", zap.Error(err))
		return err
	}

	log := logger.WithTrace(ctx, h.logger)
	if len(p.Entries) == 0 || len(p.Recipients) == 0 {
		log.Debug("Nothing to notify",
			zap.String("event_id", p.EventID),
			zap.Int("entries", len(p.Entries)),
			zap.Int("recipients", len(p.Recipients)),
		)
		return nil
	}

	first := p.Entries[0]
	taskID := first.TaskID
	payload := notify.Payload{
		WorkspaceID: first.WorkspaceID,
		Severity:    model.SeverityInformative,
		TriggeredBy: first.ActorID,
		Message:     notify.Summarize(p.Entries),
		EntityKind:  "task",
		EntityID:    &taskID,
	}

	if err := h.dispatcher.Dispatch(ctx, p.Recipients, payload); err != nil {
		metrics.IncrementPipelineStage("notify", "failed")
		log.Error("Failed to fan out notifications",
			zap.String("event_id", p.EventID),
			zap.Int64("task_id", taskID),
			zap.Error(err),
		)
		return err
	}
	metrics.IncrementPipelineStage("notify", "success")

	log.Info("Notifications fanned out",
		zap.String("event_id", p.EventID),
		zap.Int64("task_id", taskID),
		zap.Int("recipients", len(p.Recipients)),
	)
	return nil
}
