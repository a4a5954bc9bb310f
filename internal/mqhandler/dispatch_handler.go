package mqhandler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	mqcontracts "taskhive/contracts/mq"
	"taskhive/internal/service/notify"
	"taskhive/pkg/logger"
	"taskhive/pkg/metrics"
)

// DispatchHandler handles direct notification sends that bypass the activity
// chain: assignee mentions and admin broadcasts.
type DispatchHandler struct {
	dispatcher NotificationDispatcher
	logger     *zap.Logger
}

func NewDispatchHandler(dispatcher NotificationDispatcher, logger *zap.Logger) *DispatchHandler {
	return &DispatchHandler{dispatcher: dispatcher, logger: logger}
}

func (h *DispatchHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.NotificationDispatchPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal NotificationDispatchPayload", zap.Error(err))
		return err
	}

	log := logger.WithTrace(ctx, h.logger)
	payload := notify.Payload{
		WorkspaceID: p.WorkspaceID,
		Severity:    p.Severity,
		TriggeredBy: p.TriggeredBy,
		Message:     p.Message,
		EntityKind:  p.EntityKind,
		EntityID:    p.EntityID,
		MentionOnly: p.Mention,
	}

	if err := h.dispatcher.Dispatch(ctx, p.Recipients, payload); err != nil {
		metrics.IncrementPipelineStage("dispatch", "failed")
		log.Error("Failed to dispatch notifications",
			zap.Int64("workspace_id", p.WorkspaceID),
			zap.Error(err),
		)
		return err
	}
	metrics.IncrementPipelineStage("dispatch", "success")

	log.Info("Direct notifications dispatched",
		zap.Int64("workspace_id", p.WorkspaceID),
		zap.Int("recipients", len(p.Recipients)),
		zap.Bool("mention", p.Mention),
	)
	return nil
}
