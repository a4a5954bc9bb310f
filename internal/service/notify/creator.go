// Package notify creates per-recipient notification rows from one
// triggering event.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"taskhive/internal/model"
	"taskhive/internal/repository"
	"taskhive/pkg/metrics"
)

type NotificationStore interface {
	InsertBatch(ctx context.Context, notifications []model.Notification) error
}

type UserStore interface {
	ListByIDs(ctx context.Context, ids []int64) ([]model.User, error)
}

type TaskStore interface {
	GetByID(ctx context.Context, id int64) (*model.Task, error)
}

// Payload carries everything shared by all recipients of one fan-out.
type Payload struct {
	WorkspaceID int64
	Severity    int
	TriggeredBy *int64
	Message     string
	EntityKind  string
	EntityID    *int64
	// MentionOnly filters recipients by their mention preference before
	// any row is created.
	MentionOnly bool
}

type Creator struct {
	notifications NotificationStore
	users         UserStore
	tasks         TaskStore
	logger        *zap.Logger
	now           func() time.Time
}

func NewCreator(notifications NotificationStore, users UserStore, tasks TaskStore, logger *zap.Logger) *Creator {
	return &Creator{
		notifications: notifications,
		users:         users,
		tasks:         tasks,
		logger:        logger,
		now:           time.Now,
	}
}

// Dispatch fans the payload out to the recipients: one row each, created in
// a single all-or-none insert. Recipients that no longer exist, and (for
// mention sends) recipients with the mention preference off, are dropped
// before any row is created.
func (c *Creator) Dispatch(ctx context.Context, recipients []int64, p Payload) error {
	if len(recipients) == 0 {
		return nil
	}

	users, err := c.users.ListByIDs(ctx, recipients)
	if err != nil {
		return fmt.Errorf("failed to load recipients: %w", err)
	}

	kept := make([]int64, 0, len(users))
	for _, u := range users {
		if p.MentionOnly && !u.Mention {
			continue
		}
		kept = append(kept, u.ID)
	}
	if len(kept) == 0 {
		c.logger.Debug("No recipients left after preference filtering",
			zap.Int64("workspace_id", p.WorkspaceID),
		)
		return nil
	}

	entityKind, entityID := c.checkSubject(ctx, p.EntityKind, p.EntityID)

	createdAt := c.now()
	rows := make([]model.Notification, 0, len(kept))
	for _, uid := range kept {
		rows = append(rows, model.Notification{
			WorkspaceID: p.WorkspaceID,
			RecipientID: uid,
			TriggeredBy: p.TriggeredBy,
			Severity:    p.Severity,
			EntityKind:  entityKind,
			EntityID:    entityID,
			Message:     p.Message,
			CreatedAt:   createdAt,
		})
	}

	if err := c.notifications.InsertBatch(ctx, rows); err != nil {
		return fmt.Errorf("failed to fan out notifications: %w", err)
	}

	metrics.AddNotificationsFannedOut(len(rows))
	c.logger.Info("Notifications dispatched",
		zap.Int64("workspace_id", p.WorkspaceID),
		zap.Int("recipients", len(rows)),
	)
	return nil
}

// checkSubject verifies the subject entity still exists, best effort. A
// missing subject degrades to a null reference instead of failing the
// dispatch.
func (c *Creator) checkSubject(ctx context.Context, kind string, id *int64) (string, *int64) {
	if kind != "task" || id == nil {
		return kind, id
	}
	if _, err := c.tasks.GetByID(ctx, *id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.logger.Debug("Notification subject no longer exists",
				zap.String("entity_kind", kind),
				zap.Int64("entity_id", *id),
			)
			return "", nil
		}
		// Lookup failure is not worth failing the fan-out over.
		c.logger.Warn("Subject entity check failed", zap.Error(err))
	}
	return kind, id
}
