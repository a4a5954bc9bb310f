// Package retention runs the scheduled cleanup of old notification rows.
package retention

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type NotificationStore interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type Sweeper struct {
	notifications NotificationStore
	retentionDays int
	logger        *zap.Logger
}

func NewSweeper(notifications NotificationStore, retentionDays int, logger *zap.Logger) *Sweeper {
	if retentionDays <= 0 {
		retentionDays = 180
	}
	return &Sweeper{
		notifications: notifications,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// SweepNotifications deletes notifications past the retention window.
func (s *Sweeper) SweepNotifications(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)

	deleted, err := s.notifications.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("Notification retention sweep failed", zap.Error(err))
		return err
	}

	if deleted > 0 {
		s.logger.Info("Old notifications deleted",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	} else {
		s.logger.Debug("No notifications past retention")
	}
	return nil
}
