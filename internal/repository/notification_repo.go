package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskhive/internal/model"
)

type NotificationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewNotificationRepository(db *pgxpool.Pool, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

// InsertBatch creates one row per recipient in a single transaction.
// All recipients get the notification or none do.
func (r *NotificationRepository) InsertBatch(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO notifications
            (workspace_id, recipient_id, triggered_by, severity, entity_kind, entity_id, message, is_read, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8)
    `

	for _, n := range notifications {
		if _, err := tx.Exec(ctx, query,
			n.WorkspaceID,
			n.RecipientID,
			n.TriggeredBy,
			n.Severity,
			nullableString(n.EntityKind),
			n.EntityID,
			n.Message,
			n.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to insert notification",
				zap.Int64("recipient_id", n.RecipientID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to insert notification: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit notification batch: %w", err)
	}

	r.logger.Info("Notifications inserted",
		zap.Int64("workspace_id", notifications[0].WorkspaceID),
		zap.Int("count", len(notifications)),
	)
	return nil
}

// Columns selected by every notification read; scanNotification's
// destinations must match this list one to one.
const notificationColumns = "id, workspace_id, recipient_id, triggered_by, severity, entity_kind, entity_id, message, is_read, created_at"

func scanNotification(row pgx.Row) (model.Notification, error) {
	var n model.Notification
	var entityKind *string
	if err := row.Scan(
		&n.ID,
		&n.WorkspaceID,
		&n.RecipientID,
		&n.TriggeredBy,
		&n.Severity,
		&entityKind,
		&n.EntityID,
		&n.Message,
		&n.IsRead,
		&n.CreatedAt,
	); err != nil {
		return model.Notification{}, err
	}
	if entityKind != nil {
		n.EntityKind = *entityKind
	}
	return n, nil
}

// NotificationFilter narrows a user's notification listing.
type NotificationFilter struct {
	WorkspaceID *int64
	Severity    *int
	IsRead      *bool
	Search      string
	Limit       int
	Offset      int
}

// ListByRecipient returns a user's notifications, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID int64, f NotificationFilter) ([]model.Notification, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + notificationColumns + " FROM notifications WHERE recipient_id = $1")

	args := []any{recipientID}
	if f.WorkspaceID != nil {
		args = append(args, *f.WorkspaceID)
		sb.WriteString(" AND workspace_id = $" + strconv.Itoa(len(args)))
	}
	if f.Severity != nil {
		args = append(args, *f.Severity)
		sb.WriteString(" AND severity = $" + strconv.Itoa(len(args)))
	}
	if f.IsRead != nil {
		args = append(args, *f.IsRead)
		sb.WriteString(" AND is_read = $" + strconv.Itoa(len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		sb.WriteString(" AND message ILIKE $" + strconv.Itoa(len(args)))
	}

	sb.WriteString(" ORDER BY created_at DESC")
	args = append(args, f.Limit)
	sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	args = append(args, f.Offset)
	sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		r.logger.Error("Failed to query notifications",
			zap.Int64("recipient_id", recipientID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// Get returns a single notification owned by the recipient.
func (r *NotificationRepository) Get(ctx context.Context, id, recipientID int64) (*model.Notification, error) {
	query := "SELECT " + notificationColumns + " FROM notifications WHERE id = $1 AND recipient_id = $2"

	n, err := scanNotification(r.db.QueryRow(ctx, query, id, recipientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// MarkRead flips is_read, the only mutable field.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to mark notification read",
			zap.Int64("notification_id", id),
			zap.Error(err),
		)
	}
	return err
}

// DeleteOlderThan removes notifications created before the cutoff. Used by
// the scheduled retention sweep.
func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE created_at <= $1`, cutoff)
	if err != nil {
		r.logger.Error("Failed to delete old notifications", zap.Error(err))
		return 0, err
	}
	return result.RowsAffected(), nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
