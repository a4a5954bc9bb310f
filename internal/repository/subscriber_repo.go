package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskhive/internal/model"
)

type SubscriberRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSubscriberRepository(db *pgxpool.Pool, logger *zap.Logger) *SubscriberRepository {
	return &SubscriberRepository{db: db, logger: logger}
}

// ListSubscriberIDs returns the ids of every user subscribed to a task.
func (r *SubscriberRepository) ListSubscriberIDs(ctx context.Context, taskID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT subscriber_id FROM task_subscribers WHERE task_id = $1`, taskID)
	if err != nil {
		r.logger.Error("Failed to query task subscribers",
			zap.Int64("task_id", taskID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertBatch registers subscribers. A duplicate (task, subscriber) pair is
// a no-op, resolved at the unique constraint.
func (r *SubscriberRepository) InsertBatch(ctx context.Context, subscribers []model.TaskSubscriber) error {
	if len(subscribers) == 0 {
		return nil
	}

	query := `
        INSERT INTO task_subscribers (task_id, subscriber_id, workspace_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (task_id, subscriber_id) DO NOTHING
    `

	for _, s := range subscribers {
		if _, err := r.db.Exec(ctx, query, s.TaskID, s.SubscriberID, s.WorkspaceID); err != nil {
			r.logger.Error("Failed to insert task subscriber",
				zap.Int64("task_id", s.TaskID),
				zap.Int64("subscriber_id", s.SubscriberID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to insert task subscriber: %w", err)
		}
	}

	r.logger.Info("Task subscribers registered",
		zap.Int64("task_id", subscribers[0].TaskID),
		zap.Int("count", len(subscribers)),
	)
	return nil
}

// Delete removes the given users' subscriptions from a task.
func (r *SubscriberRepository) Delete(ctx context.Context, taskID int64, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	_, err := r.db.Exec(ctx,
		`DELETE FROM task_subscribers WHERE task_id = $1 AND subscriber_id = ANY($2)`,
		taskID, userIDs)
	if err != nil {
		r.logger.Error("Failed to delete task subscribers",
			zap.Int64("task_id", taskID),
			zap.Int("count", len(userIDs)),
			zap.Error(err),
		)
		return err
	}

	r.logger.Info("Task subscribers removed",
		zap.Int64("task_id", taskID),
		zap.Int("count", len(userIDs)),
	)
	return nil
}
