package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskhive/internal/model"
)

type ActivityLogRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewActivityLogRepository(db *pgxpool.Pool, logger *zap.Logger) *ActivityLogRepository {
	return &ActivityLogRepository{db: db, logger: logger}
}

// InsertBatch writes all entries of one save in a single transaction and
// returns them with ids assigned. All or none.
func (r *ActivityLogRepository) InsertBatch(ctx context.Context, entries []model.ActivityLog) ([]model.ActivityLog, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO task_activity_logs
            (workspace_id, project_id, task_id, actor_id, action_kind, field, value, detail, timestamp)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `

	created := make([]model.ActivityLog, 0, len(entries))
	for _, e := range entries {
		err := tx.QueryRow(ctx, query,
			e.WorkspaceID,
			e.ProjectID,
			e.TaskID,
			e.ActorID,
			e.ActionKind,
			e.Field,
			e.Value,
			e.Detail,
			e.Timestamp,
		).Scan(&e.ID)
		if err != nil {
			r.logger.Error("Failed to insert activity log entry",
				zap.Int64("task_id", e.TaskID),
				zap.String("field", e.Field),
				zap.Error(err),
			)
			return nil, fmt.Errorf("failed to insert activity log entry: %w", err)
		}
		created = append(created, e)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit activity log batch: %w", err)
	}

	r.logger.Info("Activity log entries inserted",
		zap.Int64("task_id", entries[0].TaskID),
		zap.Int("count", len(created)),
	)
	return created, nil
}

// ListByTask returns a task's activity, newest first.
func (r *ActivityLogRepository) ListByTask(ctx context.Context, taskID int64, limit, offset int) ([]model.ActivityLog, error) {
	query := `
        SELECT id, workspace_id, project_id, task_id, actor_id, action_kind, field, value, detail, timestamp
        FROM task_activity_logs
        WHERE task_id = $1
        ORDER BY timestamp DESC
        LIMIT $2 OFFSET $3
    `

	rows, err := r.db.Query(ctx, query, taskID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to query task activity logs",
			zap.Int64("task_id", taskID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	return scanActivityLogs(rows)
}

// ListByActor returns the activity an actor triggered within a workspace,
// newest first.
func (r *ActivityLogRepository) ListByActor(ctx context.Context, workspaceID, actorID int64, limit, offset int) ([]model.ActivityLog, error) {
	query := `
        SELECT id, workspace_id, project_id, task_id, actor_id, action_kind, field, value, detail, timestamp
        FROM task_activity_logs
        WHERE workspace_id = $1 AND actor_id = $2
        ORDER BY timestamp DESC
        LIMIT $3 OFFSET $4
    `

	rows, err := r.db.Query(ctx, query, workspaceID, actorID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to query actor activity logs",
			zap.Int64("workspace_id", workspaceID),
			zap.Int64("actor_id", actorID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	return scanActivityLogs(rows)
}

func scanActivityLogs(rows pgx.Rows) ([]model.ActivityLog, error) {
	logs := []model.ActivityLog{}
	for rows.Next() {
		var l model.ActivityLog
		if err := rows.Scan(
			&l.ID,
			&l.WorkspaceID,
			&l.ProjectID,
			&l.TaskID,
			&l.ActorID,
			&l.ActionKind,
			&l.Field,
			&l.Value,
			&l.Detail,
			&l.Timestamp,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
