package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskhive/internal/model"
)

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

// GetByID loads a task, archived or not. The pipeline must still be able to
// log changes for a task that got archived between trigger and processing.
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	query := `
        SELECT id, workspace_id, project_id, module_id, title, description, state,
               priority, deadline, created_by, updated_by, created_at, updated_at,
               archive_at, is_archive
        FROM tasks
        WHERE id = $1
    `

	var t model.Task
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.WorkspaceID,
		&t.ProjectID,
		&t.ModuleID,
		&t.Title,
		&t.Description,
		&t.State,
		&t.Priority,
		&t.Deadline,
		&t.CreatedBy,
		&t.UpdatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.ArchiveAt,
		&t.IsArchive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Updatable scalar columns for the thin PATCH surface.
var taskColumns = map[string]struct{}{
	"title":       {},
	"description": {},
	"state":       {},
	"priority":    {},
	"deadline":    {},
	"module_id":   {},
}

// orderedTaskFields validates the field names against the whitelist and
// returns them sorted, so the changed list (and the summary built from it)
// does not depend on map iteration order.
func orderedTaskFields(fields map[string]any) ([]string, error) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if _, ok := taskColumns[col]; !ok {
			return nil, fmt.Errorf("unknown task field: %s", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols, nil
}

// UpdateFields applies a partial update and stamps updated_at/updated_by.
// Returns the changed field names in sorted order.
func (r *TaskRepository) UpdateFields(ctx context.Context, taskID int64, fields map[string]any, actorID int64, now time.Time) ([]string, error) {
	changed, err := orderedTaskFields(fields)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString("UPDATE tasks SET ")
	args := []any{}
	for _, col := range changed {
		args = append(args, fields[col])
		sb.WriteString(col + " = $" + strconv.Itoa(len(args)) + ", ")
	}

	args = append(args, now)
	sb.WriteString("updated_at = $" + strconv.Itoa(len(args)) + ", ")
	args = append(args, actorID)
	sb.WriteString("updated_by = $" + strconv.Itoa(len(args)))
	args = append(args, taskID)
	sb.WriteString(" WHERE id = $" + strconv.Itoa(len(args)))

	result, err := r.db.Exec(ctx, sb.String(), args...)
	if err != nil {
		r.logger.Error("Failed to update task",
			zap.Int64("task_id", taskID),
			zap.Error(err),
		)
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	r.logger.Info("Task updated",
		zap.Int64("task_id", taskID),
		zap.Strings("fields", changed),
	)
	return changed, nil
}

// AddAssignees links users to a task; duplicates are no-ops. Returns the ids
// that were actually added.
func (r *TaskRepository) AddAssignees(ctx context.Context, taskID int64, userIDs []int64) ([]int64, error) {
	added := make([]int64, 0, len(userIDs))
	for _, uid := range userIDs {
		result, err := r.db.Exec(ctx,
			`INSERT INTO task_assignees (task_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			taskID, uid)
		if err != nil {
			return nil, fmt.Errorf("failed to add assignee: %w", err)
		}
		if result.RowsAffected() > 0 {
			added = append(added, uid)
		}
	}
	return added, nil
}

// RemoveAssignees unlinks users from a task. Returns the ids that were
// actually removed.
func (r *TaskRepository) RemoveAssignees(ctx context.Context, taskID int64, userIDs []int64) ([]int64, error) {
	removed := make([]int64, 0, len(userIDs))
	for _, uid := range userIDs {
		result, err := r.db.Exec(ctx,
			`DELETE FROM task_assignees WHERE task_id = $1 AND user_id = $2`,
			taskID, uid)
		if err != nil {
			return nil, fmt.Errorf("failed to remove assignee: %w", err)
		}
		if result.RowsAffected() > 0 {
			removed = append(removed, uid)
		}
	}
	return removed, nil
}

// AddTags links tags to a task; duplicates are no-ops.
func (r *TaskRepository) AddTags(ctx context.Context, taskID int64, tagIDs []int64) ([]int64, error) {
	added := make([]int64, 0, len(tagIDs))
	for _, tid := range tagIDs {
		result, err := r.db.Exec(ctx,
			`INSERT INTO task_tags (task_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			taskID, tid)
		if err != nil {
			return nil, fmt.Errorf("failed to add tag: %w", err)
		}
		if result.RowsAffected() > 0 {
			added = append(added, tid)
		}
	}
	return added, nil
}

// RemoveTags unlinks tags from a task.
func (r *TaskRepository) RemoveTags(ctx context.Context, taskID int64, tagIDs []int64) ([]int64, error) {
	removed := make([]int64, 0, len(tagIDs))
	for _, tid := range tagIDs {
		result, err := r.db.Exec(ctx,
			`DELETE FROM task_tags WHERE task_id = $1 AND tag_id = $2`,
			taskID, tid)
		if err != nil {
			return nil, fmt.Errorf("failed to remove tag: %w", err)
		}
		if result.RowsAffected() > 0 {
			removed = append(removed, tid)
		}
	}
	return removed, nil
}

// TouchUpdated stamps updated_at/updated_by without changing other fields.
// Relation changes carry the task's mutation timestamp into the log entries.
func (r *TaskRepository) TouchUpdated(ctx context.Context, taskID int64, actorID int64, now time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE tasks SET updated_at = $1, updated_by = $2 WHERE id = $3`,
		now, actorID, taskID)
	return err
}
