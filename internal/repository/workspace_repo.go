package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskhive/internal/model"
)

type WorkspaceRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewWorkspaceRepository(db *pgxpool.Pool, logger *zap.Logger) *WorkspaceRepository {
	return &WorkspaceRepository{db: db, logger: logger}
}

// IsMember reports whether the user belongs to the workspace.
func (r *WorkspaceRepository) IsMember(ctx context.Context, workspaceID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM workspace_members WHERE workspace_id = $1 AND user_id = $2)`,
		workspaceID, userID).Scan(&exists)
	return exists, err
}

// IsAdmin reports whether the user is an admin of the workspace.
func (r *WorkspaceRepository) IsAdmin(ctx context.Context, workspaceID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM workspace_members WHERE workspace_id = $1 AND user_id = $2 AND role = $3)`,
		workspaceID, userID, model.RoleAdmin).Scan(&exists)
	return exists, err
}

// ListMemberIDs returns every member of the workspace.
func (r *WorkspaceRepository) ListMemberIDs(ctx context.Context, workspaceID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id FROM workspace_members WHERE workspace_id = $1`, workspaceID)
	if err != nil {
		r.logger.Error("Failed to query workspace members",
			zap.Int64("workspace_id", workspaceID),
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
