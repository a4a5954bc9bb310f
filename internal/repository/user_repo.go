package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskhive/internal/model"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
        SELECT id, username, auto_subscribe, mention
        FROM users
        WHERE id = $1
    `

	var u model.User
	err := r.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.Username, &u.AutoSubscribe, &u.Mention)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ListByIDs returns the users that still exist; missing ids are silently
// dropped, callers tolerate deleted users.
func (r *UserRepository) ListByIDs(ctx context.Context, ids []int64) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, username, auto_subscribe, mention FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		r.logger.Error("Failed to query users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.AutoSubscribe, &u.Mention); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
