// Package subscription owns the task subscriber rows and resolves the
// notification recipient set.
package subscription

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"taskhive/internal/model"
)

// ErrNotInWorkspace is returned when a subscribe request names users outside
// the task's workspace.
var ErrNotInWorkspace = errors.New("not all users were found in this workspace")

type SubscriberStore interface {
	ListSubscriberIDs(ctx context.Context, taskID int64) ([]int64, error)
	InsertBatch(ctx context.Context, subscribers []model.TaskSubscriber) error
	Delete(ctx context.Context, taskID int64, userIDs []int64) error
}

type MemberStore interface {
	IsMember(ctx context.Context, workspaceID, userID int64) (bool, error)
}

type UserStore interface {
	ListByIDs(ctx context.Context, ids []int64) ([]model.User, error)
}

type Service struct {
	subscribers SubscriberStore
	members     MemberStore
	users       UserStore
	logger      *zap.Logger
}

func NewService(subscribers SubscriberStore, members MemberStore, users UserStore, logger *zap.Logger) *Service {
	return &Service{
		subscribers: subscribers,
		members:     members,
		users:       users,
		logger:      logger,
	}
}

// Recipients returns the current subscriber set for a task. The pipeline
// calls this synchronously at trigger time so the notify stage works off a
// snapshot, not a later re-query.
func (s *Service) Recipients(ctx context.Context, taskID int64) ([]int64, error) {
	return s.subscribers.ListSubscriberIDs(ctx, taskID)
}

// Subscribe registers users on a task. Non-explicit (automatic) subscription
// skips users who disabled the auto_subscribe preference; an explicit opt-in
// bypasses it. Users outside the task's workspace are rejected. Already
// subscribed users are a no-op at the unique constraint.
func (s *Service) Subscribe(ctx context.Context, task *model.Task, userIDs []int64, explicit bool) error {
	userIDs = dedupe(userIDs)
	if len(userIDs) == 0 {
		return nil
	}

	for _, uid := range userIDs {
		ok, err := s.members.IsMember(ctx, task.WorkspaceID, uid)
		if err != nil {
			return fmt.Errorf("failed to check workspace membership: %w", err)
		}
		if !ok {
			return ErrNotInWorkspace
		}
	}

	if !explicit {
		users, err := s.users.ListByIDs(ctx, userIDs)
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		userIDs = userIDs[:0]
		for _, u := range users {
			if u.AutoSubscribe {
				userIDs = append(userIDs, u.ID)
			}
		}
	}
	if len(userIDs) == 0 {
		return nil
	}

	subs := make([]model.TaskSubscriber, 0, len(userIDs))
	for _, uid := range userIDs {
		subs = append(subs, model.TaskSubscriber{
			TaskID:       task.ID,
			SubscriberID: uid,
			WorkspaceID:  task.WorkspaceID,
		})
	}
	return s.subscribers.InsertBatch(ctx, subs)
}

// Unsubscribe removes users' subscriptions. The task creator is never
// auto-unsubscribed.
func (s *Service) Unsubscribe(ctx context.Context, task *model.Task, userIDs []int64) error {
	userIDs = dedupe(userIDs)
	filtered := userIDs[:0]
	for _, uid := range userIDs {
		if uid == task.CreatedBy {
			s.logger.Debug("Skipping unsubscribe for task creator",
				zap.Int64("task_id", task.ID),
				zap.Int64("user_id", uid),
			)
			continue
		}
		filtered = append(filtered, uid)
	}
	if len(filtered) == 0 {
		return nil
	}
	return s.subscribers.Delete(ctx, task.ID, filtered)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
