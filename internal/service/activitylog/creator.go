// Package activitylog converts change events into immutable audit log rows.
package activitylog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"taskhive/internal/model"
	"taskhive/internal/repository"
	"taskhive/internal/service/changes"
)

type TaskStore interface {
	GetByID(ctx context.Context, id int64) (*model.Task, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.User, error)
}

type TagStore interface {
	ListByIDs(ctx context.Context, ids []int64) ([]model.Tag, error)
}

type LogStore interface {
	InsertBatch(ctx context.Context, entries []model.ActivityLog) ([]model.ActivityLog, error)
}

type Creator struct {
	tasks  TaskStore
	users  UserStore
	tags   TagStore
	logs   LogStore
	logger *zap.Logger
}

func NewCreator(tasks TaskStore, users UserStore, tags TagStore, logs LogStore, logger *zap.Logger) *Creator {
	return &Creator{
		tasks:  tasks,
		users:  users,
		tags:   tags,
		logs:   logs,
		logger: logger,
	}
}

// CreateFromEvent builds and writes the log entries for one change event:
// one row per scalar field, or one row for a relation batch. All rows share
// the event's mutation timestamp, never the processing time. A missing
// actor never fails the write; the entries keep a null actor id.
func (c *Creator) CreateFromEvent(ctx context.Context, ev changes.Event) ([]model.ActivityLog, error) {
	task, err := c.tasks.GetByID(ctx, ev.TaskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task %d: %w", ev.TaskID, err)
	}

	actorID, actorName := c.resolveActor(ctx, ev.ActorID)

	var entries []model.ActivityLog
	if ev.Relation != "" {
		entry, err := c.relationEntry(ctx, task, ev, actorID, actorName)
		if err != nil {
			return nil, err
		}
		entries = []model.ActivityLog{entry}
	} else {
		entries = c.scalarEntries(task, ev, actorID, actorName)
	}

	created, err := c.logs.InsertBatch(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to write activity log: %w", err)
	}
	return created, nil
}

// resolveActor tolerates a deleted actor: the log is written with a null
// actor id and an empty display name.
func (c *Creator) resolveActor(ctx context.Context, actorID *int64) (*int64, string) {
	if actorID == nil {
		return nil, ""
	}
	actor, err := c.users.GetByID(ctx, *actorID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			c.logger.Warn("Actor lookup failed, logging without actor",
				zap.Int64("actor_id", *actorID),
				zap.Error(err),
			)
		}
		return nil, ""
	}
	return actorID, actor.Username
}

func (c *Creator) scalarEntries(task *model.Task, ev changes.Event, actorID *int64, actorName string) []model.ActivityLog {
	entries := make([]model.ActivityLog, 0, len(ev.Fields))
	for _, field := range ev.Fields {
		value := changes.TaskFieldValue(task, field)
		rule := changes.RuleFor(field)

		detail := ev.Detail
		if detail == "" {
			detail = rule.Detail(actorName, field, value)
		}

		entries = append(entries, model.ActivityLog{
			WorkspaceID: task.WorkspaceID,
			ProjectID:   task.ProjectID,
			TaskID:      task.ID,
			ActorID:     actorID,
			ActionKind:  rule.Kind(value),
			Field:       field,
			Value:       value,
			Detail:      detail,
			Timestamp:   ev.OccurredAt,
		})
	}
	return entries
}

func (c *Creator) relationEntry(ctx context.Context, task *model.Task, ev changes.Event, actorID *int64, actorName string) (model.ActivityLog, error) {
	names, err := c.relatedNames(ctx, ev.Relation, ev.ObjectIDs)
	if err != nil {
		return model.ActivityLog{}, err
	}

	detail := ev.Detail
	if detail == "" {
		detail = changes.RelationDetail(actorName, ev.Relation, ev.Action, names)
	}

	return model.ActivityLog{
		WorkspaceID: task.WorkspaceID,
		ProjectID:   task.ProjectID,
		TaskID:      task.ID,
		ActorID:     actorID,
		ActionKind:  ev.Action,
		Field:       ev.Relation,
		Value:       names,
		Detail:      detail,
		Timestamp:   ev.OccurredAt,
	}, nil
}

// relatedNames renders the comma-joined display names of the affected
// objects: usernames for assignees, tag names for tags.
func (c *Creator) relatedNames(ctx context.Context, relation string, ids []int64) (string, error) {
	switch relation {
	case changes.RelationAssignees:
		users, err := c.users.ListByIDs(ctx, ids)
		if err != nil {
			return "", fmt.Errorf("failed to load assignees: %w", err)
		}
		names := make([]string, 0, len(users))
		for _, u := range users {
			names = append(names, u.Username)
		}
		return strings.Join(names, ", "), nil
	case changes.RelationTags:
		tags, err := c.tags.ListByIDs(ctx, ids)
		if err != nil {
			return "", fmt.Errorf("failed to load tags: %w", err)
		}
		names := make([]string, 0, len(tags))
		for _, t := range tags {
			names = append(names, t.Name)
		}
		return strings.Join(names, ", "), nil
	}
	return "", fmt.Errorf("unknown relation: %s", relation)
}
