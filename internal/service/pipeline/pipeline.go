// Package pipeline is the entry point of the mutation-observation chain.
// The entity-store write path calls OnTaskSaved / OnRelationChanged after a
// task write; the pipeline detects loggable changes, captures the recipient
// snapshot synchronously, and durably enqueues the two-stage chain. The
// caller never blocks on log or notification completion, and a pipeline
// failure never fails the originating mutation.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	mqcontracts "taskhive/contracts/mq"
	"taskhive/internal/model"
	"taskhive/internal/service/changes"
	"taskhive/pkg/trace"
)

// MentionMessage is the direct notification sent to newly added assignees.
const MentionMessage = "You have been added to the task assignees"

type Enqueuer interface {
	Enqueue(ctx context.Context, routingKey string, payload any) error
}

type Subscriptions interface {
	Recipients(ctx context.Context, taskID int64) ([]int64, error)
	Subscribe(ctx context.Context, task *model.Task, userIDs []int64, explicit bool) error
	Unsubscribe(ctx context.Context, task *model.Task, userIDs []int64) error
}

type TaskStore interface {
	GetByID(ctx context.Context, id int64) (*model.Task, error)
}

type Pipeline struct {
	subscriptions Subscriptions
	tasks         TaskStore
	queue         Enqueuer
	logger        *zap.Logger
}

func New(subscriptions Subscriptions, tasks TaskStore, queue Enqueuer, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		subscriptions: subscriptions,
		tasks:         tasks,
		queue:         queue,
		logger:        logger,
	}
}

// OnTaskSaved handles a scalar-field save. Housekeeping-only saves are the
// short-circuit: no event, nothing enqueued.
func (p *Pipeline) OnTaskSaved(ctx context.Context, taskID int64, changedFields []string, actorID int64, occurredAt time.Time) error {
	ev := changes.Detect(taskID, changedFields, &actorID, occurredAt)
	if ev == nil {
		p.logger.Debug("No loggable fields in save, skipping",
			zap.Int64("task_id", taskID),
		)
		return nil
	}

	recipients, err := p.subscriptions.Recipients(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipients: %w", err)
	}

	return p.enqueueChain(ctx, *ev, recipients)
}

// OnRelationChanged handles an assignees/tags membership delta. Assignee
// adds auto-subscribe the new users (preference permitting) and send them a
// direct mention notification; assignee removals unsubscribe (creator
// excepted) and deliberately do not notify the removed users. The recipient
// snapshot is taken after the subscription changes so it reflects them.
func (p *Pipeline) OnRelationChanged(ctx context.Context, taskID int64, relation, action string, objectIDs []int64, actorID int64) error {
	task, err := p.tasks.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to load task %d: %w", taskID, err)
	}

	ev := changes.DetectRelation(taskID, relation, action, objectIDs, &actorID, task.UpdatedAt)
	if ev == nil {
		p.logger.Debug("Empty or unknown relation delta, skipping",
			zap.Int64("task_id", taskID),
			zap.String("relation", relation),
		)
		return nil
	}

	if relation == changes.RelationAssignees {
		switch action {
		case model.ActionAdd:
			if err := p.subscriptions.Subscribe(ctx, task, objectIDs, false); err != nil {
				return fmt.Errorf("failed to auto-subscribe assignees: %w", err)
			}
			if err := p.enqueueMention(ctx, task, objectIDs, actorID); err != nil {
				return err
			}
		case model.ActionRemove:
			if err := p.subscriptions.Unsubscribe(ctx, task, objectIDs); err != nil {
				return fmt.Errorf("failed to unsubscribe assignees: %w", err)
			}
		}
	}

	recipients, err := p.subscriptions.Recipients(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipients: %w", err)
	}

	// A removed user never hears about their own removal, even when they
	// stay subscribed (the task creator is never unsubscribed).
	if relation == changes.RelationAssignees && action == model.ActionRemove {
		recipients = exclude(recipients, objectIDs)
	}

	return p.enqueueChain(ctx, *ev, recipients)
}

func exclude(ids, drop []int64) []int64 {
	dropped := make(map[int64]struct{}, len(drop))
	for _, id := range drop {
		dropped[id] = struct{}{}
	}
	kept := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := dropped[id]; ok {
			continue
		}
		kept = append(kept, id)
	}
	return kept
}

// ListRecipients exposes the current subscriber set to read handlers.
func (p *Pipeline) ListRecipients(ctx context.Context, taskID int64) ([]int64, error) {
	return p.subscriptions.Recipients(ctx, taskID)
}

func (p *Pipeline) enqueueChain(ctx context.Context, ev changes.Event, recipients []int64) error {
	payload := mqcontracts.ActivityLogRequestedPayload{
		EventID:    trace.NewID(),
		TaskID:     ev.TaskID,
		Fields:     ev.Fields,
		Relation:   ev.Relation,
		Action:     ev.Action,
		ObjectIDs:  ev.ObjectIDs,
		ActorID:    ev.ActorID,
		Detail:     ev.Detail,
		OccurredAt: ev.OccurredAt,
		Recipients: recipients,
	}

	if err := p.queue.Enqueue(ctx, mqcontracts.RouteActivityLog, payload); err != nil {
		return fmt.Errorf("failed to enqueue activity log stage: %w", err)
	}

	p.logger.Info("Activity chain enqueued",
		zap.Int64("task_id", ev.TaskID),
		zap.String("event_id", payload.EventID),
		zap.Int("recipients", len(recipients)),
	)
	return nil
}

func (p *Pipeline) enqueueMention(ctx context.Context, task *model.Task, userIDs []int64, actorID int64) error {
	payload := mqcontracts.NotificationDispatchPayload{
		Recipients:  userIDs,
		WorkspaceID: task.WorkspaceID,
		Severity:    model.SeverityInformative,
		TriggeredBy: &actorID,
		Message:     MentionMessage,
		EntityKind:  "task",
		EntityID:    &task.ID,
		Mention:     true,
	}

	if err := p.queue.Enqueue(ctx, mqcontracts.RouteDispatch, payload); err != nil {
		return fmt.Errorf("failed to enqueue mention notification: %w", err)
	}
	return nil
}
