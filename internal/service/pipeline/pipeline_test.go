package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mqcontracts "taskhive/contracts/mq"
	"taskhive/internal/model"
	"taskhive/internal/service/changes"
)

type enqueued struct {
	routingKey string
	payload    any
}

type fakeQueue struct {
	events []enqueued
}

func (f *fakeQueue) Enqueue(_ context.Context, routingKey string, payload any) error {
	f.events = append(f.events, enqueued{routingKey: routingKey, payload: payload})
	return nil
}

type fakeSubscriptions struct {
	recipients   []int64
	subscribed   []int64
	unsubscribed []int64
	explicit     bool
}

func (f *fakeSubscriptions) Recipients(_ context.Context, _ int64) ([]int64, error) {
	return f.recipients, nil
}

func (f *fakeSubscriptions) Subscribe(_ context.Context, _ *model.Task, userIDs []int64, explicit bool) error {
	f.subscribed = append(f.subscribed, userIDs...)
	f.explicit = explicit
	// Auto-subscription grows the snapshot the chain will carry.
	f.recipients = append(f.recipients, userIDs...)
	return nil
}

// Unsubscribe mirrors the real service: the task creator keeps their
// subscription.
func (f *fakeSubscriptions) Unsubscribe(_ context.Context, task *model.Task, userIDs []int64) error {
	f.unsubscribed = append(f.unsubscribed, userIDs...)
	remaining := make([]int64, 0, len(f.recipients))
	for _, id := range f.recipients {
		removed := false
		for _, gone := range userIDs {
			if id == gone && id != task.CreatedBy {
				removed = true
				break
			}
		}
		if !removed {
			remaining = append(remaining, id)
		}
	}
	f.recipients = remaining
	return nil
}

type fakeTaskStore struct {
	task *model.Task
}

func (f *fakeTaskStore) GetByID(_ context.Context, _ int64) (*model.Task, error) {
	return f.task, nil
}

func testTask() *model.Task {
	return &model.Task{
		ID:          42,
		WorkspaceID: 1,
		CreatedBy:   100,
		UpdatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestOnTaskSavedEnqueuesChain(t *testing.T) {
	t.Parallel()

	queue := &fakeQueue{}
	subs := &fakeSubscriptions{recipients: []int64{100, 10}}
	p := New(subs, &fakeTaskStore{task: testTask()}, queue, zap.NewNop())

	occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := p.OnTaskSaved(context.Background(), 42, []string{"state", "updated_at"}, 7, occurredAt)
	require.NoError(t, err)

	require.Len(t, queue.events, 1)
	assert.Equal(t, mqcontracts.RouteActivityLog, queue.events[0].routingKey)

	payload, ok := queue.events[0].payload.(mqcontracts.ActivityLogRequestedPayload)
	require.True(t, ok)
	assert.NotEmpty(t, payload.EventID)
	assert.Equal(t, int64(42), payload.TaskID)
	assert.Equal(t, []string{"state"}, payload.Fields)
	assert.Equal(t, []int64{100, 10}, payload.Recipients)
	assert.Equal(t, occurredAt, payload.OccurredAt)
	require.NotNil(t, payload.ActorID)
	assert.Equal(t, int64(7), *payload.ActorID)
}

func TestOnTaskSavedHousekeepingOnlyIsNoop(t *testing.T) {
	t.Parallel()

	queue := &fakeQueue{}
	p := New(&fakeSubscriptions{}, &fakeTaskStore{task: testTask()}, queue, zap.NewNop())

	err := p.OnTaskSaved(context.Background(), 42, []string{"updated_at", "updated_by"}, 7, time.Now())
	require.NoError(t, err)
	assert.Empty(t, queue.events)
}

func TestOnRelationChangedAssigneesAdded(t *testing.T) {
	t.Parallel()

	queue := &fakeQueue{}
	subs := &fakeSubscriptions{recipients: []int64{100}}
	p := New(subs, &fakeTaskStore{task: testTask()}, queue, zap.NewNop())

	err := p.OnRelationChanged(context.Background(), 42, changes.RelationAssignees, model.ActionAdd, []int64{10}, 7)
	require.NoError(t, err)

	assert.Equal(t, []int64{10}, subs.subscribed)
	assert.False(t, subs.explicit)

	require.Len(t, queue.events, 2)

	// Mention goes out directly, not through the chain.
	assert.Equal(t, mqcontracts.RouteDispatch, queue.events[0].routingKey)
	mention, ok := queue.events[0].payload.(mqcontracts.NotificationDispatchPayload)
	require.True(t, ok)
	assert.Equal(t, []int64{10}, mention.Recipients)
	assert.True(t, mention.Mention)
	assert.Equal(t, MentionMessage, mention.Message)
	assert.Equal(t, model.SeverityInformative, mention.Severity)

	// The chain snapshot includes the freshly auto-subscribed assignee.
	assert.Equal(t, mqcontracts.RouteActivityLog, queue.events[1].routingKey)
	chain, ok := queue.events[1].payload.(mqcontracts.ActivityLogRequestedPayload)
	require.True(t, ok)
	assert.Equal(t, changes.RelationAssignees, chain.Relation)
	assert.Equal(t, model.ActionAdd, chain.Action)
	assert.Equal(t, []int64{100, 10}, chain.Recipients)
}

func TestOnRelationChangedAssigneesRemoved(t *testing.T) {
	t.Parallel()

	queue := &fakeQueue{}
	subs := &fakeSubscriptions{recipients: []int64{100, 10}}
	p := New(subs, &fakeTaskStore{task: testTask()}, queue, zap.NewNop())

	err := p.OnRelationChanged(context.Background(), 42, changes.RelationAssignees, model.ActionRemove, []int64{10}, 7)
	require.NoError(t, err)

	assert.Equal(t, []int64{10}, subs.unsubscribed)

	// No mention for removals, and the removed user is out of the snapshot.
	require.Len(t, queue.events, 1)
	assert.Equal(t, mqcontracts.RouteActivityLog, queue.events[0].routingKey)
	chain, ok := queue.events[0].payload.(mqcontracts.ActivityLogRequestedPayload)
	require.True(t, ok)
	assert.Equal(t, []int64{100}, chain.Recipients)
}

func TestOnRelationChangedRemovedCreatorNotNotified(t *testing.T) {
	t.Parallel()

	queue := &fakeQueue{}
	subs := &fakeSubscriptions{recipients: []int64{100, 10}}
	p := New(subs, &fakeTaskStore{task: testTask()}, queue, zap.NewNop())

	// The creator (100) loses the assignee role but stays subscribed.
	err := p.OnRelationChanged(context.Background(), 42, changes.RelationAssignees, model.ActionRemove, []int64{100}, 7)
	require.NoError(t, err)

	assert.Equal(t, []int64{100, 10}, subs.recipients)

	require.Len(t, queue.events, 1)
	chain, ok := queue.events[0].payload.(mqcontracts.ActivityLogRequestedPayload)
	require.True(t, ok)
	assert.Equal(t, []int64{10}, chain.Recipients)
}

func TestOnRelationChangedTagsDoNotTouchSubscriptions(t *testing.T) {
	t.Parallel()

	queue := &fakeQueue{}
	subs := &fakeSubscriptions{recipients: []int64{100}}
	p := New(subs, &fakeTaskStore{task: testTask()}, queue, zap.NewNop())

	err := p.OnRelationChanged(context.Background(), 42, changes.RelationTags, model.ActionAdd, []int64{5}, 7)
	require.NoError(t, err)

	assert.Empty(t, subs.subscribed)
	require.Len(t, queue.events, 1)
	assert.Equal(t, mqcontracts.RouteActivityLog, queue.events[0].routingKey)
}

func TestOnRelationChangedUnknownRelationIsNoop(t *testing.T) {
	t.Parallel()

	queue := &fakeQueue{}
	p := New(&fakeSubscriptions{}, &fakeTaskStore{task: testTask()}, queue, zap.NewNop())

	err := p.OnRelationChanged(context.Background(), 42, "watchers", model.ActionAdd, []int64{5}, 7)
	require.NoError(t, err)
	assert.Empty(t, queue.events)
}
