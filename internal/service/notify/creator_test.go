package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskhive/internal/model"
	"taskhive/internal/repository"
)

type fakeNotificationStore struct {
	inserted []model.Notification
}

func (f *fakeNotificationStore) InsertBatch(_ context.Context, rows []model.Notification) error {
	f.inserted = append(f.inserted, rows...)
	return nil
}

type fakeUserStore struct {
	users map[int64]model.User
}

func (f *fakeUserStore) ListByIDs(_ context.Context, ids []int64) ([]model.User, error) {
	out := make([]model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeTaskStore struct {
	task *model.Task
	err  error
}

func (f *fakeTaskStore) GetByID(_ context.Context, _ int64) (*model.Task, error) {
	return f.task, f.err
}

func newTestCreator(store *fakeNotificationStore, users map[int64]model.User, tasks *fakeTaskStore) *Creator {
	c := NewCreator(store, &fakeUserStore{users: users}, tasks, zap.NewNop())
	c.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestDispatchFansOutPerRecipient(t *testing.T) {
	t.Parallel()

	actorID := int64(7)
	taskID := int64(42)
	store := &fakeNotificationStore{}
	creator := newTestCreator(store, map[int64]model.User{
		10: {ID: 10},
		11: {ID: 11},
		12: {ID: 12},
	}, &fakeTaskStore{task: &model.Task{ID: taskID}})

	err := creator.Dispatch(context.Background(), []int64{10, 11, 12}, Payload{
		WorkspaceID: 1,
		Severity:    model.SeverityInformative,
		TriggeredBy: &actorID,
		Message:     "alice set state done",
		EntityKind:  "task",
		EntityID:    &taskID,
	})
	require.NoError(t, err)

	require.Len(t, store.inserted, 3)
	seen := map[int64]bool{}
	for _, n := range store.inserted {
		seen[n.RecipientID] = true
		assert.Equal(t, int64(1), n.WorkspaceID)
		assert.Equal(t, "alice set state done", n.Message)
		assert.Equal(t, "task", n.EntityKind)
		assert.Equal(t, &taskID, n.EntityID)
		assert.False(t, n.IsRead)
	}
	assert.Len(t, seen, 3)
}

func TestDispatchMentionFilter(t *testing.T) {
	t.Parallel()

	store := &fakeNotificationStore{}
	creator := newTestCreator(store, map[int64]model.User{
		10: {ID: 10, Mention: true},
		11: {ID: 11, Mention: false},
	}, &fakeTaskStore{err: repository.ErrNotFound})

	err := creator.Dispatch(context.Background(), []int64{10, 11}, Payload{
		WorkspaceID: 1,
		Message:     "You have been added to the task assignees",
		MentionOnly: true,
	})
	require.NoError(t, err)

	require.Len(t, store.inserted, 1)
	assert.Equal(t, int64(10), store.inserted[0].RecipientID)
}

func TestDispatchDropsDeletedRecipients(t *testing.T) {
	t.Parallel()

	store := &fakeNotificationStore{}
	creator := newTestCreator(store, map[int64]model.User{
		10: {ID: 10},
	}, &fakeTaskStore{err: repository.ErrNotFound})

	err := creator.Dispatch(context.Background(), []int64{10, 99}, Payload{WorkspaceID: 1, Message: "hi"})
	require.NoError(t, err)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, int64(10), store.inserted[0].RecipientID)
}

func TestDispatchMissingSubjectDegrades(t *testing.T) {
	t.Parallel()

	taskID := int64(42)
	store := &fakeNotificationStore{}
	creator := newTestCreator(store, map[int64]model.User{10: {ID: 10}},
		&fakeTaskStore{err: repository.ErrNotFound})

	err := creator.Dispatch(context.Background(), []int64{10}, Payload{
		WorkspaceID: 1,
		Message:     "alice set state done",
		EntityKind:  "task",
		EntityID:    &taskID,
	})
	require.NoError(t, err)

	require.Len(t, store.inserted, 1)
	assert.Empty(t, store.inserted[0].EntityKind)
	assert.Nil(t, store.inserted[0].EntityID)
}

func TestDispatchEmptyRecipients(t *testing.T) {
	t.Parallel()

	store := &fakeNotificationStore{}
	creator := newTestCreator(store, nil, &fakeTaskStore{})

	require.NoError(t, creator.Dispatch(context.Background(), nil, Payload{WorkspaceID: 1}))
	assert.Empty(t, store.inserted)
}
