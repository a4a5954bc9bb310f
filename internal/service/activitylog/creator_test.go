package activitylog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskhive/internal/model"
	"taskhive/internal/repository"
	"taskhive/internal/service/changes"
)

type fakeTaskStore struct {
	task *model.Task
	err  error
}

func (f *fakeTaskStore) GetByID(_ context.Context, _ int64) (*model.Task, error) {
	return f.task, f.err
}

type fakeUserStore struct {
	users map[int64]*model.User
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) ListByIDs(_ context.Context, ids []int64) ([]model.User, error) {
	out := make([]model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeTagStore struct {
	tags map[int64]model.Tag
}

func (f *fakeTagStore) ListByIDs(_ context.Context, ids []int64) ([]model.Tag, error) {
	out := make([]model.Tag, 0, len(ids))
	for _, id := range ids {
		if tag, ok := f.tags[id]; ok {
			out = append(out, tag)
		}
	}
	return out, nil
}

type fakeLogStore struct {
	inserted []model.ActivityLog
}

func (f *fakeLogStore) InsertBatch(_ context.Context, entries []model.ActivityLog) ([]model.ActivityLog, error) {
	f.inserted = entries
	created := make([]model.ActivityLog, len(entries))
	copy(created, entries)
	for i := range created {
		created[i].ID = int64(i + 1)
	}
	return created, nil
}

func testTask() *model.Task {
	return &model.Task{
		ID:          42,
		WorkspaceID: 1,
		ProjectID:   2,
		Title:       "Ship release",
		State:       "in_progress",
		Priority:    3,
	}
}

func TestCreateFromEventScalar(t *testing.T) {
	t.Parallel()

	actorID := int64(7)
	occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	logs := &fakeLogStore{}
	creator := NewCreator(
		&fakeTaskStore{task: testTask()},
		&fakeUserStore{users: map[int64]*model.User{7: {ID: 7, Username: "alice"}}},
		&fakeTagStore{},
		logs,
		zap.NewNop(),
	)

	created, err := creator.CreateFromEvent(context.Background(), changes.Event{
		TaskID:     42,
		Fields:     []string{"title", "state"},
		ActorID:    &actorID,
		OccurredAt: occurredAt,
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	first := created[0]
	assert.Equal(t, int64(1), first.WorkspaceID)
	assert.Equal(t, int64(2), first.ProjectID)
	assert.Equal(t, int64(42), first.TaskID)
	assert.Equal(t, &actorID, first.ActorID)
	assert.Equal(t, model.ActionSet, first.ActionKind)
	assert.Equal(t, "title", first.Field)
	assert.Equal(t, "Ship release", first.Value)
	assert.Equal(t, "alice set title Ship release", first.Detail)

	assert.Equal(t, "alice set state in_progress", created[1].Detail)

	// Every row carries the mutation time, never the processing time.
	for _, e := range created {
		assert.Equal(t, occurredAt, e.Timestamp)
	}
}

func TestCreateFromEventDetailOverride(t *testing.T) {
	t.Parallel()

	actorID := int64(7)
	logs := &fakeLogStore{}
	creator := NewCreator(
		&fakeTaskStore{task: testTask()},
		&fakeUserStore{users: map[int64]*model.User{7: {ID: 7, Username: "alice"}}},
		&fakeTagStore{},
		logs,
		zap.NewNop(),
	)

	created, err := creator.CreateFromEvent(context.Background(), changes.Event{
		TaskID:     42,
		Fields:     []string{"state"},
		ActorID:    &actorID,
		Detail:     "task reopened after review",
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "task reopened after review", created[0].Detail)
}

func TestCreateFromEventMissingActor(t *testing.T) {
	t.Parallel()

	deletedActor := int64(99)
	creator := NewCreator(
		&fakeTaskStore{task: testTask()},
		&fakeUserStore{users: map[int64]*model.User{}},
		&fakeTagStore{},
		&fakeLogStore{},
		zap.NewNop(),
	)

	created, err := creator.CreateFromEvent(context.Background(), changes.Event{
		TaskID:     42,
		Fields:     []string{"title"},
		ActorID:    &deletedActor,
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Nil(t, created[0].ActorID)
	assert.Equal(t, " set title Ship release", created[0].Detail)
}

func TestCreateFromEventRelation(t *testing.T) {
	t.Parallel()

	actorID := int64(7)
	occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("assignees added", func(t *testing.T) {
		t.Parallel()

		creator := NewCreator(
			&fakeTaskStore{task: testTask()},
			&fakeUserStore{users: map[int64]*model.User{
				7:  {ID: 7, Username: "alice"},
				10: {ID: 10, Username: "bob"},
				11: {ID: 11, Username: "carol"},
			}},
			&fakeTagStore{},
			&fakeLogStore{},
			zap.NewNop(),
		)

		created, err := creator.CreateFromEvent(context.Background(), changes.Event{
			TaskID:     42,
			Relation:   changes.RelationAssignees,
			Action:     model.ActionAdd,
			ObjectIDs:  []int64{10, 11},
			ActorID:    &actorID,
			OccurredAt: occurredAt,
		})
		require.NoError(t, err)
		require.Len(t, created, 1)

		entry := created[0]
		assert.Equal(t, model.ActionAdd, entry.ActionKind)
		assert.Equal(t, changes.RelationAssignees, entry.Field)
		assert.Equal(t, "bob, carol", entry.Value)
		assert.Equal(t, "alice added a new assignees: bob, carol", entry.Detail)
	})

	t.Run("tags removed", func(t *testing.T) {
		t.Parallel()

		creator := NewCreator(
			&fakeTaskStore{task: testTask()},
			&fakeUserStore{users: map[int64]*model.User{7: {ID: 7, Username: "alice"}}},
			&fakeTagStore{tags: map[int64]model.Tag{5: {ID: 5, Name: "urgent"}}},
			&fakeLogStore{},
			zap.NewNop(),
		)

		created, err := creator.CreateFromEvent(context.Background(), changes.Event{
			TaskID:     42,
			Relation:   changes.RelationTags,
			Action:     model.ActionRemove,
			ObjectIDs:  []int64{5},
			ActorID:    &actorID,
			OccurredAt: occurredAt,
		})
		require.NoError(t, err)
		require.Len(t, created, 1)
		assert.Equal(t, "alice removed the tags: urgent", created[0].Detail)
	})
}

func TestCreateFromEventTaskLoadFailure(t *testing.T) {
	t.Parallel()

	creator := NewCreator(
		&fakeTaskStore{err: repository.ErrNotFound},
		&fakeUserStore{},
		&fakeTagStore{},
		&fakeLogStore{},
		zap.NewNop(),
	)

	_, err := creator.CreateFromEvent(context.Background(), changes.Event{
		TaskID: 42,
		Fields: []string{"title"},
	})
	assert.Error(t, err)
}
