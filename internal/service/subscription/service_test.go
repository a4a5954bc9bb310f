package subscription

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskhive/internal/model"
)

type fakeSubscriberStore struct {
	ids      []int64
	inserted []model.TaskSubscriber
	deleted  []int64
}

func (f *fakeSubscriberStore) ListSubscriberIDs(_ context.Context, _ int64) ([]int64, error) {
	return f.ids, nil
}

func (f *fakeSubscriberStore) InsertBatch(_ context.Context, subs []model.TaskSubscriber) error {
	f.inserted = append(f.inserted, subs...)
	return nil
}

func (f *fakeSubscriberStore) Delete(_ context.Context, _ int64, userIDs []int64) error {
	f.deleted = append(f.deleted, userIDs...)
	return nil
}

type fakeMemberStore struct {
	members map[int64]bool
}

func (f *fakeMemberStore) IsMember(_ context.Context, _ int64, userID int64) (bool, error) {
	return f.members[userID], nil
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

func testTask() *model.Task {
	return &model.Task{ID: 42, WorkspaceID: 1, CreatedBy: 100}
}

func TestSubscribeAutomaticHonorsPreference(t *testing.T) {
	t.Parallel()

	subs := &fakeSubscriberStore{}
	svc := NewService(subs,
		&fakeMemberStore{members: map[int64]bool{10: true, 11: true}},
		&fakeUserStore{users: map[int64]model.User{
			10: {ID: 10, AutoSubscribe: true},
			11: {ID: 11, AutoSubscribe: false},
		}},
		zap.NewNop(),
	)

	err := svc.Subscribe(context.Background(), testTask(), []int64{10, 11}, false)
	require.NoError(t, err)

	require.Len(t, subs.inserted, 1)
	assert.Equal(t, int64(10), subs.inserted[0].SubscriberID)
	assert.Equal(t, int64(42), subs.inserted[0].TaskID)
	assert.Equal(t, int64(1), subs.inserted[0].WorkspaceID)
}

func TestSubscribeExplicitBypassesPreference(t *testing.T) {
	t.Parallel()

	subs := &fakeSubscriberStore{}
	svc := NewService(subs,
		&fakeMemberStore{members: map[int64]bool{11: true}},
		&fakeUserStore{users: map[int64]model.User{
			11: {ID: 11, AutoSubscribe: false},
		}},
		zap.NewNop(),
	)

	err := svc.Subscribe(context.Background(), testTask(), []int64{11}, true)
	require.NoError(t, err)
	require.Len(t, subs.inserted, 1)
	assert.Equal(t, int64(11), subs.inserted[0].SubscriberID)
}

func TestSubscribeRejectsNonMembers(t *testing.T) {
	t.Parallel()

	subs := &fakeSubscriberStore{}
	svc := NewService(subs,
		&fakeMemberStore{members: map[int64]bool{10: true}},
		&fakeUserStore{},
		zap.NewNop(),
	)

	err := svc.Subscribe(context.Background(), testTask(), []int64{10, 99}, true)
	assert.ErrorIs(t, err, ErrNotInWorkspace)
	assert.Empty(t, subs.inserted)
}

func TestSubscribeDeduplicates(t *testing.T) {
	t.Parallel()

	subs := &fakeSubscriberStore{}
	svc := NewService(subs,
		&fakeMemberStore{members: map[int64]bool{10: true}},
		&fakeUserStore{users: map[int64]model.User{10: {ID: 10, AutoSubscribe: true}}},
		zap.NewNop(),
	)

	err := svc.Subscribe(context.Background(), testTask(), []int64{10, 10, 10}, false)
	require.NoError(t, err)
	assert.Len(t, subs.inserted, 1)
}

func TestUnsubscribeKeepsCreator(t *testing.T) {
	t.Parallel()

	subs := &fakeSubscriberStore{}
	svc := NewService(subs, &fakeMemberStore{}, &fakeUserStore{}, zap.NewNop())

	err := svc.Unsubscribe(context.Background(), testTask(), []int64{100, 10})
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, subs.deleted)
}

func TestUnsubscribeCreatorOnlyIsNoop(t *testing.T) {
	t.Parallel()

	subs := &fakeSubscriberStore{}
	svc := NewService(subs, &fakeMemberStore{}, &fakeUserStore{}, zap.NewNop())

	err := svc.Unsubscribe(context.Background(), testTask(), []int64{100})
	require.NoError(t, err)
	assert.Empty(t, subs.deleted)
}

func TestRecipients(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeSubscriberStore{ids: []int64{1, 2, 3}}, &fakeMemberStore{}, &fakeUserStore{}, zap.NewNop())

	got, err := svc.Recipients(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, got)
}
