package retention

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotificationStore struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakeNotificationStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestSweepNotificationsUsesRetentionWindow(t *testing.T) {
	t.Parallel()

	store := &fakeNotificationStore{deleted: 3}
	s := NewSweeper(store, 30, zap.NewNop())

	require.NoError(t, s.SweepNotifications(context.Background()))

	want := time.Now().AddDate(0, 0, -30)
	assert.WithinDuration(t, want, store.cutoff, time.Minute)
}

func TestSweepNotificationsDefaultRetention(t *testing.T) {
	t.Parallel()

	store := &fakeNotificationStore{}
	s := NewSweeper(store, 0, zap.NewNop())

	require.NoError(t, s.SweepNotifications(context.Background()))

	want := time.Now().AddDate(0, 0, -180)
	assert.WithinDuration(t, want, store.cutoff, time.Minute)
}

func TestSweepNotificationsPropagatesError(t *testing.T) {
	t.Parallel()

	s := NewSweeper(&fakeNotificationStore{err: assert.AnError}, 180, zap.NewNop())
	assert.Error(t, s.SweepNotifications(context.Background()))
}
