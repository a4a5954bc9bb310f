package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRow plays back one row of column values, failing on a column/destination
// count mismatch the way pgx does.
type fakeRow struct {
	values []any
}

func (f *fakeRow) Scan(dest ...any) error {
	if len(dest) != len(f.values) {
		return fmt.Errorf("number of field descriptions must equal number of destinations, got %d and %d", len(f.values), len(dest))
	}
	for i, v := range f.values {
		switch d := dest[i].(type) {
		case *int64:
			*d = v.(int64)
		case **int64:
			if v == nil {
				*d = nil
			} else {
				id := v.(int64)
				*d = &id
			}
		case *int:
			*d = v.(int)
		case *string:
			*d = v.(string)
		case **string:
			if v == nil {
				*d = nil
			} else {
				s := v.(string)
				*d = &s
			}
		case *bool:
			*d = v.(bool)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("unsupported destination type %T at column %d", dest[i], i)
		}
	}
	return nil
}

func TestScanNotificationMatchesColumnList(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	row := &fakeRow{values: []any{
		int64(5),               // id
		int64(1),               // workspace_id
		int64(10),              // recipient_id
		int64(7),               // triggered_by
		2,                      // severity
		"task",                 // entity_kind
		int64(42),              // entity_id
		"alice set state done", // message
		false,                  // is_read
		createdAt,              // created_at
	}}
	require.Len(t, row.values, len(strings.Split(notificationColumns, ",")),
		"fixture must cover every selected column")

	n, err := scanNotification(row)
	require.NoError(t, err)

	assert.Equal(t, int64(5), n.ID)
	assert.Equal(t, int64(1), n.WorkspaceID)
	assert.Equal(t, int64(10), n.RecipientID)
	require.NotNil(t, n.TriggeredBy)
	assert.Equal(t, int64(7), *n.TriggeredBy)
	assert.Equal(t, 2, n.Severity)
	assert.Equal(t, "task", n.EntityKind)
	require.NotNil(t, n.EntityID)
	assert.Equal(t, int64(42), *n.EntityID)
	assert.Equal(t, "alice set state done", n.Message)
	assert.False(t, n.IsRead)
	assert.Equal(t, createdAt, n.CreatedAt)
}

func TestScanNotificationNullableColumns(t *testing.T) {
	t.Parallel()

	row := &fakeRow{values: []any{
		int64(5), int64(1), int64(10),
		nil, // triggered_by
		1,
		nil, // entity_kind
		nil, // entity_id
		"system maintenance tonight",
		true,
		time.Now().UTC(),
	}}

	n, err := scanNotification(row)
	require.NoError(t, err)

	assert.Nil(t, n.TriggeredBy)
	assert.Empty(t, n.EntityKind)
	assert.Nil(t, n.EntityID)
	assert.True(t, n.IsRead)
}
