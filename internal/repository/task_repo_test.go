package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedTaskFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fields  map[string]any
		want    []string
		wantErr string
	}{
		{
			name:   "sorted regardless of map order",
			fields: map[string]any{"title": "a", "state": "done", "priority": 2, "deadline": nil},
			want:   []string{"deadline", "priority", "state", "title"},
		},
		{
			name:   "single field",
			fields: map[string]any{"module_id": int64(3)},
			want:   []string{"module_id"},
		},
		{
			name:   "empty",
			fields: map[string]any{},
			want:   []string{},
		},
		{
			name:    "unknown field rejected",
			fields:  map[string]any{"title": "a", "workspace_id": int64(9)},
			wantErr: "unknown task field: workspace_id",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := orderedTaskFields(tt.fields)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// The same input must produce the same column order on every call; the
// multi-field summary leads with the first changed field.
func TestOrderedTaskFieldsStable(t *testing.T) {
	t.Parallel()

	fields := map[string]any{"state": "done", "description": "d", "title": "t"}
	first, err := orderedTaskFields(fields)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := orderedTaskFields(fields)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, []string{"description", "state", "title"}, first)
}
