package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/spregistry/internal/store/table"
)

func TestStore_LoadMissing(t *testing.T) {
	s := New()
	_, err := s.Load(context.Background(), "listing", nil)
	assert.ErrorIs(t, err, table.ErrNotFound)
	assert.Equal(t, table.DriverMemory, s.Driver())
}

func TestStore_CommitAndLoad(t *testing.T) {
	ctx := context.Background()
	s := New()

	rows := []table.Row{{"sp_id": "f01"}, {"sp_id": "f02"}}
	require.NoError(t, s.Commit(ctx,
		table.Table{Name: "listing", Columns: []string{"sp_id"}, Rows: rows},
		table.Table{Name: "empty", Columns: []string{"x"}},
	))

	got, err := s.Load(ctx, "listing", []string{"sp_id"})
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	got[0]["sp_id"] = "changed"
	again, _ := s.Load(ctx, "listing", nil)
	assert.Equal(t, "f01", again[0]["sp_id"], "Load must return copies")

	empty, err := s.Load(ctx, "empty", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_CommitRejectsUnnamedTable(t *testing.T) {
	s := New()
	s.Put("a", []string{"x"}, []table.Row{{"x": "1"}})

	err := s.Commit(context.Background(),
		table.Table{Name: "a", Rows: []table.Row{{"x": "2"}}},
		table.Table{Name: ""},
	)
	require.Error(t, err)

	snap, ok := s.Snapshot("a")
	require.True(t, ok)
	assert.Equal(t, "1", snap.Rows[0]["x"], "failed commit must not write any table")
}

func TestStore_CommitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, New().Commit(ctx, table.Table{Name: "a"}), context.Canceled)
}
