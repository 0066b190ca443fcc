package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GintGld/kshana-timeline/internal/storage"
)

func newStorage(t *testing.T) *Storage {
	t.Helper()

	path := filepath.Join(t.TempDir(), "timeline.db")

	applied, err := Migrate(path, "")
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = Migrate(path, "")
	require.NoError(t, err)
	require.False(t, applied)

	s, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Stop() })

	return s
}

func TestMigrateFromDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.db")

	applied, err := Migrate(path, "migrations")
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestSaveState(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()
	project := gofakeit.Word()

	_, err := s.State(ctx, project)
	require.ErrorIs(t, err, storage.ErrStateNotFound)

	require.NoError(t, s.SaveState(ctx, project, []byte(`{"zoom_level":1}`)))
	doc, err := s.State(ctx, project)
	require.NoError(t, err)
	assert.Equal(t, `{"zoom_level":1}`, string(doc))

	require.NoError(t, s.SaveState(ctx, project, []byte(`{"zoom_level":2}`)))
	doc, err = s.State(ctx, project)
	require.NoError(t, err)
	assert.Equal(t, `{"zoom_level":2}`, string(doc))

	states, err := s.States(ctx)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, project, states[0].Project)
	assert.EqualValues(t, len(`{"zoom_level":2}`), states[0].Size)
	assert.False(t, states[0].UpdatedAt.IsZero())
}

func TestDeleteState(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveState(ctx, "a", []byte(`{}`)))
	require.NoError(t, s.SaveState(ctx, "b", []byte(`{}`)))

	require.NoError(t, s.DeleteState(ctx, "a"))
	require.ErrorIs(t, s.DeleteState(ctx, "a"), storage.ErrStateNotFound)

	states, err := s.States(ctx)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "b", states[0].Project)
}
