package localcache

import (
	"context"
	"path/filepath"
	"testing"

	"notesync-be/internal/entity"
	"notesync-be/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	pinned := true
	require.NoError(t, s.Save(ctx, LocalNote{ID: "n1", Title: "One", Content: "body", PID: "root", LastModified: 1000, Pinned: &pinned}))

	got, err := s.Get(ctx, "n1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "One", got.Title)
	assert.Equal(t, "body", got.Content)
	assert.Equal(t, "root", got.PID)
	assert.EqualValues(t, 1000, got.LastModified)
	require.NotNil(t, got.Pinned)
	assert.True(t, *got.Pinned)
	assert.Nil(t, got.Shared)
	assert.Nil(t, got.ServerID)

	require.NoError(t, s.Save(ctx, LocalNote{ID: "n1", Title: "One v2", LastModified: 2000}))
	got, err = s.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "One v2", got.Title)
	assert.Empty(t, got.PID)
}

func TestGetMissing(t *testing.T) {
	s := setupStore(t)
	got, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDelete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, LocalNote{ID: "n1", LastModified: 1}))

	require.NoError(t, s.Delete(ctx, "n1"))
	require.NoError(t, s.Delete(ctx, "n1"))

	got, err := s.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateID(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, LocalNote{ID: "tmp", Title: "Draft", Content: "local body", LastModified: 1000}))

	deleted := entity.NoteNormal
	require.NoError(t, s.UpdateID(ctx, "tmp", "perm", LocalNote{Title: "Draft", PID: "root", LastModified: 5000, Deleted: &deleted}))

	old, err := s.Get(ctx, "tmp")
	require.NoError(t, err)
	assert.Nil(t, old)

	got, err := s.Get(ctx, "perm")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "local body", got.Content)
	assert.Equal(t, "root", got.PID)
	assert.EqualValues(t, 5000, got.LastModified)
	require.NotNil(t, got.ServerID)
	assert.Equal(t, "perm", *got.ServerID)
	require.NotNil(t, got.Deleted)
	assert.Equal(t, entity.NoteNormal, *got.Deleted)
}

func TestUpdateID_ServerSnapshotClearsTitle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, LocalNote{ID: "tmp", Title: "Stale", Content: "local body", LastModified: 1000}))

	snapshot := FromNote(&entity.Note{Id: "perm", Title: "", Content: "server body", Pid: "root", Date: "2024-01-01T00:00:00Z"})
	require.NoError(t, s.UpdateID(ctx, "tmp", "perm", snapshot))

	got, err := s.Get(ctx, "perm")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "", got.Title)
	assert.Equal(t, "server body", got.Content)
}

func TestUpdateIDWithoutOldEntry(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateID(ctx, "gone", "perm", LocalNote{Title: "From server", LastModified: 10}))

	got, err := s.Get(ctx, "perm")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "From server", got.Title)
}

func TestListOlderThan(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	for _, n := range []LocalNote{{ID: "c", LastModified: 300}, {ID: "a", LastModified: 100}, {ID: "b", LastModified: 200}} {
		require.NoError(t, s.Save(ctx, n))
	}

	notes, err := s.ListOlderThan(ctx, 250, 10)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "a", notes[0].ID)
	assert.Equal(t, "b", notes[1].ID)

	notes, err = s.ListOlderThan(ctx, 1000, 1)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestFromNote(t *testing.T) {
	n := &entity.Note{Id: "n1", Title: "One", Content: "x", Pid: "root", Date: "2024-01-01T00:00:00Z", Pinned: true}
	local := FromNote(n)

	assert.Equal(t, "n1", local.ID)
	assert.EqualValues(t, 1704067200000, local.LastModified)
	require.NotNil(t, local.ServerID)
	assert.Equal(t, "n1", *local.ServerID)
	assert.True(t, *local.Pinned)
}

func TestOpenAlongsideServerDatabase(t *testing.T) {
	db, err := database.NewSQLiteGormDB(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	if sqlDB, err := db.DB(); err == nil {
		t.Cleanup(func() { sqlDB.Close() })
	}

	s := setupStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, LocalNote{ID: "n1", Title: "Both", LastModified: 1}))
	got, err := s.Get(ctx, "n1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Both", got.Title)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, LocalNote{ID: "n1", Title: "One", LastModified: 1}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "n1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "One", got.Title)
}
