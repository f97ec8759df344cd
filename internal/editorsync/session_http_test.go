package editorsync

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"notesync-be/internal/bootstrap"
	"notesync-be/internal/client"
	"notesync-be/internal/config"
	"notesync-be/internal/entity"
	"notesync-be/internal/pkg/logger"
	"notesync-be/internal/pkg/testutil"
	"notesync-be/internal/server"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *client.Client {
	t.Helper()
	cfg := &config.Config{
		App:      config.AppConfig{Environment: "test", CorsAllowedOrigins: "http://localhost:5173"},
		Database: config.DatabaseConfig{Driver: "sqlite", TreeCacheTTL: 30 * time.Second},
		Events:   config.EventsConfig{Topic: "NOTE_EVENTS"},
	}
	container := bootstrap.NewContainerWithOptions(testutil.NewTestDB(t), cfg, bootstrap.Options{
		Logger: logger.NewNopLogger(),
	})
	t.Cleanup(container.Close)

	srv := httptest.NewServer(adaptor.FiberApp(server.NewApp(cfg, container)))
	t.Cleanup(srv.Close)
	return client.New(srv.URL, 5*time.Second)
}

func TestSession_NewNoteRoundTrip(t *testing.T) {
	ctx := context.Background()
	api := newBackend(t)
	cache := newCache(t)
	rec := &recorder{}
	s := newSession(t, cache, api, rec)

	require.NoError(t, s.Open(ctx, Target{New: true}))
	s.SetTitle("Groceries")
	s.SetContent("milk\neggs\n")
	require.NoError(t, s.Save(ctx))

	id := s.NoteID()
	assert.NotEqual(t, "01TEMPORARYID", id)
	assert.Equal(t, []string{id}, rec.replaced)
	assert.Equal(t, StateSynced, s.State())

	stored, err := api.GetNote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", stored.Title)
	assert.Equal(t, "milk\neggs\n", stored.Content)
	assert.Equal(t, entity.RootID, stored.Pid)

	tmp, err := cache.Get(ctx, "01TEMPORARYID")
	require.NoError(t, err)
	assert.Nil(t, tmp)

	tree, err := api.GetTree(ctx)
	require.NoError(t, err)
	assert.True(t, tree.Contains(id))

	// Reopening finds the synced copy on both sides.
	require.NoError(t, s.Open(ctx, Target{ID: id}))
	assert.Equal(t, StateSynced, s.State())
	assert.Equal(t, "Groceries", s.Title())
}

func TestSession_DeleteThroughSave(t *testing.T) {
	ctx := context.Background()
	api := newBackend(t)
	cache := newCache(t)
	rec := &recorder{}

	created, err := api.CreateNote(ctx, client.SavePayload{Meta: entity.NoteMeta{Title: strPtr("Old")}})
	require.NoError(t, err)

	s := newSession(t, cache, api, rec)
	require.NoError(t, s.Open(ctx, Target{ID: created.Id}))

	local, err := cache.Get(ctx, created.Id)
	require.NoError(t, err)
	deleted := entity.NoteTrashed
	local.Deleted = &deleted
	local.LastModified = time.Now().Add(time.Minute).UnixMilli()
	require.NoError(t, cache.Save(ctx, *local))
	require.NoError(t, s.Open(ctx, Target{ID: created.Id}))

	require.NoError(t, s.Save(ctx))
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, 1, rec.homes)

	gone, err := cache.Get(ctx, created.Id)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func strPtr(s string) *string { return &s }
