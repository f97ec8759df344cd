package store

import (
	"context"
	"encoding/json"
	"testing"

	"notesync-be/internal/entity"
	"notesync-be/internal/pkg/apperror"
	"notesync-be/internal/pkg/logger"
	"notesync-be/internal/pkg/testutil"
	"notesync-be/internal/repository/unitofwork"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	db := testutil.NewTestDB(t)
	return NewPostgresStore(unitofwork.NewRepositoryFactory(db), logger.NewNopLogger(), "")
}

func strPtr(s string) *string { return &s }

func TestPostgresStore_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	path := s.NotePath("n1")

	meta := entity.NoteMeta{Title: strPtr("Hello"), Pid: strPtr("root")}
	require.NoError(t, s.PutObject(ctx, path, "# hi", Options{ContentType: ContentTypeMarkdown, Meta: &meta}))

	assert.True(t, s.HasObject(ctx, path))

	content, ok := s.GetObject(ctx, path)
	require.True(t, ok)
	assert.Equal(t, "# hi", content)

	got, ok := s.GetObjectMeta(ctx, path)
	require.True(t, ok)
	assert.Equal(t, "n1", got.Id)
	assert.Equal(t, "Hello", *got.Meta.Title)
	assert.Equal(t, "root", *got.Meta.Pid)
	assert.NotNil(t, got.CreatedAt)
	assert.NotNil(t, got.UpdatedAt)

	obj := s.GetObjectAndMeta(ctx, path)
	assert.True(t, obj.Found)
	assert.Equal(t, ContentTypeMarkdown, obj.ContentType)
	assert.Equal(t, "# hi", obj.Content)
}

func TestPostgresStore_PutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	path := s.NotePath("n1")
	meta := entity.NoteMeta{Title: strPtr("T")}

	require.NoError(t, s.PutObject(ctx, path, "a", Options{Meta: &meta}))
	first, _ := s.GetObjectMeta(ctx, path)
	require.NoError(t, s.PutObject(ctx, path, "a", Options{Meta: &meta}))
	second, _ := s.GetObjectMeta(ctx, path)

	assert.Equal(t, first.Meta, second.Meta)
	assert.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix())
}

func TestPostgresStore_MissingObject(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	assert.False(t, s.HasObject(ctx, s.NotePath("nope")))
	_, ok := s.GetObject(ctx, s.NotePath("nope"))
	assert.False(t, ok)
	meta, ok := s.GetObjectMeta(ctx, s.NotePath("nope"))
	assert.False(t, ok)
	assert.Nil(t, meta)
}

func TestPostgresStore_InvalidPath(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	assert.NoError(t, s.PutObject(ctx, "files/x.png", "data", Options{}))
	assert.False(t, s.HasObject(ctx, "files/x.png"))
	_, ok := s.GetObject(ctx, "files/x.png")
	assert.False(t, ok)

	err := s.CopyObject(ctx, "files/x.png", s.NotePath("n1"), Options{})
	assert.ErrorIs(t, err, apperror.ErrInvalidPath)
}

func TestPostgresStore_DeleteHidesAndKeepsRow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	path := s.NotePath("n1")
	meta := entity.NoteMeta{Title: strPtr("T")}
	require.NoError(t, s.PutObject(ctx, path, "body", Options{Meta: &meta}))

	require.NoError(t, s.DeleteObject(ctx, path))

	assert.False(t, s.HasObject(ctx, path))
	_, ok := s.GetObject(ctx, path)
	assert.False(t, ok)

	// The trashed row is still a valid copy source.
	require.NoError(t, s.CopyObject(ctx, path, path, Options{Meta: &entity.NoteMeta{}}))
	assert.False(t, s.HasObject(ctx, path), "copy without a deleted override keeps the note trashed")
}

func TestPostgresStore_TrashedNoteKeepsIdReserved(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	path := s.NotePath("n1")
	require.NoError(t, s.PutObject(ctx, path, "body", Options{Meta: &entity.NoteMeta{Title: strPtr("T")}}))
	require.NoError(t, s.DeleteObject(ctx, path))

	assert.False(t, s.HasObject(ctx, path))
	assert.True(t, s.IsReserved(ctx, path))
	assert.False(t, s.IsReserved(ctx, s.NotePath("never")))
}

func TestPostgresStore_DeleteMissingIsNoop(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.DeleteObject(context.Background(), s.NotePath("nope")))
}

func TestPostgresStore_RestoreViaCopy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	path := s.NotePath("n1")
	meta := entity.NoteMeta{Title: strPtr("T"), Pid: strPtr("root")}
	require.NoError(t, s.PutObject(ctx, path, "body", Options{Meta: &meta}))
	require.NoError(t, s.DeleteObject(ctx, path))

	restore := entity.NoteMeta{}.WithDeleted(entity.NoteNormal)
	require.NoError(t, s.CopyObject(ctx, path, path, Options{Meta: &restore}))

	content, ok := s.GetObject(ctx, path)
	require.True(t, ok)
	assert.Equal(t, "body", content)
	got, _ := s.GetObjectMeta(ctx, path)
	assert.False(t, got.Meta.IsDeleted())
	assert.Equal(t, "T", *got.Meta.Title)
}

func TestPostgresStore_CopyMergesCallerMeta(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	from := s.NotePath("n1")
	to := s.NotePath("n1" + BackupSuffix)

	meta := entity.NoteMeta{Title: strPtr("T"), Pinned: boolPtr(true)}
	require.NoError(t, s.PutObject(ctx, from, "body", Options{Meta: &meta}))

	overlay := entity.NoteMeta{Title: strPtr("Copy")}
	require.NoError(t, s.CopyObject(ctx, from, to, Options{Meta: &overlay}))

	content, ok := s.GetObject(ctx, to)
	require.True(t, ok)
	assert.Equal(t, "body", content)
	got, _ := s.GetObjectMeta(ctx, to)
	assert.Equal(t, "Copy", *got.Meta.Title)
	assert.True(t, *got.Meta.Pinned)

	src, _ := s.GetObjectMeta(ctx, from)
	assert.Equal(t, "T", *src.Meta.Title)
}

func TestPostgresStore_CopyMissingSource(t *testing.T) {
	s := newTestStore(t)
	err := s.CopyObject(context.Background(), s.NotePath("nope"), s.NotePath("x"), Options{})
	assert.ErrorIs(t, err, apperror.ErrSourceNotFound)
}

func TestPostgresStore_Tree(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	assert.False(t, s.HasObject(ctx, s.TreePath()))

	tree := entity.NewTree()
	tree.Append("a", entity.RootID)
	tree.Append("b", "a")
	content, err := json.Marshal(tree)
	require.NoError(t, err)
	require.NoError(t, s.PutObject(ctx, s.TreePath(), string(content), Options{ContentType: ContentTypeJSON}))

	obj := s.GetObjectAndMeta(ctx, s.TreePath())
	require.True(t, obj.Found)
	assert.Equal(t, ContentTypeJSON, obj.ContentType)
	assert.NotNil(t, obj.Meta.UpdatedAt)

	var got entity.Tree
	require.NoError(t, json.Unmarshal([]byte(obj.Content), &got))
	assert.Equal(t, []string{"a"}, got.Roots)
	assert.Equal(t, []string{"b"}, got.Items["a"].Children)

	// The tree document cannot be deleted.
	require.NoError(t, s.DeleteObject(ctx, s.TreePath()))
	assert.True(t, s.HasObject(ctx, s.TreePath()))
}

func TestObjectMeta_MarshalJSON(t *testing.T) {
	m := ObjectMeta{Id: "n1", Meta: entity.NoteMeta{Title: strPtr("T")}}
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"n1","title":"T"}`, string(data))
}

func boolPtr(b bool) *bool { return &b }
