package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"notesync-be/internal/entity"
	"notesync-be/internal/pkg/apperror"
	"notesync-be/internal/pkg/logger"
	"notesync-be/internal/repository/specification"
	"notesync-be/internal/repository/unitofwork"
)

const storeModule = "ObjectStore"

// PostgresStore maps store paths onto the notes and tree_state tables.
type PostgresStore struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	prefix     string
	now        func() time.Time
}

func NewPostgresStore(uowFactory unitofwork.RepositoryFactory, log logger.ILogger, prefix string) *PostgresStore {
	return &PostgresStore{
		uowFactory: uowFactory,
		logger:     log,
		prefix:     normalizePrefix(prefix),
		now:        time.Now,
	}
}

func (s *PostgresStore) GetPath(parts ...string) string {
	return joinPath(s.prefix, parts...)
}

func (s *PostgresStore) NotePath(id string) string {
	return s.GetPath(notesDir, id)
}

func (s *PostgresStore) TreePath() string {
	return s.GetPath(treeObject)
}

func (s *PostgresStore) parse(path string) ObjectPath {
	p := ParsePath(s.prefix, path)
	if p.Kind == KindInvalid {
		s.logger.Warn(storeModule, "Unrecognized object path", map[string]interface{}{"path": path})
	}
	return p
}

func (s *PostgresStore) HasObject(ctx context.Context, path string) bool {
	p := s.parse(path)
	uow := s.uowFactory.NewUnitOfWork(ctx)

	switch p.Kind {
	case KindNote:
		count, err := uow.NoteRepository().Count(ctx, specification.ByID{ID: p.Id})
		if err != nil {
			s.logger.Error(storeModule, "Failed to check object", map[string]interface{}{"path": path, "error": err})
			return false
		}
		return count > 0
	case KindTree:
		tree, err := uow.TreeRepository().Find(ctx)
		if err != nil {
			s.logger.Error(storeModule, "Failed to check tree", map[string]interface{}{"path": path, "error": err})
			return false
		}
		return tree != nil
	}
	return false
}

// IsReserved reports whether any row holds the note path, trashed ones
// included. Lookup failures count as reserved.
func (s *PostgresStore) IsReserved(ctx context.Context, path string) bool {
	p := s.parse(path)
	if p.Kind != KindNote {
		return s.HasObject(ctx, path)
	}
	count, err := s.uowFactory.NewUnitOfWork(ctx).NoteRepository().Count(ctx, specification.ByID{ID: p.Id}, specification.IncludeDeleted{})
	if err != nil {
		s.logger.Error(storeModule, "Failed to check reserved id", map[string]interface{}{"path": path, "error": err})
		return true
	}
	return count > 0
}

func (s *PostgresStore) GetObject(ctx context.Context, path string) (string, bool) {
	obj := s.GetObjectAndMeta(ctx, path)
	return obj.Content, obj.Found
}

func (s *PostgresStore) GetObjectMeta(ctx context.Context, path string) (*ObjectMeta, bool) {
	obj := s.GetObjectAndMeta(ctx, path)
	return obj.Meta, obj.Found
}

func (s *PostgresStore) GetObjectAndMeta(ctx context.Context, path string) Object {
	p := s.parse(path)
	uow := s.uowFactory.NewUnitOfWork(ctx)

	switch p.Kind {
	case KindNote:
		note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: p.Id})
		if err != nil {
			s.logger.Error(storeModule, "Failed to read object", map[string]interface{}{"path": path, "error": err})
			return Object{}
		}
		if note == nil {
			return Object{}
		}
		return Object{
			Found:       true,
			Content:     note.Content,
			ContentType: ContentTypeMarkdown,
			Meta:        noteObjectMeta(note),
		}

	case KindTree:
		stored, err := uow.TreeRepository().Find(ctx)
		if err != nil {
			s.logger.Error(storeModule, "Failed to read tree", map[string]interface{}{"path": path, "error": err})
			return Object{}
		}
		if stored == nil {
			return Object{}
		}
		content, err := json.Marshal(stored.Tree)
		if err != nil {
			s.logger.Error(storeModule, "Failed to encode tree", map[string]interface{}{"path": path, "error": err})
			return Object{}
		}
		return Object{
			Found:       true,
			Content:     string(content),
			ContentType: ContentTypeJSON,
			Meta:        &ObjectMeta{UpdatedAt: stored.UpdatedAt},
		}
	}
	return Object{}
}

func noteObjectMeta(note *entity.StoredNote) *ObjectMeta {
	meta := note.Meta
	title := note.Title
	meta.Title = &title

	createdAt := note.CreatedAt
	return &ObjectMeta{
		Id:        note.Id,
		Meta:      meta,
		CreatedAt: &createdAt,
		UpdatedAt: note.UpdatedAt,
	}
}

func (s *PostgresStore) PutObject(ctx context.Context, path, content string, opts Options) error {
	p := s.parse(path)
	uow := s.uowFactory.NewUnitOfWork(ctx)

	switch p.Kind {
	case KindNote:
		var meta entity.NoteMeta
		if opts.Meta != nil {
			meta = *opts.Meta
		}
		note := &entity.StoredNote{
			Id:      p.Id,
			Content: content,
			Meta:    meta,
		}
		if meta.Title != nil {
			note.Title = *meta.Title
		}
		s.markDeletion(note)

		if err := uow.NoteRepository().Upsert(ctx, note); err != nil {
			return fmt.Errorf("put %s: %w", path, err)
		}
		return nil

	case KindTree:
		tree := entity.NewTree()
		if err := json.Unmarshal([]byte(content), tree); err != nil {
			return apperror.Wrap(apperror.CodeInvalidRequest, "tree document is not valid JSON", err)
		}
		tree.Normalize()
		if err := uow.TreeRepository().Save(ctx, tree); err != nil {
			return fmt.Errorf("put %s: %w", path, err)
		}
		return nil
	}
	return nil
}

// markDeletion keeps deleted_at in step with meta.deleted.
func (s *PostgresStore) markDeletion(note *entity.StoredNote) {
	if note.Meta.IsDeleted() {
		now := s.now()
		note.DeletedAt = &now
		note.IsDeleted = true
		return
	}
	note.DeletedAt = nil
	note.IsDeleted = false
}

func (s *PostgresStore) DeleteObject(ctx context.Context, path string) error {
	p := s.parse(path)

	switch p.Kind {
	case KindNote:
		uow := s.uowFactory.NewUnitOfWork(ctx)
		if err := uow.Begin(ctx); err != nil {
			return err
		}
		defer uow.Rollback()

		note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: p.Id}, specification.IncludeDeleted{})
		if err != nil {
			return fmt.Errorf("delete %s: %w", path, err)
		}
		if note == nil {
			return nil
		}

		note.Meta = note.Meta.WithDeleted(entity.NoteTrashed)
		note.UpdatedAt = nil
		s.markDeletion(note)
		if err := uow.NoteRepository().Upsert(ctx, note); err != nil {
			return fmt.Errorf("delete %s: %w", path, err)
		}
		return uow.Commit()

	case KindTree:
		s.logger.Warn(storeModule, "Refusing to delete the tree document", map[string]interface{}{"path": path})
	}
	return nil
}

func (s *PostgresStore) CopyObject(ctx context.Context, fromPath, toPath string, opts Options) error {
	from := ParsePath(s.prefix, fromPath)
	to := ParsePath(s.prefix, toPath)
	if from.Kind != KindNote || to.Kind != KindNote {
		s.logger.Warn(storeModule, "Copy needs two note paths", map[string]interface{}{"from": fromPath, "to": toPath})
		return apperror.New(apperror.CodeInvalidPath, fmt.Sprintf("cannot copy %s to %s", fromPath, toPath))
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	// Trashed sources are readable here so restore can copy a note onto itself.
	source, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: from.Id}, specification.IncludeDeleted{})
	if err != nil {
		return fmt.Errorf("copy %s: %w", fromPath, err)
	}
	if source == nil {
		return apperror.New(apperror.CodeSourceNotFound, fmt.Sprintf("source %s does not exist", fromPath))
	}

	meta := source.Meta
	meta.Title = &source.Title
	if opts.Meta != nil {
		meta = entity.MergeMeta(meta, *opts.Meta)
	}

	target := &entity.StoredNote{
		Id:      to.Id,
		Title:   *meta.Title,
		Content: source.Content,
		Meta:    meta,
	}
	if to.Id == from.Id {
		target.CreatedAt = source.CreatedAt
	}
	s.markDeletion(target)

	if err := uow.NoteRepository().Upsert(ctx, target); err != nil {
		return fmt.Errorf("copy %s to %s: %w", fromPath, toPath, err)
	}
	return uow.Commit()
}
