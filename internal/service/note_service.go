package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"notesync-be/internal/dto"
	"notesync-be/internal/entity"
	"notesync-be/internal/pkg/apperror"
	"notesync-be/internal/pkg/logger"
	"notesync-be/internal/store"
	"notesync-be/pkg/events"

	"github.com/google/uuid"
)

const (
	noteModule = "NoteService"

	// maxIdAttempts bounds id re-rolls on collision.
	maxIdAttempts = 16
)

type INoteService interface {
	Create(ctx context.Context, req *dto.CreateNoteRequest) (*entity.Note, error)
	Get(ctx context.Context, id string) (*entity.Note, error)
	Save(ctx context.Context, req *dto.SaveNoteRequest) (*dto.SaveNoteResult, error)
	UpdateContent(ctx context.Context, id, content string) error
	// GetMeta returns nil when the note does not exist.
	GetMeta(ctx context.Context, id string) (*store.ObjectMeta, error)
	UpdateMeta(ctx context.Context, id string, meta entity.NoteMeta) error
	Delete(ctx context.Context, id string) error
	Restore(ctx context.Context, id, parentId string) error
	GetTree(ctx context.Context) (*entity.Tree, error)
}

// IdGenerator mints permanent note ids.
type IdGenerator func() string

func NewUUID() string {
	return uuid.NewString()
}

type noteService struct {
	store            store.Provider
	treeStore        store.ITreeStore
	publisherService IPublisherService
	logger           logger.ILogger
	newId            IdGenerator
	locks            *keyedMutex
	now              func() time.Time
}

func NewNoteService(
	provider store.Provider,
	treeStore store.ITreeStore,
	publisherService IPublisherService,
	log logger.ILogger,
	newId IdGenerator,
) INoteService {
	if newId == nil {
		newId = NewUUID
	}
	return &noteService{
		store:            provider,
		treeStore:        treeStore,
		publisherService: publisherService,
		logger:           log,
		newId:            newId,
		locks:            newKeyedMutex(),
		now:              time.Now,
	}
}

func (s *noteService) stamp() string {
	return entity.FormatDate(s.now())
}

// mintId returns candidate when it is usable and free, otherwise a fresh id.
// Ids of trashed notes stay taken so a restore brings back the same note.
func (s *noteService) mintId(ctx context.Context, candidate string) (string, error) {
	id := candidate
	for attempt := 0; attempt < maxIdAttempts; attempt++ {
		if id != "" && s.isAssignable(id) && !s.store.IsReserved(ctx, s.store.NotePath(id)) {
			return id, nil
		}
		id = s.newId()
	}
	return "", apperror.New(apperror.CodeInternalServerError, "could not mint a unique note id")
}

func (s *noteService) isAssignable(id string) bool {
	return id != entity.RootID && store.ValidNoteID(id) && !strings.HasSuffix(id, store.BackupSuffix)
}

func (s *noteService) Create(ctx context.Context, req *dto.CreateNoteRequest) (*entity.Note, error) {
	id, err := s.mintId(ctx, req.Id)
	if err != nil {
		return nil, err
	}

	content := entity.DefaultContent
	if req.Content != nil && *req.Content != "" {
		content = *req.Content
	}

	meta := withNoteDefaults(req.Meta).WithDate(s.stamp())
	if err := s.store.PutObject(ctx, s.store.NotePath(id), content, store.Options{
		ContentType: store.ContentTypeMarkdown,
		Meta:        &meta,
	}); err != nil {
		return nil, err
	}

	s.placeInTree(ctx, id, *meta.Pid, *meta.Title)
	note, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NoteCreated, note)
	return note, nil
}

// withNoteDefaults fills the fields every stored note carries.
func withNoteDefaults(meta entity.NoteMeta) entity.NoteMeta {
	empty, root, no := "", entity.RootID, false
	defaults := entity.NoteMeta{
		Title:  &empty,
		Pid:    &root,
		Shared: &no,
		Pinned: &no,
	}.WithDeleted(entity.NoteNormal)
	if meta.Pid != nil && *meta.Pid == "" {
		meta.Pid = nil
	}
	return entity.MergeMeta(defaults, meta)
}

// placeInTree adds or moves id under parentId and refreshes its label. Tree
// failures are logged; Get repairs the tree later.
func (s *noteService) placeInTree(ctx context.Context, id, parentId, title string) {
	if err := s.treeStore.AddItem(ctx, id, parentId); err != nil {
		s.logger.Error(noteModule, "Failed to add note to tree", map[string]interface{}{"note_id": id, "error": err})
		return
	}
	if err := s.treeStore.MutateItem(ctx, id, title); err != nil {
		s.logger.Error(noteModule, "Failed to relabel tree item", map[string]interface{}{"note_id": id, "error": err})
	}
}

func (s *noteService) Get(ctx context.Context, id string) (*entity.Note, error) {
	if id == entity.RootID {
		return &entity.Note{Id: entity.RootID}, nil
	}

	note, err := s.read(ctx, id)
	if err != nil {
		if apperror.From(err).Code == apperror.CodeNotFound {
			s.dropStaleTreeItem(ctx, id)
		}
		return nil, err
	}

	s.restoreMissingTreeItem(ctx, note)
	return note, nil
}

func (s *noteService) dropStaleTreeItem(ctx context.Context, id string) {
	ok, err := s.treeStore.Contains(ctx, id)
	if err != nil || !ok {
		return
	}
	s.logger.Warn(noteModule, "Tree references a missing note, removing it", map[string]interface{}{"note_id": id})
	if err := s.treeStore.RemoveItem(ctx, id); err != nil {
		s.logger.Error(noteModule, "Failed to remove stale tree item", map[string]interface{}{"note_id": id, "error": err})
	}
}

func (s *noteService) restoreMissingTreeItem(ctx context.Context, note *entity.Note) {
	ok, err := s.treeStore.Contains(ctx, note.Id)
	if err != nil || ok {
		return
	}
	s.logger.Warn(noteModule, "Note missing from tree, re-adding it", map[string]interface{}{"note_id": note.Id, "pid": note.Pid})
	s.placeInTree(ctx, note.Id, note.Pid, note.Title)
}

// read materializes a live note or returns NOT_FOUND.
func (s *noteService) read(ctx context.Context, id string) (*entity.Note, error) {
	obj := s.store.GetObjectAndMeta(ctx, s.store.NotePath(id))
	if !obj.Found {
		return nil, apperror.NotFound("note %s not found", id)
	}
	return materialize(id, obj), nil
}

func materialize(id string, obj store.Object) *entity.Note {
	note := &entity.Note{
		Id:      id,
		Content: obj.Content,
		Pid:     entity.RootID,
	}
	if note.Content == "" {
		note.Content = entity.DefaultContent
	}
	if obj.Meta != nil {
		note.ApplyMeta(obj.Meta.Meta)
		note.CreatedAt = obj.Meta.CreatedAt
		note.UpdatedAt = obj.Meta.UpdatedAt
	}
	if note.Pid == "" {
		note.Pid = entity.RootID
	}
	if note.Date == "" && note.UpdatedAt != nil {
		note.Date = entity.FormatDate(*note.UpdatedAt)
	}
	return note
}

func (s *noteService) Save(ctx context.Context, req *dto.SaveNoteRequest) (*dto.SaveNoteResult, error) {
	if !req.HasChanges() {
		return nil, apperror.InvalidRequest("title, content, or deleted status must be provided")
	}

	var existing *store.ObjectMeta
	if req.Id != "" && s.isAssignable(req.Id) {
		existing, _ = s.store.GetObjectMeta(ctx, s.store.NotePath(req.Id))
	}

	if req.Meta.IsDeleted() {
		if existing != nil {
			if err := s.Delete(ctx, req.Id); err != nil {
				return nil, err
			}
		}
		return &dto.SaveNoteResult{Id: req.Id, Deleted: true}, nil
	}

	// Unknown ids are client-side temporaries and get replaced.
	id := req.Id
	created := existing == nil
	if created {
		var err error
		if id, err = s.mintId(ctx, ""); err != nil {
			return nil, err
		}
	}

	path := s.store.NotePath(id)
	var meta entity.NoteMeta
	var content string
	if created {
		meta = withNoteDefaults(req.Meta)
		content = entity.DefaultContent
	} else {
		meta = entity.MergeMeta(existing.Meta, req.Meta)
		if stored, ok := s.store.GetObject(ctx, path); ok {
			content = stored
		}
		if meta.Pid == nil || *meta.Pid == "" {
			root := entity.RootID
			meta.Pid = &root
		}
	}
	if req.Content != nil && *req.Content != "" {
		content = *req.Content
	}
	meta = meta.WithDeleted(entity.NoteNormal).WithDate(s.stamp())

	if err := s.store.PutObject(ctx, path, content, store.Options{
		ContentType: store.ContentTypeMarkdown,
		Meta:        &meta,
	}); err != nil {
		return nil, err
	}

	s.syncTree(ctx, id, existing, meta, created)

	note, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}
	if created {
		s.publish(ctx, events.NoteCreated, note)
	} else {
		s.publish(ctx, events.NoteUpdated, note)
	}
	return &dto.SaveNoteResult{Note: note, Id: id, Created: created}, nil
}

// syncTree inserts a new note, moves a re-parented one to the top of its new
// parent, and keeps the label current.
func (s *noteService) syncTree(ctx context.Context, id string, existing *store.ObjectMeta, meta entity.NoteMeta, created bool) {
	pid, title := *meta.Pid, ""
	if meta.Title != nil {
		title = *meta.Title
	}

	if created {
		s.placeInTree(ctx, id, pid, title)
		return
	}

	oldPid := entity.RootID
	if existing.Meta.Pid != nil && *existing.Meta.Pid != "" {
		oldPid = *existing.Meta.Pid
	}
	inTree, err := s.treeStore.Contains(ctx, id)
	if err != nil {
		s.logger.Error(noteModule, "Failed to read tree", map[string]interface{}{"note_id": id, "error": err})
		return
	}

	switch {
	case !inTree:
		s.placeInTree(ctx, id, pid, title)
		return
	case oldPid != pid:
		if err := s.treeStore.MoveItem(ctx, id, pid, 0); err != nil {
			s.logger.Error(noteModule, "Failed to move tree item", map[string]interface{}{"note_id": id, "pid": pid, "error": err})
		}
	}
	if err := s.treeStore.MutateItem(ctx, id, title); err != nil {
		s.logger.Error(noteModule, "Failed to relabel tree item", map[string]interface{}{"note_id": id, "error": err})
	}
}

func (s *noteService) UpdateContent(ctx context.Context, id, content string) error {
	path := s.store.NotePath(id)
	existing, ok := s.store.GetObjectMeta(ctx, path)
	if !ok {
		return apperror.NotFound("note %s not found", id)
	}

	meta := existing.Meta.WithDate(s.stamp())

	// Empty content is usually a mistake; keep the previous body around.
	if content == "" || strings.TrimSpace(content) == `\` {
		if err := s.store.CopyObject(ctx, path, path+store.BackupSuffix, store.Options{
			ContentType: store.ContentTypeMarkdown,
			Meta:        &meta,
		}); err != nil {
			return fmt.Errorf("backup %s: %w", id, err)
		}
		s.logger.Info(noteModule, "Backed up note before emptying it", map[string]interface{}{"note_id": id})
	}

	if err := s.store.PutObject(ctx, path, content, store.Options{
		ContentType: store.ContentTypeMarkdown,
		Meta:        &meta,
	}); err != nil {
		return err
	}

	s.publishMeta(ctx, events.NoteUpdated, id, meta)
	return nil
}

func (s *noteService) GetMeta(ctx context.Context, id string) (*store.ObjectMeta, error) {
	meta, ok := s.store.GetObjectMeta(ctx, s.store.NotePath(id))
	if !ok {
		return nil, nil
	}
	return meta, nil
}

func (s *noteService) UpdateMeta(ctx context.Context, id string, partial entity.NoteMeta) error {
	path := s.store.NotePath(id)
	existing, ok := s.store.GetObjectMeta(ctx, path)
	if !ok {
		return apperror.NotFound("note %s not found", id)
	}

	overlay := partial.ClientFields().WithDate(s.stamp())
	if err := s.store.CopyObject(ctx, path, path, store.Options{
		ContentType: store.ContentTypeMarkdown,
		Meta:        &overlay,
	}); err != nil {
		return err
	}

	merged := entity.MergeMeta(existing.Meta, overlay)
	if merged.IsDeleted() {
		if !existing.Meta.IsDeleted() {
			if err := s.treeStore.RemoveItem(ctx, id); err != nil {
				s.logger.Error(noteModule, "Failed to remove deleted note from tree", map[string]interface{}{"note_id": id, "error": err})
			}
		}
		s.publishMeta(ctx, events.NoteDeleted, id, merged)
		return nil
	}

	if partial.Pid != nil || partial.Title != nil {
		s.syncTree(ctx, id, existing, withNoteDefaults(merged), false)
	}
	s.publishMeta(ctx, events.NoteMetaUpdated, id, merged)
	return nil
}

// Delete soft-deletes the note, then drops it from the tree. A tree failure
// after the note is gone is logged and left for Get to repair.
func (s *noteService) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.store.DeleteObject(ctx, s.store.NotePath(id)); err != nil {
		return err
	}
	if err := s.treeStore.RemoveItem(ctx, id); err != nil {
		s.logger.Error(noteModule, "Note deleted but tree removal failed", map[string]interface{}{"note_id": id, "error": err})
	}

	s.publishMeta(ctx, events.NoteDeleted, id, entity.NoteMeta{})
	return nil
}

// Restore brings a trashed note back under parentId (root when empty or gone).
func (s *noteService) Restore(ctx context.Context, id, parentId string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if parentId == "" {
		parentId = entity.RootID
	}
	if parentId != entity.RootID {
		if ok, err := s.treeStore.Contains(ctx, parentId); err != nil || !ok {
			parentId = entity.RootID
		}
	}

	path := s.store.NotePath(id)
	overlay := entity.NoteMeta{Pid: &parentId}.WithDeleted(entity.NoteNormal).WithDate(s.stamp())
	if err := s.store.CopyObject(ctx, path, path, store.Options{
		ContentType: store.ContentTypeMarkdown,
		Meta:        &overlay,
	}); err != nil {
		return err
	}

	if err := s.treeStore.RestoreItem(ctx, id, parentId); err != nil {
		s.logger.Error(noteModule, "Note restored but tree insert failed", map[string]interface{}{"note_id": id, "error": err})
		return nil
	}
	if meta, ok := s.store.GetObjectMeta(ctx, path); ok && meta.Meta.Title != nil {
		if err := s.treeStore.MutateItem(ctx, id, *meta.Meta.Title); err != nil {
			s.logger.Error(noteModule, "Failed to relabel restored note", map[string]interface{}{"note_id": id, "error": err})
		}
	}

	s.publishMeta(ctx, events.NoteRestored, id, overlay)
	return nil
}

func (s *noteService) GetTree(ctx context.Context) (*entity.Tree, error) {
	return s.treeStore.Get(ctx)
}

func (s *noteService) publish(ctx context.Context, eventType string, note *entity.Note) {
	event := events.NewNoteEvent(eventType, note.Id)
	event.Title = note.Title
	event.ParentId = note.Pid
	event.Date = note.Date
	s.emit(ctx, event)
}

func (s *noteService) publishMeta(ctx context.Context, eventType, id string, meta entity.NoteMeta) {
	event := events.NewNoteEvent(eventType, id)
	if meta.Title != nil {
		event.Title = *meta.Title
	}
	if meta.Pid != nil {
		event.ParentId = *meta.Pid
	}
	if meta.Date != nil {
		event.Date = *meta.Date
	}
	s.emit(ctx, event)
}

// emit never fails the write that produced the event.
func (s *noteService) emit(ctx context.Context, event events.NoteEvent) {
	if s.publisherService == nil {
		return
	}
	if err := s.publisherService.Publish(ctx, event); err != nil {
		s.logger.Warn(noteModule, "Failed to publish note event", map[string]interface{}{"note_id": event.NoteId, "type": event.Type, "error": err.Error()})
	}
}
