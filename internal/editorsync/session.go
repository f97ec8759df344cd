package editorsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"notesync-be/internal/client"
	"notesync-be/internal/entity"
	"notesync-be/internal/localcache"
	"notesync-be/internal/pkg/apperror"
	"notesync-be/internal/pkg/logger"

	"github.com/oklog/ulid/v2"
)

const (
	sessionModule = "EditorSync"

	DefaultDebounce = time.Second
)

var (
	ErrNoteNotFound   = errors.New("note not found")
	ErrSaveInProgress = errors.New("save already in progress")
	ErrNoNote         = errors.New("no note is open")
)

// NoteAPI is the part of the server API a session needs.
type NoteAPI interface {
	GetNote(ctx context.Context, id string) (*entity.Note, error)
	SaveNote(ctx context.Context, payload client.SavePayload) (*client.SaveResult, error)
}

// Notifier shows short messages to the person editing.
type Notifier interface {
	Info(message string)
	Error(message string, err error)
}

// Navigator moves the editor between notes.
type Navigator interface {
	// Replace swaps the current location for id without adding history.
	Replace(id string)
	Home()
}

// Target names the note to open. New opens an unsaved note under PID.
type Target struct {
	ID  string
	New bool
	PID string
}

type Options struct {
	Debounce  time.Duration
	Notifier  Notifier
	Navigator Navigator
	Logger    logger.ILogger
	Now       func() time.Time
	// NewID mints temporary ids for unsaved notes.
	NewID func() string
}

// Session is the editing state of one note at a time.
type Session struct {
	cache     localcache.Store
	api       NoteAPI
	notifier  Notifier
	navigator Navigator
	logger    logger.ILogger
	debouncer *Debouncer
	now       func() time.Time
	newID     func() string

	saving atomic.Bool

	mu      sync.Mutex
	state   State
	noteID  string
	tempID  string
	title   string
	content string
	pid     string
	server  *entity.Note
	dirty   bool
	// rev counts in-memory edits so a save can tell whether it raced one.
	rev uint64
	// epoch changes whenever the session lets go of its note.
	epoch uint64
}

func NewSession(cache localcache.Store, api NoteAPI, opts Options) *Session {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Navigator == nil {
		opts.Navigator = nopNavigator{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return ulid.Make().String() }
	}
	return &Session{
		cache:     cache,
		api:       api,
		notifier:  opts.Notifier,
		navigator: opts.Navigator,
		logger:    opts.Logger,
		debouncer: NewDebouncer(opts.Debounce),
		now:       opts.Now,
		newID:     opts.NewID,
		state:     StateIdle,
		pid:       entity.RootID,
	}
}

// Open loads target, flushing any pending write of the previous note first.
func (s *Session) Open(ctx context.Context, target Target) error {
	s.debouncer.Flush()

	s.mu.Lock()
	s.reset()
	s.state = StateLoading
	s.mu.Unlock()

	switch {
	case target.New:
		return s.openNew(ctx, target.PID)
	case target.ID != "":
		return s.openExisting(ctx, target.ID)
	}

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
	return nil
}

func (s *Session) reset() {
	s.epoch++
	s.noteID = ""
	s.tempID = ""
	s.title = ""
	s.content = ""
	s.pid = entity.RootID
	s.server = nil
	s.dirty = false
	s.rev = 0
}

func (s *Session) openNew(ctx context.Context, pid string) error {
	if pid == "" {
		pid = entity.RootID
	}
	id := s.newID()
	shell := &entity.Note{
		Id:      id,
		Content: entity.DefaultContent,
		Pid:     pid,
		Date:    entity.FormatDate(s.now()),
	}

	s.mu.Lock()
	s.noteID = id
	s.tempID = id
	s.content = shell.Content
	s.pid = pid
	s.server = shell
	s.state = StateLocalAhead
	s.mu.Unlock()

	err := s.cache.Save(ctx, localcache.LocalNote{
		ID:           id,
		Content:      shell.Content,
		PID:          pid,
		LastModified: s.now().UnixMilli(),
	})
	if err != nil {
		s.notifier.Error("Failed to save the new note locally", err)
		return err
	}

	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
	return nil
}

func (s *Session) openExisting(ctx context.Context, id string) error {
	local, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn(sessionModule, "Local cache read failed, using server copy", map[string]interface{}{"note_id": id, "error": err.Error()})
		local = nil
	}

	server, err := s.api.GetNote(ctx, id)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) && local == nil {
			s.mu.Lock()
			s.state = StateIdle
			s.mu.Unlock()
			s.notifier.Error("Failed to load note", err)
			return err
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn(sessionModule, "Server unreachable, editing local copy", map[string]interface{}{"note_id": id, "error": err.Error()})
		}
		server = nil
	}

	switch {
	case local != nil && server != nil && local.LastModified > server.LastModified():
		s.mu.Lock()
		s.adoptLocal(local, server.Pid)
		s.noteID = id
		s.server = server
		s.mu.Unlock()
		s.notifier.Info("Unsaved local changes loaded")
		return nil

	case server != nil:
		s.mu.Lock()
		s.noteID = id
		s.server = server
		s.title = server.Title
		s.content = server.Content
		s.pid = server.Pid
		s.dirty = false
		s.state = StateServerAhead
		s.mu.Unlock()

		if err := s.cache.Save(ctx, localcache.FromNote(server)); err != nil {
			s.notifier.Error("Failed to update the local copy", err)
			return nil
		}
		s.mu.Lock()
		if s.noteID == id && s.state == StateServerAhead {
			s.state = StateSynced
		}
		s.mu.Unlock()
		return nil

	case local != nil:
		// Never reached the server: save it as a new note.
		s.mu.Lock()
		s.adoptLocal(local, "")
		s.noteID = id
		s.tempID = id
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
	s.notifier.Error("Note not found", ErrNoteNotFound)
	s.navigator.Home()
	return ErrNoteNotFound
}

func (s *Session) adoptLocal(local *localcache.LocalNote, fallbackPID string) {
	s.title = local.Title
	s.content = local.Content
	s.pid = local.PID
	if s.pid == "" {
		s.pid = fallbackPID
	}
	if s.pid == "" {
		s.pid = entity.RootID
	}
	s.dirty = true
	s.state = StateLocalAhead
}

func (s *Session) SetTitle(title string) {
	s.edit(func() { s.title = title })
}

func (s *Session) SetContent(content string) {
	s.edit(func() { s.content = content })
}

func (s *Session) SetPID(pid string) {
	if pid == "" {
		pid = entity.RootID
	}
	s.edit(func() { s.pid = pid })
}

// edit applies fn in memory now and schedules the cache write.
func (s *Session) edit(fn func()) {
	s.mu.Lock()
	fn()
	s.rev++
	open := s.noteID != ""
	s.mu.Unlock()

	if open {
		s.debouncer.Trigger(s.writeLocal)
	}
}

// writeLocal stores the current in-memory values in the cache.
func (s *Session) writeLocal() {
	s.mu.Lock()
	if s.noteID == "" {
		s.mu.Unlock()
		return
	}
	entry := localcache.LocalNote{
		ID:           s.noteID,
		Title:        s.title,
		Content:      s.content,
		PID:          s.pid,
		LastModified: s.now().UnixMilli(),
	}
	if s.server != nil && s.tempID == "" {
		shared, pinned := s.server.Shared, s.server.Pinned
		entry.Shared = &shared
		entry.Pinned = &pinned
		entry.EditorSize = s.server.EditorSize
	}
	s.mu.Unlock()

	if err := s.cache.Save(context.Background(), entry); err != nil {
		s.logger.Error(sessionModule, "Local write failed", map[string]interface{}{"note_id": entry.ID, "error": err.Error()})
		s.notifier.Error("Failed to save locally", err)
		return
	}

	s.mu.Lock()
	if s.noteID == entry.ID {
		s.dirty = true
		if s.state != StateSaving {
			s.state = StateLocalAhead
		}
	}
	s.mu.Unlock()
}

// Save pushes the cached copy to the server and adopts the server's answer.
func (s *Session) Save(ctx context.Context) error {
	if !s.saving.CompareAndSwap(false, true) {
		return ErrSaveInProgress
	}
	defer s.saving.Store(false)

	s.debouncer.Flush()

	s.mu.Lock()
	noteID, tempID, dirty, rev, prevState, epoch := s.noteID, s.tempID, s.dirty, s.rev, s.state, s.epoch
	pid := s.pid
	if noteID == "" {
		s.mu.Unlock()
		s.notifier.Error("There is no note to save", ErrNoNote)
		return ErrNoNote
	}
	if !dirty && tempID == "" {
		s.mu.Unlock()
		s.notifier.Info("Note is already up to date")
		return nil
	}
	s.state = StateSaving
	s.mu.Unlock()

	fail := func(message string, err error) error {
		s.mu.Lock()
		if s.epoch == epoch && s.state == StateSaving {
			s.state = prevState
		}
		s.mu.Unlock()
		s.notifier.Error(message, err)
		return err
	}

	local, err := s.cache.Get(ctx, noteID)
	if err != nil {
		return fail("Failed to read the local note", err)
	}
	if local == nil {
		return fail("Local note not found, cannot save", ErrNoteNotFound)
	}

	payload := client.SavePayload{
		ID:      noteID,
		Content: &local.Content,
		Meta: entity.NoteMeta{
			Title:      &local.Title,
			Deleted:    local.Deleted,
			Shared:     local.Shared,
			Pinned:     local.Pinned,
			EditorSize: local.EditorSize,
		},
	}
	if local.PID != "" {
		pid = local.PID
	}
	payload.Meta.Pid = &pid

	res, err := s.api.SaveNote(ctx, payload)
	if err != nil {
		return fail("Failed to save to the server", err)
	}

	if res.Deleted {
		if err := s.cache.Delete(ctx, noteID); err != nil {
			s.logger.Warn(sessionModule, "Failed to drop deleted note from cache", map[string]interface{}{"note_id": noteID, "error": err.Error()})
		}
		s.mu.Lock()
		current := s.epoch == epoch
		if current {
			s.reset()
			s.state = StateIdle
		}
		s.mu.Unlock()
		if current {
			s.navigator.Home()
		}
		return nil
	}

	note := res.Note
	snapshot := localcache.FromNote(note)
	if tempID != "" && tempID != note.Id {
		err = s.cache.UpdateID(ctx, tempID, note.Id, snapshot)
	} else {
		err = s.cache.Save(ctx, snapshot)
	}
	if err != nil {
		s.logger.Error(sessionModule, "Saved to server but local write failed", map[string]interface{}{"note_id": note.Id, "error": err.Error()})
		s.notifier.Error("Saved, but the local copy could not be updated", err)
	}

	s.mu.Lock()
	if s.epoch != epoch {
		// Another note was opened while this one was saving.
		s.mu.Unlock()
		s.notifier.Info("Note saved")
		if err != nil {
			return fmt.Errorf("update local copy: %w", err)
		}
		return nil
	}
	idChanged := tempID != "" && tempID != note.Id
	s.noteID = note.Id
	s.tempID = ""
	s.server = note
	if s.rev == rev {
		s.title = note.Title
		s.content = note.Content
		s.pid = note.Pid
		s.dirty = false
		s.state = StateSynced
	} else {
		// Edited while the save was in flight; keep the newer text.
		s.state = StateLocalAhead
	}
	edited := s.rev != rev
	s.mu.Unlock()

	if edited {
		s.debouncer.Trigger(s.writeLocal)
	}
	if idChanged {
		s.navigator.Replace(note.Id)
	}
	s.notifier.Info("Note saved")

	if err != nil {
		return fmt.Errorf("update local copy: %w", err)
	}
	return nil
}

// Close flushes pending writes and leaves the session idle.
func (s *Session) Close(ctx context.Context) error {
	s.debouncer.Flush()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.state = StateIdle
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) NoteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noteID
}

func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

func (s *Session) PID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pid
}

// HasLocalChanges reports whether the cache holds edits the server lacks.
func (s *Session) HasLocalChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// IsNew reports whether the open note has never been saved.
func (s *Session) IsNew() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tempID != ""
}

func (s *Session) IsSaving() bool {
	return s.saving.Load()
}

type nopNotifier struct{}

func (nopNotifier) Info(string)         {}
func (nopNotifier) Error(string, error) {}

type nopNavigator struct{}

func (nopNavigator) Replace(string) {}
func (nopNavigator) Home()          {}
