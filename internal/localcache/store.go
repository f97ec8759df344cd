package localcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"notesync-be/internal/entity"
)

// LocalNote is the editor's durable snapshot of a note. ID may be a
// temporary client id; ServerID is set once the server has assigned one.
type LocalNote struct {
	ID           string
	Title        string
	Content      string
	PID          string
	LastModified int64 // epoch milliseconds
	ServerID     *string
	Deleted      *entity.NoteDeleted
	Shared       *bool
	Pinned       *bool
	EditorSize   *string
}

// FromNote snapshots a server note, stamping it with the note's own date.
func FromNote(n *entity.Note) LocalNote {
	id := n.Id
	deleted := n.Deleted
	shared := n.Shared
	pinned := n.Pinned
	return LocalNote{
		ID:           n.Id,
		Title:        n.Title,
		Content:      n.Content,
		PID:          n.Pid,
		LastModified: n.LastModified(),
		ServerID:     &id,
		Deleted:      &deleted,
		Shared:       &shared,
		Pinned:       &pinned,
		EditorSize:   n.EditorSize,
	}
}

type Store interface {
	Save(ctx context.Context, note LocalNote) error
	// Get returns nil when no entry exists.
	Get(ctx context.Context, id string) (*LocalNote, error)
	Delete(ctx context.Context, id string) error
	// UpdateID moves the entry at oldID to newID and overlays server.
	UpdateID(ctx context.Context, oldID, newID string, server LocalNote) error
	// ListOlderThan returns up to limit entries last modified before cutoff,
	// oldest first.
	ListOlderThan(ctx context.Context, cutoff int64, limit int) ([]LocalNote, error)
	Close() error
}

type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the cache file. ":memory:" gives a throwaway cache.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const noteColumns = `id, title, content, pid, last_modified, server_id, deleted, shared, pinned, editorsize`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *SQLiteStore) Save(ctx context.Context, note LocalNote) error {
	if err := upsert(ctx, s.db, note); err != nil {
		return fmt.Errorf("save local note %s: %w", note.ID, err)
	}
	return nil
}

func upsert(ctx context.Context, db execer, n LocalNote) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO local_notes (`+noteColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   content = excluded.content,
		   pid = excluded.pid,
		   last_modified = excluded.last_modified,
		   server_id = excluded.server_id,
		   deleted = excluded.deleted,
		   shared = excluded.shared,
		   pinned = excluded.pinned,
		   editorsize = excluded.editorsize`,
		n.ID, n.Title, n.Content, nullString(n.PID), n.LastModified, n.ServerID,
		deletedValue(n.Deleted), n.Shared, n.Pinned, n.EditorSize,
	)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanNote(row scanner) (*LocalNote, error) {
	var n LocalNote
	var pid, serverID, editorSize sql.NullString
	var deleted sql.NullInt64
	var shared, pinned sql.NullBool
	if err := row.Scan(&n.ID, &n.Title, &n.Content, &pid, &n.LastModified, &serverID, &deleted, &shared, &pinned, &editorSize); err != nil {
		return nil, err
	}
	n.PID = pid.String
	if serverID.Valid {
		n.ServerID = &serverID.String
	}
	if deleted.Valid {
		d := entity.NoteNormal
		if deleted.Int64 != 0 {
			d = entity.NoteTrashed
		}
		n.Deleted = &d
	}
	if shared.Valid {
		n.Shared = &shared.Bool
	}
	if pinned.Valid {
		n.Pinned = &pinned.Bool
	}
	if editorSize.Valid {
		n.EditorSize = &editorSize.String
	}
	return &n, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*LocalNote, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM local_notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get local note %s: %w", id, err)
	}
	return n, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete local note %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) UpdateID(ctx context.Context, oldID, newID string, server LocalNote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update local note id: %w", err)
	}
	defer tx.Rollback()

	existing, err := scanNote(tx.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM local_notes WHERE id = ?`, oldID))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update local note id %s: %w", oldID, err)
	}

	merged := overlay(existing, server)
	merged.ID = newID
	merged.ServerID = &newID

	if _, err := tx.ExecContext(ctx, `DELETE FROM local_notes WHERE id = ?`, oldID); err != nil {
		return fmt.Errorf("update local note id %s: %w", oldID, err)
	}
	if err := upsert(ctx, tx, merged); err != nil {
		return fmt.Errorf("update local note id %s: %w", oldID, err)
	}
	return tx.Commit()
}

// overlay applies server over base. A snapshot carrying ServerID is a full
// server copy and its text fields win even when empty; otherwise only the
// non-zero fields are applied.
func overlay(base *LocalNote, server LocalNote) LocalNote {
	if base == nil {
		return server
	}
	out := *base
	full := server.ServerID != nil
	if full || server.Title != "" {
		out.Title = server.Title
	}
	if full || server.Content != "" {
		out.Content = server.Content
	}
	if server.PID != "" {
		out.PID = server.PID
	}
	if server.LastModified != 0 {
		out.LastModified = server.LastModified
	}
	if server.Deleted != nil {
		out.Deleted = server.Deleted
	}
	if server.Shared != nil {
		out.Shared = server.Shared
	}
	if server.Pinned != nil {
		out.Pinned = server.Pinned
	}
	if server.EditorSize != nil {
		out.EditorSize = server.EditorSize
	}
	return out
}

func (s *SQLiteStore) ListOlderThan(ctx context.Context, cutoff int64, limit int) ([]LocalNote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM local_notes WHERE last_modified < ? ORDER BY last_modified ASC LIMIT ?`,
		cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list local notes: %w", err)
	}
	defer rows.Close()

	var notes []LocalNote
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan local note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func deletedValue(d *entity.NoteDeleted) interface{} {
	if d == nil {
		return nil
	}
	return int(*d)
}
