package contract

import (
	"context"

	"notesync-be/internal/entity"
	"notesync-be/internal/repository/specification"
)

type NoteRepository interface {
	// Upsert inserts the row or replaces title, content, meta and deleted_at of an existing one.
	Upsert(ctx context.Context, note *entity.StoredNote) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.StoredNote, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
