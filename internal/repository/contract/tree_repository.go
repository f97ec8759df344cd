package contract

import (
	"context"

	"notesync-be/internal/entity"
)

type TreeRepository interface {
	// Find returns nil when no tree has been written yet.
	Find(ctx context.Context) (*entity.StoredTree, error)
	Save(ctx context.Context, tree *entity.Tree) error
}
