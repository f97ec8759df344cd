package unitofwork

import (
	"context"

	"notesync-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	NoteRepository() contract.NoteRepository
	TreeRepository() contract.TreeRepository
}
