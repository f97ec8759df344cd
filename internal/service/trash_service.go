package service

import (
	"context"

	"notesync-be/internal/dto"
	"notesync-be/internal/pkg/apperror"
)

type ITrashService interface {
	// Handle dispatches a trash action; unknown actions are NOT_SUPPORTED.
	Handle(ctx context.Context, req *dto.TrashRequest) error
	TrashDelete(ctx context.Context, id string) error
	TrashRestore(ctx context.Context, id, parentId string) error
}

type trashService struct {
	noteService INoteService
}

func NewTrashService(noteService INoteService) ITrashService {
	return &trashService{
		noteService: noteService,
	}
}

func (s *trashService) Handle(ctx context.Context, req *dto.TrashRequest) error {
	switch req.Action {
	case dto.TrashActionDelete:
		return s.TrashDelete(ctx, req.Data.Id)
	case dto.TrashActionRestore:
		return s.TrashRestore(ctx, req.Data.Id, req.Data.ParentId)
	default:
		return apperror.NotSupported("action %q not found", req.Action)
	}
}

func (s *trashService) TrashDelete(ctx context.Context, id string) error {
	return s.noteService.Delete(ctx, id)
}

func (s *trashService) TrashRestore(ctx context.Context, id, parentId string) error {
	return s.noteService.Restore(ctx, id, parentId)
}
