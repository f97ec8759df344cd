package mapper

import (
	"encoding/json"
	"time"

	"notesync-be/internal/entity"
	"notesync-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NoteMapper struct{}

func NewNoteMapper() *NoteMapper {
	return &NoteMapper{}
}

// ToEntity decodes the row. A meta blob that fails to decode is treated as
// empty so a corrupt row still yields its content and title.
func (m *NoteMapper) ToEntity(n *model.Note) *entity.StoredNote {
	if n == nil {
		return nil
	}

	var meta entity.NoteMeta
	if len(n.Meta) > 0 {
		if err := json.Unmarshal(n.Meta, &meta); err != nil {
			meta = entity.NoteMeta{}
		}
	}

	var deletedAt *time.Time
	if n.DeletedAt.Valid {
		t := n.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !n.UpdatedAt.IsZero() {
		t := n.UpdatedAt
		updatedAt = &t
	}

	return &entity.StoredNote{
		Id:        n.Id,
		Title:     n.Title,
		Content:   n.Content,
		Meta:      meta,
		CreatedAt: n.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: n.DeletedAt.Valid,
	}
}

// ToModel encodes the row. Title lives in its own column and is stripped from
// the meta blob.
func (m *NoteMapper) ToModel(n *entity.StoredNote) (*model.Note, error) {
	if n == nil {
		return nil, nil
	}

	meta := n.Meta
	meta.Title = nil
	blob, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	var deletedAt gorm.DeletedAt
	if n.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *n.DeletedAt, Valid: true}
	} else if n.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if n.UpdatedAt != nil {
		updatedAt = *n.UpdatedAt
	}

	return &model.Note{
		Id:        n.Id,
		Title:     n.Title,
		Content:   n.Content,
		Meta:      datatypes.JSON(blob),
		CreatedAt: n.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}, nil
}
