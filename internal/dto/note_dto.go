package dto

import (
	"encoding/json"

	"notesync-be/internal/entity"
)

// CreateNoteRequest carries an optional client-chosen id, the content and
// any metadata fields of the new note.
type CreateNoteRequest struct {
	Id      string `validate:"omitempty,max=128,noteid"`
	Content *string
	Meta    entity.NoteMeta
}

func (r *CreateNoteRequest) UnmarshalJSON(data []byte) error {
	id, content, meta, err := decodeNotePayload(data)
	if err != nil {
		return err
	}
	r.Id, r.Content, r.Meta = id, content, meta
	return nil
}

// SaveNoteRequest is the body of POST /api/notes/save. Absent fields keep
// their stored value.
type SaveNoteRequest struct {
	Id      string `validate:"omitempty,max=128"`
	Content *string
	Meta    entity.NoteMeta
}

func (r *SaveNoteRequest) UnmarshalJSON(data []byte) error {
	id, content, meta, err := decodeNotePayload(data)
	if err != nil {
		return err
	}
	r.Id, r.Content, r.Meta = id, content, meta
	return nil
}

// HasChanges reports whether the request carries a title, non-empty content
// or a deleted flag; anything else is rejected.
func (r *SaveNoteRequest) HasChanges() bool {
	return (r.Meta.Title != nil && *r.Meta.Title != "") ||
		(r.Content != nil && *r.Content != "") ||
		r.Meta.Deleted != nil
}

func decodeNotePayload(data []byte) (string, *string, entity.NoteMeta, error) {
	var head struct {
		Id      string  `json:"id"`
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", nil, entity.NoteMeta{}, err
	}
	var meta entity.NoteMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", nil, entity.NoteMeta{}, err
	}
	return head.Id, head.Content, meta.ClientFields(), nil
}

// SaveNoteResult is what Save produced: the stored note, or only the id
// when the save was a delete.
type SaveNoteResult struct {
	Note    *entity.Note
	Id      string
	Created bool
	Deleted bool
}

type SaveNoteDeletedResponse struct {
	Id     string `json:"id"`
	Status string `json:"status"`
}

type UpdateContentRequest struct {
	Content string `json:"content"`
}

// UpdateMetaRequest is a partial metadata object.
type UpdateMetaRequest struct {
	Meta entity.NoteMeta
}

func (r *UpdateMetaRequest) UnmarshalJSON(data []byte) error {
	var meta entity.NoteMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return err
	}
	r.Meta = meta.ClientFields()
	return nil
}

type RootNoteResponse struct {
	Id string `json:"id"`
}
