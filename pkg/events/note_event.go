package events

import "time"

const (
	NoteCreated     = "NOTE_CREATED"
	NoteUpdated     = "NOTE_UPDATED"
	NoteMetaUpdated = "NOTE_META_UPDATED"
	NoteDeleted     = "NOTE_DELETED"
	NoteRestored    = "NOTE_RESTORED"
)

// NoteEvent is emitted after a note write has been persisted.
type NoteEvent struct {
	Type       string    `json:"type"`
	NoteId     string    `json:"note_id"`
	Title      string    `json:"title,omitempty"`
	ParentId   string    `json:"parent_id,omitempty"`
	Date       string    `json:"date,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewNoteEvent(eventType, noteId string) NoteEvent {
	return NoteEvent{
		Type:       eventType,
		NoteId:     noteId,
		OccurredAt: time.Now().UTC(),
	}
}

func (e NoteEvent) EventType() string {
	return e.Type
}

func (e NoteEvent) Payload() map[string]interface{} {
	payload := map[string]interface{}{
		"type":        e.Type,
		"note_id":     e.NoteId,
		"occurred_at": e.OccurredAt,
	}
	if e.Title != "" {
		payload["title"] = e.Title
	}
	if e.ParentId != "" {
		payload["parent_id"] = e.ParentId
	}
	if e.Date != "" {
		payload["date"] = e.Date
	}
	return payload
}

func (e NoteEvent) Timestamp() time.Time {
	return e.OccurredAt
}
