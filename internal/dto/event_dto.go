package dto

import "notesync-be/pkg/events"

// NoteEventMessage is the websocket frame clients receive for each note event.
type NoteEventMessage struct {
	Type string           `json:"type"`
	Data events.NoteEvent `json:"data"`
}
