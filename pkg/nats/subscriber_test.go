package nats

import (
	"testing"
	"time"

	"notesync-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	data := []byte(`{"type":"NOTE_CREATED","note_id":"n1","occurred_at":"2024-05-01T10:00:00Z"}`)

	event, err := decodeEvent(Subject(events.NoteCreated), data)
	require.NoError(t, err)
	assert.Equal(t, events.NoteCreated, event.EventType())
	assert.Equal(t, "n1", event.NoteID())
	assert.True(t, at.Equal(event.Timestamp()))
}

func TestDecodeEvent_TypeFromSubject(t *testing.T) {
	event, err := decodeEvent("notes.NOTE_DELETED", []byte(`{"note_id":"n1"}`))
	require.NoError(t, err)
	assert.Equal(t, events.NoteDeleted, event.EventType())
}

func TestDecodeEvent_Malformed(t *testing.T) {
	_, err := decodeEvent("notes.NOTE_DELETED", []byte(`not json`))
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "notes.NOTE_UPDATED", Subject(events.NoteUpdated))
}
