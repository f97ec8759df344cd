package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		path     string
		wantKind ObjectKind
		wantId   string
	}{
		{name: "note", path: "notes/data/abc-123_X", wantKind: KindNote, wantId: "abc-123_X"},
		{name: "backup", path: "notes/data/abc.bak", wantKind: KindNote, wantId: "abc.bak"},
		{name: "tree", path: "tree.json", wantKind: KindTree},
		{name: "prefixed note", prefix: "notea", path: "notea/notes/data/n1", wantKind: KindNote, wantId: "n1"},
		{name: "prefixed tree", prefix: "notea", path: "notea/tree.json", wantKind: KindTree},
		{name: "unprefixed path under prefix", prefix: "notea", path: "notes/data/n1", wantKind: KindNote, wantId: "n1"},
		{name: "nested id", path: "notes/data/a/b", wantKind: KindInvalid},
		{name: "dotted id", path: "notes/data/a.txt", wantKind: KindInvalid},
		{name: "empty id", path: "notes/data/", wantKind: KindInvalid},
		{name: "other object", path: "files/cover.png", wantKind: KindInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePath(tt.prefix, tt.path)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantId, got.Id)
			assert.Equal(t, tt.path, got.Raw)
		})
	}
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "notes/data/n1", joinPath("", "notes/data", "n1"))
	assert.Equal(t, "notea/tree.json", joinPath(normalizePrefix("/notea/"), "tree.json"))
}

func TestValidNoteID(t *testing.T) {
	assert.True(t, ValidNoteID("01HZX3K7Q8"))
	assert.True(t, ValidNoteID("n1.bak"))
	assert.False(t, ValidNoteID("../etc"))
	assert.False(t, ValidNoteID(""))
}
