package entity

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteMeta_UnmarshalJSON(t *testing.T) {
	var m NoteMeta
	err := json.Unmarshal([]byte(`{
		"title": "T",
		"pid": "root",
		"deleted": 1,
		"shared": 0,
		"pinned": true,
		"editorsize": null,
		"id": "ignored",
		"created_at": "2024-01-01T00:00:00Z",
		"color": "red"
	}`), &m)
	require.NoError(t, err)

	assert.Equal(t, "T", *m.Title)
	assert.Equal(t, "root", *m.Pid)
	assert.True(t, m.IsDeleted())
	assert.False(t, *m.Shared)
	assert.True(t, *m.Pinned)
	assert.Nil(t, m.EditorSize)
	assert.Len(t, m.Extra, 1)
	assert.JSONEq(t, `"red"`, string(m.Extra["color"]))
}

func TestNoteMeta_DeletedAcceptsBool(t *testing.T) {
	var m NoteMeta
	require.NoError(t, json.Unmarshal([]byte(`{"deleted": true}`), &m))
	assert.True(t, m.IsDeleted())

	require.NoError(t, json.Unmarshal([]byte(`{"deleted": false}`), &m))
	assert.False(t, m.IsDeleted())
	require.NotNil(t, m.Deleted)
}

func TestNoteMeta_ExtraIsBounded(t *testing.T) {
	fields := map[string]int{}
	for i := 0; i < MaxExtraFields+10; i++ {
		fields[fmt.Sprintf("k%02d", i)] = i
	}
	data, err := json.Marshal(fields)
	require.NoError(t, err)

	var m NoteMeta
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Len(t, m.Extra, MaxExtraFields)
}

func TestMergeMeta(t *testing.T) {
	title := "old"
	pid := "root"
	base := NoteMeta{Title: &title, Pid: &pid, Extra: map[string]json.RawMessage{"color": json.RawMessage(`"red"`)}}

	newTitle := "new"
	overlay := NoteMeta{Title: &newTitle, Extra: map[string]json.RawMessage{"icon": json.RawMessage(`"x"`)}}

	merged := MergeMeta(base, overlay)
	assert.Equal(t, "new", *merged.Title)
	assert.Equal(t, "root", *merged.Pid)
	assert.Len(t, merged.Extra, 2)
	assert.Len(t, base.Extra, 1, "base is left untouched")

	again := MergeMeta(merged, overlay)
	assert.Equal(t, merged, again)
}

func TestNoteMeta_ClientFieldsDropsDate(t *testing.T) {
	m := NoteMeta{}.WithDate("2024-01-01T00:00:00Z")
	merged := MergeMeta(NoteMeta{}.WithDate("2025-01-01T00:00:00Z"), m.ClientFields())
	assert.Equal(t, "2025-01-01T00:00:00Z", *merged.Date)
}

func TestNote_JSON(t *testing.T) {
	pic := "cover.png"
	n := Note{
		Id:      "n1",
		Title:   "T",
		Content: "\n",
		Pid:     RootID,
		Date:    "2024-01-01T00:00:00Z",
		Pic:     &pic,
		Extra:   map[string]json.RawMessage{"color": json.RawMessage(`"red"`)},
	}
	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "n1", "title": "T", "content": "\n", "pid": "root",
		"date": "2024-01-01T00:00:00Z", "deleted": 0, "shared": false,
		"pinned": false, "editorsize": null, "pic": "cover.png", "color": "red"
	}`, string(data))

	var back Note
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, n.Id, back.Id)
	assert.Equal(t, n.Title, back.Title)
	assert.Equal(t, n.Pic, back.Pic)
	assert.Equal(t, n.Extra, back.Extra)
	assert.Equal(t, int64(1704067200000), back.LastModified())
}
