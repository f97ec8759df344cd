package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// MaxExtraFields bounds the extension map carried next to the known metadata fields.
const MaxExtraFields = 32

type NoteDeleted int

const (
	NoteNormal  NoteDeleted = 0
	NoteTrashed NoteDeleted = 1
)

// UnmarshalJSON accepts 0/1 as well as false/true.
func (d *NoteDeleted) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*d = NoteTrashed
		return nil
	case "false", "null":
		*d = NoteNormal
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("deleted: %w", err)
	}
	if n != 0 {
		*d = NoteTrashed
	} else {
		*d = NoteNormal
	}
	return nil
}

// serverManaged keys are owned by the store and never taken from a caller.
var serverManaged = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"date":       true,
}

var knownFields = map[string]bool{
	"title":      true,
	"pid":        true,
	"deleted":    true,
	"shared":     true,
	"pinned":     true,
	"editorsize": true,
	"pic":        true,
	"content":    true,
}

// NoteMeta is the typed form of a note's metadata blob. A nil field is "not set".
type NoteMeta struct {
	Title      *string
	Pid        *string
	Date       *string
	Deleted    *NoteDeleted
	Shared     *bool
	Pinned     *bool
	EditorSize *string
	Pic        *string
	Extra      map[string]json.RawMessage
}

// IsDeleted reports whether the metadata signals a soft delete.
func (m NoteMeta) IsDeleted() bool {
	return m.Deleted != nil && *m.Deleted == NoteTrashed
}

func (m NoteMeta) IsEmpty() bool {
	return m.Title == nil && m.Pid == nil && m.Date == nil && m.Deleted == nil &&
		m.Shared == nil && m.Pinned == nil && m.EditorSize == nil && m.Pic == nil && len(m.Extra) == 0
}

// MergeMeta returns base with every field set in overlay replacing it.
// Overlay wins on collision. Caller-supplied metadata must go through
// ClientFields first so server-managed fields cannot be overridden.
func MergeMeta(base, overlay NoteMeta) NoteMeta {
	out := base
	out.Extra = copyExtra(base.Extra)
	if overlay.Title != nil {
		out.Title = overlay.Title
	}
	if overlay.Date != nil {
		out.Date = overlay.Date
	}
	if overlay.Pid != nil {
		out.Pid = overlay.Pid
	}
	if overlay.Deleted != nil {
		out.Deleted = overlay.Deleted
	}
	if overlay.Shared != nil {
		out.Shared = overlay.Shared
	}
	if overlay.Pinned != nil {
		out.Pinned = overlay.Pinned
	}
	if overlay.EditorSize != nil {
		out.EditorSize = overlay.EditorSize
	}
	if overlay.Pic != nil {
		out.Pic = overlay.Pic
	}
	for k, v := range overlay.Extra {
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		if _, exists := out.Extra[k]; !exists && len(out.Extra) >= MaxExtraFields {
			continue
		}
		out.Extra[k] = v
	}
	return out
}

// ClientFields drops the fields a client may not set.
func (m NoteMeta) ClientFields() NoteMeta {
	m.Date = nil
	return m
}

// WithDate stamps the server-managed date.
func (m NoteMeta) WithDate(date string) NoteMeta {
	m.Date = &date
	return m
}

func (m NoteMeta) WithDeleted(d NoteDeleted) NoteMeta {
	m.Deleted = &d
	return m
}

func (m NoteMeta) MarshalJSON() ([]byte, error) {
	known := map[string]interface{}{}
	if m.Title != nil {
		known["title"] = *m.Title
	}
	if m.Pid != nil {
		known["pid"] = *m.Pid
	}
	if m.Date != nil {
		known["date"] = *m.Date
	}
	if m.Deleted != nil {
		known["deleted"] = *m.Deleted
	}
	if m.Shared != nil {
		known["shared"] = *m.Shared
	}
	if m.Pinned != nil {
		known["pinned"] = *m.Pinned
	}
	if m.EditorSize != nil {
		known["editorsize"] = *m.EditorSize
	}
	if m.Pic != nil {
		known["pic"] = *m.Pic
	}
	data, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}
	return mergeJSONObject(data, m.Extra)
}

// UnmarshalJSON decodes the known fields and keeps at most MaxExtraFields
// unknown keys; server-managed keys other than date are dropped.
func (m *NoteMeta) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = NoteMeta{}
	if err := decodeString(raw, "title", &m.Title); err != nil {
		return err
	}
	if err := decodeString(raw, "pid", &m.Pid); err != nil {
		return err
	}
	if err := decodeString(raw, "date", &m.Date); err != nil {
		return err
	}
	if err := decodeString(raw, "editorsize", &m.EditorSize); err != nil {
		return err
	}
	if err := decodeString(raw, "pic", &m.Pic); err != nil {
		return err
	}
	if v, ok := raw["deleted"]; ok {
		var d NoteDeleted
		if err := d.UnmarshalJSON(v); err != nil {
			return err
		}
		m.Deleted = &d
	}
	if err := decodeFlag(raw, "shared", &m.Shared); err != nil {
		return err
	}
	if err := decodeFlag(raw, "pinned", &m.Pinned); err != nil {
		return err
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		if knownFields[k] || serverManaged[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(m.Extra) >= MaxExtraFields {
			break
		}
		if m.Extra == nil {
			m.Extra = make(map[string]json.RawMessage)
		}
		m.Extra[k] = raw[k]
	}
	return nil
}

func decodeString(raw map[string]json.RawMessage, key string, dst **string) error {
	v, ok := raw[key]
	if !ok || string(v) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = &s
	return nil
}

// decodeFlag accepts true/false as well as 0/1.
func decodeFlag(raw map[string]json.RawMessage, key string, dst **bool) error {
	v, ok := raw[key]
	if !ok || string(v) == "null" {
		return nil
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		*dst = &b
		return nil
	}
	var n int
	if err := json.Unmarshal(v, &n); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	b = n != 0
	*dst = &b
	return nil
}

func copyExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// mergeJSONObject adds extra keys to an encoded object without overriding existing ones.
func mergeJSONObject(object []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return object, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(object, &fields); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, exists := fields[k]; exists {
			continue
		}
		fields[k] = v
	}
	return json.Marshal(fields)
}
