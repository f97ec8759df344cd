package entity

import (
	"encoding/json"
	"time"
)

// RootID is the well-known parent of every top-level note.
const RootID = "root"

// DefaultContent is stored when a note is written without content.
const DefaultContent = "\n"

type Note struct {
	Id         string
	Title      string
	Content    string
	Pid        string
	Date       string
	Deleted    NoteDeleted
	Shared     bool
	Pinned     bool
	EditorSize *string
	Pic        *string
	CreatedAt  *time.Time
	UpdatedAt  *time.Time
	Extra      map[string]json.RawMessage
}

type noteJSON struct {
	Id         string      `json:"id"`
	Title      string      `json:"title"`
	Content    string      `json:"content"`
	Pid        string      `json:"pid"`
	Date       string      `json:"date"`
	Deleted    NoteDeleted `json:"deleted"`
	Shared     bool        `json:"shared"`
	Pinned     bool        `json:"pinned"`
	EditorSize *string     `json:"editorsize"`
	Pic        *string     `json:"pic,omitempty"`
	CreatedAt  *time.Time  `json:"created_at,omitempty"`
	UpdatedAt  *time.Time  `json:"updated_at,omitempty"`
}

// MarshalJSON flattens the extension fields next to the known ones.
func (n Note) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(noteJSON{
		Id:         n.Id,
		Title:      n.Title,
		Content:    n.Content,
		Pid:        n.Pid,
		Date:       n.Date,
		Deleted:    n.Deleted,
		Shared:     n.Shared,
		Pinned:     n.Pinned,
		EditorSize: n.EditorSize,
		Pic:        n.Pic,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	})
	if err != nil || len(n.Extra) == 0 {
		return known, err
	}
	return mergeJSONObject(known, n.Extra)
}

func (n *Note) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var meta NoteMeta
	if err := meta.UnmarshalJSON(data); err != nil {
		return err
	}

	*n = Note{}
	if v, ok := raw["id"]; ok {
		if err := json.Unmarshal(v, &n.Id); err != nil {
			return err
		}
	}
	if v, ok := raw["content"]; ok {
		if err := json.Unmarshal(v, &n.Content); err != nil {
			return err
		}
	}
	for key, dst := range map[string]**time.Time{"created_at": &n.CreatedAt, "updated_at": &n.UpdatedAt} {
		if v, ok := raw[key]; ok && string(v) != "null" {
			var t time.Time
			if err := json.Unmarshal(v, &t); err == nil {
				*dst = &t
			}
		}
	}
	n.ApplyMeta(meta)
	return nil
}

// ApplyMeta copies every field the metadata sets onto the note.
func (n *Note) ApplyMeta(meta NoteMeta) {
	if meta.Title != nil {
		n.Title = *meta.Title
	}
	if meta.Pid != nil {
		n.Pid = *meta.Pid
	}
	if meta.Date != nil {
		n.Date = *meta.Date
	}
	if meta.Deleted != nil {
		n.Deleted = *meta.Deleted
	}
	if meta.Shared != nil {
		n.Shared = *meta.Shared
	}
	if meta.Pinned != nil {
		n.Pinned = *meta.Pinned
	}
	if meta.EditorSize != nil {
		n.EditorSize = meta.EditorSize
	}
	if meta.Pic != nil {
		n.Pic = meta.Pic
	}
	if len(meta.Extra) > 0 {
		n.Extra = copyExtra(meta.Extra)
	}
}

// Meta extracts the non-content fields of the note as metadata.
func (n *Note) Meta() NoteMeta {
	title := n.Title
	pid := n.Pid
	deleted := n.Deleted
	shared := n.Shared
	pinned := n.Pinned
	meta := NoteMeta{
		Title:      &title,
		Pid:        &pid,
		Deleted:    &deleted,
		Shared:     &shared,
		Pinned:     &pinned,
		EditorSize: n.EditorSize,
		Pic:        n.Pic,
		Extra:      copyExtra(n.Extra),
	}
	if n.Date != "" {
		date := n.Date
		meta.Date = &date
	}
	return meta
}

// LastModified returns the note's date as epoch milliseconds, 0 when unparsable.
func (n *Note) LastModified() int64 {
	if n == nil {
		return 0
	}
	return ParseDateMillis(n.Date)
}

// FormatDate renders a timestamp the way notes carry their date.
func FormatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func ParseDateMillis(date string) int64 {
	if date == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}
