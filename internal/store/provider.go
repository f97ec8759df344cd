package store

import (
	"context"
	"encoding/json"
	"time"

	"notesync-be/internal/entity"
)

const (
	ContentTypeMarkdown = "text/markdown"
	ContentTypeJSON     = "application/json"
)

// Provider is the path-addressed object store every note and the tree are
// persisted through. Reads report absence instead of failing; writes return
// their errors.
type Provider interface {
	// GetPath joins parts under the configured prefix.
	GetPath(parts ...string) string
	NotePath(id string) string
	TreePath() string

	HasObject(ctx context.Context, path string) bool
	// IsReserved is HasObject counting trashed notes too.
	IsReserved(ctx context.Context, path string) bool
	GetObject(ctx context.Context, path string) (string, bool)
	GetObjectMeta(ctx context.Context, path string) (*ObjectMeta, bool)
	GetObjectAndMeta(ctx context.Context, path string) Object
	PutObject(ctx context.Context, path, content string, opts Options) error
	DeleteObject(ctx context.Context, path string) error
	CopyObject(ctx context.Context, fromPath, toPath string, opts Options) error
}

type Options struct {
	ContentType string
	// Meta is nil when the write carries no metadata.
	Meta *entity.NoteMeta
}

// ObjectMeta is an object's metadata merged with its row attributes.
// The tree only ever carries UpdatedAt.
type ObjectMeta struct {
	Id        string
	Meta      entity.NoteMeta
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// MarshalJSON emits one flat object: metadata fields plus id and timestamps.
func (m ObjectMeta) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(m.Meta)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	set := func(key string, v interface{}) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fields[key] = raw
		return nil
	}
	if m.Id != "" {
		if err := set("id", m.Id); err != nil {
			return nil, err
		}
	}
	if m.CreatedAt != nil {
		if err := set("created_at", m.CreatedAt); err != nil {
			return nil, err
		}
	}
	if m.UpdatedAt != nil {
		if err := set("updated_at", m.UpdatedAt); err != nil {
			return nil, err
		}
	}
	return json.Marshal(fields)
}

// Object is the combined read of content and metadata.
type Object struct {
	Found       bool
	Content     string
	ContentType string
	Meta        *ObjectMeta
}
