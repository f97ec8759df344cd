package store

import (
	"regexp"
	"strings"
)

const (
	notesDir   = "notes/data"
	treeObject = "tree.json"

	// BackupSuffix marks the sibling object a note's content is copied to
	// before it is overwritten with empty content.
	BackupSuffix = ".bak"
)

var notePathPattern = regexp.MustCompile(`^notes/data/([a-zA-Z0-9_-]+(?:\.bak)?)$`)

// ObjectKind is what a parsed path refers to.
type ObjectKind int

const (
	KindInvalid ObjectKind = iota
	KindNote
	KindTree
)

func (k ObjectKind) String() string {
	switch k {
	case KindNote:
		return "note"
	case KindTree:
		return "tree"
	default:
		return "invalid"
	}
}

// ObjectPath is the parsed form of a store path.
type ObjectPath struct {
	Kind ObjectKind
	Id   string
	Raw  string
}

// ParsePath strips prefix (when present) and classifies what remains.
func ParsePath(prefix, path string) ObjectPath {
	rel := path
	if prefix != "" {
		rel = strings.TrimPrefix(rel, prefix+"/")
	}

	if rel == treeObject {
		return ObjectPath{Kind: KindTree, Raw: path}
	}
	if m := notePathPattern.FindStringSubmatch(rel); m != nil {
		return ObjectPath{Kind: KindNote, Id: m[1], Raw: path}
	}
	return ObjectPath{Kind: KindInvalid, Raw: path}
}

// ValidNoteID reports whether id can be addressed as notes/data/<id>.
func ValidNoteID(id string) bool {
	return notePathPattern.MatchString(notesDir + "/" + id)
}

func normalizePrefix(prefix string) string {
	return strings.Trim(prefix, "/")
}

func joinPath(prefix string, parts ...string) string {
	segments := make([]string, 0, len(parts)+1)
	if prefix != "" {
		segments = append(segments, prefix)
	}
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			segments = append(segments, p)
		}
	}
	return strings.Join(segments, "/")
}
