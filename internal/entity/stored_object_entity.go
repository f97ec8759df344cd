package entity

import "time"

// StoredNote is the persisted row behind a note path.
type StoredNote struct {
	Id        string
	Title     string
	Content   string
	Meta      NoteMeta
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

// StoredTree is the persisted singleton tree document.
type StoredTree struct {
	Tree      *Tree
	UpdatedAt *time.Time
}
