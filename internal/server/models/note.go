package models

import "time"

// MaxTitleLength is the upper bound on a note title, in characters.
const MaxTitleLength = 200

// Note is a user-owned text document. OwnerID is set at creation and never changes.
type Note struct {
	ID         string
	OwnerID    string
	Title      string
	Content    string
	IsFavorite bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NoteInput holds the fields accepted on creation.
type NoteInput struct {
	Title      string
	Content    string
	IsFavorite bool
}

// NoteUpdate is a partial update; nil fields are left alone.
type NoteUpdate struct {
	Title      *string
	Content    *string
	IsFavorite *bool
}

// NoteFilter narrows List. A nil IsFavorite means both, an empty Search means no search.
type NoteFilter struct {
	IsFavorite *bool
	Search     string
}
