package models

import "time"

// NoteExport records a rendered copy of a note uploaded to object storage.
type NoteExport struct {
	ID         string
	NoteID     string
	OwnerID    string
	Format     string
	StorageKey string
	CreatedAt  time.Time
}
