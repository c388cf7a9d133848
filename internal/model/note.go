package model

import "time"

// Note is a single user-owned note.
//
// A note starts with Finished=false. The flag may be toggled any number of
// times, but a note can only be deleted while Finished is true.
type Note struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Finished    bool      `json:"finished"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PaginatedNotes is one window of a user's notes.
//
// Previous and Next are page numbers; nil (JSON null) means there is no such page.
type PaginatedNotes struct {
	Notes    []Note `json:"notes"`
	Previous *int   `json:"previous"`
	Next     *int   `json:"next"`
}
