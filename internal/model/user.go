// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. The struct tags tell
// encoding/json how each field is named on the wire.
package model

import "time"

// User represents a registered account.
//
// PasswordHash holds the bcrypt digest produced by the hash provider. The
// `json:"-"` tag keeps it out of every JSON response, even if a handler
// accidentally encodes the whole struct.
//
// Email is stored trimmed and lower-cased, so "Bob@Example.com" and
// "bob@example.com " resolve to the same account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Lastname     string    `json:"lastname"`
	CreatedAt    time.Time `json:"createdAt"`
}
