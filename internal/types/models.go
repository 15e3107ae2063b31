// internal/types/models.go
package types

import (
	"time"
)

// JournalEntry is one line of a session journal.
type JournalEntry struct {
	ID        EntryID   `json:"id"`
	SessionID SessionID `json:"session_id"`
	Seq       int64     `json:"seq"`
	Kind      string    `json:"kind"`
	At        time.Time `json:"at"`
	Update    *Update   `json:"update,omitempty"`
	Status    Status    `json:"status,omitempty"`
}

// SessionIndex describes a session known to the data directory.
type SessionIndex struct {
	SessionID SessionID `json:"session_id"`
	Dataset   string    `json:"dataset"`
	Spikes    int       `json:"spikes"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
