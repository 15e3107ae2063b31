// Package state provides filesystem-backed storage for the session index and
// the per-session operation journals.
package state

import "github.com/user/spikeclust/internal/types"

// Compile-time interface compliance checks.
var _ types.SessionStore = (*SessionStore)(nil)
var _ types.JournalStore = (*JournalStore)(nil)
