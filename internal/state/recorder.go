package state

import (
	"context"
	"log/slog"
	"time"

	"github.com/user/spikeclust/internal/types"
)

// Recorder is a session observer that writes every notification to a
// journal. Write failures are logged; the session change stands regardless.
type Recorder struct {
	journal   types.JournalStore
	sessionID types.SessionID
}

// NewRecorder returns a Recorder appending to journal under sessionID.
func NewRecorder(journal types.JournalStore, sessionID types.SessionID) *Recorder {
	return &Recorder{journal: journal, sessionID: sessionID}
}

func (r *Recorder) OnLoad(up types.Update)    { r.record(string(up.Kind), &up, "") }
func (r *Recorder) OnSelect(up types.Update)  { r.record(string(up.Kind), &up, "") }
func (r *Recorder) OnCluster(up types.Update) { r.record(string(up.Kind), &up, "") }
func (r *Recorder) OnStatus(st types.Status)  { r.record("status", nil, st) }

func (r *Recorder) record(kind string, up *types.Update, st types.Status) {
	entry := &types.JournalEntry{
		ID:        types.NewEntryID(),
		SessionID: r.sessionID,
		Kind:      kind,
		At:        time.Now().UTC(),
		Update:    up,
		Status:    st,
	}
	if err := r.journal.Append(context.Background(), entry); err != nil {
		slog.Error("journal append failed", "session_id", string(r.sessionID), "kind", kind, "error", err)
	}
}
