// internal/state/journal.go
package state

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/spikeclust/internal/types"
)

// JournalStore is a JSONL-backed append-only log of session updates.
// Entries are stored per-session in sessions/<sessionID>/journal.jsonl.
type JournalStore struct {
	root  string
	mu    sync.Mutex
	locks map[types.SessionID]*sync.Mutex
	seqs  map[types.SessionID]int64
}

// NewJournalStore creates a new file-backed JournalStore rooted at the given directory.
func NewJournalStore(root string) *JournalStore {
	return &JournalStore{
		root:  root,
		locks: make(map[types.SessionID]*sync.Mutex),
		seqs:  make(map[types.SessionID]int64),
	}
}

// getLock returns the per-session mutex, creating one if it doesn't exist.
func (j *JournalStore) getLock(sessionID types.SessionID) *sync.Mutex {
	j.mu.Lock()
	defer j.mu.Unlock()

	if lock, ok := j.locks[sessionID]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	j.locks[sessionID] = lock
	return lock
}

func (j *JournalStore) journalPath(sessionID types.SessionID) string {
	return filepath.Join(j.root, "sessions", string(sessionID), "journal.jsonl")
}

// count reads the journal file and counts lines. Caller must hold the session lock.
func (j *JournalStore) count(sessionID types.SessionID) (int64, error) {
	f, err := os.Open(j.journalPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var count int64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan journal: %w", err)
	}
	return count, nil
}

// Append adds an entry to the session's journal with an auto-incremented sequence number.
func (j *JournalStore) Append(_ context.Context, entry *types.JournalEntry) error {
	lock := j.getLock(entry.SessionID)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Dir(j.journalPath(entry.SessionID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	// The file is only counted once per session; later appends reuse the cached sequence.
	j.mu.Lock()
	seq, ok := j.seqs[entry.SessionID]
	j.mu.Unlock()
	if !ok {
		existing, err := j.count(entry.SessionID)
		if err != nil {
			return err
		}
		seq = existing
	}
	entry.Seq = seq + 1

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}

	f, err := os.OpenFile(j.journalPath(entry.SessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write journal entry: %w", err)
	}

	j.mu.Lock()
	j.seqs[entry.SessionID] = entry.Seq
	j.mu.Unlock()
	return nil
}

// Tail returns the last N entries for the given session.
func (j *JournalStore) Tail(_ context.Context, sessionID types.SessionID, limit int) ([]*types.JournalEntry, error) {
	lock := j.getLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(j.journalPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var entries []*types.JournalEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var entry types.JournalEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal journal entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// Count returns the number of entries for the given session.
func (j *JournalStore) Count(_ context.Context, sessionID types.SessionID) (int64, error) {
	lock := j.getLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	return j.count(sessionID)
}
