// internal/types/ids.go
package types

import (
	"slices"

	"github.com/google/uuid"
)

type SessionID string
type EntryID string

// SpikeID indexes a spike in [0, N).
type SpikeID int

// ClusterID labels a cluster. Ids are allocated monotonically and never reused.
type ClusterID int

func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

func NewEntryID() EntryID {
	return EntryID(uuid.New().String())
}

// SortedClusters returns the distinct ids of in, ascending.
func SortedClusters(in []ClusterID) []ClusterID {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}

// SortedSpikes returns the distinct ids of in, ascending.
func SortedSpikes(in []SpikeID) []SpikeID {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}
