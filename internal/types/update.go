package types

import "fmt"

// UpdateKind tells observers which kind of operation produced an Update.
type UpdateKind string

const (
	KindLoad     UpdateKind = "load"
	KindSelect   UpdateKind = "select"
	KindCluster  UpdateKind = "cluster"
	KindMetadata UpdateKind = "metadata"
)

// Update is the diff produced by one operation. Slices are sorted ascending
// and must not be modified by receivers.
type Update struct {
	Kind    UpdateKind  `json:"kind"`
	Added   []ClusterID `json:"added,omitempty"`
	Removed []ClusterID `json:"removed,omitempty"`
	Spikes  []SpikeID   `json:"spikes,omitempty"`

	// Set for metadata updates only.
	Clusters []ClusterID `json:"clusters,omitempty"`
	Property string      `json:"property,omitempty"`

	Undo bool `json:"undo,omitempty"`
	Redo bool `json:"redo,omitempty"`
}

func (u Update) String() string {
	switch u.Kind {
	case KindMetadata:
		return fmt.Sprintf("%s %s clusters=%v", u.Kind, u.Property, u.Clusters)
	default:
		return fmt.Sprintf("%s added=%v removed=%v spikes=%d", u.Kind, u.Added, u.Removed, len(u.Spikes))
	}
}

// Status describes a non-mutating outcome reported to observers.
type Status string

const (
	StatusNothingToUndo Status = "nothing_to_undo"
	StatusNothingToRedo Status = "nothing_to_redo"
)
