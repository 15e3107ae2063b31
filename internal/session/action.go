package session

import (
	"fmt"

	"github.com/user/spikeclust/internal/clustering"
	"github.com/user/spikeclust/internal/metadata"
	"github.com/user/spikeclust/internal/types"
)

// ActionKind tags the variant held by an Action.
type ActionKind int

const (
	ActionClustering ActionKind = iota + 1
	ActionMetadata
)

func (k ActionKind) String() string {
	switch k {
	case ActionClustering:
		return "clustering"
	case ActionMetadata:
		return "metadata"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// Action is the history entry of a session. Exactly one of Clustering and
// Metadata is set, matching Kind.
type Action struct {
	Kind       ActionKind
	Clustering *clustering.Action
	Metadata   *metadata.Action
}

// reverter dispatches history replays to the component owning the action.
type reverter struct {
	s *Session
}

func (r reverter) Apply(a Action) (types.Update, error) {
	switch a.Kind {
	case ActionClustering:
		return r.s.clustering.Apply(a.Clustering), nil
	case ActionMetadata:
		return r.s.metadata.Apply(a.Metadata), nil
	}
	return types.Update{}, fmt.Errorf("apply %s action: %w", a.Kind, types.ErrInvalidOperation)
}

func (r reverter) Revert(a Action) (types.Update, error) {
	switch a.Kind {
	case ActionClustering:
		return r.s.clustering.Revert(a.Clustering), nil
	case ActionMetadata:
		return r.s.metadata.Revert(a.Metadata), nil
	}
	return types.Update{}, fmt.Errorf("revert %s action: %w", a.Kind, types.ErrInvalidOperation)
}
