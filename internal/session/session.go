// Package session orchestrates a manual clustering session: the partition,
// cluster metadata, the selection and the undo/redo history.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/user/spikeclust/internal/clustering"
	"github.com/user/spikeclust/internal/history"
	"github.com/user/spikeclust/internal/metadata"
	"github.com/user/spikeclust/internal/selector"
	"github.com/user/spikeclust/internal/types"
)

// Session provides every user-facing action of a clustering session. All
// methods are safe for concurrent use; each runs under a single lock so the
// partition, metadata and history change together. Observers receive
// notifications in commit order.
type Session struct {
	Registry

	id        types.SessionID
	maxSpikes int
	log       *slog.Logger

	// Every committed change takes a ticket under mu. Notifications are
	// delivered strictly in ticket order, without holding mu, so observers
	// can still query the session.
	notifyMu   sync.Mutex
	notifyCond *sync.Cond
	committed  uint64
	delivered  uint64

	mu         sync.Mutex
	clustering *clustering.Clustering
	metadata   *metadata.ClusterMetadata
	selector   *selector.Selector
	history    *history.History[Action]
}

// Option configures a Session.
type Option func(*Session)

// WithMaxSpikes sets the selection cap.
func WithMaxSpikes(n int) Option {
	return func(s *Session) { s.maxSpikes = n }
}

// WithID sets the session id instead of generating one.
func WithID(id types.SessionID) Option {
	return func(s *Session) { s.id = id }
}

// WithLogger sets the logger. The session adds its id to every record.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// New creates an empty session. Load must be called before any other
// operation.
func New(opts ...Option) *Session {
	s := &Session{maxSpikes: selector.DefaultMaxSpikes, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = types.NewSessionID()
	}
	s.log = s.log.With("session_id", string(s.id))
	s.notifyCond = sync.NewCond(&s.notifyMu)
	s.history = history.New[Action](reverter{s: s})
	return s
}

// ID returns the session id.
func (s *Session) ID() types.SessionID { return s.id }

func (s *Session) loaded() error {
	if s.clustering == nil {
		return types.ErrNotLoaded
	}
	return nil
}

// Load replaces the session data with a new partition and optional metadata
// overrides, and clears the history. Cluster ids allocated before a reload
// are not handed out again.
func (s *Session) Load(spikeClusters []types.ClusterID, overrides map[types.ClusterID]map[string]any) error {
	c, err := clustering.New(spikeClusters)
	if err != nil {
		return fmt.Errorf("load partition: %w", err)
	}
	m := metadata.New()
	if err := m.Load(overrides); err != nil {
		return fmt.Errorf("load metadata: %w", err)
	}

	s.mu.Lock()
	if s.clustering != nil {
		c.Reserve(s.clustering.NextID())
	}
	s.clustering = c
	s.metadata = m
	s.selector = selector.New(c, s.maxSpikes)
	s.history.Clear()
	up := types.Update{Kind: types.KindLoad, Added: c.ClusterLabels()}
	s.unlockAndNotify(func(o Observer) { o.OnLoad(up) })

	s.log.Debug("session loaded", "spikes", len(spikeClusters), "clusters", len(up.Added))
	return nil
}

// Select selects clusters. Selection is not recorded in the history.
func (s *Session) Select(clusters []types.ClusterID) error {
	s.mu.Lock()
	if err := s.loaded(); err != nil {
		s.mu.Unlock()
		return err
	}
	up, err := s.selector.Select(clusters)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.unlockAndNotify(func(o Observer) { o.OnSelect(up) })

	s.log.Debug("clusters selected", "clusters", clusters, "spikes", len(up.Spikes))
	return nil
}

// Merge merges clusters into a new cluster.
func (s *Session) Merge(clusters []types.ClusterID) (types.Update, error) {
	return s.mutate("merge", func() (types.Update, Action, error) {
		up, a, err := s.clustering.Merge(clusters)
		return up, Action{Kind: ActionClustering, Clustering: a}, err
	})
}

// Split moves spikes into a new cluster.
func (s *Session) Split(spikes []types.SpikeID) (types.Update, error) {
	return s.mutate("split", func() (types.Update, Action, error) {
		up, a, err := s.clustering.Split(spikes)
		return up, Action{Kind: ActionClustering, Clustering: a}, err
	})
}

// Move assigns clusters to a group.
func (s *Session) Move(clusters []types.ClusterID, group string) (types.Update, error) {
	return s.mutate("move", func() (types.Update, Action, error) {
		for _, c := range clusters {
			if !s.clustering.IsLive(c) {
				return types.Update{}, Action{}, fmt.Errorf("move cluster %d: %w", c, types.ErrUnknownCluster)
			}
		}
		up, a, err := s.metadata.Set(clusters, metadata.PropertyGroup, group)
		return up, Action{Kind: ActionMetadata, Metadata: a}, err
	})
}

// mutate runs one recorded operation. op must validate its arguments before
// writing anything.
func (s *Session) mutate(name string, op func() (types.Update, Action, error)) (types.Update, error) {
	s.mu.Lock()
	if err := s.loaded(); err != nil {
		s.mu.Unlock()
		return types.Update{}, err
	}
	up, action, err := op()
	if err != nil {
		s.mu.Unlock()
		return types.Update{}, fmt.Errorf("%s: %w", name, err)
	}
	s.history.Push(action)
	s.refreshSelection(up)
	s.unlockAndNotify(func(o Observer) { o.OnCluster(up) })

	s.log.Debug("session updated", "op", name, "update", up.String())
	return up, nil
}

// unlockAndNotify must be called with mu held. It releases mu and calls fn
// on every observer once all earlier commits have been delivered.
func (s *Session) unlockAndNotify(fn func(Observer)) {
	ticket := s.committed
	s.committed++
	s.mu.Unlock()

	s.notifyMu.Lock()
	for s.delivered != ticket {
		s.notifyCond.Wait()
	}
	s.notifyMu.Unlock()

	defer func() {
		s.notifyMu.Lock()
		s.delivered++
		s.notifyCond.Broadcast()
		s.notifyMu.Unlock()
	}()
	s.notify(s.log, fn)
}

func (s *Session) refreshSelection(up types.Update) {
	if up.Kind == types.KindCluster {
		s.selector.Refresh()
	}
}

// Undo reverts the last action. ok is false when there is nothing to undo;
// observers then receive StatusNothingToUndo.
func (s *Session) Undo() (up types.Update, ok bool, err error) {
	return s.travel("undo", s.history.Undo, types.StatusNothingToUndo)
}

// Redo re-applies the last undone action. ok is false when there is nothing
// to redo; observers then receive StatusNothingToRedo.
func (s *Session) Redo() (up types.Update, ok bool, err error) {
	return s.travel("redo", s.history.Redo, types.StatusNothingToRedo)
}

func (s *Session) travel(name string, step func() (types.Update, error), empty types.Status) (types.Update, bool, error) {
	s.mu.Lock()
	if err := s.loaded(); err != nil {
		s.mu.Unlock()
		return types.Update{}, false, err
	}
	up, err := step()
	switch {
	case errors.Is(err, types.ErrNoMoreHistory):
		s.unlockAndNotify(func(o Observer) { o.OnStatus(empty) })
		s.log.Debug("history exhausted", "op", name)
		return types.Update{}, false, nil
	case err != nil:
		s.mu.Unlock()
		return types.Update{}, false, err
	}
	s.refreshSelection(up)
	s.unlockAndNotify(func(o Observer) { o.OnCluster(up) })

	s.log.Debug("session updated", "op", name, "update", up.String())
	return up, true, nil
}

// CanUndo reports whether Undo would change anything.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would change anything.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// ClusterLabels returns the live cluster ids, ascending.
func (s *Session) ClusterLabels() []types.ClusterID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clustering == nil {
		return nil
	}
	return s.clustering.ClusterLabels()
}

// ClusterColors returns the color of each cluster of ClusterLabels.
func (s *Session) ClusterColors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clustering == nil {
		return nil
	}
	labels := s.clustering.ClusterLabels()
	colors := make([]string, len(labels))
	for i, c := range labels {
		colors[i] = s.metadata.ColorOf(c)
	}
	return colors
}

// ClusterGroups returns the group of each cluster of ClusterLabels.
func (s *Session) ClusterGroups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clustering == nil {
		return nil
	}
	labels := s.clustering.ClusterLabels()
	groups := make([]string, len(labels))
	for i, c := range labels {
		groups[i] = s.metadata.Group(c)
	}
	return groups
}

// SpikeClusters returns a copy of the partition.
func (s *Session) SpikeClusters() []types.ClusterID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clustering == nil {
		return nil
	}
	return s.clustering.SpikeClusters()
}

// Metadata returns a property of a cluster.
func (s *Session) Metadata(cluster types.ClusterID, prop string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return nil, err
	}
	return s.metadata.Get(cluster, prop)
}

func (s *Session) SelectedClusters() []types.ClusterID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selector == nil {
		return nil
	}
	return s.selector.SelectedClusters()
}

func (s *Session) SelectedSpikes() []types.SpikeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selector == nil {
		return nil
	}
	return s.selector.SelectedSpikes()
}

// Check verifies the partition invariants.
func (s *Session) Check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}
	return s.clustering.Check()
}
