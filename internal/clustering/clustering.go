// Package clustering owns the spike to cluster partition of a session.
package clustering

import (
	"fmt"
	"slices"

	"github.com/user/spikeclust/internal/types"
)

// Action records one partition change: the spikes that moved, the cluster
// each of them belonged to before, and the cluster they were moved to.
// Spikes and Old are parallel.
type Action struct {
	Spikes []types.SpikeID
	Old    []types.ClusterID
	New    types.ClusterID
}

// Clustering holds the partition. It is not safe for concurrent use.
type Clustering struct {
	spikeClusters []types.ClusterID
	counts        map[types.ClusterID]int
	nextID        types.ClusterID
}

// New builds a Clustering from the initial spike to cluster vector. The slice
// is copied. Negative cluster ids are rejected.
func New(spikeClusters []types.ClusterID) (*Clustering, error) {
	c := &Clustering{
		spikeClusters: slices.Clone(spikeClusters),
		counts:        make(map[types.ClusterID]int),
	}
	for spike, cluster := range c.spikeClusters {
		if cluster < 0 {
			return nil, fmt.Errorf("spike %d has cluster %d: %w", spike, cluster, types.ErrInvalidOperation)
		}
		c.counts[cluster]++
		if cluster >= c.nextID {
			c.nextID = cluster + 1
		}
	}
	return c, nil
}

// Len returns the number of spikes.
func (c *Clustering) Len() int {
	return len(c.spikeClusters)
}

// NextID returns the id the next merge or split will allocate.
func (c *Clustering) NextID() types.ClusterID {
	return c.nextID
}

// Reserve makes sure the next allocated id is at least next, so ids handed
// out by an earlier partition of the same session are never reused.
func (c *Clustering) Reserve(next types.ClusterID) {
	if next > c.nextID {
		c.nextID = next
	}
}

// IsLive reports whether at least one spike belongs to cluster.
func (c *Clustering) IsLive(cluster types.ClusterID) bool {
	return c.counts[cluster] > 0
}

// ClusterOf returns the cluster of a spike.
func (c *Clustering) ClusterOf(spike types.SpikeID) (types.ClusterID, error) {
	if spike < 0 || int(spike) >= len(c.spikeClusters) {
		return 0, fmt.Errorf("spike %d: %w", spike, types.ErrOutOfRange)
	}
	return c.spikeClusters[spike], nil
}

// SpikeClusters returns a copy of the partition.
func (c *Clustering) SpikeClusters() []types.ClusterID {
	return slices.Clone(c.spikeClusters)
}

// ClusterLabels returns the live cluster ids in ascending order.
func (c *Clustering) ClusterLabels() []types.ClusterID {
	labels := make([]types.ClusterID, 0, len(c.counts))
	for cluster, n := range c.counts {
		if n > 0 {
			labels = append(labels, cluster)
		}
	}
	slices.Sort(labels)
	return labels
}

// ClusterSize returns the number of spikes in cluster.
func (c *Clustering) ClusterSize(cluster types.ClusterID) int {
	return c.counts[cluster]
}

// ClusterSpikes returns the spikes of cluster in ascending order.
func (c *Clustering) ClusterSpikes(cluster types.ClusterID) []types.SpikeID {
	spikes := make([]types.SpikeID, 0, c.counts[cluster])
	for spike, cl := range c.spikeClusters {
		if cl == cluster {
			spikes = append(spikes, types.SpikeID(spike))
		}
	}
	return spikes
}

// Merge moves every spike of clusters into one newly allocated cluster.
func (c *Clustering) Merge(clusters []types.ClusterID) (types.Update, *Action, error) {
	ids := types.SortedClusters(clusters)
	if len(ids) < 2 {
		return types.Update{}, nil, fmt.Errorf("merge needs at least two clusters, got %v: %w", clusters, types.ErrInvalidOperation)
	}
	for _, id := range ids {
		if !c.IsLive(id) {
			return types.Update{}, nil, fmt.Errorf("merge cluster %d: %w", id, types.ErrUnknownCluster)
		}
	}

	action := &Action{New: c.nextID}
	for spike, cl := range c.spikeClusters {
		if _, found := slices.BinarySearch(ids, cl); found {
			action.Spikes = append(action.Spikes, types.SpikeID(spike))
			action.Old = append(action.Old, cl)
		}
	}
	c.nextID++

	return c.Apply(action), action, nil
}

// Split moves spikes into one newly allocated cluster. Source clusters left
// without spikes disappear.
func (c *Clustering) Split(spikes []types.SpikeID) (types.Update, *Action, error) {
	ids := types.SortedSpikes(spikes)
	if len(ids) == 0 {
		return types.Update{}, nil, fmt.Errorf("split needs at least one spike: %w", types.ErrInvalidOperation)
	}
	if ids[0] < 0 || int(ids[len(ids)-1]) >= len(c.spikeClusters) {
		return types.Update{}, nil, fmt.Errorf("split spikes %d..%d of %d: %w", ids[0], ids[len(ids)-1], len(c.spikeClusters), types.ErrOutOfRange)
	}

	action := &Action{
		Spikes: ids,
		Old:    make([]types.ClusterID, len(ids)),
		New:    c.nextID,
	}
	for i, spike := range ids {
		action.Old[i] = c.spikeClusters[spike]
	}
	c.nextID++

	return c.Apply(action), action, nil
}

// Apply moves the spikes of a recorded action to its new cluster.
func (c *Clustering) Apply(a *Action) types.Update {
	return c.assign(a.Spikes, func(int) types.ClusterID { return a.New })
}

// Revert moves the spikes of a recorded action back to their old clusters.
func (c *Clustering) Revert(a *Action) types.Update {
	return c.assign(a.Spikes, func(i int) types.ClusterID { return a.Old[i] })
}

// assign reassigns spikes and derives the Update from the live state of every
// cluster id touched, before and after.
func (c *Clustering) assign(spikes []types.SpikeID, target func(i int) types.ClusterID) types.Update {
	touched := make(map[types.ClusterID]bool)
	for i, spike := range spikes {
		touched[c.spikeClusters[spike]] = c.IsLive(c.spikeClusters[spike])
		dst := target(i)
		if _, ok := touched[dst]; !ok {
			touched[dst] = c.IsLive(dst)
		}
	}

	for i, spike := range spikes {
		old := c.spikeClusters[spike]
		dst := target(i)
		c.counts[old]--
		if c.counts[old] == 0 {
			delete(c.counts, old)
		}
		c.counts[dst]++
		c.spikeClusters[spike] = dst
	}

	up := types.Update{Kind: types.KindCluster, Spikes: slices.Clone(spikes)}
	for cluster, wasLive := range touched {
		switch live := c.IsLive(cluster); {
		case live && !wasLive:
			up.Added = append(up.Added, cluster)
		case !live && wasLive:
			up.Removed = append(up.Removed, cluster)
		}
	}
	slices.Sort(up.Added)
	slices.Sort(up.Removed)
	return up
}

// Check verifies the partition invariants: every spike maps to a
// non-negative cluster and the per-cluster counts match the partition image.
func (c *Clustering) Check() error {
	image := make(map[types.ClusterID]int)
	for spike, cluster := range c.spikeClusters {
		if cluster < 0 || cluster >= c.nextID {
			return fmt.Errorf("spike %d maps to unallocated cluster %d", spike, cluster)
		}
		image[cluster]++
	}
	if len(image) != len(c.counts) {
		return fmt.Errorf("live clusters %d, partition image %d", len(c.counts), len(image))
	}
	for cluster, n := range image {
		if c.counts[cluster] != n {
			return fmt.Errorf("cluster %d counts %d spikes, partition has %d", cluster, c.counts[cluster], n)
		}
	}
	return nil
}
