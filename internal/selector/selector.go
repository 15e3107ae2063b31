// Package selector picks a bounded, reproducible subset of spikes from a set
// of selected clusters.
package selector

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/user/spikeclust/internal/types"
)

// DefaultMaxSpikes caps a selection when no other cap is configured.
const DefaultMaxSpikes = 100

// Partition is the read-only view of the clustering the selector needs.
type Partition interface {
	IsLive(types.ClusterID) bool
	ClusterSpikes(types.ClusterID) []types.SpikeID
}

// Selector holds the current selection. It never modifies the partition.
type Selector struct {
	partition Partition
	maxSpikes int
	clusters  []types.ClusterID
	spikes    []types.SpikeID
}

// New creates a Selector over p. A non-positive cap means DefaultMaxSpikes.
func New(p Partition, maxSpikes int) *Selector {
	if maxSpikes <= 0 {
		maxSpikes = DefaultMaxSpikes
	}
	return &Selector{partition: p, maxSpikes: maxSpikes}
}

func (s *Selector) MaxSpikes() int { return s.maxSpikes }

// SelectedClusters returns the selected clusters in selection order.
func (s *Selector) SelectedClusters() []types.ClusterID {
	return slices.Clone(s.clusters)
}

// SelectedSpikes returns the selected spikes in ascending order.
func (s *Selector) SelectedSpikes() []types.SpikeID {
	return slices.Clone(s.spikes)
}

// Select replaces the selection. Duplicate ids keep their first position.
// An unknown cluster fails and keeps the previous selection.
func (s *Selector) Select(clusters []types.ClusterID) (types.Update, error) {
	ordered := make([]types.ClusterID, 0, len(clusters))
	for _, c := range clusters {
		if !s.partition.IsLive(c) {
			return types.Update{}, fmt.Errorf("select cluster %d: %w", c, types.ErrUnknownCluster)
		}
		if !slices.Contains(ordered, c) {
			ordered = append(ordered, c)
		}
	}
	s.clusters = ordered
	s.spikes = s.sample()
	return types.Update{Kind: types.KindSelect, Spikes: slices.Clone(s.spikes)}, nil
}

// Refresh drops selected clusters that are no longer live and recomputes the
// selected spikes. It reports whether the selection changed.
func (s *Selector) Refresh() bool {
	before := s.spikes
	s.clusters = slices.DeleteFunc(s.clusters, func(c types.ClusterID) bool {
		return !s.partition.IsLive(c)
	})
	s.spikes = s.sample()
	return !slices.Equal(before, s.spikes)
}

// Clear empties the selection.
func (s *Selector) Clear() {
	s.clusters = nil
	s.spikes = nil
}

// sample returns every spike of the selected clusters when they fit under the
// cap. Otherwise each cluster gets a quota (see quotas) and contributes evenly
// spaced spikes from its sorted spike list.
func (s *Selector) sample() []types.SpikeID {
	members := make([][]types.SpikeID, len(s.clusters))
	total := 0
	for i, c := range s.clusters {
		members[i] = s.partition.ClusterSpikes(c)
		total += len(members[i])
	}

	out := make([]types.SpikeID, 0, min(total, s.maxSpikes))
	if total <= s.maxSpikes {
		for _, m := range members {
			out = append(out, m...)
		}
		slices.Sort(out)
		return out
	}

	sizes := make([]int, len(members))
	for i, m := range members {
		sizes[i] = len(m)
	}
	for i, q := range quotas(sizes, s.maxSpikes) {
		n := len(members[i])
		for j := 0; j < q; j++ {
			out = append(out, members[i][j*n/q])
		}
	}
	slices.Sort(out)
	return out
}

// quotas splits limit slots across clusters of the given sizes, assuming
// sum(sizes) > limit. When there are at least as many slots as clusters,
// every cluster gets one spike and the rest is shared in proportion to the
// remaining sizes; otherwise all slots are shared in proportion to the sizes.
// Shares use the largest remainder method, ties going to the earlier cluster.
func quotas(sizes []int, limit int) []int {
	base := make([]int, len(sizes))
	weights := slices.Clone(sizes)
	if limit >= len(sizes) {
		for i := range base {
			base[i] = 1
			weights[i]--
		}
		limit -= len(sizes)
	}

	total := 0
	for _, w := range weights {
		total += w
	}
	if total == 0 || limit == 0 {
		return base
	}

	type share struct {
		index     int
		remainder int
	}
	shares := make([]share, len(weights))
	given := 0
	for i, w := range weights {
		q := limit * w / total
		base[i] += q
		given += q
		shares[i] = share{index: i, remainder: limit * w % total}
	}
	slices.SortStableFunc(shares, func(a, b share) int {
		return cmp.Compare(b.remainder, a.remainder)
	})
	for _, sh := range shares[:limit-given] {
		base[sh.index]++
	}
	return base
}
