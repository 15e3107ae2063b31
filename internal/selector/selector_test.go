package selector

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/spikeclust/internal/clustering"
	"github.com/user/spikeclust/internal/types"
)

func newClustering(t *testing.T, sizes ...int) *clustering.Clustering {
	t.Helper()
	var labels []types.ClusterID
	for cluster, n := range sizes {
		for i := 0; i < n; i++ {
			labels = append(labels, types.ClusterID(cluster))
		}
	}
	c, err := clustering.New(labels)
	require.NoError(t, err)
	return c
}

func TestSelect_UnderCap(t *testing.T) {
	c := newClustering(t, 3, 2, 4)
	s := New(c, 0)
	assert.Equal(t, DefaultMaxSpikes, s.MaxSpikes())

	up, err := s.Select([]types.ClusterID{2, 0, 2})
	require.NoError(t, err)

	assert.Equal(t, types.KindSelect, up.Kind)
	assert.Equal(t, []types.ClusterID{2, 0}, s.SelectedClusters())
	assert.Equal(t, []types.SpikeID{0, 1, 2, 5, 6, 7, 8}, s.SelectedSpikes())
}

func TestSelect_UnknownClusterKeepsSelection(t *testing.T) {
	c := newClustering(t, 3, 2)
	s := New(c, 10)
	_, err := s.Select([]types.ClusterID{1})
	require.NoError(t, err)

	_, err = s.Select([]types.ClusterID{0, 9})
	require.ErrorIs(t, err, types.ErrUnknownCluster)
	assert.Equal(t, []types.ClusterID{1}, s.SelectedClusters())
	assert.Equal(t, []types.SpikeID{3, 4}, s.SelectedSpikes())
}

func TestSelect_CapIsExactAndDeterministic(t *testing.T) {
	c := newClustering(t, 500, 3, 120, 1)
	s := New(c, 100)

	_, err := s.Select([]types.ClusterID{0, 1, 2, 3})
	require.NoError(t, err)
	first := s.SelectedSpikes()
	require.Len(t, first, 100)
	assert.True(t, slices.IsSorted(first))

	_, err = s.Select([]types.ClusterID{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, first, s.SelectedSpikes())

	perCluster := map[types.ClusterID]int{}
	for _, spike := range first {
		cluster, err := c.ClusterOf(spike)
		require.NoError(t, err)
		perCluster[cluster]++
	}
	for cluster := types.ClusterID(0); cluster < 4; cluster++ {
		assert.Positive(t, perCluster[cluster], "cluster %d starved", cluster)
	}
	assert.Greater(t, perCluster[0], perCluster[2])
}

func TestSelect_CapBelowClusterCount(t *testing.T) {
	c := newClustering(t, 5, 5, 5, 5)
	s := New(c, 3)

	_, err := s.Select([]types.ClusterID{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, s.SelectedSpikes(), 3)
}

func TestQuotas(t *testing.T) {
	tests := []struct {
		name  string
		sizes []int
		limit int
		want  []int
	}{
		{"one slot each", []int{4, 4}, 2, []int{1, 1}},
		{"proportional", []int{10, 30}, 5, []int{2, 3}},
		{"ties to earlier", []int{3, 3, 3}, 4, []int{2, 1, 1}},
		{"fewer slots than clusters", []int{1, 9}, 1, []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := quotas(tt.sizes, tt.limit)
			assert.Equal(t, tt.want, got)
			sum := 0
			for i, q := range got {
				assert.LessOrEqual(t, q, tt.sizes[i])
				sum += q
			}
			assert.Equal(t, tt.limit, sum)
		})
	}
}

func TestRefresh_DropsDeadClusters(t *testing.T) {
	c := newClustering(t, 2, 2, 1)
	s := New(c, 10)
	_, err := s.Select([]types.ClusterID{0, 2})
	require.NoError(t, err)

	_, _, err = c.Merge([]types.ClusterID{0, 1})
	require.NoError(t, err)

	assert.True(t, s.Refresh())
	assert.Equal(t, []types.ClusterID{2}, s.SelectedClusters())
	assert.Equal(t, []types.SpikeID{4}, s.SelectedSpikes())
	assert.False(t, s.Refresh())

	s.Clear()
	assert.Empty(t, s.SelectedSpikes())
}
