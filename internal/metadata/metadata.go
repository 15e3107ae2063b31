// Package metadata stores per-cluster properties such as group and color.
package metadata

import (
	"fmt"
	"maps"
	"slices"

	"github.com/user/spikeclust/internal/types"
)

const (
	PropertyGroup = "group"
	PropertyColor = "color"

	DefaultGroup = "unsorted"
)

// palette is indexed by cluster id modulo its length.
var palette = []string{
	"#8fb49c", "#ab9e3d", "#e0663a", "#5a98d6", "#c95fb8",
	"#4fb3a9", "#d9a441", "#7c6fd1", "#b8655a", "#6aa84f",
	"#cc4c7a", "#3f7fbf",
}

// Color returns the default color of a cluster.
func Color(cluster types.ClusterID) string {
	i := int(cluster) % len(palette)
	if i < 0 {
		i += len(palette)
	}
	return palette[i]
}

var defaults = map[string]func(types.ClusterID) any{
	PropertyGroup: func(types.ClusterID) any { return DefaultGroup },
	PropertyColor: func(c types.ClusterID) any { return Color(c) },
}

// Properties returns the names of the declared properties.
func Properties() []string {
	return slices.Sorted(maps.Keys(defaults))
}

// Prior is the value a property held before a Set.
type Prior struct {
	Value any
	// Explicit is false when the prior value was the declared default.
	Explicit bool
}

// Action records one Set call so it can be reverted and re-applied.
type Action struct {
	Property string
	Value    any
	Prior    map[types.ClusterID]Prior
}

// ClusterMetadata maps cluster ids to property overrides. Properties without
// an override read as their default. It is not safe for concurrent use.
type ClusterMetadata struct {
	entries map[types.ClusterID]map[string]any
}

// New creates an empty store.
func New() *ClusterMetadata {
	return &ClusterMetadata{entries: make(map[types.ClusterID]map[string]any)}
}

// Load replaces the store contents with overrides. Unknown properties fail
// and leave the store untouched.
func (m *ClusterMetadata) Load(overrides map[types.ClusterID]map[string]any) error {
	entries := make(map[types.ClusterID]map[string]any, len(overrides))
	for cluster, props := range overrides {
		entry := make(map[string]any, len(props))
		for prop, v := range props {
			if err := validate(prop); err != nil {
				return fmt.Errorf("cluster %d: %w", cluster, err)
			}
			entry[prop] = v
		}
		entries[cluster] = entry
	}
	m.entries = entries
	return nil
}

func validate(prop string) error {
	if _, ok := defaults[prop]; !ok {
		return fmt.Errorf("property %q: %w", prop, types.ErrInvalidOperation)
	}
	return nil
}

func (m *ClusterMetadata) entry(cluster types.ClusterID) map[string]any {
	e, ok := m.entries[cluster]
	if !ok {
		e = make(map[string]any)
		m.entries[cluster] = e
	}
	return e
}

// Get returns the value of prop for cluster, falling back to the default.
func (m *ClusterMetadata) Get(cluster types.ClusterID, prop string) (any, error) {
	if err := validate(prop); err != nil {
		return nil, err
	}
	if v, ok := m.entry(cluster)[prop]; ok {
		return v, nil
	}
	return defaults[prop](cluster), nil
}

// Group returns the group of cluster.
func (m *ClusterMetadata) Group(cluster types.ClusterID) string {
	v, _ := m.Get(cluster, PropertyGroup)
	return fmt.Sprint(v)
}

// ColorOf returns the color of cluster.
func (m *ClusterMetadata) ColorOf(cluster types.ClusterID) string {
	v, _ := m.Get(cluster, PropertyColor)
	return fmt.Sprint(v)
}

// Set overwrites prop on every cluster and returns the action that undoes it.
func (m *ClusterMetadata) Set(clusters []types.ClusterID, prop string, value any) (types.Update, *Action, error) {
	if err := validate(prop); err != nil {
		return types.Update{}, nil, err
	}
	ids := types.SortedClusters(clusters)
	if len(ids) == 0 {
		return types.Update{}, nil, fmt.Errorf("set %s on no clusters: %w", prop, types.ErrInvalidOperation)
	}

	action := &Action{Property: prop, Value: value, Prior: make(map[types.ClusterID]Prior, len(ids))}
	for _, cluster := range ids {
		v, ok := m.entry(cluster)[prop]
		if !ok {
			v = defaults[prop](cluster)
		}
		action.Prior[cluster] = Prior{Value: v, Explicit: ok}
	}
	return m.Apply(action), action, nil
}

// Apply writes the action's value on its clusters.
func (m *ClusterMetadata) Apply(a *Action) types.Update {
	for cluster := range a.Prior {
		m.entry(cluster)[a.Property] = a.Value
	}
	return update(a)
}

// Revert restores the values recorded in the action.
func (m *ClusterMetadata) Revert(a *Action) types.Update {
	for cluster, prior := range a.Prior {
		if prior.Explicit {
			m.entry(cluster)[a.Property] = prior.Value
		} else {
			delete(m.entry(cluster), a.Property)
		}
	}
	return update(a)
}

func update(a *Action) types.Update {
	return types.Update{
		Kind:     types.KindMetadata,
		Clusters: slices.Sorted(maps.Keys(a.Prior)),
		Property: a.Property,
	}
}
