// Package dataset reads the initial partition of a session and optional
// per-cluster metadata overrides from a YAML (or JSON) file.
package dataset

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/spikeclust/internal/types"
)

// Dataset is the collaborator-supplied input of a session.
//
//	name: tetrode-3
//	spike_clusters: [0, 0, 1, 1, 2]
//	metadata:
//	  1: {group: good}
type Dataset struct {
	Name          string                             `yaml:"name"`
	SpikeClusters []types.ClusterID                  `yaml:"spike_clusters"`
	Metadata      map[types.ClusterID]map[string]any `yaml:"metadata"`
}

// Load reads and validates a dataset file.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	ds, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	if ds.Name == "" {
		ds.Name = path
	}
	return ds, nil
}

// Parse decodes and validates a dataset.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks that every spike has a non-negative cluster id and that
// metadata only refers to clusters present in the partition.
func (ds *Dataset) Validate() error {
	if ds.SpikeClusters == nil {
		return errors.New("spike_clusters is required")
	}
	live := make(map[types.ClusterID]bool)
	for spike, c := range ds.SpikeClusters {
		if c < 0 {
			return fmt.Errorf("spike %d has negative cluster %d", spike, c)
		}
		live[c] = true
	}
	for c := range ds.Metadata {
		if !live[c] {
			return fmt.Errorf("metadata for cluster %d: %w", c, types.ErrUnknownCluster)
		}
	}
	return nil
}
