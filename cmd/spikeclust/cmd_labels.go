package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/spikeclust/internal/dataset"
	"github.com/user/spikeclust/internal/session"
	"github.com/user/spikeclust/internal/types"
)

func init() {
	rootCmd.AddCommand(labelsCmd)
}

var labelsCmd = &cobra.Command{
	Use:   "labels <dataset>",
	Short: "Show the clusters of a dataset with their size, group and color",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		ds, err := dataset.Load(args[0])
		if err != nil {
			return err
		}

		s := session.New(session.WithMaxSpikes(cfg.MaxSpikes))
		if err := s.Load(ds.SpikeClusters, ds.Metadata); err != nil {
			return err
		}

		sizes := make(map[types.ClusterID]int)
		for _, c := range s.SpikeClusters() {
			sizes[c]++
		}
		groups := s.ClusterGroups()
		colors := s.ClusterColors()

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CLUSTER\tSPIKES\tGROUP\tCOLOR")
		for i, c := range s.ClusterLabels() {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", c, sizes[c], groups[i], colors[i])
		}
		return w.Flush()
	},
}
