package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/spikeclust/internal/state"
	"github.com/user/spikeclust/internal/types"
)

var tailLimit int

func init() {
	rootCmd.AddCommand(sessionCmd, journalCmd)
	sessionCmd.AddCommand(sessionListCmd)
	journalCmd.AddCommand(journalTailCmd)
	journalTailCmd.Flags().IntVarP(&tailLimit, "lines", "n", 20, "number of entries to show (0 for all)")
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect recorded sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		sessions := state.NewSessionStore(cfg.DataDir)
		journal := state.NewJournalStore(cfg.DataDir)

		ctx := context.Background()
		list, err := sessions.List(ctx)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		if len(list) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATASET\tSPIKES\tSTATUS\tENTRIES\tCREATED")
		for _, s := range list {
			count, err := journal.Count(ctx, s.SessionID)
			if err != nil {
				count = 0
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\n",
				s.SessionID,
				s.Dataset,
				s.Spikes,
				s.Status,
				count,
				s.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Read session journals",
}

var journalTailCmd = &cobra.Command{
	Use:   "tail <session-id>",
	Short: "Show the last journal entries of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		journal := state.NewJournalStore(cfg.DataDir)

		entries, err := journal.Tail(context.Background(), types.SessionID(args[0]), tailLimit)
		if err != nil {
			return fmt.Errorf("read journal: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SEQ\tAT\tKIND\tDETAIL")
		for _, e := range entries {
			detail := string(e.Status)
			if e.Update != nil {
				detail = e.Update.String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				strconv.FormatInt(e.Seq, 10),
				e.At.Format("2006-01-02 15:04:05"),
				e.Kind,
				detail,
			)
		}
		return w.Flush()
	},
}
