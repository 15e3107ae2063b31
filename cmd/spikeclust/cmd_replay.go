package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/user/spikeclust/internal/config"
	"github.com/user/spikeclust/internal/dataset"
	"github.com/user/spikeclust/internal/gateway"
	"github.com/user/spikeclust/internal/metrics"
	"github.com/user/spikeclust/internal/script"
	"github.com/user/spikeclust/internal/session"
	"github.com/user/spikeclust/internal/state"
	"github.com/user/spikeclust/internal/types"
)

var printMetrics bool

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&printMetrics, "metrics", false, "print session metrics after the replay")
}

var replayCmd = &cobra.Command{
	Use:   "replay <dataset> <script> [<dataset> <script>...]",
	Short: "Replay operation scripts against datasets, one session per pair",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || len(args)%2 != 0 {
			return fmt.Errorf("expected <dataset> <script> pairs, got %d args", len(args))
		}
		return nil
	},
	RunE: runReplay,
}

type replayJob struct {
	ds   *dataset.Dataset
	cmds []script.Command
	out  bytes.Buffer
	id   types.SessionID
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	jobs := make([]*replayJob, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		ds, err := dataset.Load(args[i])
		if err != nil {
			return err
		}
		f, err := os.Open(args[i+1])
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		cmds, err := script.Parse(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[i+1], err)
		}
		jobs = append(jobs, &replayJob{ds: ds, cmds: cmds})
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	reg := prometheus.NewRegistry()
	gw := newGateway(cfg, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	gw.Start(ctx)
	defer gw.Stop()

	slog.Info("replay started", "sessions", len(jobs), "max_concurrent", cfg.MaxConcurrent, "max_spikes", cfg.MaxSpikes)

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		g.Go(func() error {
			return replay(gctx, gw, job)
		})
	}
	err := g.Wait()
	gw.Stop()

	for _, job := range jobs {
		if job.id == "" {
			continue
		}
		fmt.Fprintf(os.Stdout, "== %s (%s)\n", job.ds.Name, job.id)
		os.Stdout.Write(job.out.Bytes())
	}
	if err != nil {
		return err
	}

	if printMetrics {
		families, err := reg.Gather()
		if err != nil {
			return fmt.Errorf("gather metrics: %w", err)
		}
		for _, mf := range families {
			if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
				return err
			}
		}
	}
	return nil
}

func newGateway(cfg *config.Config, reg prometheus.Registerer) *gateway.Gateway {
	opts := []gateway.Option{
		gateway.WithSessionOptions(session.WithMaxSpikes(cfg.MaxSpikes)),
	}
	var journal *state.JournalStore
	if cfg.Journal.Enabled {
		journal = state.NewJournalStore(cfg.DataDir)
		opts = append(opts, gateway.WithSessionStore(state.NewSessionStore(cfg.DataDir)))
	}
	opts = append(opts, gateway.WithObservers(func(id types.SessionID) []session.Observer {
		var observers []session.Observer
		if journal != nil {
			observers = append(observers, state.NewRecorder(journal, id))
		}
		if cfg.Metrics.Enabled || printMetrics {
			observers = append(observers, metrics.New(reg, id))
		}
		return observers
	}))
	return gateway.New(int64(cfg.MaxConcurrent), opts...)
}

func replay(ctx context.Context, gw *gateway.Gateway, job *replayJob) error {
	id, err := gw.Open(ctx, job.ds)
	if err != nil {
		return err
	}
	job.id = id

	runErr := gw.Do(ctx, id, func(s *session.Session) error {
		return script.Run(s, job.cmds, &job.out)
	})
	if err := gw.Close(ctx, id); err != nil {
		slog.Warn("close session", "session_id", string(id), "error", err)
	}
	if runErr != nil {
		return fmt.Errorf("%s: %w", job.ds.Name, runErr)
	}
	return nil
}
