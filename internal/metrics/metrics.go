// Package metrics exposes session activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/user/spikeclust/internal/types"
)

// Observer is a session observer that counts updates. Metrics are registered
// on the registerer given to New, labelled with the session id.
type Observer struct {
	updates        *prometheus.CounterVec
	spikesAffected prometheus.Counter
	liveClusters   prometheus.Gauge
	statuses       *prometheus.CounterVec
}

// New registers the session metrics on reg.
func New(reg prometheus.Registerer, sessionID types.SessionID) *Observer {
	f := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"session_id": string(sessionID)}, reg))
	return &Observer{
		updates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "spikeclust_updates_total",
			Help: "Session updates by kind and origin (apply, undo, redo)",
		}, []string{"kind", "origin"}),
		spikesAffected: f.NewCounter(prometheus.CounterOpts{
			Name: "spikeclust_spikes_affected_total",
			Help: "Spikes reassigned by merge, split, undo and redo",
		}),
		liveClusters: f.NewGauge(prometheus.GaugeOpts{
			Name: "spikeclust_live_clusters",
			Help: "Number of clusters holding at least one spike",
		}),
		statuses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "spikeclust_noop_total",
			Help: "Operations that completed without a change, by status",
		}, []string{"status"}),
	}
}

func origin(up types.Update) string {
	switch {
	case up.Undo:
		return "undo"
	case up.Redo:
		return "redo"
	default:
		return "apply"
	}
}

func (o *Observer) OnLoad(up types.Update) {
	o.updates.WithLabelValues(string(up.Kind), origin(up)).Inc()
	o.liveClusters.Set(float64(len(up.Added)))
}

func (o *Observer) OnSelect(up types.Update) {
	o.updates.WithLabelValues(string(up.Kind), origin(up)).Inc()
}

func (o *Observer) OnCluster(up types.Update) {
	o.updates.WithLabelValues(string(up.Kind), origin(up)).Inc()
	if up.Kind == types.KindCluster {
		o.spikesAffected.Add(float64(len(up.Spikes)))
		o.liveClusters.Add(float64(len(up.Added) - len(up.Removed)))
	}
}

func (o *Observer) OnStatus(st types.Status) {
	o.statuses.WithLabelValues(string(st)).Inc()
}
