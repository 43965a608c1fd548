// Package metrics counts what one batch run did and writes the counts in the
// Prometheus text format, for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the metrics of one batch run on a private registry. A nil
// *Recorder records nothing.
type Recorder struct {
	reg *prometheus.Registry

	fightsTotal   *prometheus.CounterVec
	warningsTotal *prometheus.CounterVec
	players       prometheus.Gauge
	runSeconds    prometheus.Gauge
	lastRun       prometheus.Gauge
}

// NewRecorder returns a Recorder with every metric registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		fightsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "topstats_fights_total",
			Help: "Fights read in the batch, by status (used or skipped)",
		}, []string{"status"}),
		warningsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "topstats_unreadable_stats_total",
			Help: "Stat readings that could not be extracted, by stat",
		}, []string{"stat"}),
		players: f.NewGauge(prometheus.GaugeOpts{
			Name: "topstats_players",
			Help: "Distinct (character, profession) players in the batch",
		}),
		runSeconds: f.NewGauge(prometheus.GaugeOpts{
			Name: "topstats_run_duration_seconds",
			Help: "Wall time spent computing the batch",
		}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "topstats_last_run_timestamp_seconds",
			Help: "Unix time the batch finished",
		}),
	}
}

// Fight counts one fight.
func (r *Recorder) Fight(skipped bool) {
	if r == nil {
		return
	}
	status := "used"
	if skipped {
		status = "skipped"
	}
	r.fightsTotal.WithLabelValues(status).Inc()
}

// Warning counts one unreadable stat.
func (r *Recorder) Warning(stat string) {
	if r == nil {
		return
	}
	r.warningsTotal.WithLabelValues(stat).Inc()
}

// Players sets the number of players in the batch.
func (r *Recorder) Players(n int) {
	if r == nil {
		return
	}
	r.players.Set(float64(n))
}

// Finish records the run's duration and completion time.
func (r *Recorder) Finish(started, finished time.Time) {
	if r == nil {
		return
	}
	r.runSeconds.Set(finished.Sub(started).Seconds())
	r.lastRun.Set(float64(finished.Unix()))
}

// WriteTextfile writes every metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
