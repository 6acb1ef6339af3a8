// Package metrics provides Prometheus metrics for lolprox runs.
// A one-shot CLI has nothing to scrape, so the registry is written to a
// node_exporter textfile when a path is configured.
package metrics

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/EnigmaKM/LoLLCULiveAPISpike/cli/shared/lcu"
)

const (
	// Namespace for all lolprox metrics
	namespace = "lolprox"
)

// Recorder owns a private registry for one CLI invocation.
type Recorder struct {
	registry *prometheus.Registry

	// StageTotal tracks attempted bootstrap transitions
	StageTotal *prometheus.CounterVec
	// StageDuration tracks how long each transition took
	StageDuration *prometheus.HistogramVec
	// BootstrapState exposes the last state reached (1 for the current state)
	BootstrapState *prometheus.GaugeVec
	// InMatch is 1 while the session reports an active match
	InMatch prometheus.Gauge
	// WatchPolls counts gameflow polls issued by the watcher
	WatchPolls prometheus.Counter
}

// NewRecorder creates and registers the lolprox metric families.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		StageTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_total",
				Help:      "Total number of bootstrap stage attempts",
			},
			[]string{"stage", "result"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of bootstrap stages in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		BootstrapState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "bootstrap_state",
				Help:      "Last bootstrap state reached (always 1, label carries the state)",
			},
			[]string{"state"},
		),
		InMatch: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "in_match",
				Help:      "Whether the signed-in session is in an active match",
			},
		),
		WatchPolls: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "watch_polls_total",
				Help:      "Total number of gameflow phase polls issued by watch",
			},
		),
	}
	r.registry.MustRegister(r.StageTotal, r.StageDuration, r.BootstrapState, r.InMatch, r.WatchPolls)
	return r
}

// Registry exposes the underlying gatherer.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordReport records every attempted stage and the final state of a bootstrap report.
func (r *Recorder) RecordReport(report lcu.Report) {
	for _, stage := range report.Stages {
		result := "success"
		if stage.Err != nil {
			result = "failure"
		}
		r.StageTotal.WithLabelValues(stage.Stage, result).Inc()
		r.StageDuration.WithLabelValues(stage.Stage).Observe(stage.Duration.Seconds())
	}
	r.BootstrapState.Reset()
	r.BootstrapState.WithLabelValues(report.State.String()).Set(1)
	r.SetInMatch(report.InMatch)
}

// SetInMatch records the current match flag.
func (r *Recorder) SetInMatch(inMatch bool) {
	value := 0.0
	if inMatch {
		value = 1.0
	}
	r.InMatch.Set(value)
}

// RecordPoll counts one watcher poll.
func (r *Recorder) RecordPoll() {
	r.WatchPolls.Inc()
}

// WriteTextfile writes the registry in the text exposition format. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}
