// Package metrics records Prometheus instrumentation for a run and writes it
// in the text exposition format for the node-exporter textfile collector.
//
// All metrics are prefixed with "crfboost_". A nil *Recorder is valid and
// records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns a private registry and the run's metrics.
type Recorder struct {
	registry *prometheus.Registry

	TrialsTotal      *prometheus.CounterVec
	FramesScored     prometheus.Counter
	EncodeDuration   *prometheus.HistogramVec
	EvaluateDuration *prometheus.HistogramVec
	ScenesTotal      *prometheus.CounterVec
	ChosenCRF        *prometheus.CounterVec
	ScenesInFlight   prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
}

// New creates a recorder with its metrics registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		TrialsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crfboost_trials_total",
				Help: "Total number of (scene, CRF) trials by source",
			},
			[]string{"source"}, // "run", "cache", "failed"
		),
		FramesScored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "crfboost_frames_scored_total",
				Help: "Total number of sample frames scored by the evaluator",
			},
		),
		EncodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crfboost_encode_duration_seconds",
				Help:    "Sample encode duration in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"status"},
		),
		EvaluateDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crfboost_evaluate_duration_seconds",
				Help:    "Per-frame quality evaluation duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"status"},
		),
		ScenesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crfboost_scenes_total",
				Help: "Total number of decided scenes by outcome",
			},
			[]string{"outcome"}, // "met", "missed", "failed"
		),
		ChosenCRF: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crfboost_chosen_crf_total",
				Help: "Number of scenes assigned each CRF",
			},
			[]string{"crf"},
		),
		ScenesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "crfboost_scenes_in_flight",
				Help: "Number of scenes currently being searched",
			},
		),
		LastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "crfboost_last_run_timestamp_seconds",
				Help: "Unix timestamp of the last completed run",
			},
		),
	}
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveEncode records one sample encode.
func (r *Recorder) ObserveEncode(d time.Duration, err error) {
	if r == nil {
		return
	}
	r.EncodeDuration.WithLabelValues(status(err)).Observe(d.Seconds())
}

// ObserveEvaluate records one frame evaluation.
func (r *Recorder) ObserveEvaluate(d time.Duration, err error) {
	if r == nil {
		return
	}
	r.EvaluateDuration.WithLabelValues(status(err)).Observe(d.Seconds())
	if err == nil {
		r.FramesScored.Inc()
	}
}

// TrialDone counts a finished trial. source is "run", "cache" or "failed".
func (r *Recorder) TrialDone(source string) {
	if r == nil {
		return
	}
	r.TrialsTotal.WithLabelValues(source).Inc()
}

// SceneStarted marks a scene search as in flight.
func (r *Recorder) SceneStarted() {
	if r == nil {
		return
	}
	r.ScenesInFlight.Inc()
}

// SceneDecided records a final scene decision.
func (r *Recorder) SceneDecided(crf int, metTarget, failed bool) {
	if r == nil {
		return
	}
	r.ScenesInFlight.Dec()
	outcome := "met"
	switch {
	case failed:
		outcome = "failed"
	case !metTarget:
		outcome = "missed"
	}
	r.ScenesTotal.WithLabelValues(outcome).Inc()
	r.ChosenCRF.WithLabelValues(strconv.Itoa(crf)).Inc()
}

// RunComplete stamps the completion time.
func (r *Recorder) RunComplete(t time.Time) {
	if r == nil {
		return
	}
	r.LastRunTimestamp.Set(float64(t.Unix()))
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
