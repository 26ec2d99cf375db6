// Package metrics holds the Prometheus collectors for turns, model calls and
// synthesis. A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Collector groups the tandem metrics on one registry.
type Collector struct {
	registry *prometheus.Registry

	turnsTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	modelCalls    *prometheus.CounterVec
	modelDuration *prometheus.HistogramVec
	audioSegments *prometheus.CounterVec
	interventions *prometheus.CounterVec
}

// NewCollector creates a Collector with its own registry under namespace.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		turnsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of processed turns by outcome and error kind",
		}, []string{"outcome", "kind"}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_stage_duration_seconds",
			Help:      "Duration of each turn stage in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"stage"}),
		modelCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_calls_total",
			Help:      "Total number of model completions",
		}, []string{"provider", "task", "outcome"}),
		modelDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_duration_seconds",
			Help:      "Model completion duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider"}),
		audioSegments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_segments_total",
			Help:      "Total number of synthesized audio segments by slot kind",
		}, []string{"slot"}),
		interventions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tutor_interventions_total",
			Help:      "Turns by intervention decision and evaluated level",
		}, []string{"intervened", "level"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordTurn counts a finished turn. kind is empty on success.
func (c *Collector) RecordTurn(kind string) {
	if c == nil {
		return
	}
	outcome := OutcomeOK
	if kind != "" {
		outcome = OutcomeError
	}
	c.turnsTotal.WithLabelValues(outcome, kind).Inc()
}

// ObserveStage records how long a turn stage took.
func (c *Collector) ObserveStage(stage string, d time.Duration) {
	if c == nil {
		return
	}
	c.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordModelCall counts one completion.
func (c *Collector) RecordModelCall(provider, task string, d time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	c.modelCalls.WithLabelValues(provider, task, outcome).Inc()
	c.modelDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordAudioSegment counts one synthesized segment.
func (c *Collector) RecordAudioSegment(slotKind string) {
	if c == nil {
		return
	}
	c.audioSegments.WithLabelValues(slotKind).Inc()
}

// RecordIntervention counts the intervention decision of a turn.
func (c *Collector) RecordIntervention(intervened bool, level string) {
	if c == nil {
		return
	}
	v := "false"
	if intervened {
		v = "true"
	}
	c.interventions.WithLabelValues(v, level).Inc()
}
