// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics records provider calls and pipeline stage timings in a
// private Prometheus registry. A run is short-lived, so the registry is
// written to a textfile for node-exporter rather than served.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pdf_summarizer"

// Request outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeTransient = "transient_error"
	OutcomeFatal     = "fatal_error"
	OutcomeCanceled  = "canceled"
)

// Recorder holds the collectors of one process. All methods are safe on a
// nil Recorder and do nothing.
type Recorder struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	cacheHits prometheus.Counter
	stages    *prometheus.HistogramVec
}

// NewRecorder creates and registers the collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "LLM requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM request latency.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		}, []string{"provider"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_cache_hits_total",
			Help:      "LLM responses served from the cache.",
		}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Time spent in each summarization stage.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"stage"}),
	}
	r.registry.MustRegister(r.requests, r.latency, r.cacheHits, r.stages)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveRequest counts one provider request and records its latency.
func (r *Recorder) ObserveRequest(provider, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(provider, outcome).Inc()
	r.latency.WithLabelValues(provider).Observe(d.Seconds())
}

// CacheHit counts one cached response.
func (r *Recorder) CacheHit() {
	if r == nil {
		return
	}
	r.cacheHits.Inc()
}

// ObserveStage records the duration of a pipeline stage.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stages.WithLabelValues(stage).Observe(d.Seconds())
}

// WriteTextfile writes the registry in the text exposition format. The file
// is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
