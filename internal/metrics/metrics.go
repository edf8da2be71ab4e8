package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels LLM calls that returned a parsed result.
	OutcomeSuccess = "success"
	// OutcomeFallback labels LLM calls answered by the deterministic fallback.
	OutcomeFallback = "fallback"
)

var (
	eventsProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "events_processed_total",
			Help:      "Total raw events pushed through the enrichment pipeline.",
		},
	)

	anomaliesDetectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "anomalies_detected_total",
			Help:      "Total events flagged anomalous by the EWMA detector.",
		},
	)

	alertsEmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "alerts_emitted_total",
			Help:      "Total alerts emitted above the risk threshold.",
		},
	)

	llmCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "llm_calls_total",
			Help:      "LLM invocations partitioned by pipeline step and outcome.",
		},
		[]string{"step", "outcome"},
	)

	llmCostUSDTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "llm_cost_usd_total",
			Help:      "Estimated cumulative LLM spend in USD.",
		},
	)

	stepDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "triage",
			Name:      "step_seconds",
			Help:      "Pipeline step latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"step"},
	)

	batchDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "triage",
			Name:      "batch_seconds",
			Help:      "Full batch latency in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)
)

// Register attaches triage collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		eventsProcessedTotal,
		anomaliesDetectedTotal,
		alertsEmittedTotal,
		llmCallsTotal,
		llmCostUSDTotal,
		stepDurationSeconds,
		batchDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveEventProcessed counts one event entering the pipeline.
func ObserveEventProcessed() {
	eventsProcessedTotal.Inc()
}

// ObserveAnomaly counts one anomalous event.
func ObserveAnomaly() {
	anomaliesDetectedTotal.Inc()
}

// ObserveAlert counts one emitted alert.
func ObserveAlert() {
	alertsEmittedTotal.Inc()
}

// ObserveLLMCall records one LLM invocation with its estimated cost.
func ObserveLLMCall(step string, fallback bool, costUSD float64) {
	outcome := OutcomeSuccess
	if fallback {
		outcome = OutcomeFallback
	}
	llmCallsTotal.WithLabelValues(step, outcome).Inc()
	if costUSD > 0 {
		llmCostUSDTotal.Add(costUSD)
	}
}

// ObserveStep records a pipeline step duration.
func ObserveStep(step string, duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	stepDurationSeconds.WithLabelValues(step).Observe(duration.Seconds())
}

// ObserveBatch records one full batch duration.
func ObserveBatch(duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	batchDurationSeconds.Observe(duration.Seconds())
}
