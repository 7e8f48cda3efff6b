package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sentinel"

// Metrics holds the collectors of a single run. Every run owns its registry,
// so counters start at zero and nothing leaks between runs or tests.
type Metrics struct {
	Registry *prometheus.Registry

	FilesProcessed *prometheus.CounterVec
	FilesSkipped   *prometheus.CounterVec
	EventsParsed   *prometheus.CounterVec
	RecordsSkipped *prometheus.CounterVec

	DetectionsTotal         *prometheus.CounterVec
	RuleEvaluationsTotal    *prometheus.CounterVec
	EventProcessingDuration prometheus.Histogram

	PatternCacheHits   prometheus.Counter
	PatternCacheMisses prometheus.Counter
	RegexTimeouts      *prometheus.CounterVec

	Groups prometheus.Gauge
}

// New creates a Metrics with a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{Registry: reg}

	m.FilesProcessed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Total number of input files parsed",
		},
		[]string{"parser"},
	)

	m.FilesSkipped = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Total number of input files skipped",
		},
		[]string{"reason"},
	)

	m.EventsParsed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_parsed_total",
			Help:      "Total number of events produced by parsers",
		},
		[]string{"source"},
	)

	m.RecordsSkipped = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Total number of malformed records dropped by parsers",
		},
		[]string{"parser"},
	)

	m.DetectionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detect",
			Name:      "detections_total",
			Help:      "Total number of detection tags attached to events",
		},
		[]string{"tag"},
	)

	// result is "match", "no_match" or "error"
	m.RuleEvaluationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detect",
			Name:      "rule_evaluations_total",
			Help:      "Total number of rule evaluations",
		},
		[]string{"tag", "result"},
	)

	m.EventProcessingDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "detect",
			Name:      "event_processing_duration_seconds",
			Help:      "Time taken to evaluate all rules against one event",
			Buckets: []float64{
				0.00001, // 10μs
				0.00005, // 50μs
				0.0001,  // 100μs
				0.0005,  // 500μs
				0.001,   // 1ms
				0.005,   // 5ms
				0.01,    // 10ms
				0.05,    // 50ms
				0.1,     // 100ms
			},
		},
	)

	m.PatternCacheHits = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detect",
			Name:      "pattern_cache_hits_total",
			Help:      "Total number of compiled pattern cache hits",
		},
	)

	m.PatternCacheMisses = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detect",
			Name:      "pattern_cache_misses_total",
			Help:      "Total number of compiled pattern cache misses",
		},
	)

	m.RegexTimeouts = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detect",
			Name:      "regex_timeouts_total",
			Help:      "Total number of pattern matches aborted by the match timeout",
		},
		[]string{"tag"},
	)

	m.Groups = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "aggregate",
			Name:      "groups",
			Help:      "Number of distinct (source, event id) groups in the summary",
		},
	)

	return m
}

// WriteTextfile writes the registry in the Prometheus text exposition format,
// suitable for the node_exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
