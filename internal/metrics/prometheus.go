package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Monitor metrics
	TransactionsObserved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_transactions_observed_total",
			Help: "Total number of transactions observed by the chain monitor",
		},
		[]string{"chain"},
	)

	BlocksPolled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_blocks_polled_total",
			Help: "Total number of blocks fetched by the chain monitor",
		},
		[]string{"chain"},
	)

	PollErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_poll_errors_total",
			Help: "Total number of failed poll iterations",
		},
		[]string{"chain"},
	)

	// Detector metrics
	PatternsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_mev_patterns_detected_total",
			Help: "Total number of MEV patterns detected",
		},
		[]string{"chain", "type"},
	)

	// Probe metrics
	ProbeExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_probe_executions_total",
			Help: "Total number of probe executions",
		},
		[]string{"status"}, // status: succeeded|failed
	)

	ProbeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "argus_probe_duration_seconds",
			Help:    "Probe execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	ViolationsFound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_violations_found_total",
			Help: "Total number of fairness violations found",
		},
		[]string{"type", "severity"},
	)

	// Eviction metrics
	EntriesEvicted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_entries_evicted_total",
			Help: "Total number of entries removed by age-based eviction",
		},
		[]string{"store"}, // store: transactions|patterns
	)
)

// Register registers all collectors with the default registry
func Register() {
	prometheus.MustRegister(
		TransactionsObserved,
		BlocksPolled,
		PollErrors,
		PatternsDetected,
		ProbeExecutions,
		ProbeDuration,
		ViolationsFound,
		EntriesEvicted,
	)
}

// Handler returns the HTTP handler for the metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
