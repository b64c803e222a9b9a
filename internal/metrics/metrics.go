package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels answered queries.
	OutcomeSuccess = "success"
	// OutcomeInvalid labels queries rejected before execution.
	OutcomeInvalid = "invalid"
	// OutcomeError labels queries that failed during execution.
	OutcomeError = "error"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qapulse",
			Name:      "analytics_queries_total",
			Help:      "Total number of analytics queries handled, partitioned by analysis type and outcome.",
		},
		[]string{"analysis", "outcome"},
	)

	queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qapulse",
			Name:      "analytics_query_seconds",
			Help:      "Analytics query latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"analysis"},
	)

	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qapulse",
			Name:      "answer_cache_lookups_total",
			Help:      "Answer cache lookups, partitioned by result.",
		},
		[]string{"result"},
	)

	ingestedCasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qapulse",
			Name:      "ingested_cases_total",
			Help:      "Test cases stored through the results endpoint, partitioned by status.",
		},
		[]string{"status"},
	)
)

// Register attaches qapulse collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		queriesTotal,
		queryDurationSeconds,
		cacheLookupsTotal,
		ingestedCasesTotal,
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

// ObserveQuery records an analytics query duration and outcome label.
func ObserveQuery(analysis string, duration time.Duration, outcome string) {
	switch outcome {
	case OutcomeInvalid, OutcomeError:
	default:
		outcome = OutcomeSuccess
	}
	if analysis == "" {
		analysis = "unknown"
	}
	queriesTotal.WithLabelValues(analysis, outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	queryDurationSeconds.WithLabelValues(analysis).Observe(duration.Seconds())
}

// ObserveCacheLookup counts an answer cache hit or miss.
func ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveIngestedCases counts stored test cases by status.
func ObserveIngestedCases(pass, fail, skip int) {
	ingestedCasesTotal.WithLabelValues("passed").Add(float64(pass))
	ingestedCasesTotal.WithLabelValues("failed").Add(float64(fail))
	ingestedCasesTotal.WithLabelValues("skipped").Add(float64(skip))
}
