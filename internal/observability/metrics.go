package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reservoirs"

// Metrics holds the Prometheus counters, histograms, and gauges for the series pipeline.
type Metrics struct {
	// Upstream API metrics.
	UpstreamRequests *prometheus.CounterVec // labels: outcome={success,error,bad_status,decode_error}
	UpstreamDuration prometheus.Histogram

	// Processing metrics.
	RecordsFetched  prometheus.Counter
	RecordsRejected prometheus.Counter
	SeriesPoints    *prometheus.GaugeVec   // labels: years
	LoadDuration    prometheus.Histogram   // fetch + process, cache misses only
	Loads           *prometheus.CounterVec // labels: outcome={success,no_data,processing_error,canceled}
	LoadsSuperseded prometheus.Counter

	// Cache metrics.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss,refresh}

	// Publishing metrics.
	PublishErrors prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.RecordsFetched,
		m.RecordsRejected,
		m.SeriesPoints,
		m.LoadDuration,
		m.Loads,
		m.LoadsSuperseded,
		m.CacheLookups,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Yearly dataset requests to the EYDAP API by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "EYDAP API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
		RecordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_fetched_total",
			Help:      "Raw records received from the upstream API.",
		}),
		RecordsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_rejected_total",
			Help:      "Raw records dropped because their date could not be parsed.",
		}),
		SeriesPoints: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "series_points",
			Help:      "Weekly points in the most recently computed series, by depth in years.",
		}, []string{"years"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of a full fetch-and-process cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Fetch-and-process cycles by outcome.",
		}, []string{"outcome"}),
		LoadsSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_superseded_total",
			Help:      "Loads that finished after a newer load for the same depth had started.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Series cache lookups by result.",
		}, []string{"result"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Series snapshots that failed to publish to Kafka.",
		}),
	}
}
