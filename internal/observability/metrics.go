package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "warehouse_directory"

// Metrics holds the Prometheus counters, histograms, and gauges for the directory.
type Metrics struct {
	// Sheet source metrics.
	SheetFetches       *prometheus.CounterVec // labels: outcome={success,transport_error,status_error,read_error}
	SheetFetchDuration prometheus.Histogram

	// Loader metrics.
	Loads          *prometheus.CounterVec // labels: source={remote,fallback}
	Fallbacks      *prometheus.CounterVec // labels: reason={transport,status,error_page,empty}
	RecordsLoaded  prometheus.Gauge
	RefreshRunning prometheus.Gauge

	// Lookup and feed metrics.
	Lookups            *prometheus.CounterVec // labels: result={hit,miss}
	SnapshotsPublished prometheus.Counter
	PublishErrors      prometheus.Counter
}

// NewMetrics creates and registers all directory metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SheetFetches,
		m.SheetFetchDuration,
		m.Loads,
		m.Fallbacks,
		m.RecordsLoaded,
		m.RefreshRunning,
		m.Lookups,
		m.SnapshotsPublished,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// NewUnregisteredMetrics creates Metrics for short-lived tools that never
// expose a scrape endpoint.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SheetFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheet_fetches_total",
			Help:      "Published sheet fetches by outcome.",
		}, []string{"outcome"}),
		SheetFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sheet_fetch_duration_seconds",
			Help:      "Duration of a published sheet fetch, including the body read.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Completed loads by the source that was served.",
		}, []string{"source"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Loads that served the fallback table, by reason.",
		}, []string{"reason"}),
		RecordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      "Number of warehouses in the current snapshot.",
		}),
		RefreshRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresh_running",
			Help:      "1 while the periodic refresh loop is active, 0 otherwise.",
		}),
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Warehouse lookups by result.",
		}, []string{"result"}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Snapshots written to the change feed.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed change feed writes.",
		}),
	}
}
