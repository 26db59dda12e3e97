package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "weather_avf"

// Skip reasons reported by the loader.
const (
	SkipLoaded  = "already_loaded"
	SkipEmpty   = "empty"
	SkipBadName = "bad_name"
)

// UnknownAirport is the airport label for requests naming a code outside the
// catalog.
const UnknownAirport = "unknown"

// Recorder owns a private registry with the loader and dashboard metrics.
type Recorder struct {
	registry *prometheus.Registry

	filesLoaded    *prometheus.CounterVec
	filesSkipped   *prometheus.CounterVec
	rowsInserted   *prometheus.CounterVec
	indexesCreated *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	lastSuccess    prometheus.Gauge

	queryDuration *prometheus.HistogramVec
	dashboards    *prometheus.CounterVec
}

// New creates a Recorder. withRuntime adds the Go and process collectors,
// which only make sense in long-running processes.
func New(withRuntime bool) *Recorder {
	registry := prometheus.NewRegistry()

	if withRuntime {
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	r := &Recorder{
		registry: registry,
		filesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loader_files_loaded_total",
			Help:      "Extract files committed to the store.",
		}, []string{"kind"}),
		filesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loader_files_skipped_total",
			Help:      "Extract files not loaded, by reason.",
		}, []string{"kind", "reason"}),
		rowsInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loader_rows_inserted_total",
			Help:      "Rows appended to the weather tables.",
		}, []string{"kind"}),
		indexesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loader_index_sets_created_total",
			Help:      "Index sets created on the weather tables.",
		}, []string{"kind"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "loader_run_duration_seconds",
			Help:      "Duration of loader runs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loader_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful loader run.",
		}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_query_duration_seconds",
			Help:      "Duration of dashboard range queries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		dashboards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_builds_total",
			Help:      "Dashboards built, by airport and outcome.",
		}, []string{"airport", "status"}),
	}

	registry.MustRegister(
		r.filesLoaded,
		r.filesSkipped,
		r.rowsInserted,
		r.indexesCreated,
		r.runDuration,
		r.lastSuccess,
		r.queryDuration,
		r.dashboards,
	)

	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) FileLoaded(kind string, rows int) {
	r.filesLoaded.WithLabelValues(kind).Inc()
	r.rowsInserted.WithLabelValues(kind).Add(float64(rows))
}

func (r *Recorder) FileSkipped(kind, reason string) {
	r.filesSkipped.WithLabelValues(kind, reason).Inc()
}

func (r *Recorder) IndexesCreated(kind string) {
	r.indexesCreated.WithLabelValues(kind).Inc()
}

// RunFinished records a loader run; nowUnix is only used on success.
func (r *Recorder) RunFinished(seconds float64, err error, nowUnix float64) {
	status := "success"
	if err != nil {
		status = "failure"
	} else {
		r.lastSuccess.Set(nowUnix)
	}
	r.runDuration.WithLabelValues(status).Observe(seconds)
}

func (r *Recorder) QueryFinished(kind string, seconds float64) {
	r.queryDuration.WithLabelValues(kind).Observe(seconds)
}

func (r *Recorder) DashboardBuilt(airport string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.dashboards.WithLabelValues(airport, status).Inc()
}

// Push sends the registry to a Prometheus pushgateway under job.
func (r *Recorder) Push(url, job string) error {
	return push.New(url, job).Gatherer(r.registry).Push()
}
