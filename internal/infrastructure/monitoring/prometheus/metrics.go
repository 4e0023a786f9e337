package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics bundles every metric the registry exports. NewAppMetrics wires
// the fields; components accept a nil *AppMetrics to run uninstrumented.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  Gauge

	// Ingestion
	IngestRows     CounterVec
	IngestDuration Histogram
	RecordsTotal   Gauge

	// Lookup facade
	Lookups     CounterVec
	Enrichments CounterVec

	// Health
	HealthCheckStatus GaugeVec
}

// Default histogram buckets. A refresh re-reads the whole source table and
// waits on the compound database, so ingest buckets reach into minutes.
var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultIngestDurationBuckets = []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600}
)

// NewAppMetrics registers the registry's metric set on the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests").WithLabelValues()

	m.IngestRows = collector.RegisterCounter("ingest_rows_total", "Source table rows processed", "outcome")
	m.IngestDuration = collector.RegisterHistogram("ingest_duration_seconds", "Full refresh duration", DefaultIngestDurationBuckets).WithLabelValues()
	m.RecordsTotal = collector.RegisterGauge("records_total", "Substance records in the registry").WithLabelValues()

	m.Lookups = collector.RegisterCounter("lookups_total", "Registry lookups", "space", "outcome")
	m.Enrichments = collector.RegisterCounter("enrichments_total", "Read-time compound resolutions", "outcome")

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Component health (1=up, 0=down)", "component")

	return m
}

// RecordHTTPRequest counts one served request.
func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetHealthStatus publishes a component health probe result.
func SetHealthStatus(m *AppMetrics, component string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}
