package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric the service exports.
type AppMetrics struct {
	// HTTP / gRPC
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec
	GRPCRequestsTotal   CounterVec
	GRPCRequestDuration HistogramVec

	// Scaffold networks
	NetworkBuildsTotal   CounterVec
	NetworkBuildDuration HistogramVec
	NetworkNodes         HistogramVec
	NetworkEdges         HistogramVec
	FragmentsTotal       CounterVec

	// Abbreviations
	CondenseTotal    CounterVec
	CondenseMatches  CounterVec
	CondenseDuration HistogramVec

	// Infrastructure
	CacheHitsTotal         CounterVec
	CacheMissesTotal       CounterVec
	DBQueryDuration        HistogramVec
	MessageProcessDuration HistogramVec
	SinkErrorsTotal        CounterVec
	ErrorsTotal            CounterVec
}

var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultBuildDurationBuckets = []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60}
	DefaultNetworkSizeBuckets   = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000}
	DefaultDBDurationBuckets    = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")
	m.GRPCRequestsTotal = collector.RegisterCounter("grpc_requests_total", "Total gRPC requests", "method", "code")
	m.GRPCRequestDuration = collector.RegisterHistogram("grpc_request_duration_seconds", "gRPC request duration", DefaultHTTPDurationBuckets, "method")

	m.NetworkBuildsTotal = collector.RegisterCounter("network_builds_total", "Scaffold network builds", "status", "source")
	m.NetworkBuildDuration = collector.RegisterHistogram("network_build_duration_seconds", "Scaffold network build duration", DefaultBuildDurationBuckets, "source")
	m.NetworkNodes = collector.RegisterHistogram("network_nodes", "Nodes per built network", DefaultNetworkSizeBuckets)
	m.NetworkEdges = collector.RegisterHistogram("network_edges", "Edges per built network", DefaultNetworkSizeBuckets, "edge_type")
	m.FragmentsTotal = collector.RegisterCounter("fragments_total", "Fragments produced by bond breaking")

	m.CondenseTotal = collector.RegisterCounter("condense_total", "Abbreviation condense calls", "mode", "status")
	m.CondenseMatches = collector.RegisterCounter("condense_matches_total", "Abbreviation matches by outcome", "outcome")
	m.CondenseDuration = collector.RegisterHistogram("condense_duration_seconds", "Abbreviation condense duration", DefaultHTTPDurationBuckets, "mode")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "db", "operation")
	m.MessageProcessDuration = collector.RegisterHistogram("mq_process_duration_seconds", "Message processing duration", DefaultBuildDurationBuckets, "topic", "status")
	m.SinkErrorsTotal = collector.RegisterCounter("sink_errors_total", "Non-fatal publication failures", "sink")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_code")

	return m
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers. Every helper tolerates a nil *AppMetrics so callers can run
// without a metrics backend.
// ─────────────────────────────────────────────────────────────────────────────

func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordGRPCRequest(m *AppMetrics, method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.GRPCRequestsTotal.WithLabelValues(method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordNetworkBuild records one build.  edges maps an edge type name to the
// number of edges of that type.
func RecordNetworkBuild(m *AppMetrics, source string, err error, duration time.Duration, nodes int, edges map[string]int) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.NetworkBuildsTotal.WithLabelValues(status, source).Inc()
	m.NetworkBuildDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		return
	}
	m.NetworkNodes.WithLabelValues().Observe(float64(nodes))
	for typ, n := range edges {
		m.NetworkEdges.WithLabelValues(typ).Observe(float64(n))
	}
}

func RecordFragments(m *AppMetrics, n int) {
	if m == nil {
		return
	}
	m.FragmentsTotal.WithLabelValues().Add(float64(n))
}

func RecordCondense(m *AppMetrics, mode string, err error, accepted, skipped int, gated bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.CondenseTotal.WithLabelValues(mode, status).Inc()
	m.CondenseDuration.WithLabelValues(mode).Observe(duration.Seconds())
	m.CondenseMatches.WithLabelValues("accepted").Add(float64(accepted))
	m.CondenseMatches.WithLabelValues("skipped").Add(float64(skipped))
	if gated {
		m.CondenseMatches.WithLabelValues("gated").Inc()
	}
}

func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordDBQuery(m *AppMetrics, db, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(db, operation).Observe(duration.Seconds())
	if err != nil {
		m.ErrorsTotal.WithLabelValues(db, "query_error").Inc()
	}
}

func RecordMessage(m *AppMetrics, topic string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.MessageProcessDuration.WithLabelValues(topic, status).Observe(duration.Seconds())
}

func RecordSinkError(m *AppMetrics, sink string) {
	if m == nil {
		return
	}
	m.SinkErrorsTotal.WithLabelValues(sink).Inc()
}

func RecordError(m *AppMetrics, component, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}

//Personal.AI order the ending
