package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/haven/pkg/errors"
)

const namespace = "haven"

// Metrics implements every hook interface on top of Prometheus collectors.
type Metrics struct {
	resolveTotal      *prometheus.CounterVec
	resolveDuration   prometheus.Histogram
	resolvedArtifacts prometheus.Histogram
	descriptorParse   prometheus.Histogram

	lookupTotal    *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
	downloadBytes  *prometheus.CounterVec

	cacheTotal *prometheus.CounterVec
	cacheBytes *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpErrors   *prometheus.CounterVec
}

var _ AllHooks = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_total",
			Help:      "Number of resolution runs by result.",
		}, []string{"result"}),
		resolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Time taken by one resolution run.",
			Buckets:   prometheus.DefBuckets,
		}),
		resolvedArtifacts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_artifacts",
			Help:      "Number of artifacts resolved per run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		descriptorParse: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "descriptor_parse_duration_seconds",
			Help:      "Time taken to decode one descriptor.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		lookupTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repository_lookup_total",
			Help:      "Repository lookups by kind, repository and result.",
		}, []string{"kind", "repository", "result"}),
		lookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "repository_lookup_duration_seconds",
			Help:      "Time taken to find a path across repositories.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		downloadBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repository_download_bytes_total",
			Help:      "Bytes written to the local cache by source repository.",
		}, []string{"repository"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache operations by key type and operation.",
		}, []string{"key_type", "op"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_write_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Outgoing HTTP requests by host and status.",
		}, []string{"host", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Outgoing HTTP request latency by host.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Outgoing HTTP requests that failed before a response.",
		}, []string{"host"}),
	}

	if reg != nil {
		reg.MustRegister(m.Collectors()...)
	}
	return m
}

// Collectors returns every collector owned by m.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.resolveTotal, m.resolveDuration, m.resolvedArtifacts, m.descriptorParse,
		m.lookupTotal, m.lookupDuration, m.downloadBytes,
		m.cacheTotal, m.cacheBytes,
		m.httpRequests, m.httpDuration, m.httpErrors,
	}
}

func (m *Metrics) OnResolveStart(context.Context, string) {}

func (m *Metrics) OnResolveComplete(_ context.Context, _ string, resolved, _ int, d time.Duration, err error) {
	m.resolveTotal.WithLabelValues(result(err)).Inc()
	m.resolveDuration.Observe(d.Seconds())
	if err == nil {
		m.resolvedArtifacts.Observe(float64(resolved))
	}
}

func (m *Metrics) OnDescriptorParsed(_ context.Context, _ string, d time.Duration) {
	m.descriptorParse.Observe(d.Seconds())
}

func (m *Metrics) OnLookup(_ context.Context, kind, repo string, d time.Duration, err error) {
	if repo == "" {
		repo = "none"
	}
	m.lookupTotal.WithLabelValues(kind, repo, result(err)).Inc()
	m.lookupDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) OnDownload(_ context.Context, repo string, size int64) {
	m.downloadBytes.WithLabelValues(repo).Add(float64(size))
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheTotal.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(host, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.httpErrors.WithLabelValues(host).Inc()
}

// result maps an error to a low-cardinality label.
func result(err error) string {
	if err == nil {
		return "ok"
	}
	if code := errors.GetCode(err); code != "" {
		return string(code)
	}
	return "error"
}
