package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mediascribe"

// Metrics 指标管理器
type Metrics struct {
	// HTTP请求指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// 缓存指标
	cacheHitsTotal   *prometheus.CounterVec
	cacheMissesTotal *prometheus.CounterVec

	// 任务指标
	phaseTransitions *prometheus.CounterVec
	liveSessions     prometheus.Gauge
	pollsTotal       *prometheus.CounterVec
	pollDuration     prometheus.Histogram
	jobDuration      *prometheus.HistogramVec
	uploadBytes      prometheus.Counter
}

// NewMetrics registers the collectors on reg. A nil reg uses the default
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		httpResponseSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path", "status"},
		),

		cacheHitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache", "operation"},
		),
		cacheMissesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache", "operation"},
		),

		phaseTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "phase_transitions_total",
				Help:      "Pipeline phase transitions",
			},
			[]string{"from", "to"},
		),
		liveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions",
			Help:      "Sessions with an upload or polling task running",
		}),
		pollsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "status_polls_total",
				Help:      "Transcription status polls by result",
			},
			[]string{"result"},
		),
		pollDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "status_poll_duration_seconds",
			Help:      "Latency of one transcription status poll",
			Buckets:   prometheus.DefBuckets,
		}),
		jobDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Time from entering Transcribing to a terminal status",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"status"},
		),
		uploadBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes acknowledged by the media upload endpoint",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordHTTPRequest 记录HTTP请求指标
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, responseSize int64) {
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.httpResponseSize.WithLabelValues(method, path, status).Observe(float64(responseSize))
}

// RecordCacheHit 记录缓存命中
func (m *Metrics) RecordCacheHit(cache, operation string) {
	m.cacheHitsTotal.WithLabelValues(cache, operation).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (m *Metrics) RecordCacheMiss(cache, operation string) {
	m.cacheMissesTotal.WithLabelValues(cache, operation).Inc()
}

func (m *Metrics) PhaseChanged(from, to string) {
	m.phaseTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) SetLiveSessions(n int) {
	m.liveSessions.Set(float64(n))
}

// PollCompleted records one status poll; err marks it transient.
func (m *Metrics) PollCompleted(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.pollsTotal.WithLabelValues(result).Inc()
	m.pollDuration.Observe(d.Seconds())
}

func (m *Metrics) JobFinished(status string, d time.Duration) {
	m.jobDuration.WithLabelValues(status).Observe(d.Seconds())
}

func (m *Metrics) UploadCompleted(bytes int64) {
	if bytes > 0 {
		m.uploadBytes.Add(float64(bytes))
	}
}
