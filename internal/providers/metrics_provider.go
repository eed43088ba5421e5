package providers

import (
	"time"
	"visitd/internal/structures"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	IncSamples(outcome string)
	IncDetections(method string)
	IncNotifications()
	IncSyncTotal(status string)
	ObserveSyncDuration(duration time.Duration)
	SetRegionsVisited(count int)
	SetBadgesEarned(count int)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	samplesTotal        *prometheus.CounterVec
	detectionsTotal     *prometheus.CounterVec
	notificationsTotal  prometheus.Counter
	syncTotal           *prometheus.CounterVec
	syncDuration        prometheus.Histogram
	regionsVisited      prometheus.Gauge
	badgesEarned        prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncSamples(outcome string) {
	m.samplesTotal.WithLabelValues(outcome).Inc()
}

func (m *MetricsProvider) IncDetections(method string) {
	m.detectionsTotal.WithLabelValues(method).Inc()
}

func (m *MetricsProvider) IncNotifications() {
	m.notificationsTotal.Inc()
}

func (m *MetricsProvider) IncSyncTotal(status string) {
	m.syncTotal.WithLabelValues(status).Inc()
}

func (m *MetricsProvider) ObserveSyncDuration(duration time.Duration) {
	m.syncDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetRegionsVisited(count int) {
	m.regionsVisited.Set(float64(count))
}

func (m *MetricsProvider) SetBadgesEarned(count int) {
	m.badgesEarned.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "visitd_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "visitd_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "visitd_boundary_cache_hits_total",
			Help: "Total number of boundary lookup cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "visitd_boundary_cache_misses_total",
			Help: "Total number of boundary lookup cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "visitd_persistence_duration_seconds",
			Help:    "Duration of state snapshot writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		samplesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "visitd_samples_total",
			Help: "Location samples by outcome (accepted or the rejection reason)",
		}, []string{"outcome"}),

		detectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "visitd_detections_total",
			Help: "Detector results by resolution method",
		}, []string{"method"}),

		notificationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "visitd_notifications_total",
			Help: "Notifications approved by the gate",
		}),

		syncTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "visitd_sync_total",
			Help: "Sync runs by final status",
		}, []string{"status"}),

		syncDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "visitd_sync_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		regionsVisited: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "visitd_regions_visited",
			Help: "Regions with a GPS-verified visit",
		}),

		badgesEarned: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "visitd_badges_earned",
			Help: "Badges earned",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncSamples(_ string)                              {}
func (n *noopMetrics) IncDetections(_ string)                           {}
func (n *noopMetrics) IncNotifications()                                {}
func (n *noopMetrics) IncSyncTotal(_ string)                            {}
func (n *noopMetrics) ObserveSyncDuration(_ time.Duration)              {}
func (n *noopMetrics) SetRegionsVisited(_ int)                          {}
func (n *noopMetrics) SetBadgesEarned(_ int)                            {}
