package providers

import (
	"testing"
	"time"
	"visitd/internal/structures"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTestRegistry(t *testing.T) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = prometheus.NewRegistry()
		prometheus.DefaultGatherer = prometheus.DefaultRegisterer.(prometheus.Gatherer)
	})
	return reg
}

func TestNoopMetrics_WhenDisabled(t *testing.T) {
	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: false},
	}
	m := NewMetricsProvider(conf)
	_, ok := m.(*noopMetrics)
	assert.True(t, ok, "should return noopMetrics when disabled")

	m.IncRequestsTotal("/test", 200)
	m.ObserveRequestDuration("/test", time.Millisecond)
	m.IncCacheHits()
	m.IncCacheMisses()
	m.ObservePersistenceDuration(time.Millisecond)
	m.IncSamples("accepted")
	m.IncDetections("primary")
	m.IncNotifications()
	m.IncSyncTotal("ok")
	m.ObserveSyncDuration(time.Millisecond)
	m.SetRegionsVisited(3)
	m.SetBadgesEarned(1)
}

func TestMetricsProvider_WhenEnabled(t *testing.T) {
	useTestRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf)
	_, ok := m.(*MetricsProvider)
	assert.True(t, ok, "should return MetricsProvider when enabled")
}

func TestMetricsProvider_RecordsDomainMetrics(t *testing.T) {
	useTestRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf).(*MetricsProvider)

	m.IncRequestsTotal("/samples", 200)
	m.IncRequestsTotal("/samples", 404)
	m.ObserveRequestDuration("/samples", 5*time.Millisecond)
	m.IncSamples("accepted")
	m.IncSamples("accepted")
	m.IncSamples("altitude")
	m.IncDetections("grid")
	m.IncNotifications()
	m.IncSyncTotal("failed")
	m.ObserveSyncDuration(time.Second)
	m.SetRegionsVisited(7)
	m.SetBadgesEarned(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.samplesTotal.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.samplesTotal.WithLabelValues("altitude")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/samples", "4xx")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.regionsVisited))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.badgesEarned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notificationsTotal))
}

func TestMetricsProvider_RegistersOnDefaultRegistry(t *testing.T) {
	reg := useTestRegistry(t)

	NewMetricsProvider(&structures.Config{Metrics: structures.MetricsConfig{Enabled: true}}).SetRegionsVisited(1)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["visitd_regions_visited"])
}

func TestHttpStatusBucket(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, httpStatusBucket(tt.code))
	}
}
