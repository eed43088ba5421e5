package testutil

import (
	"context"
	"sync"
	"time"

	"visitd/internal/models"
	"visitd/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Stats() providers.CacheStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return providers.CacheStats{Enabled: true, Entries: int64(len(m.Data))}
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
	Closed       bool
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {
	m.Closed = true
}

// MockMetrics implements providers.MetricsProviderInterface and counts the
// calls tests care about.
type MockMetrics struct {
	mu               sync.Mutex
	PersistenceCalls int
	Samples          map[string]int
	SyncTotals       map[string]int
	Notifications    int
	RequestsTotal    int
	RegionsVisited   int
	BadgesEarned     int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestsTotal++
}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits()                                    {}
func (m *MockMetrics) IncCacheMisses()                                  {}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PersistenceCalls++
}
func (m *MockMetrics) IncSamples(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Samples == nil {
		m.Samples = make(map[string]int)
	}
	m.Samples[outcome]++
}
func (m *MockMetrics) IncDetections(_ string) {}
func (m *MockMetrics) IncNotifications() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notifications++
}
func (m *MockMetrics) IncSyncTotal(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SyncTotals == nil {
		m.SyncTotals = make(map[string]int)
	}
	m.SyncTotals[status]++
}
func (m *MockMetrics) ObserveSyncDuration(_ time.Duration) {}
func (m *MockMetrics) SetRegionsVisited(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RegionsVisited = n
}
func (m *MockMetrics) SetBadgesEarned(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BadgesEarned = n
}

// MockStateHolder implements interfaces.StateHolderInterface.
type MockStateHolder struct {
	mu         sync.Mutex
	State      models.State
	Restored   []models.State
	RestoreErr error
}

func (m *MockStateHolder) LocalState() models.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.State
}

func (m *MockStateHolder) Restore(_ context.Context, st models.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RestoreErr != nil {
		return m.RestoreErr
	}
	m.Restored = append(m.Restored, st)
	m.State = st
	return nil
}
