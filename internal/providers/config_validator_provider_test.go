package providers

import (
	"testing"
	"time"
	"visitd/internal/structures"

	"github.com/stretchr/testify/assert"
)

func validConfig() *structures.Config {
	return &structures.Config{
		WebServer: structures.Server{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Persistence: structures.Persistence{
			FilePath:     "/tmp/visitd.dat",
			SaveInterval: 30 * time.Second,
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/tmp/logs",
		},
		Boundary: structures.BoundaryConfig{
			Path:   "/etc/visitd/states.geojson",
			Format: "geojson",
		},
	}
}

func TestConfigValidator_ValidConfig(t *testing.T) {
	v := NewCnfValidator(validConfig())
	assert.NoError(t, v.Validate())
}

func TestConfigValidator_EmptyHost(t *testing.T) {
	c := validConfig()
	c.WebServer.Host = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_ZeroPort(t *testing.T) {
	c := validConfig()
	c.WebServer.Port = 0
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_InvalidLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = "verbose"
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_MissingBoundaryPath(t *testing.T) {
	c := validConfig()
	c.Boundary.Path = ""
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_UnknownBoundaryFormat(t *testing.T) {
	c := validConfig()
	c.Boundary.Format = "kml"
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_UnknownTimeZone(t *testing.T) {
	c := validConfig()
	c.Badges.TimeZone = "Mars/Olympus_Mons"
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_NegativeRadius(t *testing.T) {
	c := validConfig()
	c.Detector.SearchRadiiKm = []float64{1, -2}
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_SyncStore(t *testing.T) {
	c := validConfig()
	c.Sync.Store = "dynamo"
	assert.Error(t, NewCnfValidator(c).Validate())

	c.Sync.Store = "redis"
	assert.Error(t, NewCnfValidator(c).Validate())

	c.Sync.URL = "redis://localhost:6379/0"
	assert.NoError(t, NewCnfValidator(c).Validate())

	c.Sync.Store = "memory"
	c.Sync.URL = ""
	assert.NoError(t, NewCnfValidator(c).Validate())
}
