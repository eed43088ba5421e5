package providers

import (
	"os"
	"path/filepath"
	"testing"
	"visitd/internal/structures"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogProvider_CreatesLogFiles(t *testing.T) {
	dir := t.TempDir()
	conf := &structures.Config{
		Logger: structures.LoggerConfig{
			Level: "debug",
			Mode:  0644,
			Dir:   dir,
		},
	}

	logger, err := NewLogProvider(conf)
	require.NoError(t, err)

	logger.Infof(TypeApp, "test message")
	logger.Debugf(TypeDetect, "detect %s", "Nevada")
	logger.Warnf(TypeSync, "sync message")
	logger.Errorf(TypeApi, "api message")
	logger.Close()

	for _, name := range []string{"app.log", "detect.log", "sync.log", "api.log"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	data, err := os.ReadFile(filepath.Join(dir, "detect.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "detect Nevada")
}

func TestNewLogProvider_LevelFilters(t *testing.T) {
	dir := t.TempDir()
	conf := &structures.Config{
		Logger: structures.LoggerConfig{Level: "warn", Mode: 0644, Dir: dir},
	}

	logger, err := NewLogProvider(conf)
	require.NoError(t, err)
	logger.Infof(TypeApp, "hidden")
	logger.Warnf(TypeApp, "shown")
	logger.Close()

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNewLogProvider_InvalidDir(t *testing.T) {
	conf := &structures.Config{
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/nonexistent/directory/path",
		},
	}

	_, err := NewLogProvider(conf)
	assert.Error(t, err)
}

func TestNewLogProvider_InvalidLevel(t *testing.T) {
	conf := &structures.Config{
		Logger: structures.LoggerConfig{Level: "verbose", Dir: t.TempDir()},
	}

	_, err := NewLogProvider(conf)
	assert.Error(t, err)
}
