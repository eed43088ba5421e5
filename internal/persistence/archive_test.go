package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitd/internal/models"
	"visitd/internal/testutil"
)

func archivedEvents() models.EventLog {
	return models.EventLog{
		{Region: "Ohio", Timestamp: time.Date(2024, 6, 30, 23, 0, 0, 0, time.UTC), Source: models.SourceGPS},
		{Region: "Iowa", Timestamp: time.Date(2024, 7, 1, 1, 0, 0, 0, time.UTC), Source: models.SourceGPS},
		{Region: "Utah", Timestamp: time.Date(2024, 7, 2, 1, 0, 0, 0, time.UTC), Source: models.SourceManual},
	}
}

func TestEventArchive_PendingIsReadable(t *testing.T) {
	a := NewEventArchive(t.TempDir(), 0, &testutil.MockCompressor{}, &testutil.MockLogger{})
	a.Archive(archivedEvents())

	assert.Equal(t, []string{"2024-06", "2024-07"}, a.Months())
	july, err := a.Load("2024-07")
	require.NoError(t, err)
	require.Len(t, july, 2)
	assert.Equal(t, "Iowa", july[0].Region)
}

func TestEventArchive_FlushAndRestoreIndex(t *testing.T) {
	dir := t.TempDir()
	comp, err := NewZstdCompressor()
	require.NoError(t, err)
	defer comp.Close()

	a := NewEventArchive(dir, 0, comp, &testutil.MockLogger{})
	a.Archive(archivedEvents())
	require.NoError(t, a.Flush())

	_, err = os.Stat(filepath.Join(dir, "2024-07"+archiveSuffix))
	require.NoError(t, err)

	// The same events archived twice are stored once.
	a.Archive(archivedEvents()[1:2])
	require.NoError(t, a.Flush())

	b := NewEventArchive(dir, 0, comp, &testutil.MockLogger{})
	require.NoError(t, b.RestoreIndex())
	assert.Equal(t, []string{"2024-06", "2024-07"}, b.Months())

	july, err := b.Load("2024-07")
	require.NoError(t, err)
	assert.Len(t, july, 2)
}

func TestEventArchive_TTLRemovesOldMonths(t *testing.T) {
	dir := t.TempDir()
	a := NewEventArchive(dir, 10*24*time.Hour, &testutil.MockCompressor{}, &testutil.MockLogger{})
	a.now = func() time.Time { return time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC) }

	a.Archive(archivedEvents())
	require.NoError(t, a.Flush())

	assert.Equal(t, []string{"2024-07"}, a.Months())
	_, err := os.Stat(filepath.Join(dir, "2024-06"+archiveSuffix))
	assert.True(t, os.IsNotExist(err))
}

func TestEventArchive_BadMonth(t *testing.T) {
	a := NewEventArchive(t.TempDir(), 0, &testutil.MockCompressor{}, &testutil.MockLogger{})
	_, err := a.Load("July")
	assert.Error(t, err)

	empty, err := a.Load("1999-01")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEventArchive_CorruptFileIsSkipped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024-05"+archiveSuffix), []byte("garbage"), 0644))

	logger := &testutil.MockLogger{}
	a := NewEventArchive(dir, 0, &testutil.MockCompressor{}, logger)
	require.NoError(t, a.RestoreIndex())
	assert.Empty(t, a.Months())
	assert.Equal(t, 1, logger.Count("error"))
}
