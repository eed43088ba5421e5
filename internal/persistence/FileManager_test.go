package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitd/internal/documents"
	"visitd/internal/models"
	"visitd/internal/testutil"
)

var ts = time.Date(2024, 8, 1, 15, 0, 0, 0, time.UTC)

func testState() models.State {
	first := ts
	rs := models.NewRecordSet()
	rs.Regions["Nevada"] = models.RegionVisit{Visited: true, WasEverVisited: true, IsActive: true, FirstVisitedAt: &first, LastVisitedAt: &first}
	rs.LastUpdated = ts
	return models.State{
		Records:  rs,
		Events:   models.EventLog{{Region: "Nevada", Timestamp: ts, Source: models.SourceGPS}},
		Badges:   models.BadgeSet{"states-1": {ID: "states-1", Earned: true, EarnedAt: &first}},
		Settings: models.DefaultSettings(),
	}
}

func newTestFileManager(compressor *testutil.MockCompressor) (*FileManager, *testutil.MockStateHolder, *testutil.MockLogger) {
	holder := &testutil.MockStateHolder{State: testState()}
	logger := &testutil.MockLogger{}
	return NewFileManager(compressor, holder, logger, &testutil.MockMetrics{}), holder, logger
}

func TestFileManager_SaveToFile_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.dat")
	metrics := &testutil.MockMetrics{}
	fm := NewFileManager(&testutil.MockCompressor{}, &testutil.MockStateHolder{State: testState()}, &testutil.MockLogger{}, metrics)

	require.NoError(t, fm.SaveToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Nevada"`)
	assert.Equal(t, 1, metrics.PersistenceCalls)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileManager_SaveToFile_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.dat")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	fm, _, _ := newTestFileManager(&testutil.MockCompressor{})
	require.NoError(t, fm.SaveToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, "old", string(data))
}

func TestFileManager_SaveToFile_MissingDirectory(t *testing.T) {
	fm, _, _ := newTestFileManager(&testutil.MockCompressor{})
	err := fm.SaveToFile(filepath.Join(t.TempDir(), "missing", "state.dat"))
	assert.Error(t, err)
}

func TestFileManager_LoadFromFile_FileNotExist(t *testing.T) {
	fm, holder, _ := newTestFileManager(&testutil.MockCompressor{})
	require.NoError(t, fm.LoadFromFile(context.Background(), "/nonexistent/path/file.dat"))
	assert.Empty(t, holder.Restored)
}

func TestFileManager_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtrip.dat")
	comp, err := NewZstdCompressor()
	require.NoError(t, err)

	src := &testutil.MockStateHolder{State: testState()}
	fm := NewFileManager(comp, src, &testutil.MockLogger{}, &testutil.MockMetrics{})
	require.NoError(t, fm.SaveToFile(path))

	dst := &testutil.MockStateHolder{}
	fm2 := NewFileManager(comp, dst, &testutil.MockLogger{}, &testutil.MockMetrics{})
	require.NoError(t, fm2.LoadFromFile(context.Background(), path))

	require.Len(t, dst.Restored, 1)
	assert.Equal(t, testState(), dst.Restored[0])

	fm.Close()
}

func TestFileManager_LoadFromFile_LegacyRecordsList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.dat")
	require.NoError(t, os.WriteFile(path, []byte(`["Nevada","Utah"]`), 0644))

	fm, holder, logger := newTestFileManager(&testutil.MockCompressor{})
	require.NoError(t, fm.LoadFromFile(context.Background(), path))

	require.Len(t, holder.Restored, 1)
	assert.Equal(t, []string{"Nevada", "Utah"}, holder.Restored[0].Records.EverVisited())
	assert.Equal(t, 1, logger.Count("warn"), "schema migration is logged")
}

func TestFileManager_LoadFromFile_Uncompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.dat")
	data, err := documents.EncodeState(testState())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	comp, err := NewZstdCompressor()
	require.NoError(t, err)
	defer comp.Close()
	holder := &testutil.MockStateHolder{}
	logger := &testutil.MockLogger{}
	fm := NewFileManager(comp, holder, logger, &testutil.MockMetrics{})

	require.NoError(t, fm.LoadFromFile(context.Background(), path))
	require.Len(t, holder.Restored, 1)
	assert.Equal(t, testState(), holder.Restored[0])
	assert.Equal(t, 1, logger.Count("warn"))
}

func TestFileManager_LoadFromFile_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.dat")
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0644))

	fm, holder, logger := newTestFileManager(&testutil.MockCompressor{})
	err := fm.LoadFromFile(context.Background(), path)
	assert.ErrorIs(t, err, documents.ErrMalformed)
	assert.Empty(t, holder.Restored)
	assert.Equal(t, 1, logger.Count("error"))
}

func TestFileManager_CompressError(t *testing.T) {
	comp := &testutil.MockCompressor{
		CompressFn: func(b []byte) ([]byte, error) {
			return nil, errors.New("compress failed")
		},
	}
	fm, _, _ := newTestFileManager(comp)

	err := fm.SaveToFile(filepath.Join(t.TempDir(), "err.dat"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compress failed")
}

func TestFileManager_DecompressError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dec.dat")
	require.NoError(t, os.WriteFile(path, []byte{0x28, 0xb5, 0x2f, 0xfd, 0x00}, 0644))

	comp := &testutil.MockCompressor{
		DecompressFn: func(b []byte) ([]byte, error) {
			return nil, errors.New("decompress failed")
		},
	}
	fm, _, _ := newTestFileManager(comp)

	err := fm.LoadFromFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decompress failed")
}

func TestFileManager_RestoreError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.dat")
	fm, holder, _ := newTestFileManager(&testutil.MockCompressor{})
	require.NoError(t, fm.SaveToFile(path))

	holder.RestoreErr = errors.New("service stopped")
	assert.EqualError(t, fm.LoadFromFile(context.Background(), path), "service stopped")
}

func TestFileManager_Close(t *testing.T) {
	comp := &testutil.MockCompressor{}
	fm, _, _ := newTestFileManager(comp)
	fm.Close()
	assert.True(t, comp.Closed)
}
