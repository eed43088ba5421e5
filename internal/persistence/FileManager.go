// Package persistence keeps the local snapshot on disk and drives the
// periodic save and sync jobs.
package persistence

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"visitd/internal/documents"
	"visitd/internal/persistence/interfaces"
	"visitd/internal/providers"
)

type FileManager struct {
	holder     interfaces.StateHolderInterface
	compressor interfaces.CompressorInterface
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
}

func NewFileManager(compressor interfaces.CompressorInterface, holder interfaces.StateHolderInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) *FileManager {
	return &FileManager{
		compressor: compressor,
		holder:     holder,
		logger:     logger,
		metrics:    metrics,
	}
}

// SaveToFile writes the snapshot to a temp file and renames it over the old
// one, so a crash never leaves a half-written snapshot behind.
func (f *FileManager) SaveToFile(fileName string) error {
	start := time.Now()
	defer func() { f.metrics.ObservePersistenceDuration(time.Since(start)) }()

	jsonData, err := documents.EncodeState(f.holder.LocalState())
	if err != nil {
		return eris.Wrap(err, "encode snapshot")
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return eris.Wrap(err, "compress snapshot")
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return eris.Wrapf(err, "create %s", tmpFile)
	}

	if _, err = file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFile)
		return eris.Wrapf(err, "write %s", tmpFile)
	}
	if err = file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFile)
		return eris.Wrapf(err, "sync %s", tmpFile)
	}
	if err = file.Close(); err != nil {
		_ = os.Remove(tmpFile)
		return eris.Wrapf(err, "close %s", tmpFile)
	}

	return eris.Wrap(os.Rename(tmpFile, fileName), "replace snapshot")
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// LoadFromFile restores the snapshot. A missing file is not an error: the
// service starts empty.
func (f *FileManager) LoadFromFile(ctx context.Context, fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return eris.Wrapf(err, "read %s", fileName)
	}

	raw, err := f.compressor.Decompress(data)
	if err != nil {
		// Snapshots written before compression was added are plain JSON.
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
			return eris.Wrapf(err, "decompress %s", fileName)
		}
		f.logger.Warnf(providers.TypeApp, "Uncompressed snapshot found, it will be compressed on next save")
		raw = trimmed
	}

	st, version, err := documents.DecodeState(raw)
	if err != nil {
		f.logger.Errorf(providers.TypeApp, "Snapshot %s is unreadable: %s", fileName, err)
		return err
	}
	if version < documents.Version {
		f.logger.Warnf(providers.TypeApp, "Migrating snapshot from schema v%d to v%d", version, documents.Version)
	}
	return f.holder.Restore(ctx, st)
}
