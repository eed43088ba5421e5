package persistence

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"visitd/internal/merge"
	"visitd/internal/models"
	"visitd/internal/persistence/interfaces"
	"visitd/internal/providers"
)

const (
	archiveSuffix = ".events.zst"
	monthLayout   = "2006-01"
)

// ArchiveFile is the on-disk format of one month of archived events.
type ArchiveFile struct {
	Month  string          `json:"month"`
	Events models.EventLog `json:"events"`
}

// EventArchive keeps events the live log no longer holds, one compressed
// file per calendar month (UTC). Archive only buffers; Flush does the I/O.
type EventArchive struct {
	mu         sync.RWMutex
	dir        string
	index      map[string]int             // month → archived event count
	pending    map[string]models.EventLog // month → events not yet on disk
	loaded     map[string]*ArchiveFile    // month → cached file
	ttl        time.Duration
	now        func() time.Time
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

// NewEventArchive creates an archive in dir. Months older than ttl are
// removed on Flush; ttl 0 keeps them forever.
func NewEventArchive(dir string, ttl time.Duration, compressor interfaces.CompressorInterface, logger providers.Logger) *EventArchive {
	return &EventArchive{
		dir:        dir,
		index:      make(map[string]int),
		pending:    make(map[string]models.EventLog),
		loaded:     make(map[string]*ArchiveFile),
		ttl:        ttl,
		now:        time.Now,
		compressor: compressor,
		logger:     logger,
	}
}

func monthOf(t time.Time) string {
	return t.UTC().Format(monthLayout)
}

// Archive buffers events for the next Flush.
func (a *EventArchive) Archive(log models.EventLog) {
	if len(log) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, ev := range log {
		m := monthOf(ev.Timestamp)
		a.pending[m] = append(a.pending[m], ev)
	}
}

// Months lists the months with archived or pending events, oldest first.
func (a *EventArchive) Months() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	seen := make(map[string]struct{}, len(a.index)+len(a.pending))
	for m, n := range a.index {
		if n > 0 {
			seen[m] = struct{}{}
		}
	}
	for m := range a.pending {
		seen[m] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Load returns the archived events of a month ("2006-01"), including those
// not yet flushed.
func (a *EventArchive) Load(month string) (models.EventLog, error) {
	if _, err := time.Parse(monthLayout, month); err != nil {
		return nil, eris.Wrapf(err, "archive: bad month %q", month)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	var stored models.EventLog
	if f := a.getOrLoadFile(month); f != nil {
		stored = f.Events
	}
	return merge.Events(stored, a.pending[month]), nil
}

// Flush merges pending events into their month files and removes months
// past the TTL. This is the only method that writes to disk.
func (a *EventArchive) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for month, events := range a.pending {
		f := a.getOrLoadFile(month)
		if f == nil {
			f = &ArchiveFile{Month: month}
		}
		f.Events = merge.Events(f.Events, events)
		if err := a.writeFile(f); err != nil {
			return err
		}
		a.loaded[month] = f
		a.index[month] = len(f.Events)
		// Commit only after a successful write.
		delete(a.pending, month)
	}

	if a.ttl > 0 {
		cutoff := monthOf(a.now().Add(-a.ttl))
		for month := range a.index {
			if month >= cutoff {
				continue
			}
			if err := os.Remove(a.filePath(month)); err != nil && !os.IsNotExist(err) {
				return eris.Wrapf(err, "archive: remove %s", month)
			}
			delete(a.index, month)
			delete(a.loaded, month)
		}
	}
	return nil
}

// RestoreIndex scans the archive directory. Called once at startup.
func (a *EventArchive) RestoreIndex() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return eris.Wrapf(err, "archive: create %s", a.dir)
	}
	files, err := filepath.Glob(filepath.Join(a.dir, "*"+archiveSuffix))
	if err != nil {
		return eris.Wrap(err, "archive: scan")
	}
	for _, file := range files {
		month := strings.TrimSuffix(filepath.Base(file), archiveSuffix)
		f := a.loadFileFromDisk(month)
		if f == nil {
			continue
		}
		// Only counts are kept; events are read lazily.
		a.index[month] = len(f.Events)
	}
	return nil
}

func (a *EventArchive) Close() {
	a.compressor.Close()
}

// getOrLoadFile must be called with a.mu held.
func (a *EventArchive) getOrLoadFile(month string) *ArchiveFile {
	if f, ok := a.loaded[month]; ok {
		return f
	}
	f := a.loadFileFromDisk(month)
	if f != nil {
		a.loaded[month] = f
	}
	return f
}

func (a *EventArchive) loadFileFromDisk(month string) *ArchiveFile {
	path := a.filePath(month)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			a.logger.Errorf(providers.TypeApp, "Failed to read archive file %s: %s", path, err)
		}
		return nil
	}
	raw, err := a.compressor.Decompress(data)
	if err != nil {
		a.logger.Errorf(providers.TypeApp, "Failed to decompress archive file %s: %s", path, err)
		return nil
	}
	var f ArchiveFile
	if err := json.Unmarshal(raw, &f); err != nil {
		a.logger.Errorf(providers.TypeApp, "Failed to parse archive file %s: %s", path, err)
		return nil
	}
	f.Month = month
	return &f
}

func (a *EventArchive) writeFile(f *ArchiveFile) error {
	jsonData, err := json.Marshal(f)
	if err != nil {
		return eris.Wrap(err, "archive: encode")
	}
	compressed, err := a.compressor.Compress(jsonData)
	if err != nil {
		return eris.Wrap(err, "archive: compress")
	}

	path := a.filePath(f.Month)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return eris.Wrapf(err, "archive: create %s", filepath.Dir(path))
	}
	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, compressed, 0644); err != nil {
		return eris.Wrapf(err, "archive: write %s", tmpFile)
	}
	return eris.Wrap(os.Rename(tmpFile, path), "archive: replace file")
}

func (a *EventArchive) filePath(month string) string {
	return filepath.Join(a.dir, month+archiveSuffix)
}
