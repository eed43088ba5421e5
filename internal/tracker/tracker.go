// Package tracker owns the local RecordSet and visit event log. All mutations
// go through its methods; readers get deep copies.
package tracker

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"visitd/internal/merge"
	"visitd/internal/models"
	"visitd/internal/regions"
)

var ErrUnknownRegion = eris.New("unknown region")

// minRetention is the shortest window of events a log may be trimmed to.
const minRetention = 24 * time.Hour

type Retention struct {
	// MaxAge of events relative to the newest event; 0 keeps everything.
	MaxAge time.Duration
	// MaxEntries caps the log; events from the last 24h are never dropped.
	MaxEntries int
	// Archive, when set, receives every event the log drops.
	Archive Archiver
}

type Archiver interface {
	Archive(log models.EventLog)
}

type VisitTrackerInterface interface {
	ApplyDetectedVisit(region string, ts time.Time) (models.RegionVisit, bool, error)
	ApplyManualEdit(region string, visited bool, now time.Time) (models.RegionVisit, error)
	Replace(rs models.RecordSet)
	ReplaceEvents(log models.EventLog)
	Snapshot() models.RecordSet
	Events() models.EventLog
}

type VisitTracker struct {
	mu        sync.RWMutex
	records   models.RecordSet
	events    models.EventLog
	seen      map[string]struct{}
	retention Retention
}

func NewVisitTracker(retention Retention) *VisitTracker {
	return &VisitTracker{
		records:   models.NewRecordSet(),
		events:    models.EventLog{},
		seen:      make(map[string]struct{}),
		retention: retention,
	}
}

func canonical(region string) (string, error) {
	name, ok := regions.Canonical(region)
	if !ok {
		return "", eris.Wrapf(ErrUnknownRegion, "region %q", region)
	}
	return name, nil
}

// ApplyDetectedVisit records a GPS-verified visit. The second return value
// reports whether the region had never been visited before.
func (t *VisitTracker) ApplyDetectedVisit(region string, ts time.Time) (models.RegionVisit, bool, error) {
	name, err := canonical(region)
	if err != nil {
		return models.RegionVisit{}, false, err
	}
	ts = models.NormalizeTime(ts)

	t.mu.Lock()
	defer t.mu.Unlock()

	rv := t.records.Regions[name]
	first := !rv.WasEverVisited
	rv.Visited = true
	rv.WasEverVisited = true
	rv.IsActive = true
	// Samples can arrive out of order.
	if rv.FirstVisitedAt == nil || ts.Before(*rv.FirstVisitedAt) {
		rv.FirstVisitedAt = models.CloneTime(&ts)
	}
	if rv.LastVisitedAt == nil || ts.After(*rv.LastVisitedAt) {
		rv.LastVisitedAt = models.CloneTime(&ts)
	}
	t.records.Regions[name] = rv
	t.touch(ts)
	t.append(models.VisitEvent{Region: name, Timestamp: ts, Source: models.SourceGPS})

	return rv.Clone(), first, nil
}

// ApplyManualEdit toggles whether a region is shown as visited. It never
// sets or clears the GPS-verified flags and never touches visit dates.
func (t *VisitTracker) ApplyManualEdit(region string, visited bool, now time.Time) (models.RegionVisit, error) {
	name, err := canonical(region)
	if err != nil {
		return models.RegionVisit{}, err
	}
	now = models.NormalizeTime(now)

	t.mu.Lock()
	defer t.mu.Unlock()

	rv := t.records.Regions[name]
	if visited {
		rv.Edited = true
		rv.IsActive = true
		t.append(models.VisitEvent{Region: name, Timestamp: now, Source: models.SourceManual})
	} else {
		rv.IsActive = false
	}
	t.records.Regions[name] = rv
	t.touch(now)

	return rv.Clone(), nil
}

func (t *VisitTracker) touch(ts time.Time) {
	if ts.After(t.records.LastUpdated) {
		t.records.LastUpdated = ts
	}
}

func (t *VisitTracker) append(ev models.VisitEvent) {
	k := ev.Key()
	if _, ok := t.seen[k]; ok {
		return
	}
	t.seen[k] = struct{}{}
	n := len(t.events)
	t.events = append(t.events, ev)
	if n > 0 && ev.Timestamp.Before(t.events[n-1].Timestamp) {
		merge.SortEvents(t.events)
	}
	t.prune()
}

func (t *VisitTracker) prune() {
	if len(t.events) == 0 {
		return
	}
	latest := t.events[len(t.events)-1].Timestamp
	floor := latest.Add(-minRetention)

	drop := 0
	if t.retention.MaxAge > 0 {
		age := t.retention.MaxAge
		if age < minRetention {
			age = minRetention
		}
		cutoff := latest.Add(-age)
		for drop < len(t.events) && t.events[drop].Timestamp.Before(cutoff) {
			drop++
		}
	}
	if limit := t.retention.MaxEntries; limit > 0 {
		for len(t.events)-drop > limit && t.events[drop].Timestamp.Before(floor) {
			drop++
		}
	}
	if drop == 0 {
		return
	}
	for _, ev := range t.events[:drop] {
		delete(t.seen, ev.Key())
	}
	if t.retention.Archive != nil {
		t.retention.Archive.Archive(t.events[:drop].Clone())
	}
	t.events = append(models.EventLog{}, t.events[drop:]...)
}

// Replace swaps in a merged record set.
func (t *VisitTracker) Replace(rs models.RecordSet) {
	rs = merge.Normalize(rs)
	t.mu.Lock()
	t.records = rs
	t.mu.Unlock()
}

func (t *VisitTracker) ReplaceEvents(log models.EventLog) {
	log = merge.Events(log, nil)
	seen := make(map[string]struct{}, len(log))
	for _, ev := range log {
		seen[ev.Key()] = struct{}{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = log
	t.seen = seen
	t.prune()
}

func (t *VisitTracker) Snapshot() models.RecordSet {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.records.Clone()
}

func (t *VisitTracker) Events() models.EventLog {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.events.Clone()
}
