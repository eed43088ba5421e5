// Package merge reconciles copies of the visit history produced on different
// devices. Every rule is commutative and associative, so any number of copies
// converge regardless of the order they are combined in. Fields that only move
// toward "more achieved" are merged with OR/min/max and never regress.
package merge

import (
	"bytes"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"visitd/internal/models"
	"visitd/internal/regions"
)

// Visit merges two records of the same region.
func Visit(a, b models.RegionVisit) models.RegionVisit {
	return models.RegionVisit{
		Visited:        a.Visited || b.Visited,
		Edited:         a.Edited || b.Edited,
		IsActive:       a.IsActive || b.IsActive,
		WasEverVisited: a.WasEverVisited || b.WasEverVisited,
		FirstVisitedAt: minTime(a.FirstVisitedAt, b.FirstVisitedAt),
		LastVisitedAt:  maxTime(a.LastVisitedAt, b.LastVisitedAt),
	}
}

// Records merges two record sets keyed by normalized region name. A region
// present on one side only is carried through.
func Records(a, b models.RecordSet) models.RecordSet {
	out := models.RecordSet{
		Regions:     make(map[string]models.RegionVisit, max(len(a.Regions), len(b.Regions))),
		LastUpdated: laterOf(a.LastUpdated, b.LastUpdated),
	}
	for _, side := range []models.RecordSet{a, b} {
		for name, rv := range side.Regions {
			key := regions.Key(name)
			if cur, ok := out.Regions[key]; ok {
				out.Regions[key] = Visit(cur, rv)
				continue
			}
			out.Regions[key] = Visit(rv, models.RegionVisit{})
		}
	}
	return out
}

// Normalize folds duplicate spellings inside a single record set.
func Normalize(rs models.RecordSet) models.RecordSet {
	return Records(rs, models.RecordSet{})
}

// Settings is whole-record last-writer-wins by LastUpdated. Both records are
// clamped to MinOpacity first; equal timestamps are then broken by comparing
// the encoded records so every argument order and grouping agrees.
func Settings(a, b models.Settings) models.Settings {
	a, b = clampSettings(a), clampSettings(b)
	winner := a
	switch {
	case b.LastUpdated.After(a.LastUpdated):
		winner = b
	case a.LastUpdated.Equal(b.LastUpdated) && compareSettings(a, b) < 0:
		winner = b
	}
	return winner
}

func clampSettings(s models.Settings) models.Settings {
	s.LastUpdated = models.NormalizeTime(s.LastUpdated)
	s.FillColor = clampOpacity(s.FillColor)
	s.StrokeColor = clampOpacity(s.StrokeColor)
	s.BackgroundColor = clampOpacity(s.BackgroundColor)
	return s
}

func compareSettings(a, b models.Settings) int {
	a.LastUpdated, b.LastUpdated = time.Time{}, time.Time{}
	ea, errA := json.Marshal(a)
	eb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return 0
	}
	return bytes.Compare(ea, eb)
}

func clampOpacity(c models.Color) models.Color {
	if c.Opacity < models.MinOpacity {
		c.Opacity = models.MinOpacity
	}
	return c
}

// Badges merges two badge sets. Viewed is device-local: unless crossDevice is
// set, the result keeps the viewed flag of local (the first argument).
func Badges(local, remote models.BadgeSet, crossDevice bool) models.BadgeSet {
	out := make(models.BadgeSet, max(len(local), len(remote)))
	for id, b := range local {
		out[id] = badge(b, models.BadgeState{ID: id}, true)
	}
	for id, rb := range remote {
		lb, ok := out[id]
		if !ok {
			lb = models.BadgeState{ID: id}
		}
		out[id] = badge(lb, rb, crossDevice)
	}
	return out
}

func badge(a, b models.BadgeState, mergeViewed bool) models.BadgeState {
	out := models.BadgeState{
		ID:                  a.ID,
		Earned:              a.Earned || b.Earned,
		ContributingRegions: union(a.ContributingRegions, b.ContributingRegions),
		Viewed:              a.Viewed,
	}
	if out.ID == "" {
		out.ID = b.ID
	}
	if mergeViewed {
		out.Viewed = a.Viewed || b.Viewed
	}
	if out.Earned {
		out.EarnedAt = minTime(a.EarnedAt, b.EarnedAt)
	}
	return out
}

func union(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, name := range list {
			key := regions.Key(name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// Events returns the set union of two logs, deduplicated by
// (region, timestamp, source) and ordered by timestamp.
func Events(a, b models.EventLog) models.EventLog {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make(models.EventLog, 0, len(a)+len(b))
	for _, log := range []models.EventLog{a, b} {
		for _, ev := range log {
			ev.Region = regions.Key(ev.Region)
			ev.Timestamp = models.NormalizeTime(ev.Timestamp)
			k := ev.Key()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, ev)
		}
	}
	SortEvents(out)
	return out
}

func SortEvents(log models.EventLog) {
	sort.Slice(log, func(i, j int) bool {
		if !log[i].Timestamp.Equal(log[j].Timestamp) {
			return log[i].Timestamp.Before(log[j].Timestamp)
		}
		if log[i].Region != log[j].Region {
			return log[i].Region < log[j].Region
		}
		return log[i].Source < log[j].Source
	})
}

// minTime treats nil as +infinity.
func minTime(a, b *time.Time) *time.Time {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return normalized(*b)
	case b == nil || !b.Before(*a):
		return normalized(*a)
	default:
		return normalized(*b)
	}
}

// maxTime treats nil as -infinity.
func maxTime(a, b *time.Time) *time.Time {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return normalized(*b)
	case b == nil || !b.After(*a):
		return normalized(*a)
	default:
		return normalized(*b)
	}
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return models.NormalizeTime(b)
	}
	return models.NormalizeTime(a)
}

func normalized(t time.Time) *time.Time {
	n := models.NormalizeTime(t)
	return &n
}
