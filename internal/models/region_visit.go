package models

import (
	"sort"
	"time"
)

// RegionVisit is the per-region record. Visited and WasEverVisited are only
// ever raised by GPS detection or by merging; IsActive is the only flag that
// may go back to false.
type RegionVisit struct {
	Visited        bool       `json:"visited"`
	Edited         bool       `json:"edited"`
	FirstVisitedAt *time.Time `json:"firstVisitedAt"`
	LastVisitedAt  *time.Time `json:"lastVisitedAt"`
	IsActive       bool       `json:"isActive"`
	WasEverVisited bool       `json:"wasEverVisited"`
}

func (rv RegionVisit) Clone() RegionVisit {
	rv.FirstVisitedAt = CloneTime(rv.FirstVisitedAt)
	rv.LastVisitedAt = CloneTime(rv.LastVisitedAt)
	return rv
}

type RecordSet struct {
	Regions     map[string]RegionVisit `json:"regions"`
	LastUpdated time.Time              `json:"lastUpdated"`
}

func NewRecordSet() RecordSet {
	return RecordSet{Regions: make(map[string]RegionVisit)}
}

func (rs RecordSet) Clone() RecordSet {
	out := RecordSet{
		Regions:     make(map[string]RegionVisit, len(rs.Regions)),
		LastUpdated: rs.LastUpdated,
	}
	for name, rv := range rs.Regions {
		out.Regions[name] = rv.Clone()
	}
	return out
}

func (rs RecordSet) Get(name string) (RegionVisit, bool) {
	rv, ok := rs.Regions[name]
	return rv, ok
}

func (rs RecordSet) Len() int {
	return len(rs.Regions)
}

// EverVisited returns the sorted names of regions with WasEverVisited set.
func (rs RecordSet) EverVisited() []string {
	return rs.names(func(rv RegionVisit) bool { return rv.WasEverVisited })
}

// Active returns the sorted names of regions currently shown as visited.
func (rs RecordSet) Active() []string {
	return rs.names(func(rv RegionVisit) bool { return rv.IsActive })
}

func (rs RecordSet) names(keep func(RegionVisit) bool) []string {
	out := make([]string, 0, len(rs.Regions))
	for name, rv := range rs.Regions {
		if keep(rv) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// CloneTime copies an optional timestamp.
func CloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// NormalizeTime strips the monotonic reading and pins the location to UTC so
// that equal instants compare equal with reflect.DeepEqual.
func NormalizeTime(t time.Time) time.Time {
	return t.Round(0).UTC()
}
