package badges

import (
	"sort"
	"time"

	"visitd/internal/models"
	"visitd/internal/regions"
)

type EvaluatorInterface interface {
	Evaluate(records models.RecordSet, log models.EventLog, previous models.BadgeSet, now time.Time) (models.BadgeSet, []string)
	Catalog() []Definition
}

type Evaluator struct {
	catalog []Definition
	loc     *time.Location
}

// NewEvaluator groups same-day patterns by calendar day in loc; nil means UTC.
func NewEvaluator(catalog []Definition, loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	return &Evaluator{catalog: catalog, loc: loc}
}

func (e *Evaluator) Catalog() []Definition {
	out := make([]Definition, len(e.catalog))
	copy(out, e.catalog)
	return out
}

type result struct {
	earned       bool
	contributing []string
	at           *time.Time
}

// Evaluate returns the new badge set and the ids earned by this call. Badges
// earned in previous are kept as they are, whatever the records now say.
// Contributing regions only grow: regions carried in previous, e.g. merged in
// from another device, stay listed.
func (e *Evaluator) Evaluate(records models.RecordSet, log models.EventLog, previous models.BadgeSet, now time.Time) (models.BadgeSet, []string) {
	now = models.NormalizeTime(now)
	ever := everVisited(records)

	out := previous.Clone()
	var newly []string
	for _, def := range e.catalog {
		prev, hadPrev := out[def.ID]
		prev.ID = def.ID
		if hadPrev && prev.Earned {
			out[def.ID] = prev
			continue
		}

		r := e.check(def, records, ever, log)
		st := prev
		st.ContributingRegions = unionRegions(prev.ContributingRegions, r.contributing)
		if r.earned {
			st.Earned = true
			at := now
			if r.at != nil {
				at = *r.at
			}
			st.EarnedAt = &at
			newly = append(newly, def.ID)
		}
		out[def.ID] = st
	}
	sort.Strings(newly)
	return out, newly
}

func (e *Evaluator) check(def Definition, records models.RecordSet, ever map[string]struct{}, log models.EventLog) result {
	switch def.Kind {
	case KindThreshold:
		counted := make([]string, 0, len(ever))
		for name := range ever {
			if !regions.IsFederalDistrict(name) {
				counted = append(counted, name)
			}
		}
		sort.Strings(counted)
		return result{earned: def.Threshold > 0 && len(counted) >= def.Threshold, contributing: counted}
	case KindSet:
		matched := intersect(def.Regions, ever)
		return result{earned: len(def.Regions) > 0 && len(matched) == len(def.Regions), contributing: matched}
	case KindPattern:
		return e.checkPattern(def.Pattern, records, ever, log)
	default:
		return result{}
	}
}

func (e *Evaluator) checkPattern(p Pattern, records models.RecordSet, ever map[string]struct{}, log models.EventLog) result {
	switch p.Kind {
	case PatternSameDay:
		return e.sameDay(p.MinRegions, p.GPSOnly, log)
	case PatternDirectionGroup:
		group := regions.WithPrefix(p.Prefix)
		names := make([]string, 0, len(group))
		for _, r := range group {
			names = append(names, r.Name)
		}
		matched := intersect(names, ever)
		if len(names) == 0 || len(matched) != len(names) {
			return result{contributing: matched}
		}
		var at *time.Time
		for _, name := range names {
			if rv, ok := records.Regions[name]; ok && rv.FirstVisitedAt != nil {
				if at == nil || rv.FirstVisitedAt.After(*at) {
					at = models.CloneTime(rv.FirstVisitedAt)
				}
			}
		}
		return result{earned: true, contributing: matched, at: at}
	default:
		return result{}
	}
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

// sameDay finds the first local calendar day on which at least n distinct
// regions have events. The log is expected in timestamp order.
func (e *Evaluator) sameDay(n int, gpsOnly bool, log models.EventLog) result {
	if n <= 0 {
		return result{}
	}
	days := make(map[dayKey]map[string]struct{})
	var best result
	for _, ev := range log {
		if gpsOnly && ev.Source != models.SourceGPS {
			continue
		}
		name, ok := regions.Canonical(ev.Region)
		if !ok {
			continue
		}
		local := ev.Timestamp.In(e.loc)
		y, m, d := local.Date()
		k := dayKey{y, m, d}
		seen, ok := days[k]
		if !ok {
			seen = make(map[string]struct{})
			days[k] = seen
		}
		seen[name] = struct{}{}
		if len(seen) > len(best.contributing) {
			best.contributing = sortedKeys(seen)
		}
		if len(seen) >= n {
			at := models.NormalizeTime(ev.Timestamp)
			return result{earned: true, contributing: sortedKeys(seen), at: &at}
		}
	}
	return best
}

func everVisited(records models.RecordSet) map[string]struct{} {
	out := make(map[string]struct{}, len(records.Regions))
	for name, rv := range records.Regions {
		if !rv.WasEverVisited {
			continue
		}
		if canon, ok := regions.Canonical(name); ok {
			out[canon] = struct{}{}
		}
	}
	return out
}

func intersect(names []string, set map[string]struct{}) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := set[name]; ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func unionRegions(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, name := range list {
			if canon, ok := regions.Canonical(name); ok {
				set[canon] = struct{}{}
			}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
