package models

import "time"

type BadgeState struct {
	ID                  string     `json:"id"`
	Earned              bool       `json:"earned"`
	EarnedAt            *time.Time `json:"earnedAt"`
	ContributingRegions []string   `json:"contributingRegions"`
	Viewed              bool       `json:"viewed"`
}

func (b BadgeState) Clone() BadgeState {
	b.EarnedAt = CloneTime(b.EarnedAt)
	if b.ContributingRegions != nil {
		regions := make([]string, len(b.ContributingRegions))
		copy(regions, b.ContributingRegions)
		b.ContributingRegions = regions
	}
	return b
}

// BadgeSet maps badge id to its state.
type BadgeSet map[string]BadgeState

func (bs BadgeSet) Clone() BadgeSet {
	out := make(BadgeSet, len(bs))
	for id, b := range bs {
		out[id] = b.Clone()
	}
	return out
}

func (bs BadgeSet) EarnedCount() int {
	n := 0
	for _, b := range bs {
		if b.Earned {
			n++
		}
	}
	return n
}
