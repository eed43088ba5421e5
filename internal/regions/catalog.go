// Package regions holds the fixed catalog of tracked regions: the fifty US
// states and the District of Columbia.
package regions

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

type Region struct {
	Name            string
	Code            string
	FederalDistrict bool
	Contiguous      bool
}

var catalog = []Region{
	{Name: "Alabama", Code: "AL", Contiguous: true},
	{Name: "Alaska", Code: "AK"},
	{Name: "Arizona", Code: "AZ", Contiguous: true},
	{Name: "Arkansas", Code: "AR", Contiguous: true},
	{Name: "California", Code: "CA", Contiguous: true},
	{Name: "Colorado", Code: "CO", Contiguous: true},
	{Name: "Connecticut", Code: "CT", Contiguous: true},
	{Name: "Delaware", Code: "DE", Contiguous: true},
	{Name: "District of Columbia", Code: "DC", FederalDistrict: true, Contiguous: true},
	{Name: "Florida", Code: "FL", Contiguous: true},
	{Name: "Georgia", Code: "GA", Contiguous: true},
	{Name: "Hawaii", Code: "HI"},
	{Name: "Idaho", Code: "ID", Contiguous: true},
	{Name: "Illinois", Code: "IL", Contiguous: true},
	{Name: "Indiana", Code: "IN", Contiguous: true},
	{Name: "Iowa", Code: "IA", Contiguous: true},
	{Name: "Kansas", Code: "KS", Contiguous: true},
	{Name: "Kentucky", Code: "KY", Contiguous: true},
	{Name: "Louisiana", Code: "LA", Contiguous: true},
	{Name: "Maine", Code: "ME", Contiguous: true},
	{Name: "Maryland", Code: "MD", Contiguous: true},
	{Name: "Massachusetts", Code: "MA", Contiguous: true},
	{Name: "Michigan", Code: "MI", Contiguous: true},
	{Name: "Minnesota", Code: "MN", Contiguous: true},
	{Name: "Mississippi", Code: "MS", Contiguous: true},
	{Name: "Missouri", Code: "MO", Contiguous: true},
	{Name: "Montana", Code: "MT", Contiguous: true},
	{Name: "Nebraska", Code: "NE", Contiguous: true},
	{Name: "Nevada", Code: "NV", Contiguous: true},
	{Name: "New Hampshire", Code: "NH", Contiguous: true},
	{Name: "New Jersey", Code: "NJ", Contiguous: true},
	{Name: "New Mexico", Code: "NM", Contiguous: true},
	{Name: "New York", Code: "NY", Contiguous: true},
	{Name: "North Carolina", Code: "NC", Contiguous: true},
	{Name: "North Dakota", Code: "ND", Contiguous: true},
	{Name: "Ohio", Code: "OH", Contiguous: true},
	{Name: "Oklahoma", Code: "OK", Contiguous: true},
	{Name: "Oregon", Code: "OR", Contiguous: true},
	{Name: "Pennsylvania", Code: "PA", Contiguous: true},
	{Name: "Rhode Island", Code: "RI", Contiguous: true},
	{Name: "South Carolina", Code: "SC", Contiguous: true},
	{Name: "South Dakota", Code: "SD", Contiguous: true},
	{Name: "Tennessee", Code: "TN", Contiguous: true},
	{Name: "Texas", Code: "TX", Contiguous: true},
	{Name: "Utah", Code: "UT", Contiguous: true},
	{Name: "Vermont", Code: "VT", Contiguous: true},
	{Name: "Virginia", Code: "VA", Contiguous: true},
	{Name: "Washington", Code: "WA", Contiguous: true},
	{Name: "West Virginia", Code: "WV", Contiguous: true},
	{Name: "Wisconsin", Code: "WI", Contiguous: true},
	{Name: "Wyoming", Code: "WY", Contiguous: true},
}

var index = buildIndex()

func buildIndex() map[string]Region {
	idx := make(map[string]Region, len(catalog)*2)
	for _, r := range catalog {
		idx[fold(r.Name)] = r
		idx[fold(r.Code)] = r
	}
	return idx
}

// fold collapses inner whitespace and applies Unicode case folding.
// A Caser is stateful, so a fresh one is created per call.
func fold(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

// All returns a copy of the catalog in alphabetical order.
func All() []Region {
	out := make([]Region, len(catalog))
	copy(out, catalog)
	return out
}

// States returns every catalog entry except the federal district.
func States() []Region {
	out := make([]Region, 0, len(catalog)-1)
	for _, r := range catalog {
		if !r.FederalDistrict {
			out = append(out, r)
		}
	}
	return out
}

// Lookup resolves a region by full name or USPS code, ignoring case and
// surrounding whitespace.
func Lookup(name string) (Region, bool) {
	r, ok := index[fold(name)]
	return r, ok
}

func Canonical(name string) (string, bool) {
	r, ok := Lookup(name)
	if !ok {
		return "", false
	}
	return r.Name, true
}

// Key returns the canonical catalog name, or the folded input when the name
// is not in the catalog. Two spellings of the same region always share a key.
func Key(name string) string {
	if r, ok := Lookup(name); ok {
		return r.Name
	}
	return fold(name)
}

func IsFederalDistrict(name string) bool {
	r, ok := Lookup(name)
	return ok && r.FederalDistrict
}

// WithPrefix returns the regions whose name starts with the given word,
// e.g. "North" -> North Carolina, North Dakota.
func WithPrefix(prefix string) []Region {
	p := fold(prefix) + " "
	var out []Region
	for _, r := range catalog {
		if strings.HasPrefix(fold(r.Name), p) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
