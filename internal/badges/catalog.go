// Package badges derives achievement badges from the reconciled visit
// history. Earned badges are sticky: evaluation only ever adds to the
// previous earned set.
package badges

type Kind int

const (
	KindThreshold Kind = iota
	KindSet
	KindPattern
)

func (k Kind) String() string {
	switch k {
	case KindThreshold:
		return "threshold"
	case KindSet:
		return "set"
	case KindPattern:
		return "pattern"
	default:
		return "unknown"
	}
}

type PatternKind int

const (
	// PatternSameDay needs MinRegions distinct regions with visit events on
	// one local calendar day.
	PatternSameDay PatternKind = iota
	// PatternDirectionGroup needs every region whose name starts with Prefix.
	PatternDirectionGroup
)

type Pattern struct {
	Kind       PatternKind
	MinRegions int
	Prefix     string
	// GPSOnly restricts a same-day pattern to GPS events.
	GPSOnly bool
}

// Definition is one catalog entry. Only the fields of its Kind are read.
type Definition struct {
	ID        string
	Title     string
	Kind      Kind
	Threshold int
	Regions   []string
	Pattern   Pattern
}

func threshold(id, title string, n int) Definition {
	return Definition{ID: id, Title: title, Kind: KindThreshold, Threshold: n}
}

func set(id, title string, regions ...string) Definition {
	return Definition{ID: id, Title: title, Kind: KindSet, Regions: regions}
}

func sameDay(id, title string, n int) Definition {
	return Definition{ID: id, Title: title, Kind: KindPattern, Pattern: Pattern{Kind: PatternSameDay, MinRegions: n}}
}

func direction(id, title, prefix string) Definition {
	return Definition{ID: id, Title: title, Kind: KindPattern, Pattern: Pattern{Kind: PatternDirectionGroup, Prefix: prefix}}
}

const AllStatesID = "states-50"

func DefaultCatalog() []Definition {
	return []Definition{
		threshold("states-1", "First Border", 1),
		threshold("states-5", "Explorer", 5),
		threshold("states-10", "Wanderer", 10),
		threshold("states-25", "Halfway There", 25),
		threshold("states-40", "Road Warrior", 40),
		threshold(AllStatesID, "Fifty Nifty", 50),

		set("west-coast", "West Coast", "California", "Oregon", "Washington"),
		set("four-corners", "Four Corners", "Arizona", "Colorado", "New Mexico", "Utah"),
		set("new-england", "New England", "Connecticut", "Maine", "Massachusetts", "New Hampshire", "Rhode Island", "Vermont"),
		set("great-lakes", "Great Lakes", "Illinois", "Indiana", "Michigan", "Minnesota", "New York", "Ohio", "Pennsylvania", "Wisconsin"),
		set("off-the-mainland", "Off the Mainland", "Alaska", "Hawaii"),
		set("capital", "Capital Visit", "District of Columbia"),

		sameDay("road-trip", "Road Trip", 3),
		sameDay("marathon-day", "Marathon Day", 5),
		direction("true-north", "True North", "North"),
		direction("deep-south", "Deep South", "South"),
	}
}
