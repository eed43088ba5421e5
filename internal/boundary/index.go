// Package boundary answers "which region contains this coordinate" over a
// fixed set of region polygons loaded once at startup.
package boundary

import (
	"math"
	"sort"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// cellSize is the edge of one acceleration cell, in degrees.
const cellSize = 1.0

// Locator is satisfied by Index and by CachedLocator.
type Locator interface {
	RegionContaining(lat, lon float64) (string, bool)
}

// Entry is one region's geometry as produced by a loader. Geometry must be a
// *geom.Polygon or *geom.MultiPolygon in lon/lat order.
type Entry struct {
	Name     string
	Geometry geom.T
}

type shape struct {
	region  string
	polygon *geom.Polygon
	bounds  *geom.Bounds
}

type cellKey struct {
	x, y int
}

// Index is immutable after construction and safe for concurrent use.
type Index struct {
	shapes  []shape
	cells   map[cellKey][]int
	regions []string
}

func NewIndex(entries []Entry) *Index {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	ix := &Index{cells: make(map[cellKey][]int)}
	seen := make(map[string]struct{})
	for _, e := range sorted {
		for _, p := range polygons(e.Geometry) {
			if p.NumLinearRings() == 0 {
				continue
			}
			ix.add(shape{region: e.Name, polygon: p, bounds: p.Bounds()})
		}
		if _, ok := seen[e.Name]; !ok {
			seen[e.Name] = struct{}{}
			ix.regions = append(ix.regions, e.Name)
		}
	}
	return ix
}

func polygons(g geom.T) []*geom.Polygon {
	switch t := g.(type) {
	case *geom.Polygon:
		return []*geom.Polygon{t}
	case *geom.MultiPolygon:
		out := make([]*geom.Polygon, 0, t.NumPolygons())
		for i := 0; i < t.NumPolygons(); i++ {
			out = append(out, t.Polygon(i))
		}
		return out
	default:
		return nil
	}
}

func (ix *Index) add(s shape) {
	id := len(ix.shapes)
	ix.shapes = append(ix.shapes, s)
	minX, minY := cellOf(s.bounds.Min(0)), cellOf(s.bounds.Min(1))
	maxX, maxY := cellOf(s.bounds.Max(0)), cellOf(s.bounds.Max(1))
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			k := cellKey{x, y}
			ix.cells[k] = append(ix.cells[k], id)
		}
	}
}

func cellOf(deg float64) int {
	return int(math.Floor(deg / cellSize))
}

// RegionContaining returns the region whose polygon contains the point.
// Points on an edge count as inside; when polygons overlap, the region that
// sorts first wins.
func (ix *Index) RegionContaining(lat, lon float64) (string, bool) {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return "", false
	}
	pt := geom.Coord{lon, lat}
	for _, id := range ix.cells[cellKey{cellOf(lon), cellOf(lat)}] {
		s := ix.shapes[id]
		if !inBounds(s.bounds, lon, lat) {
			continue
		}
		if containsPoint(s.polygon, pt) {
			return s.region, true
		}
	}
	return "", false
}

func inBounds(b *geom.Bounds, lon, lat float64) bool {
	return lon >= b.Min(0) && lon <= b.Max(0) && lat >= b.Min(1) && lat <= b.Max(1)
}

// containsPoint: inside the outer ring and outside every hole.
func containsPoint(p *geom.Polygon, pt geom.Coord) bool {
	layout := p.Layout()
	if !xy.IsPointInRing(layout, pt, p.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < p.NumLinearRings(); i++ {
		if xy.IsPointInRing(layout, pt, p.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}

// Regions lists the region names present in the index, sorted.
func (ix *Index) Regions() []string {
	out := make([]string, len(ix.regions))
	copy(out, ix.regions)
	return out
}

func (ix *Index) Len() int {
	return len(ix.regions)
}
