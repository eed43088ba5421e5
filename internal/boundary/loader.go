package boundary

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"visitd/internal/regions"
)

const (
	FormatGeoJSON   = "geojson"
	FormatShapefile = "shapefile"
)

// nameFields are tried in order when the configured property is missing.
// STUSPS and NAME are the Census TIGER state attributes.
var nameFields = []string{"name", "NAME", "STUSPS", "state", "code"}

var ErrNoRegions = eris.New("boundary source contains no known regions")

// LoadFile reads region polygons from a GeoJSON FeatureCollection or a
// shapefile. An empty format is inferred from the file extension. Features
// whose name does not resolve to a catalog region are skipped and returned
// in the second value.
func LoadFile(path, format, nameField string) ([]Entry, []string, error) {
	if format == "" {
		format = FormatGeoJSON
		if strings.EqualFold(filepath.Ext(path), ".shp") {
			format = FormatShapefile
		}
	}
	switch format {
	case FormatGeoJSON:
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "boundary: open %s", path)
		}
		defer func() { _ = f.Close() }()
		return LoadGeoJSON(f, nameField)
	case FormatShapefile:
		return LoadShapefile(path, nameField)
	default:
		return nil, nil, eris.Errorf("boundary: unsupported format %q", format)
	}
}

func LoadGeoJSON(r io.Reader, nameField string) ([]Entry, []string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, eris.Wrap(err, "boundary: read geojson")
	}
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, nil, eris.Wrap(err, "boundary: decode geojson")
	}

	var entries []Entry
	var skipped []string
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		raw := propertyName(f.Properties, nameField)
		name, ok := regions.Canonical(raw)
		if !ok {
			skipped = append(skipped, raw)
			continue
		}
		switch f.Geometry.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
			entries = append(entries, Entry{Name: name, Geometry: f.Geometry})
		default:
			skipped = append(skipped, raw)
		}
	}
	if len(entries) == 0 {
		return nil, skipped, ErrNoRegions
	}
	return entries, skipped, nil
}

func propertyName(props map[string]interface{}, preferred string) string {
	fields := nameFields
	if preferred != "" {
		fields = append([]string{preferred}, nameFields...)
	}
	for _, k := range fields {
		if v, ok := props[k].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// LoadShapefile reads a polygon shapefile. Shapefile rings are clockwise for
// outer boundaries and counter-clockwise for holes; each hole is attached to
// the outer ring that precedes it.
func LoadShapefile(path, nameField string) ([]Entry, []string, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "boundary: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fieldIdx := make(map[string]int)
	for i, f := range reader.Fields() {
		fieldIdx[strings.TrimRight(f.String(), "\x00")] = i
	}
	fields := nameFields
	if nameField != "" {
		fields = append([]string{nameField}, nameFields...)
	}

	var entries []Entry
	var skipped []string
	for reader.Next() {
		_, s := reader.Shape()
		poly, ok := s.(*shp.Polygon)
		if !ok || poly == nil {
			continue
		}

		var raw string
		for _, name := range fields {
			if idx, ok := fieldIdx[name]; ok {
				raw = strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
				if raw != "" {
					break
				}
			}
		}
		name, ok := regions.Canonical(raw)
		if !ok {
			skipped = append(skipped, raw)
			continue
		}

		mp, err := shapeToMultiPolygon(poly)
		if err != nil {
			return nil, skipped, eris.Wrapf(err, "boundary: region %s", name)
		}
		if mp.NumPolygons() > 0 {
			entries = append(entries, Entry{Name: name, Geometry: mp})
		}
	}
	if len(entries) == 0 {
		return nil, skipped, ErrNoRegions
	}
	return entries, skipped, nil
}

func shapeToMultiPolygon(p *shp.Polygon) (*geom.MultiPolygon, error) {
	mp := geom.NewMultiPolygon(geom.XY)
	var current *geom.Polygon
	flush := func() error {
		if current == nil {
			return nil
		}
		err := mp.Push(current)
		current = nil
		return err
	}

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end-start < 4 {
			continue
		}
		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if signedArea(flat) <= 0 || current == nil {
			if err := flush(); err != nil {
				return nil, err
			}
			current = geom.NewPolygon(geom.XY)
		}
		if err := current.Push(ring); err != nil {
			return nil, err
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return mp, nil
}

// signedArea is positive for counter-clockwise rings (shoelace formula).
func signedArea(flat []float64) float64 {
	var sum float64
	n := len(flat) / 2
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += flat[2*i]*flat[2*j+1] - flat[2*j]*flat[2*i+1]
	}
	return sum / 2
}
