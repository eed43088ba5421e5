package detection

import (
	"sync"
	"time"

	"visitd/internal/boundary"
	"visitd/internal/models"
)

type Method string

const (
	MethodNone    Method = "none"
	MethodPrimary Method = "primary"
	MethodGrid    Method = "grid"
	MethodRecent  Method = "recent"
)

// Detection is the outcome of one sample. Region is empty when Method is MethodNone.
type Detection struct {
	Region    string  `json:"region,omitempty"`
	Method    Method  `json:"method"`
	RadiusKm  float64 `json:"radiusKm,omitempty"`
	Relocated bool    `json:"relocated,omitempty"`
}

func (d Detection) Known() bool {
	return d.Method != MethodNone
}

type Config struct {
	SearchRadiiKm    []float64
	RecentDistanceKm float64
	RecentWindow     time.Duration
	RelocationKm     float64
}

func DefaultConfig() Config {
	return Config{
		SearchRadiiKm:    []float64{1, 2, 5},
		RecentDistanceKm: 10,
		RecentWindow:     time.Hour,
		RelocationKm:     100,
	}
}

type lastKnown struct {
	region string
	sample models.Sample
}

type StateDetectorInterface interface {
	Detect(s models.Sample) Detection
	LastKnown() (string, models.Sample, bool)
	Reset()
}

// StateDetector resolves samples to regions. Its only state is the last
// directly detected region and the sample it was detected from. Elapsed time
// is measured between sample timestamps, so replaying a sequence always
// yields the same detections.
type StateDetector struct {
	mu      sync.Mutex
	locator boundary.Locator
	conf    Config
	last    *lastKnown
}

func NewStateDetector(locator boundary.Locator, conf Config) *StateDetector {
	def := DefaultConfig()
	if len(conf.SearchRadiiKm) == 0 {
		conf.SearchRadiiKm = def.SearchRadiiKm
	}
	if conf.RecentDistanceKm <= 0 {
		conf.RecentDistanceKm = def.RecentDistanceKm
	}
	if conf.RecentWindow <= 0 {
		conf.RecentWindow = def.RecentWindow
	}
	if conf.RelocationKm <= 0 {
		conf.RelocationKm = def.RelocationKm
	}
	return &StateDetector{locator: locator, conf: conf}
}

func (d *StateDetector) Detect(s models.Sample) Detection {
	d.mu.Lock()
	defer d.mu.Unlock()

	relocated := false
	var jumpKm float64
	if d.last != nil {
		jumpKm = haversineKm(d.last.sample.Latitude, d.last.sample.Longitude, s.Latitude, s.Longitude)
		relocated = jumpKm > d.conf.RelocationKm
	}

	if region, ok := d.locator.RegionContaining(s.Latitude, s.Longitude); ok {
		d.last = &lastKnown{region: region, sample: s}
		return Detection{Region: region, Method: MethodPrimary, Relocated: relocated}
	}

	for _, r := range d.conf.SearchRadiiKm {
		if region, ok := d.probe(s.Latitude, s.Longitude, r); ok {
			d.last = &lastKnown{region: region, sample: s}
			return Detection{Region: region, Method: MethodGrid, RadiusKm: r, Relocated: relocated}
		}
	}

	if d.last != nil && !relocated && jumpKm <= d.conf.RecentDistanceKm {
		elapsed := s.Timestamp.Sub(d.last.sample.Timestamp)
		if elapsed >= 0 && elapsed <= d.conf.RecentWindow {
			return Detection{Region: d.last.region, Method: MethodRecent}
		}
	}

	return Detection{Method: MethodNone, Relocated: relocated}
}

func (d *StateDetector) probe(lat, lon, radiusKm float64) (string, bool) {
	for _, dir := range probeDirections {
		pLat, pLon := offset(lat, lon, dir[0]*radiusKm, dir[1]*radiusKm)
		if region, ok := d.locator.RegionContaining(pLat, pLon); ok {
			return region, true
		}
	}
	return "", false
}

func (d *StateDetector) LastKnown() (string, models.Sample, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.last == nil {
		return "", models.Sample{}, false
	}
	return d.last.region, d.last.sample, true
}

func (d *StateDetector) Reset() {
	d.mu.Lock()
	d.last = nil
	d.mu.Unlock()
}
