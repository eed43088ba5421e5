// Package detection turns raw position samples into region detections.
package detection

import "visitd/internal/models"

const (
	metersToFeet = 3.28084
	mpsToMph     = 2.236936

	// MaxHorizontalAccuracy is the worst accuracy radius, in meters, still accepted.
	MaxHorizontalAccuracy = 1000.0
)

type Reason string

const (
	ReasonNone     Reason = ""
	ReasonAltitude Reason = "altitude"
	ReasonSpeed    Reason = "speed"
	ReasonAccuracy Reason = "accuracy"
)

// LocationFilter drops samples taken from aircraft or with useless accuracy.
// A threshold <= 0 disables that check.
type LocationFilter struct {
	SpeedThresholdMph   float64
	AltitudeThresholdFt float64
}

func NewLocationFilter(settings models.Settings) LocationFilter {
	return LocationFilter{
		SpeedThresholdMph:   settings.SpeedThresholdMph,
		AltitudeThresholdFt: settings.AltitudeThresholdFt,
	}
}

func (f LocationFilter) IsValid(s models.Sample) bool {
	return f.Reason(s) == ReasonNone
}

// Reason reports why a sample would be rejected, or ReasonNone.
func (f LocationFilter) Reason(s models.Sample) Reason {
	if s.HorizontalAccuracy < 0 || s.HorizontalAccuracy > MaxHorizontalAccuracy {
		return ReasonAccuracy
	}
	if f.AltitudeThresholdFt > 0 && s.Altitude*metersToFeet > f.AltitudeThresholdFt {
		return ReasonAltitude
	}
	if f.SpeedThresholdMph > 0 && s.Speed > 0 && s.Speed*mpsToMph > f.SpeedThresholdMph {
		return ReasonSpeed
	}
	return ReasonNone
}
