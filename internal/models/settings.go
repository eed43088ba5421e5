package models

import "time"

// MinOpacity keeps merged colors from turning the map invisible.
const MinOpacity = 0.1

type Color struct {
	Red     float64 `json:"red"`
	Green   float64 `json:"green"`
	Blue    float64 `json:"blue"`
	Opacity float64 `json:"opacity"`
}

type Settings struct {
	FillColor            Color     `json:"fillColor"`
	StrokeColor          Color     `json:"strokeColor"`
	BackgroundColor      Color     `json:"backgroundColor"`
	NotifyOnNewRegion    bool      `json:"notifyOnNewRegion"`
	NotifyOnlyFirstVisit bool      `json:"notifyOnlyFirstVisit"`
	SpeedThresholdMph    float64   `json:"speedThresholdMph"`
	AltitudeThresholdFt  float64   `json:"altitudeThresholdFt"`
	LastUpdated          time.Time `json:"lastUpdated"`
}

func DefaultSettings() Settings {
	return Settings{
		FillColor:           Color{Red: 0.20, Green: 0.52, Blue: 0.89, Opacity: 0.75},
		StrokeColor:         Color{Red: 1, Green: 1, Blue: 1, Opacity: 1},
		BackgroundColor:     Color{Red: 0.95, Green: 0.95, Blue: 0.95, Opacity: 1},
		NotifyOnNewRegion:   true,
		SpeedThresholdMph:   100,
		AltitudeThresholdFt: 15000,
	}
}
