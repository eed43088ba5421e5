package models

import "time"

// Sample is a single position fix delivered by the location source.
// Altitude and HorizontalAccuracy are in meters, Speed in meters per second.
// A Speed <= 0 means the source did not report one.
type Sample struct {
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	Altitude           float64   `json:"altitude"`
	Speed              float64   `json:"speed"`
	HorizontalAccuracy float64   `json:"horizontalAccuracy"`
	Timestamp          time.Time `json:"timestamp"`
}
