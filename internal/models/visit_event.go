package models

import (
	"strconv"
	"time"
)

type VisitSource string

const (
	SourceGPS    VisitSource = "gps"
	SourceManual VisitSource = "manual"
)

// VisitEvent is an immutable log entry appended for every detected or manual visit.
type VisitEvent struct {
	Region    string      `json:"region"`
	Timestamp time.Time   `json:"timestamp"`
	Source    VisitSource `json:"source"`
}

// Key identifies an event for deduplication across devices.
func (e VisitEvent) Key() string {
	return e.Region + "|" + strconv.FormatInt(e.Timestamp.UnixNano(), 10) + "|" + string(e.Source)
}

type EventLog []VisitEvent

func (l EventLog) Clone() EventLog {
	if l == nil {
		return EventLog{}
	}
	out := make(EventLog, len(l))
	copy(out, l)
	return out
}
