// Package notify decides when a region entry is worth telling the user about
// and delivers the event to the configured sinks.
package notify

import (
	"sync"
	"time"
)

const DefaultDebounce = 30 * time.Second

type GateInterface interface {
	ShouldNotify(region string, now time.Time) bool
	Reset()
}

// Gate is a single gate for all regions. It suppresses a repeat of the last
// notified region and anything within the debounce window of the last
// notification; a zero debounce disables the window. State only changes when
// ShouldNotify returns true.
type Gate struct {
	mu         sync.Mutex
	debounce   time.Duration
	lastRegion string
	lastAt     time.Time
	notified   bool
}

func NewGate(debounce time.Duration) *Gate {
	return &Gate{debounce: max(debounce, 0)}
}

func (g *Gate) ShouldNotify(region string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.notified {
		if region == g.lastRegion {
			return false
		}
		if g.debounce > 0 && now.Sub(g.lastAt) < g.debounce {
			return false
		}
	}
	g.lastRegion = region
	g.lastAt = now
	g.notified = true
	return true
}

func (g *Gate) Reset() {
	g.mu.Lock()
	g.lastRegion = ""
	g.lastAt = time.Time{}
	g.notified = false
	g.mu.Unlock()
}
