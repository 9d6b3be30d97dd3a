package reconciler

import (
	"sync"
	"time"
)

// Gate serializes device-driving passes and rate-limits full updates. The
// physical device is a serialized stateful resource: the scheduler and every
// externally triggered request must pass through the same gate, and a
// request arriving while a pass is in flight is rejected, not queued.
type Gate struct {
	mu            sync.Mutex
	lastRequestAt time.Time
	inFlight      bool

	now func() time.Time
}

// NewGate creates a gate with no prior request on record.
func NewGate() *Gate {
	return &Gate{now: time.Now}
}

// TryAcquire grants a new pass iff none is in flight and the cooldown since
// the last grant has elapsed. The grant decision and the timestamp update
// are one atomic step: two concurrent callers can never both observe a
// grant. Denial is the expected steady-state answer inside the window.
func (g *Gate) TryAcquire(cooldown time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inFlight {
		return false
	}
	if now := g.now(); now.Sub(g.lastRequestAt) >= cooldown {
		g.lastRequestAt = now
		g.inFlight = true
		return true
	}
	return false
}

// Release marks the in-flight pass finished. The cooldown keeps counting
// from the grant, not from the release.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight = false
}

// InFlight reports whether a pass is currently running.
func (g *Gate) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}
