package syncer

import (
	"sync"
	"time"
)

// ActivityTracker remembers when the user last interacted with the session
type ActivityTracker struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewActivityTracker creates a tracker; the creation time counts as activity
func NewActivityTracker(now func() time.Time) *ActivityTracker {
	if now == nil {
		now = time.Now
	}
	return &ActivityTracker{last: now(), now: now}
}

// Touch records a user interaction
func (a *ActivityTracker) Touch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = a.now()
}

// LastActivity returns the time of the last interaction
func (a *ActivityTracker) LastActivity() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// IdleFor returns how long the user has been idle
func (a *ActivityTracker) IdleFor() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.now().Sub(a.last)
}
