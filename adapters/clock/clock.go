// Package clock abstracts the time source behind stored-row timestamps.
package clock

import (
	"sync"
	"time"
)

// Real reads the system clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Fake is a manually positioned clock for tests: it only moves when Set
// is called, so stored timestamps are reproducible.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a fake clock positioned at t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set repositions the clock.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}
