// Package clock provides an injectable time source so components that
// stamp or compare timestamps can be tested deterministically.
package clock

import "time"

// Clock is the time source used by the store and services.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// System is a Clock backed by the wall clock.
type System struct{}

// Now returns the current wall-clock time.
func (System) Now() time.Time {
	return time.Now()
}

// Fake is a Clock fixed at a settable instant, for tests.
type Fake struct {
	Current time.Time
}

// NewFake returns a Fake clock starting at t.
func NewFake(t time.Time) *Fake {
	return &Fake{Current: t}
}

// Now returns the fake instant.
func (f *Fake) Now() time.Time {
	return f.Current
}

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.Current = f.Current.Add(d)
}

// Millis returns t as unix milliseconds, the timestamp unit persisted
// by the store.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
