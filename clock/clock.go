// Package clock abstracts time for the carousel engine.
//
// Every timer in the engine (frame yields, fallback completion timeouts,
// autoplay cadence) is scheduled through a Clock. Production code uses Real;
// tests use Manual, which advances virtual time and fires due callbacks
// synchronously on the caller's goroutine, in deadline order.
package clock

import "time"

// Clock schedules callbacks and reports the current time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// AfterFunc calls f once d has elapsed. A zero duration means "at the
	// next opportunity", which is how the engine yields to the next frame.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a handle to a pending callback.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call
	// stopped the timer, false if it already fired or was stopped.
	Stop() bool
}

// Real is a Clock backed by the time package.
type Real struct{}

// NewReal returns the wall clock.
func NewReal() Real {
	return Real{}
}

// Now implements Clock.
func (Real) Now() time.Time {
	return time.Now()
}

// AfterFunc implements Clock using time.AfterFunc; f runs on its own goroutine.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
