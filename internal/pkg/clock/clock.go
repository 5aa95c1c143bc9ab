package clock

import "time"

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// TimeClocker is the production clock implementation backed by time.Now.
type TimeClocker struct {
	loc *time.Location
}

// New returns a TimeClocker reading the system time in loc. A nil loc keeps
// the process local zone.
func New(loc *time.Location) *TimeClocker {
	return &TimeClocker{loc: loc}
}

// Now returns the current system time.
func (c *TimeClocker) Now() time.Time {
	if c.loc == nil {
		return time.Now()
	}
	return time.Now().In(c.loc)
}

// Fixed always reports the same instant.
type Fixed time.Time

// Now returns the fixed instant.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}
