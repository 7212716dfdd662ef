package clock

import "time"

// DayLayout formats a calendar day. Battle records and daily limits key on it.
const DayLayout = "2006-01-02"

// Clock provides time operations that can be mocked for testing
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time in UTC, so calendar days roll over at UTC midnight
func (c *RealClock) Now() time.Time {
	return time.Now().UTC()
}

// Day returns the UTC calendar day of t
func Day(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// Today returns the current UTC calendar day according to c
func Today(c Clock) string {
	return Day(c.Now())
}

// NextMidnight returns the start of the UTC day after the current one
func NextMidnight(c Clock) time.Time {
	y, m, d := c.Now().UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
