package service

import "time"

// Clock supplies the current time. Deadlines, overdue checks and send
// timestamps all go through it so tests can pin "now".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
