package model

import "time"

// Clock supplies timestamps for new records. Injected everywhere a
// timestamp is written so tests can pin time and keep outputs stable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time truncated to microseconds, the finest
// granularity the stores persist.
func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
