package service

import "time"

// Clock supplies the current time to lifecycle operations.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC, truncated to seconds.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
