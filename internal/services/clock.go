package services

import "time"

// Clock returns the current time. Services truncate it to milliseconds and
// UTC so stored timestamps match what the Cosmos and Mongo stores keep.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC().Truncate(time.Millisecond)
	}
	return c().UTC().Truncate(time.Millisecond)
}
