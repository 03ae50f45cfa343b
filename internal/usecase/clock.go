package usecase

import "time"

// Clock abstracts time.Now so the scheduler and lifecycle rules can be tested
// at exact instants. A nil Clock means wall-clock time.
type Clock func() time.Time

func orWallClock(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}
