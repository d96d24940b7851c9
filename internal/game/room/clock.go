package room

import "time"

// Clock supplies the current time to a Room so round timing can be
// controlled in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by the system time.
func SystemClock() Clock { return systemClock{} }
