package types

import "time"

// Clock supplies the current instant
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystemClock returns the wall clock
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}
