package game

import "time"

// Clock abstracts time so the round loop can be driven by a fake in
// tests instead of nested timer callbacks.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// NewRealClock returns the wall clock.
func NewRealClock() Clock {
	return realClock{}
}
