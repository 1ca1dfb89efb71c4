package forms

import "time"

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so reset delays can be driven in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock is the wall clock.
func SystemClock() Clock { return systemClock{} }
