package clock

import "time"

// Clock supplies wall time and cancellable delayed tasks.
// Production code uses Real(); tests drive a *Fake by hand.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending delayed task. Stop reports whether it prevented the call.
type Timer interface {
	Stop() bool
}

type realClock struct{}

// Real returns the system clock.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Fixed returns a clock that always reads t. Timers still run on real time.
func Fixed(t time.Time) Clock {
	return fixedClock{at: t}
}

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time {
	return c.at
}

func (fixedClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
