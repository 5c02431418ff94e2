package core

import (
	"time"
)

// Clock supplies the current time and one-shot timers. The engine never
// calls time.Now or time.AfterFunc directly so tests can drive time by hand.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending one-shot callback.
type Timer interface {
	// Stop cancels the callback. Returns false if it already fired
	// or was already stopped.
	Stop() bool
}

// SystemClock is the real wall clock.
var SystemClock Clock = sysClock{}

type sysClock struct{}

func (sysClock) Now() time.Time {
	return time.Now()
}

func (sysClock) AfterFunc(d time.Duration, f func()) Timer {
	return sysTimer{t: time.AfterFunc(d, f)}
}

type sysTimer struct {
	t *time.Timer
}

func (s sysTimer) Stop() bool {
	return s.t.Stop()
}
