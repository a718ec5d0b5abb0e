package realtime

import "time"

// Scheduler runs fn once after d. The returned cancel stops the pending call and
// reports whether it was stopped before firing.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func() bool)
}

// TimerScheduler schedules with time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, fn)
	return t.Stop
}
