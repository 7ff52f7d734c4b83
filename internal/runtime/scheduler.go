package runtime

import "time"

// CancelFunc cancels a scheduled callback. It reports whether cancellation
// happened before the callback started.
type CancelFunc func() bool

// Scheduler defers callbacks. The production implementation wraps
// time.AfterFunc; tests substitute a deterministic queue.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) CancelFunc
}

// TimerScheduler schedules callbacks on real timers.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return t.Stop
}
