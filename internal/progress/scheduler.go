package progress

import "time"

// Handle is a pending scheduled call.
type Handle interface {
	// Cancel stops the call if it has not started. It reports whether the
	// call was stopped.
	Cancel() bool
}

// Scheduler runs fn once after delay.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Handle
}

// TimerScheduler schedules on the runtime timer.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(delay time.Duration, fn func()) Handle {
	return timerHandle{t: time.AfterFunc(delay, fn)}
}

type timerHandle struct {
	t *time.Timer
}

func (h timerHandle) Cancel() bool {
	return h.t.Stop()
}
