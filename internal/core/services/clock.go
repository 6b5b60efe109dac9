package services

import (
	"time"

	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

type systemClock struct{}

// SystemClock reads wall-clock time in UTC.
func SystemClock() ports.Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type timerScheduler struct{}

// TimerScheduler defers work with time.AfterFunc.
func TimerScheduler() ports.Scheduler {
	return timerScheduler{}
}

func (timerScheduler) AfterFunc(d time.Duration, f func()) ports.Timer {
	return time.AfterFunc(d, f)
}
