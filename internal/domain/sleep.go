package domain

import "time"

// SleepTimerState describes the active sleep timer, if any
type SleepTimerState struct {
	Active             bool
	Deadline           time.Time // when the countdown elapses
	FinishCurrentTrack bool
	// Pending is true once the countdown elapsed and the timer waits for
	// the next track boundary
	Pending bool
}

// Remaining returns the time left until Deadline, never negative
func (s SleepTimerState) Remaining(now time.Time) time.Duration {
	if !s.Active || s.Pending {
		return 0
	}
	if d := s.Deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}
