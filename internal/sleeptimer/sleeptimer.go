// Package sleeptimer pauses playback after a delay, optionally waiting
// for the current track to finish.
package sleeptimer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/cadence/internal/clock"
	"github.com/mmcdole/cadence/internal/domain"
)

// Player is the subset of the playback orchestrator the timer drives
type Player interface {
	Pause()
	AwaitTransition(fn func(domain.MediaItemTransition)) func()
}

// Timer is a one-shot sleep timer. At most one countdown is active:
// Schedule replaces whatever was armed before.
type Timer struct {
	player Player
	clock  clock.Clock
	logger *slog.Logger

	mu       sync.Mutex
	gen      uint64 // bumped by Schedule and Cancel; stale callbacks compare against it
	state    domain.SleepTimerState
	timer    clock.Timer
	unlisten func()
	onFire   func()
	onChange func(domain.SleepTimerState)
}

// New creates an idle sleep timer. A nil clock uses the system clock.
func New(player Player, clk clock.Clock, logger *slog.Logger) *Timer {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Timer{player: player, clock: clk, logger: logger}
}

// OnFire sets a hook called once each time the timer pauses playback
func (t *Timer) OnFire(fn func()) {
	t.mu.Lock()
	t.onFire = fn
	t.mu.Unlock()
}

// OnChange sets a hook called with the new state after every change
func (t *Timer) OnChange(fn func(domain.SleepTimerState)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// State returns the current timer state
func (t *Timer) State() domain.SleepTimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Schedule arms the timer for minutes from now, cancelling any previous
// one. With finishCurrentTrack set, playback pauses at the first track
// boundary after the countdown instead of mid-track.
func (t *Timer) Schedule(minutes int, finishCurrentTrack bool) error {
	if minutes <= 0 {
		return fmt.Errorf("%w: %d minutes", domain.ErrInvalidDuration, minutes)
	}
	d := time.Duration(minutes) * time.Minute

	t.mu.Lock()
	t.disarmLocked()
	gen := t.gen
	t.state = domain.SleepTimerState{
		Active:             true,
		Deadline:           t.clock.Now().Add(d),
		FinishCurrentTrack: finishCurrentTrack,
	}
	t.timer = t.clock.AfterFunc(d, func() { t.elapsed(gen) })
	state, notify := t.state, t.onChange
	t.mu.Unlock()

	t.logger.Info("sleep timer scheduled", "minutes", minutes, "finish_current_track", finishCurrentTrack)
	if notify != nil {
		notify(state)
	}
	return nil
}

// Cancel tears down the active countdown or boundary listener. Cancelling
// an idle timer is a no-op.
func (t *Timer) Cancel() {
	t.mu.Lock()
	if !t.state.Active {
		t.mu.Unlock()
		return
	}
	t.disarmLocked()
	t.state = domain.SleepTimerState{}
	notify := t.onChange
	t.mu.Unlock()

	t.logger.Info("sleep timer cancelled")
	if notify != nil {
		notify(domain.SleepTimerState{})
	}
}

// disarmLocked stops the countdown and boundary listener. Must be called
// with mu held.
func (t *Timer) disarmLocked() {
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.unlisten != nil {
		t.unlisten()
		t.unlisten = nil
	}
}

func (t *Timer) elapsed(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	if !t.state.FinishCurrentTrack {
		t.mu.Unlock()
		t.fire(gen)
		return
	}
	t.state.Pending = true
	state, notify := t.state, t.onChange
	t.mu.Unlock()

	t.logger.Debug("sleep timer waiting for track boundary")
	if notify != nil {
		notify(state)
	}

	t.awaitBoundary(gen)
}

// awaitBoundary listens for the next natural track boundary: the current
// track finishing, a repeat-one restart or the end of the queue. A skip or
// a replaced queue means the user is still listening, so the listener is
// armed again.
func (t *Timer) awaitBoundary(gen uint64) {
	unlisten := t.player.AwaitTransition(func(ev domain.MediaItemTransition) {
		switch ev.Reason {
		case domain.TransitionSeek, domain.TransitionPlaylist:
			t.logger.Debug("sleep timer ignoring user transition", "reason", ev.Reason.String())
			t.awaitBoundary(gen)
		default:
			t.fire(gen)
		}
	})

	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		unlisten()
		return
	}
	t.unlisten = unlisten
	t.mu.Unlock()
}

// fire pauses playback once for gen, then returns the timer to idle
func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.gen++
	t.unlisten = nil
	t.state = domain.SleepTimerState{}
	onFire, notify := t.onFire, t.onChange
	t.mu.Unlock()

	t.logger.Info("sleep timer fired, pausing playback")
	t.player.Pause()
	if onFire != nil {
		onFire()
	}
	if notify != nil {
		notify(domain.SleepTimerState{})
	}
}
