// Package clock abstracts time so timers and tickers can be driven by
// tests.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock defines the time operations the playback core depends on.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
	NewTicker(d time.Duration) Ticker
}

// Timer is a one-shot timer created by AfterFunc.
type Timer interface {
	// Stop prevents the timer from firing. It returns false if the timer
	// already fired or was stopped.
	Stop() bool
}

// Ticker delivers ticks on C at a fixed interval.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Real implements Clock using the system time.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (Real) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// Manual is a Clock that only moves when Advance is called.
// Timers fire synchronously inside Advance, in deadline order.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

// NewManual returns a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

type manualTimer struct {
	clock    *Manual
	seq      int
	deadline time.Time
	period   time.Duration // > 0 for tickers
	fn       func()
	ch       chan time.Time
	stopped  bool
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{clock: m, deadline: m.now.Add(d), fn: f}
	m.add(t)
	return t
}

func (m *Manual) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker interval")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{clock: m, deadline: m.now.Add(d), period: d, ch: make(chan time.Time, 1)}
	m.add(t)
	return manualTicker{t}
}

// Pending returns the number of armed timers and tickers.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Advance moves the clock forward by d, firing every timer whose deadline
// falls inside the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	for {
		if len(m.timers) == 0 || m.timers[0].deadline.After(target) {
			break
		}
		t := m.timers[0]
		m.timers = m.timers[1:]
		m.now = t.deadline

		if t.period > 0 {
			select {
			case t.ch <- m.now:
			default:
			}
			t.deadline = t.deadline.Add(t.period)
			m.add(t)
			continue
		}

		t.stopped = true
		m.mu.Unlock()
		t.fn()
		m.mu.Lock()
	}
	if target.After(m.now) {
		m.now = target
	}
	m.mu.Unlock()
}

// add inserts t keeping timers sorted by deadline, then creation order.
// Must be called with mu held.
func (m *Manual) add(t *manualTimer) {
	m.seq++
	t.seq = m.seq
	m.timers = append(m.timers, t)
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].deadline.Equal(m.timers[j].deadline) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].deadline.Before(m.timers[j].deadline)
	})
}

func (m *Manual) remove(t *manualTimer) bool {
	for i, other := range m.timers {
		if other == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return true
		}
	}
	return false
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return t.clock.remove(t)
}

type manualTicker struct {
	t *manualTimer
}

func (k manualTicker) C() <-chan time.Time { return k.t.ch }
func (k manualTicker) Stop()               { k.t.Stop() }
