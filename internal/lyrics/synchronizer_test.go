package lyrics

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/cadence/internal/clock"
	"github.com/mmcdole/cadence/internal/domain"
)

var exampleDoc = []domain.LyricSegment{seg(0, "a"), seg(1000, "b"), seg(5000, "c")}

// position is a playback clock the test moves by hand
type position struct {
	ms atomic.Int64
}

func (p *position) Set(ms int64)       { p.ms.Store(ms) }
func (p *position) Get() time.Duration { return time.Duration(p.ms.Load()) * time.Millisecond }

func expectChange(t *testing.T, ch <-chan Change, want Change) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("change = %+v, want %+v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no change received, want %+v", want)
	}
}

func expectNoChange(t *testing.T, ch <-chan Change) {
	t.Helper()
	select {
	case got := <-ch:
		t.Fatalf("unexpected change %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSynchronizer_TickReportsOnlyTransitions(t *testing.T) {
	var pos position
	changes := make(chan Change, 8)
	s := NewSynchronizer(pos.Get, func(c Change) { changes <- c }, DefaultInterval, clock.NewManual(time.Time{}), nil)
	defer s.Stop()

	s.Load("doc", exampleDoc)
	expectChange(t, changes, Change{Key: "doc", Index: 0})

	pos.Set(1200)
	idx, changed := s.Tick()
	if idx != 1 || !changed {
		t.Fatalf("Tick() = %d, %v; want 1, true", idx, changed)
	}
	expectChange(t, changes, Change{Key: "doc", Index: 1})

	pos.Set(3200)
	idx, changed = s.Tick()
	if idx != 1 || changed {
		t.Fatalf("Tick() = %d, %v; want 1, false", idx, changed)
	}
	expectNoChange(t, changes)
}

func TestSynchronizer_PollingFollowsSeek(t *testing.T) {
	var pos position
	clk := clock.NewManual(time.Time{})
	changes := make(chan Change, 8)
	s := NewSynchronizer(pos.Get, func(c Change) { changes <- c }, DefaultInterval, clk, nil)
	defer s.Stop()

	pos.Set(3200)
	s.Load("song-1", exampleDoc)
	expectChange(t, changes, Change{Key: "song-1", Index: 1})

	// seek back to the start: visible within one interval
	pos.Set(0)
	clk.Advance(DefaultInterval)
	expectChange(t, changes, Change{Key: "song-1", Index: 0})

	// position unchanged: no redundant notifications
	clk.Advance(DefaultInterval)
	clk.Advance(DefaultInterval)
	expectNoChange(t, changes)

	pos.Set(5100)
	clk.Advance(DefaultInterval)
	expectChange(t, changes, Change{Key: "song-1", Index: 2})
}

func TestSynchronizer_LoadSupersedesPreviousDocument(t *testing.T) {
	var pos position
	clk := clock.NewManual(time.Time{})
	changes := make(chan Change, 8)
	s := NewSynchronizer(pos.Get, func(c Change) { changes <- c }, DefaultInterval, clk, nil)
	defer s.Stop()

	pos.Set(1500)
	s.Load("old", exampleDoc)
	expectChange(t, changes, Change{Key: "old", Index: 1})

	s.Load("new", []domain.LyricSegment{seg(0, "x"), seg(1000, "y")})
	expectChange(t, changes, Change{Key: "new", Index: 1})

	deadline := time.Now().Add(2 * time.Second)
	for clk.Pending() != 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if n := clk.Pending(); n != 1 {
		t.Fatalf("Pending() = %d, want 1 (old loop exited)", n)
	}

	pos.Set(0)
	clk.Advance(DefaultInterval)
	expectChange(t, changes, Change{Key: "new", Index: 0})

	key, idx := s.Current()
	if key != "new" || idx != 0 {
		t.Errorf("Current() = %q, %d; want new, 0", key, idx)
	}
}

func TestSynchronizer_StopEndsLoop(t *testing.T) {
	var pos position
	clk := clock.NewManual(time.Time{})
	changes := make(chan Change, 8)
	s := NewSynchronizer(pos.Get, func(c Change) { changes <- c }, DefaultInterval, clk, nil)

	s.Load("doc", exampleDoc)
	expectChange(t, changes, Change{Key: "doc", Index: 0})

	s.Stop()
	deadline := time.Now().Add(2 * time.Second)
	for clk.Pending() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if n := clk.Pending(); n != 0 {
		t.Fatalf("Pending() = %d after Stop, want 0", n)
	}

	pos.Set(6000)
	clk.Advance(DefaultInterval)
	expectNoChange(t, changes)
}

func TestSynchronizer_EmptyDocumentDoesNotPoll(t *testing.T) {
	clk := clock.NewManual(time.Time{})
	s := NewSynchronizer(func() time.Duration { return 0 }, nil, 0, clk, nil)

	s.Load("empty", nil)

	if n := clk.Pending(); n != 0 {
		t.Errorf("Pending() = %d, want 0", n)
	}
	if _, idx := s.Current(); idx != -1 {
		t.Errorf("Current() index = %d, want -1", idx)
	}
}

func TestSynchronizer_SortsUnorderedDocument(t *testing.T) {
	var pos position
	changes := make(chan Change, 8)
	s := NewSynchronizer(pos.Get, func(c Change) { changes <- c }, DefaultInterval, clock.NewManual(time.Time{}), nil)
	defer s.Stop()

	pos.Set(5500)
	s.Load("doc", []domain.LyricSegment{seg(5000, "c"), seg(0, "a"), seg(1000, "b")})
	expectChange(t, changes, Change{Key: "doc", Index: 2})
}
