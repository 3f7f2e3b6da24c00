package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManual_AfterFuncFiresAtDeadline(t *testing.T) {
	c := NewManual(epoch)
	fired := 0
	c.AfterFunc(time.Second, func() { fired++ })

	c.Advance(999 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("fired = %d before deadline, want 0", fired)
	}
	c.Advance(time.Millisecond)
	if fired != 1 {
		t.Fatalf("fired = %d at deadline, want 1", fired)
	}
	c.Advance(time.Hour)
	if fired != 1 {
		t.Errorf("fired = %d after deadline, want 1", fired)
	}
}

func TestManual_StopPreventsFire(t *testing.T) {
	c := NewManual(epoch)
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Error("Stop() = false for armed timer, want true")
	}
	if timer.Stop() {
		t.Error("second Stop() = true, want false")
	}
	c.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	c := NewManual(epoch)
	var order []int
	c.AfterFunc(3*time.Second, func() { order = append(order, 3) })
	c.AfterFunc(1*time.Second, func() { order = append(order, 1) })
	c.AfterFunc(2*time.Second, func() { order = append(order, 2) })

	c.Advance(5 * time.Second)

	want := []int{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestManual_NowDuringCallback(t *testing.T) {
	c := NewManual(epoch)
	var seen time.Time
	c.AfterFunc(time.Minute, func() { seen = c.Now() })

	c.Advance(time.Hour)

	if !seen.Equal(epoch.Add(time.Minute)) {
		t.Errorf("Now() in callback = %v, want %v", seen, epoch.Add(time.Minute))
	}
	if !c.Now().Equal(epoch.Add(time.Hour)) {
		t.Errorf("Now() after Advance = %v, want %v", c.Now(), epoch.Add(time.Hour))
	}
}

func TestManual_TickerDropsWhenFull(t *testing.T) {
	c := NewManual(epoch)
	tk := c.NewTicker(100 * time.Millisecond)
	defer tk.Stop()

	c.Advance(350 * time.Millisecond)

	select {
	case <-tk.C():
	default:
		t.Fatal("expected a buffered tick")
	}
	select {
	case <-tk.C():
		t.Fatal("ticker should drop ticks while the buffer is full")
	default:
	}
}

func TestManual_TickerStop(t *testing.T) {
	c := NewManual(epoch)
	tk := c.NewTicker(time.Second)
	tk.Stop()
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d after Stop, want 0", c.Pending())
	}
}
