package queue

import (
	"testing"
	"time"
)

func TestSwipe_RemovesAfterGrace(t *testing.T) {
	for _, offset := range []float64{12, -12} {
		c, committer, clk := newTestController("a", "b", "c")

		s, _ := c.BeginSwipe(1)
		s.Drag(offset / 2)
		if s.Armed() {
			t.Fatal("armed below threshold")
		}
		s.Drag(offset)
		if !s.Armed() {
			t.Fatalf("offset %v did not arm", offset)
		}
		s.Release()

		clk.Advance(999 * time.Millisecond)
		if len(committer.removes) != 0 {
			t.Fatal("removed before grace delay")
		}

		clk.Advance(time.Millisecond)
		if len(committer.removes) != 1 || committer.removes[0] != 1 {
			t.Fatalf("removes = %v, want [1]", committer.removes)
		}
		if got := ids(c.Visible()); got != "ac" {
			t.Errorf("visible = %s, want ac", got)
		}
	}
}

func TestSwipe_ReversalCancelsRemoval(t *testing.T) {
	c, committer, clk := newTestController("a", "b", "c")

	s, _ := c.BeginSwipe(0)
	s.Drag(15)
	clk.Advance(500 * time.Millisecond)
	s.Drag(3)
	s.Release()

	clk.Advance(time.Minute)

	if len(committer.removes) != 0 {
		t.Errorf("removes = %v, want none", committer.removes)
	}
	if s.Armed() {
		t.Error("reversed swipe still armed")
	}
}

func TestSwipe_RearmRestartsGrace(t *testing.T) {
	c, committer, clk := newTestController("a", "b")

	s, _ := c.BeginSwipe(0)
	s.Drag(20)
	clk.Advance(800 * time.Millisecond)
	s.Drag(0)
	s.Drag(-20)
	clk.Advance(800 * time.Millisecond)
	if len(committer.removes) != 0 {
		t.Fatal("re-armed swipe kept the old deadline")
	}

	clk.Advance(200 * time.Millisecond)
	if len(committer.removes) != 1 {
		t.Errorf("removes = %v, want one", committer.removes)
	}
}

func TestSwipe_CancelDisarms(t *testing.T) {
	c, committer, clk := newTestController("a", "b")

	s, _ := c.BeginSwipe(0)
	s.Drag(20)
	s.Cancel()
	clk.Advance(time.Minute)

	if len(committer.removes) != 0 {
		t.Errorf("removes = %v, want none", committer.removes)
	}
	if clk.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", clk.Pending())
	}
}

func TestSwipe_FollowsRowAfterReorder(t *testing.T) {
	c, committer, clk := newTestController("a", "b", "c")

	s, _ := c.BeginSwipe(2)
	s.Drag(20)

	// the swiped row moved while the removal was pending
	c.Sync(rows("c", "a", "b"))
	clk.Advance(time.Second)

	if len(committer.removes) != 1 || committer.removes[0] != 0 {
		t.Errorf("removes = %v, want [0]", committer.removes)
	}
}

func TestSwipe_RowAlreadyGone(t *testing.T) {
	c, committer, clk := newTestController("a", "b")

	s, _ := c.BeginSwipe(1)
	s.Drag(20)
	c.Sync(rows("a"))
	clk.Advance(time.Second)

	if len(committer.removes) != 0 {
		t.Errorf("removes = %v, want none", committer.removes)
	}
}

func TestSwipe_FailedRemovalReportsError(t *testing.T) {
	c, committer, clk := newTestController("a", "b")
	committer.err = errTest

	s, _ := c.BeginSwipe(0)
	s.Drag(20)
	clk.Advance(time.Second)

	if s.Err() != errTest {
		t.Errorf("Err() = %v, want %v", s.Err(), errTest)
	}
}
