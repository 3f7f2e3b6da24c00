package queue

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/mmcdole/cadence/internal/clock"
	"github.com/mmcdole/cadence/internal/domain"
)

const removeTimeout = 5 * time.Second

// Swipe tracks a horizontal drag on one row. Crossing the threshold arms
// a removal that commits after the grace delay; dragging back under the
// threshold first disarms it.
type Swipe struct {
	c      *Controller
	slotID string
	offset float64
	timer  clock.Timer
	done   bool
	err    error
}

// BeginSwipe starts a swipe on the row at index
func (c *Controller) BeginSwipe(index int) (*Swipe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.committed) {
		return nil, fmt.Errorf("%w: swipe index %d", domain.ErrIndexOutOfRange, index)
	}
	return &Swipe{c: c, slotID: c.committed[index].SlotID}, nil
}

// Drag updates the horizontal offset of the swipe
func (s *Swipe) Drag(offset float64) {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.done {
		return
	}
	s.offset = offset

	past := math.Abs(offset) >= c.config.SwipeThreshold
	switch {
	case past && s.timer == nil:
		c.logger.Debug("swipe armed", "slot", s.slotID, "offset", offset)
		s.timer = c.clock.AfterFunc(c.config.SwipeGrace, s.commit)
	case !past && s.timer != nil:
		c.logger.Debug("swipe reversed", "slot", s.slotID)
		s.timer.Stop()
		s.timer = nil
	}
}

// Release ends the drag. An armed swipe still commits when its grace
// delay runs out; an unarmed one is discarded.
func (s *Swipe) Release() {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.timer == nil {
		s.done = true
	}
}

// Cancel disarms the swipe without removing anything
func (s *Swipe) Cancel() {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()
	s.done = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Armed reports whether a removal is pending
func (s *Swipe) Armed() bool {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.timer != nil && !s.done
}

// SlotID identifies the swiped row
func (s *Swipe) SlotID() string {
	return s.slotID
}

// Offset returns the last drag offset
func (s *Swipe) Offset() float64 {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.offset
}

// Err returns the removal error, if the commit failed
func (s *Swipe) Err() error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.err
}

// commit removes the swiped row from wherever it sits in the committed
// basis now, which may differ from where the swipe started.
func (s *Swipe) commit() {
	c := s.c
	c.mu.Lock()
	if s.done || s.timer == nil {
		c.mu.Unlock()
		return
	}
	s.done = true
	s.timer = nil
	_, index, found := lo.FindIndexOf(c.committed, func(r domain.QueueRow) bool {
		return r.SlotID == s.slotID
	})
	if !found {
		c.mu.Unlock()
		c.logger.Debug("swiped row already gone", "slot", s.slotID)
		return
	}
	c.committed = append(c.committed[:index:index], c.committed[index+1:]...)
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), removeTimeout)
	defer cancel()

	c.logger.Debug("committing queue removal", "slot", s.slotID, "index", index)
	if err := c.committer.Remove(ctx, index); err != nil {
		c.logger.Error("queue removal failed", "index", index, "error", err)
		c.mu.Lock()
		s.err = err
		c.mu.Unlock()
	}
}
