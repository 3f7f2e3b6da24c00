// Package queue turns drag and swipe gestures on the visible queue into
// single committed queue mutations.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/mmcdole/cadence/internal/clock"
	"github.com/mmcdole/cadence/internal/domain"
)

// Committer persists queue mutations. The playback orchestrator
// satisfies it, keeping the engine in step with the store.
type Committer interface {
	Move(ctx context.Context, from, to int) error
	Remove(ctx context.Context, index int) error
}

// Config tunes gesture handling
type Config struct {
	// SwipeThreshold is the horizontal distance, in either direction,
	// past which a swipe arms a removal
	SwipeThreshold float64
	// SwipeGrace is how long an armed swipe waits before removing
	SwipeGrace time.Duration
}

// DefaultConfig returns the default gesture settings
func DefaultConfig() Config {
	return Config{
		SwipeThreshold: 8,
		SwipeGrace:     1500 * time.Millisecond,
	}
}

// Controller holds the last committed queue order and at most one drag
// gesture in flight. The committed basis comes from the store via Sync
// and is authoritative; optimistic gesture state never reaches storage
// except through one commit.
type Controller struct {
	committer Committer
	config    Config
	clock     clock.Clock
	logger    *slog.Logger

	mu        sync.Mutex
	committed []domain.QueueRow
	active    *Gesture
}

// NewController creates a controller with an empty basis
func NewController(committer Committer, cfg Config, clk clock.Clock, logger *slog.Logger) *Controller {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SwipeThreshold <= 0 {
		cfg.SwipeThreshold = DefaultConfig().SwipeThreshold
	}
	if cfg.SwipeGrace <= 0 {
		cfg.SwipeGrace = DefaultConfig().SwipeGrace
	}
	return &Controller{
		committer: committer,
		config:    cfg,
		clock:     clk,
		logger:    logger,
	}
}

// Sync replaces the committed basis with rows observed from the store.
// A drag in flight is carried over onto the new basis by its row's slot.
func (c *Controller) Sync(rows []domain.QueueRow) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.committed = append([]domain.QueueRow(nil), rows...)
	if g := c.active; g != nil {
		g.rebase(c.committed)
	}
}

// Visible returns the order to render: the active gesture's optimistic
// order if one is in flight, the committed order otherwise.
func (c *Controller) Visible() []domain.QueueRow {
	c.mu.Lock()
	defer c.mu.Unlock()
	src := c.committed
	if c.active != nil {
		src = c.active.visible
	}
	return append([]domain.QueueRow(nil), src...)
}

// Dragging reports whether a drag gesture is in flight
func (c *Controller) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Begin starts a drag gesture from origin. A gesture already in flight
// is cancelled.
func (c *Controller) Begin(origin int) (*Gesture, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if origin < 0 || origin >= len(c.committed) {
		return nil, fmt.Errorf("%w: drag origin %d", domain.ErrIndexOutOfRange, origin)
	}
	if c.active != nil {
		c.active.done = true
		c.logger.Debug("drag superseded", "origin", c.active.origin)
	}

	g := &Gesture{
		c:       c,
		slotID:  c.committed[origin].SlotID,
		origin:  origin,
		target:  origin,
		visible: append([]domain.QueueRow(nil), c.committed...),
	}
	c.active = g
	return g, nil
}

// Gesture is the transient state of one drag: where it started and where
// the row is hovering now.
type Gesture struct {
	c       *Controller
	slotID  string
	origin  int
	target  int
	visible []domain.QueueRow
	done    bool
}

// Origin returns the committed index of the dragged row
func (g *Gesture) Origin() int {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	return g.origin
}

// rebase moves the gesture onto a new committed basis: the origin follows
// the dragged row and the target is clamped. If the row is gone the
// gesture ends. Called with c.mu held.
func (g *Gesture) rebase(basis []domain.QueueRow) {
	_, origin, found := lo.FindIndexOf(basis, func(r domain.QueueRow) bool {
		return r.SlotID == g.slotID
	})
	if !found {
		g.done = true
		g.c.active = nil
		g.c.logger.Debug("dragged row left the queue", "slot", g.slotID)
		return
	}
	g.origin = origin
	g.target = min(g.target, len(basis)-1)
	g.visible = domain.MoveItem(append([]domain.QueueRow(nil), basis...), origin, g.target)
}

// Target returns the latest hover position
func (g *Gesture) Target() int {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	return g.target
}

// Hover moves the dragged row to position to in the visible order.
// Positions past either end are clamped. Nothing is persisted.
func (g *Gesture) Hover(to int) {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	if g.done || len(g.visible) == 0 {
		return
	}
	if to < 0 {
		to = 0
	}
	if to >= len(g.visible) {
		to = len(g.visible) - 1
	}
	g.visible = domain.MoveItem(g.visible, g.target, to)
	g.target = to
}

// End commits the gesture as a single move from origin to the last hover
// target. A drag that ends where it started writes nothing.
func (g *Gesture) End(ctx context.Context) error {
	c := g.c
	c.mu.Lock()
	if g.done {
		c.mu.Unlock()
		return domain.ErrGestureFinished
	}
	g.done = true
	if c.active == g {
		c.active = nil
	}
	from, to := g.origin, g.target
	if from == to {
		c.mu.Unlock()
		return nil
	}
	// later gestures start from the post-move order
	c.committed = domain.MoveItem(c.committed, from, to)
	c.mu.Unlock()

	c.logger.Debug("committing queue move", "from", from, "to", to)
	if err := c.committer.Move(ctx, from, to); err != nil {
		c.mu.Lock()
		c.committed = domain.MoveItem(c.committed, to, from)
		c.mu.Unlock()
		c.logger.Error("queue move failed", "from", from, "to", to, "error", err)
		return fmt.Errorf("move %d -> %d: %w", from, to, err)
	}
	return nil
}

// Cancel discards the gesture; the visible order falls back to the
// committed one.
func (g *Gesture) Cancel() {
	c := g.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if g.done {
		return
	}
	g.done = true
	if c.active == g {
		c.active = nil
	}
}
