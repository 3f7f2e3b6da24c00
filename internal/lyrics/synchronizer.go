package lyrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/cadence/internal/clock"
	"github.com/mmcdole/cadence/internal/domain"
)

// DefaultInterval is how often the synchronizer re-reads the playback clock
const DefaultInterval = 200 * time.Millisecond

// Change reports a new active segment. Key identifies the document the
// index belongs to; consumers drop changes for a document they no longer
// show.
type Change struct {
	Key   string
	Index int
}

// Synchronizer maps the playback clock onto the active lyric segment. It
// polls position every interval and calls onChange only when the index
// differs from the last one reported. Position is never estimated
// locally, so a seek shows up within one interval.
type Synchronizer struct {
	position func() time.Duration
	onChange func(Change)
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger

	mu       sync.Mutex
	key      string
	segments []domain.LyricSegment
	last     int
	gen      uint64 // bumped whenever the document changes
	cancel   context.CancelFunc
}

// NewSynchronizer creates an idle synchronizer. A zero interval uses
// DefaultInterval; a nil clock uses the system clock.
func NewSynchronizer(position func() time.Duration, onChange func(Change), interval time.Duration, clk clock.Clock, logger *slog.Logger) *Synchronizer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		position: position,
		onChange: onChange,
		interval: interval,
		clock:    clk,
		logger:   logger,
		last:     -1,
	}
}

// Load replaces the document and restarts polling. The previous loop
// sees the new generation on its next iteration and exits.
func (s *Synchronizer) Load(key string, segments []domain.LyricSegment) {
	s.mu.Lock()
	s.stopLocked()
	s.key = key
	s.segments = Sorted(segments)
	s.last = -1
	gen := s.gen

	if len(s.segments) == 0 {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Debug("lyrics sync started", "key", key, "segments", len(segments), "interval", s.interval)
	go s.run(ctx, gen)
}

// Stop ends polling and forgets the document
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.key = ""
	s.segments = nil
	s.last = -1
}

// Current returns the document key and the last reported index
func (s *Synchronizer) Current() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key, s.last
}

// Tick evaluates the current position once. It returns the active index
// and whether it changed (in which case onChange was called).
func (s *Synchronizer) Tick() (int, bool) {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	idx, changed, _ := s.tick(gen)
	return idx, changed
}

func (s *Synchronizer) stopLocked() {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Synchronizer) run(ctx context.Context, gen uint64) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	if _, _, ok := s.tick(gen); !ok {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if _, _, ok := s.tick(gen); !ok {
				return
			}
		}
	}
}

// tick returns ok=false once gen is no longer the current document
func (s *Synchronizer) tick(gen uint64) (int, bool, bool) {
	pos := s.position()

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return -1, false, false
	}
	idx := ActiveIndex(s.segments, pos)
	if idx == s.last {
		s.mu.Unlock()
		return idx, false, true
	}
	s.last = idx
	key := s.key
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(Change{Key: key, Index: idx})
	}
	return idx, true, true
}
