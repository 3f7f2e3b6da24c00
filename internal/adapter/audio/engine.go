// Package audio is a local-file playback engine built on beep.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/mmcdole/cadence/internal/domain"
)

const (
	// SampleRate is the output rate; tracks at other rates are resampled
	SampleRate = beep.SampleRate(44100)

	resampleQuality = 4

	// restartThreshold is how far into a track SkipToPrevious restarts it
	// instead of going back
	restartThreshold = 3 * time.Second
)

// Opener decodes the audio behind a track URI
type Opener func(uri string) (beep.StreamSeekCloser, beep.Format, error)

// OpenFile decodes local file URIs
func OpenFile(uri string) (beep.StreamSeekCloser, beep.Format, error) {
	return Open(domain.PathFromURI(uri))
}

type loadedTrack struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
}

// Engine plays a media set of local tracks. Events are queued internally
// and forwarded in emission order by a pump goroutine, so no method ever
// blocks on the consumer.
type Engine struct {
	sink   sink
	open   Opener
	logger *slog.Logger
	rng    *rand.Rand

	mu            sync.Mutex
	events        chan<- domain.EngineEvent
	items         []domain.Track
	order         []int // play sequence of item indexes
	current       int
	startPos      time.Duration
	prepared      bool
	state         domain.EngineState
	playWhenReady bool
	shuffle       bool
	repeat        domain.RepeatMode
	loaded        *loadedTrack
	gen           uint64 // identifies the playing stream for end-of-stream callbacks
	connected     bool
	closed        bool

	pending []domain.EngineEvent
	wake    chan struct{}
	done    chan struct{}
}

// New creates an engine that plays local files through the default
// audio output.
func New(logger *slog.Logger) *Engine {
	return newEngine(newDefaultSink(), OpenFile, logger)
}

func newEngine(out sink, open Opener, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		sink:    out,
		open:    open,
		logger:  logger,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		current: domain.NoIndex,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

var _ domain.Engine = (*Engine)(nil)

// Connect initializes audio output and starts delivering events
func (e *Engine) Connect(ctx context.Context, events chan<- domain.EngineEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrClosed
	}
	if e.connected {
		return nil
	}
	if err := e.sink.Init(SampleRate); err != nil {
		return fmt.Errorf("init audio output: %w", err)
	}
	e.events = events
	e.connected = true
	go e.pump()

	e.logger.Info("audio engine connected", "sample_rate", int(SampleRate), "output", Available)
	return nil
}

// SetMediaSet replaces the media set. The new current item is loaded on
// the next Prepare.
func (e *Engine) SetMediaSet(items []domain.Track, startIndex int, startPosition time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(items) > 0 && (startIndex < 0 || startIndex >= len(items)) {
		return fmt.Errorf("%w: start index %d of %d", domain.ErrIndexOutOfRange, startIndex, len(items))
	}

	e.unloadLocked()
	e.prepared = false
	e.items = slices.Clone(items)
	e.startPos = startPosition
	e.emitLocked(domain.TimelineChanged{Count: len(e.items)})

	if len(e.items) == 0 {
		e.current = domain.NoIndex
		e.order = nil
		e.emitLocked(domain.MediaItemTransition{Index: domain.NoIndex, Reason: domain.TransitionPlaylist})
	} else {
		e.current = startIndex
		e.rebuildOrderLocked()
		e.emitTransitionLocked(domain.TransitionPlaylist)
	}
	e.setStateLocked(domain.EngineIdle)
	return nil
}

// Prepare loads the current item
func (e *Engine) Prepare() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == domain.NoIndex {
		return domain.ErrEmptyQueue
	}
	e.prepared = true
	if e.loaded != nil {
		return nil
	}
	return e.loadCurrentLocked(e.startPos)
}

// Play sets the play intent
func (e *Engine) Play() {
	e.setPlayWhenReady(true)
}

// Pause clears the play intent
func (e *Engine) Pause() {
	e.setPlayWhenReady(false)
}

func (e *Engine) setPlayWhenReady(play bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playWhenReady == play {
		return
	}
	e.playWhenReady = play
	e.setPausedLocked(!play)
	e.emitLocked(domain.PlayWhenReadyChanged{PlayWhenReady: play, UserRequested: true})
}

// SeekTo moves within the current item. Seeking an ended item restarts
// its stream.
func (e *Engine) SeekTo(position time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if position < 0 {
		position = 0
	}
	if e.loaded == nil {
		e.startPos = position
		return
	}

	e.seekLocked(position)
	if e.state == domain.EngineEnded {
		e.playLoadedLocked()
		e.setStateLocked(domain.EngineReady)
	}
}

// SkipToNext moves to the next item in play order. Past the last item it
// wraps only under repeat-all.
func (e *Engine) SkipToNext() {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, ok := e.neighbourLocked(1, e.repeat == domain.RepeatAll)
	if !ok {
		return
	}
	e.switchToLocked(next, domain.TransitionSeek)
}

// SkipToPrevious restarts the current item when it has played for a few
// seconds or has no predecessor, and otherwise moves back one item.
func (e *Engine) SkipToPrevious() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == domain.NoIndex {
		return
	}
	prev, ok := e.neighbourLocked(-1, e.repeat == domain.RepeatAll)
	if !ok || e.positionLocked() > restartThreshold {
		if e.loaded == nil {
			e.startPos = 0
			return
		}
		e.seekLocked(0)
		if e.state == domain.EngineEnded {
			e.playLoadedLocked()
			e.setStateLocked(domain.EngineReady)
		}
		return
	}
	e.switchToLocked(prev, domain.TransitionSeek)
}

// AddItems inserts items at index without interrupting the current one.
// With shuffle on, the new items play right after the current item.
func (e *Engine) AddItems(index int, items []domain.Track) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index > len(e.items) {
		return fmt.Errorf("%w: insert at %d of %d", domain.ErrIndexOutOfRange, index, len(e.items))
	}
	if len(items) == 0 {
		return nil
	}
	n := len(items)
	e.items = slices.Insert(e.items, index, items...)

	wasEmpty := e.current == domain.NoIndex
	if !wasEmpty && index <= e.current {
		e.current += n
	}

	if e.shuffle && !wasEmpty {
		for i, v := range e.order {
			if v >= index {
				e.order[i] = v + n
			}
		}
		at := slices.Index(e.order, e.current) + 1
		added := make([]int, n)
		for i := range added {
			added[i] = index + i
		}
		e.order = slices.Insert(e.order, at, added...)
	} else {
		if wasEmpty {
			e.current = 0
		}
		e.rebuildOrderLocked()
	}

	e.emitLocked(domain.TimelineChanged{Count: len(e.items)})
	if wasEmpty {
		e.emitTransitionLocked(domain.TransitionPlaylist)
	}
	return nil
}

// MoveItem reorders the media set; the current item keeps playing
func (e *Engine) MoveItem(from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if from < 0 || from >= len(e.items) || to < 0 || to >= len(e.items) {
		return fmt.Errorf("%w: move %d -> %d of %d", domain.ErrIndexOutOfRange, from, to, len(e.items))
	}
	if from == to {
		return nil
	}
	e.items = domain.MoveItem(e.items, from, to)
	e.current = domain.ShiftIndex(e.current, from, to)
	if e.shuffle {
		for i, v := range e.order {
			e.order[i] = domain.ShiftIndex(v, from, to)
		}
	} else {
		e.rebuildOrderLocked()
	}
	e.emitLocked(domain.TimelineChanged{Count: len(e.items)})
	return nil
}

// RemoveItem drops one item. Removing the current item moves playback to
// the item that followed it.
func (e *Engine) RemoveItem(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.items) {
		return fmt.Errorf("%w: remove %d of %d", domain.ErrIndexOutOfRange, index, len(e.items))
	}

	pos := slices.Index(e.order, index)
	e.items = slices.Delete(e.items, index, index+1)
	e.order = slices.DeleteFunc(e.order, func(v int) bool { return v == index })
	for i, v := range e.order {
		if v > index {
			e.order[i] = v - 1
		}
	}
	e.emitLocked(domain.TimelineChanged{Count: len(e.items)})

	switch {
	case len(e.items) == 0:
		e.unloadLocked()
		e.prepared = false
		e.current = domain.NoIndex
		e.emitLocked(domain.MediaItemTransition{Index: domain.NoIndex, Reason: domain.TransitionPlaylist})
		e.setStateLocked(domain.EngineIdle)
	case index == e.current:
		if pos >= len(e.order) {
			pos = len(e.order) - 1
		}
		e.switchToLocked(e.order[pos], domain.TransitionPlaylist)
	case index < e.current:
		e.current--
	}
	return nil
}

// SetShuffle switches between file order and a random play order that
// starts from the current item.
func (e *Engine) SetShuffle(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shuffle == enabled {
		return
	}
	e.shuffle = enabled
	e.rebuildOrderLocked()
	e.emitLocked(domain.ModeChanged{Shuffle: e.shuffle, Repeat: e.repeat})
}

// SetRepeat sets the repeat mode
func (e *Engine) SetRepeat(mode domain.RepeatMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.repeat == mode {
		return
	}
	e.repeat = mode
	e.emitLocked(domain.ModeChanged{Shuffle: e.shuffle, Repeat: e.repeat})
}

// Position returns the playback position in the current item
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

// Duration returns the length of the current item, falling back to its
// tagged duration before it is loaded.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded != nil {
		return e.loaded.format.SampleRate.D(e.loaded.streamer.Len())
	}
	if e.current != domain.NoIndex {
		return e.items[e.current].Duration
	}
	return 0
}

// CurrentIndex returns the current item index, or domain.NoIndex
func (e *Engine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// State returns the engine state
func (e *Engine) State() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// PlayWhenReady reports the play intent
func (e *Engine) PlayWhenReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playWhenReady
}

// Close stops playback and releases the audio output
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.unloadLocked()
	if e.connected {
		e.sink.Close()
	}
	close(e.done)
	return nil
}

// === Internals ===

func (e *Engine) switchToLocked(index int, reason domain.TransitionReason) {
	e.current = index
	e.startPos = 0
	if e.prepared {
		// a failed load is logged and leaves the engine idle on this item
		_ = e.loadCurrentLocked(0)
	}
	e.emitTransitionLocked(reason)
}

// loadCurrentLocked decodes the current item and starts streaming it,
// paused unless playWhenReady is set. A decode failure leaves the engine
// idle with nothing loaded.
func (e *Engine) loadCurrentLocked(position time.Duration) error {
	e.unloadLocked()
	e.setStateLocked(domain.EngineBuffering)

	item := e.items[e.current]
	streamer, format, err := e.open(item.URI)
	if err != nil {
		e.logger.Warn("failed to load track", "uri", item.URI, "error", err)
		e.setStateLocked(domain.EngineIdle)
		return err
	}
	e.loaded = &loadedTrack{streamer: streamer, format: format}
	if position > 0 {
		e.seekLocked(position)
	}
	e.playLoadedLocked()
	e.setStateLocked(domain.EngineReady)
	return nil
}

// playLoadedLocked hands the loaded stream to the sink. The callback at
// the end of the sequence runs on the audio goroutine, so it only
// schedules trackEnded.
func (e *Engine) playLoadedLocked() {
	e.gen++
	gen := e.gen

	var s beep.Streamer = e.loaded.streamer
	if e.loaded.format.SampleRate != SampleRate {
		s = beep.Resample(resampleQuality, e.loaded.format.SampleRate, SampleRate, e.loaded.streamer)
	}
	e.loaded.ctrl = &beep.Ctrl{Streamer: s, Paused: !e.playWhenReady}
	e.sink.Play(beep.Seq(e.loaded.ctrl, beep.Callback(func() {
		go e.trackEnded(gen)
	})))
}

func (e *Engine) unloadLocked() {
	if e.loaded == nil {
		return
	}
	e.gen++
	e.sink.Clear()
	if err := e.loaded.streamer.Close(); err != nil {
		e.logger.Debug("failed to close stream", "error", err)
	}
	e.loaded = nil
}

func (e *Engine) seekLocked(position time.Duration) {
	l := e.loaded
	n := l.format.SampleRate.N(position)
	if last := l.streamer.Len() - 1; n > last {
		n = last
	}
	if n < 0 {
		n = 0
	}
	e.sink.Lock()
	err := l.streamer.Seek(n)
	e.sink.Unlock()
	if err != nil {
		e.logger.Warn("seek failed", "position", position, "error", err)
	}
}

func (e *Engine) setPausedLocked(paused bool) {
	if e.loaded == nil || e.loaded.ctrl == nil {
		return
	}
	e.sink.Lock()
	e.loaded.ctrl.Paused = paused
	e.sink.Unlock()
}

func (e *Engine) positionLocked() time.Duration {
	if e.loaded == nil {
		return e.startPos
	}
	e.sink.Lock()
	p := e.loaded.streamer.Position()
	e.sink.Unlock()
	return e.loaded.format.SampleRate.D(p)
}

// trackEnded advances after the stream identified by gen drained
func (e *Engine) trackEnded(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || gen != e.gen || e.loaded == nil {
		return
	}

	if e.repeat == domain.RepeatOne {
		e.seekLocked(0)
		e.playLoadedLocked()
		e.emitTransitionLocked(domain.TransitionRepeat)
		return
	}

	next, ok := e.neighbourLocked(1, e.repeat == domain.RepeatAll)
	if !ok {
		e.logger.Debug("reached end of media set")
		e.setStateLocked(domain.EngineEnded)
		return
	}
	e.switchToLocked(next, domain.TransitionAuto)
}

// neighbourLocked returns the item step places away from the current one
// in play order
func (e *Engine) neighbourLocked(step int, wrap bool) (int, bool) {
	if e.current == domain.NoIndex || len(e.order) == 0 {
		return 0, false
	}
	p := slices.Index(e.order, e.current) + step
	if p < 0 || p >= len(e.order) {
		if !wrap {
			return 0, false
		}
		p = (p + len(e.order)) % len(e.order)
	}
	return e.order[p], true
}

func (e *Engine) rebuildOrderLocked() {
	n := len(e.items)
	if !e.shuffle {
		e.order = make([]int, n)
		for i := range e.order {
			e.order[i] = i
		}
		return
	}

	e.order = e.rng.Perm(n)
	if e.current != domain.NoIndex {
		i := slices.Index(e.order, e.current)
		e.order[0], e.order[i] = e.order[i], e.order[0]
	}
}

func (e *Engine) setStateLocked(s domain.EngineState) {
	if e.state == s {
		return
	}
	e.state = s
	e.emitLocked(domain.PlaybackStateChanged{State: s})
}

func (e *Engine) emitTransitionLocked(reason domain.TransitionReason) {
	item := e.items[e.current]
	e.emitLocked(domain.MediaItemTransition{Item: &item, Index: e.current, Reason: reason})
}

func (e *Engine) emitLocked(ev domain.EngineEvent) {
	e.pending = append(e.pending, ev)
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// pump forwards queued events to the consumer in order
func (e *Engine) pump() {
	for {
		select {
		case <-e.done:
			return
		case <-e.wake:
		}

		e.mu.Lock()
		batch := e.pending
		e.pending = nil
		events := e.events
		e.mu.Unlock()

		for _, ev := range batch {
			select {
			case events <- ev:
			case <-e.done:
				return
			}
		}
	}
}
