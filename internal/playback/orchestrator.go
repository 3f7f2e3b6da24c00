package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmcdole/cadence/internal/domain"
	"github.com/samber/lo"
)

const (
	commandBuffer = 64
	eventBuffer   = 64
	persistBuffer = 64
)

type connectResult struct {
	err   error
	saved domain.Queue
}

type persistOp struct {
	name string
	fn   func(ctx context.Context) error
	done chan<- error // optional; receives the write's result
}

// Orchestrator is the single owner of "what should be playing". It is the
// only holder of the engine: every engine call and every engine event is
// handled on one loop goroutine, in arrival order. Queue writes run on a
// separate persistence goroutine, one at a time.
//
// Transport commands issued before the engine connects are dropped.
type Orchestrator struct {
	engine domain.Engine
	queue  domain.QueueRepository
	logger *slog.Logger

	state    atomic.Int32 // domain.ConnectionState
	snapshot atomic.Pointer[domain.Snapshot]

	cmds      chan func()
	events    chan domain.EngineEvent
	connected chan connectResult
	persist   chan persistOp

	// Owned by the loop goroutine
	live    bool
	media   []domain.Track
	shuffle bool
	repeat  domain.RepeatMode

	subMu   sync.Mutex
	subs    map[int]chan domain.Snapshot
	nextSub int
	closed  bool // set by Close; later subscribers get a closed channel

	listenMu     sync.Mutex
	listeners    map[int]func(domain.MediaItemTransition)
	nextListener int

	ctx         context.Context
	cancel      context.CancelFunc
	loopDone    chan struct{}
	persistDone chan struct{}
	closeOnce   sync.Once
}

// New creates the orchestrator and immediately starts connecting to the
// engine (DISCONNECTED -> CONNECTING). Once connected, the persisted
// queue is loaded into the engine, paused at the saved cursor.
func New(engine domain.Engine, queue domain.QueueRepository, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	o := &Orchestrator{
		engine:      engine,
		queue:       queue,
		logger:      logger,
		cmds:        make(chan func(), commandBuffer),
		events:      make(chan domain.EngineEvent, eventBuffer),
		connected:   make(chan connectResult, 1),
		persist:     make(chan persistOp, persistBuffer),
		subs:        make(map[int]chan domain.Snapshot),
		listeners:   make(map[int]func(domain.MediaItemTransition)),
		ctx:         ctx,
		cancel:      cancel,
		loopDone:    make(chan struct{}),
		persistDone: make(chan struct{}),
	}
	idle := domain.IdleSnapshot()
	o.snapshot.Store(&idle)
	o.state.Store(int32(domain.Disconnected))

	go o.loop()
	go o.persistWorker()

	o.setState(domain.Connecting)
	go o.connect()

	return o
}

// ConnectionState returns the current engine connection state
func (o *Orchestrator) ConnectionState() domain.ConnectionState {
	return domain.ConnectionState(o.state.Load())
}

// Snapshot returns the most recently published playback snapshot
func (o *Orchestrator) Snapshot() domain.Snapshot {
	return *o.snapshot.Load()
}

// Subscribe streams snapshots, starting with the current one. A slow
// reader only sees the latest value. The returned func unsubscribes.
// After Close the channel holds the final snapshot and is already closed.
func (o *Orchestrator) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 1)

	o.subMu.Lock()
	if o.closed {
		ch <- o.Snapshot()
		close(ch)
		o.subMu.Unlock()
		return ch, func() {}
	}
	id := o.nextSub
	o.nextSub++
	o.subs[id] = ch
	ch <- o.Snapshot()
	o.subMu.Unlock()

	return ch, func() {
		o.subMu.Lock()
		defer o.subMu.Unlock()
		if c, ok := o.subs[id]; ok {
			close(c)
			delete(o.subs, id)
		}
	}
}

// AwaitTransition registers a one-shot listener for the next track
// boundary: a media item transition, or the end of the media set. The
// listener runs on its own goroutine. The returned func cancels it.
func (o *Orchestrator) AwaitTransition(fn func(domain.MediaItemTransition)) func() {
	o.listenMu.Lock()
	id := o.nextListener
	o.nextListener++
	o.listeners[id] = fn
	o.listenMu.Unlock()

	return func() {
		o.listenMu.Lock()
		delete(o.listeners, id)
		o.listenMu.Unlock()
	}
}

// === Queue commands ===

// SetQueueAndPlay replaces the queue with tracks and starts playback at
// startIndex. Any current playback is stopped first.
func (o *Orchestrator) SetQueueAndPlay(tracks []domain.Track, startIndex int) {
	if len(tracks) == 0 {
		o.logger.Debug("ignoring empty queue replacement")
		return
	}
	if startIndex < 0 || startIndex >= len(tracks) {
		o.logger.Warn("start index out of range", "startIndex", startIndex, "count", len(tracks))
		return
	}
	media := append([]domain.Track(nil), tracks...)

	o.transport("setQueueAndPlay", func(e domain.Engine) {
		e.Pause()
		if err := e.SetMediaSet(media, startIndex, 0); err != nil {
			o.logger.Warn("engine rejected media set", "error", err, "count", len(media))
			return
		}
		o.media = media
		if err := e.Prepare(); err != nil {
			o.logger.Warn("engine prepare failed", "error", err)
		}
		e.Play()

		rows := lo.Map(media, func(t domain.Track, _ int) domain.QueueRow { return t.Row() })
		o.enqueuePersist("replace queue", func(ctx context.Context) error {
			if err := o.queue.Replace(ctx, rows); err != nil {
				return err
			}
			return o.queue.SetCursor(ctx, startIndex)
		})
		o.logger.Info("queue replaced", "count", len(media), "startIndex", startIndex)
	})
}

// PlayNext inserts tracks right after the current one without
// interrupting playback.
func (o *Orchestrator) PlayNext(tracks []domain.Track) {
	if len(tracks) == 0 {
		return
	}
	items := append([]domain.Track(nil), tracks...)

	o.transport("playNext", func(e domain.Engine) {
		at := e.CurrentIndex() + 1
		if at < 0 {
			at = 0
		}
		if at > len(o.media) {
			at = len(o.media)
		}
		if err := e.AddItems(at, items); err != nil {
			o.logger.Warn("engine rejected items", "error", err, "index", at)
			return
		}
		next := make([]domain.Track, 0, len(o.media)+len(items))
		next = append(next, o.media[:at]...)
		next = append(next, items...)
		next = append(next, o.media[at:]...)
		o.media = next

		rows := lo.Map(items, func(t domain.Track, _ int) domain.QueueRow { return t.Row() })
		o.enqueuePersist("insert next", func(ctx context.Context) error {
			return o.queue.Insert(ctx, at, rows)
		})
		o.logger.Debug("queued next", "count", len(items), "index", at)
	})
}

// Move commits a queue reorder. The engine change and the store write
// take their turn behind every earlier queue command, and Move returns
// once the write has landed.
func (o *Orchestrator) Move(ctx context.Context, from, to int) error {
	return o.edit(ctx, "move",
		func(e domain.Engine) error {
			if from < 0 || from >= len(o.media) || to < 0 || to >= len(o.media) {
				return fmt.Errorf("move %d -> %d of %d: %w", from, to, len(o.media), domain.ErrIndexOutOfRange)
			}
			if err := e.MoveItem(from, to); err != nil {
				return fmt.Errorf("engine move: %w", err)
			}
			o.media = domain.MoveItem(o.media, from, to)
			return nil
		},
		func(ctx context.Context) error { return o.queue.Move(ctx, from, to) },
	)
}

// Remove deletes one queue row, ordered and awaited like Move.
func (o *Orchestrator) Remove(ctx context.Context, index int) error {
	return o.edit(ctx, "remove",
		func(e domain.Engine) error {
			if index < 0 || index >= len(o.media) {
				return fmt.Errorf("remove %d of %d: %w", index, len(o.media), domain.ErrIndexOutOfRange)
			}
			if err := e.RemoveItem(index); err != nil {
				return fmt.Errorf("engine remove: %w", err)
			}
			o.media = append(append([]domain.Track{}, o.media[:index]...), o.media[index+1:]...)
			return nil
		},
		func(ctx context.Context) error { return o.queue.Remove(ctx, index) },
	)
}

// === Transport ===

// TogglePlayback pauses when playing and plays otherwise
func (o *Orchestrator) TogglePlayback() {
	o.transport("togglePlayback", func(e domain.Engine) {
		if e.PlayWhenReady() && e.State() != domain.EngineEnded {
			e.Pause()
			return
		}
		if e.State() == domain.EngineEnded {
			e.SeekTo(0)
		}
		e.Play()
	})
}

// Play resumes playback
func (o *Orchestrator) Play() {
	o.transport("play", func(e domain.Engine) { e.Play() })
}

// Pause pauses playback
func (o *Orchestrator) Pause() {
	o.transport("pause", func(e domain.Engine) { e.Pause() })
}

// SkipNext jumps to the next track
func (o *Orchestrator) SkipNext() {
	o.transport("skipNext", func(e domain.Engine) { e.SkipToNext() })
}

// SkipPrevious jumps to the previous track (or restarts the current one,
// per engine policy)
func (o *Orchestrator) SkipPrevious() {
	o.transport("skipPrevious", func(e domain.Engine) { e.SkipToPrevious() })
}

// SeekToFraction seeks to progress*duration, progress clamped to [0,1].
// Ignored while the duration is unknown.
func (o *Orchestrator) SeekToFraction(progress float64) {
	progress = clamp01(progress)
	o.transport("seekToFraction", func(e domain.Engine) {
		d := e.Duration()
		if d <= 0 {
			return
		}
		e.SeekTo(time.Duration(float64(d) * progress))
	})
}

// SeekToPosition seeks to an absolute position
func (o *Orchestrator) SeekToPosition(position time.Duration) {
	if position < 0 {
		position = 0
	}
	o.transport("seekToPosition", func(e domain.Engine) { e.SeekTo(position) })
}

// SetShuffle enables or disables shuffle
func (o *Orchestrator) SetShuffle(enabled bool) {
	o.transport("setShuffle", func(e domain.Engine) { e.SetShuffle(enabled) })
}

// CycleRepeat advances the repeat mode off -> all -> one -> off
func (o *Orchestrator) CycleRepeat() {
	o.transport("cycleRepeat", func(e domain.Engine) { e.SetRepeat(o.repeat.Next()) })
}

// === Clock queries ===

// Position returns the engine's playback position, or 0 when not connected
func (o *Orchestrator) Position() time.Duration {
	var pos time.Duration
	o.query(func(e domain.Engine) { pos = e.Position() })
	return pos
}

// CurrentProgressFraction returns position/duration clamped to [0,1], or
// 0 when the duration is unknown or the engine is not connected.
func (o *Orchestrator) CurrentProgressFraction() float64 {
	var pos, dur time.Duration
	o.query(func(e domain.Engine) {
		pos = e.Position()
		dur = e.Duration()
	})
	return progressFraction(int64(pos), int64(dur))
}

// Close stops the loop, flushes pending queue writes and releases the engine.
func (o *Orchestrator) Close() error {
	var err error
	o.closeOnce.Do(func() {
		o.cancel()
		<-o.loopDone
		close(o.persist)
		<-o.persistDone

		o.setState(domain.Disconnected)
		err = o.engine.Close()

		o.subMu.Lock()
		o.closed = true
		for id, ch := range o.subs {
			close(ch)
			delete(o.subs, id)
		}
		o.subMu.Unlock()
	})
	return err
}

// === Loop ===

func (o *Orchestrator) connect() {
	res := connectResult{saved: domain.EmptyQueue()}
	res.err = o.engine.Connect(o.ctx, o.events)

	if res.err == nil {
		rows, err := o.queue.Read(o.ctx)
		if err != nil {
			o.logger.Error("failed to load persisted queue", "error", err)
		}
		cursor, err := o.queue.Cursor(o.ctx)
		if err != nil {
			o.logger.Error("failed to load queue cursor", "error", err)
		}
		res.saved = domain.QueueFromRows(rows, cursor)
	}

	select {
	case o.connected <- res:
	case <-o.ctx.Done():
	}
}

func (o *Orchestrator) loop() {
	defer close(o.loopDone)

	connected := o.connected
	for {
		select {
		case <-o.ctx.Done():
			return
		case res := <-connected:
			connected = nil
			o.handleConnect(res)
		case ev := <-o.events:
			o.handleEvent(ev)
		case fn := <-o.cmds:
			fn()
		}
	}
}

func (o *Orchestrator) handleConnect(res connectResult) {
	if res.err != nil {
		o.logger.Error("engine connection failed", "error", res.err)
		o.setState(domain.Disconnected)
		return
	}

	o.live = true
	o.setState(domain.Connected)

	if q := res.saved; q.Len() > 0 {
		if err := o.engine.SetMediaSet(q.Tracks, q.Index, 0); err != nil {
			o.logger.Warn("failed to restore queue into engine", "error", err)
		} else {
			o.media = q.Tracks
			if err := o.engine.Prepare(); err != nil {
				o.logger.Warn("engine prepare failed", "error", err)
			}
			o.logger.Info("restored queue", "count", q.Len(), "cursor", q.Index, "current", q.Current().DisplayTitle())
		}
	}

	o.logger.Info("engine connected")
	o.publish()
}

// handleEvent recomputes the whole snapshot for every event rather than
// patching the field the event names.
func (o *Orchestrator) handleEvent(ev domain.EngineEvent) {
	if !o.live {
		return
	}

	var boundary *domain.MediaItemTransition
	switch e := ev.(type) {
	case domain.ModeChanged:
		o.shuffle, o.repeat = e.Shuffle, e.Repeat
	case domain.MediaItemTransition:
		if o.staleTransition(e) {
			o.logger.Debug("dropping transition from a replaced media set", "index", e.Index)
			return
		}
		boundary = &e
		if e.Index >= 0 {
			index := e.Index
			o.enqueuePersist("save cursor", func(ctx context.Context) error {
				return o.queue.SetCursor(ctx, index)
			})
		}
	case domain.PlaybackStateChanged:
		if e.State == domain.EngineEnded {
			boundary = &domain.MediaItemTransition{Index: domain.NoIndex, Reason: domain.TransitionAuto}
		}
	}

	o.publish()
	if boundary != nil {
		o.notifyTransition(*boundary)
	}
}

// staleTransition reports whether e names an item the current media set
// does not hold at that index. Events queued before a SetQueueAndPlay
// arrive after the new set is installed.
func (o *Orchestrator) staleTransition(e domain.MediaItemTransition) bool {
	if e.Index < 0 || e.Item == nil {
		return false
	}
	return e.Index >= len(o.media) || o.media[e.Index].URI != e.Item.URI
}

func (o *Orchestrator) publish() {
	snap := buildSnapshot(o.engine, o.media, o.shuffle, o.repeat)
	o.snapshot.Store(&snap)

	o.subMu.Lock()
	defer o.subMu.Unlock()
	for _, ch := range o.subs {
		offerLatest(ch, snap)
	}
}

func (o *Orchestrator) notifyTransition(ev domain.MediaItemTransition) {
	o.listenMu.Lock()
	fns := make([]func(domain.MediaItemTransition), 0, len(o.listeners))
	for id, fn := range o.listeners {
		fns = append(fns, fn)
		delete(o.listeners, id)
	}
	o.listenMu.Unlock()

	for _, fn := range fns {
		go fn(ev)
	}
}

// transport forwards fn to the loop when connected and drops it otherwise.
func (o *Orchestrator) transport(name string, fn func(e domain.Engine)) {
	if state := o.ConnectionState(); state != domain.Connected {
		o.logger.Debug("dropping command before engine connected", "command", name, "state", state.String())
		return
	}
	o.dispatch(func() {
		if !o.live {
			return
		}
		fn(o.engine)
	})
}

// edit runs a caller-facing queue change. On the loop it applies the
// engine half (skipped while no engine is connected), then queues the
// store half behind earlier writes. The caller waits for the store's
// answer.
func (o *Orchestrator) edit(ctx context.Context, name string, apply func(e domain.Engine) error, write func(ctx context.Context) error) error {
	result := make(chan error, 1)

	sent := o.dispatch(func() {
		if o.live {
			if err := apply(o.engine); err != nil {
				result <- err
				return
			}
		} else {
			o.logger.Debug("queue change persisted without engine", "command", name)
		}
		if !o.enqueue(persistOp{name: name, fn: write, done: result}) {
			result <- domain.ErrClosed
		}
	})
	if !sent {
		return domain.ErrClosed
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-o.persistDone:
		// The flush on Close may still have answered
		select {
		case err := <-result:
			return err
		default:
			return domain.ErrClosed
		}
	}
}

// query runs fn on the loop and waits for it; false if not connected.
func (o *Orchestrator) query(fn func(e domain.Engine)) bool {
	if o.ConnectionState() != domain.Connected {
		return false
	}
	done := make(chan struct{})
	if !o.dispatch(func() {
		defer close(done)
		if o.live {
			fn(o.engine)
		}
	}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-o.ctx.Done():
		return false
	}
}

func (o *Orchestrator) dispatch(fn func()) bool {
	select {
	case o.cmds <- fn:
		return true
	case <-o.ctx.Done():
		return false
	}
}

func (o *Orchestrator) enqueuePersist(name string, fn func(ctx context.Context) error) {
	o.enqueue(persistOp{name: name, fn: fn})
}

// enqueue must only be called from the loop, which Close waits out before
// closing the persist channel
func (o *Orchestrator) enqueue(op persistOp) bool {
	select {
	case o.persist <- op:
		return true
	case <-o.ctx.Done():
		o.logger.Warn("dropping queue write on shutdown", "op", op.name)
		return false
	}
}

func (o *Orchestrator) persistWorker() {
	defer close(o.persistDone)
	for op := range o.persist {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := op.fn(ctx)
		cancel()
		if op.done != nil {
			op.done <- err
		} else if err != nil {
			o.logger.Error("queue write failed", "op", op.name, "error", err)
		}
	}
}

func (o *Orchestrator) setState(s domain.ConnectionState) {
	o.state.Store(int32(s))
	o.logger.Debug("engine connection state", "state", s.String())
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// offerLatest sends v without blocking, replacing a stale buffered value.
func offerLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
