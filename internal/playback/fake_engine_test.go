package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mmcdole/cadence/internal/domain"
)

// fakeEngine is an in-memory engine. Connect blocks until release is
// called (or fails with connectErr). Transport calls emit the events a
// real engine would.
type fakeEngine struct {
	mu sync.Mutex

	release    chan struct{}
	connectErr error
	events     chan<- domain.EngineEvent

	calls         []string
	mediaSets     [][]domain.Track
	startIndexes  []int
	media         []domain.Track
	index         int
	state         domain.EngineState
	playWhenReady bool
	position      time.Duration
	duration      time.Duration
	seeks         []time.Duration
	shuffle       bool
	repeat        domain.RepeatMode
	closed        bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{release: make(chan struct{}), index: domain.NoIndex}
}

func (f *fakeEngine) connectNow() {
	close(f.release)
}

func (f *fakeEngine) Connect(ctx context.Context, events chan<- domain.EngineEvent) error {
	select {
	case <-f.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.events = events
	return nil
}

// emit must be called with mu held
func (f *fakeEngine) emit(ev domain.EngineEvent) {
	if f.events != nil {
		f.events <- ev
	}
}

// Emit delivers an event from the test goroutine
func (f *fakeEngine) Emit(ev domain.EngineEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emit(ev)
}

func (f *fakeEngine) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeEngine) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeEngine) countCalls(name string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeEngine) SetMediaSet(items []domain.Track, startIndex int, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetMediaSet")
	if len(items) == 0 {
		return errors.New("empty media set")
	}
	f.mediaSets = append(f.mediaSets, append([]domain.Track(nil), items...))
	f.startIndexes = append(f.startIndexes, startIndex)
	f.media = append([]domain.Track(nil), items...)
	f.index = startIndex
	f.position = 0
	f.emit(domain.TimelineChanged{Count: len(items)})
	item := f.media[startIndex]
	f.emit(domain.MediaItemTransition{Item: &item, Index: startIndex, Reason: domain.TransitionPlaylist})
	return nil
}

func (f *fakeEngine) Prepare() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Prepare")
	f.state = domain.EngineReady
	f.emit(domain.PlaybackStateChanged{State: f.state})
	return nil
}

func (f *fakeEngine) Play() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Play")
	f.playWhenReady = true
	f.emit(domain.PlayWhenReadyChanged{PlayWhenReady: true, UserRequested: true})
}

func (f *fakeEngine) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Pause")
	f.playWhenReady = false
	f.emit(domain.PlayWhenReadyChanged{PlayWhenReady: false, UserRequested: true})
}

func (f *fakeEngine) SeekTo(position time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SeekTo")
	f.seeks = append(f.seeks, position)
	f.position = position
}

func (f *fakeEngine) SkipToNext() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SkipToNext")
	if f.index+1 < len(f.media) {
		f.index++
		item := f.media[f.index]
		f.emit(domain.MediaItemTransition{Item: &item, Index: f.index, Reason: domain.TransitionSeek})
	}
}

func (f *fakeEngine) SkipToPrevious() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SkipToPrevious")
	if f.index > 0 {
		f.index--
		item := f.media[f.index]
		f.emit(domain.MediaItemTransition{Item: &item, Index: f.index, Reason: domain.TransitionSeek})
	}
}

func (f *fakeEngine) AddItems(index int, items []domain.Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AddItems")
	next := append([]domain.Track(nil), f.media[:index]...)
	next = append(next, items...)
	f.media = append(next, f.media[index:]...)
	if f.index >= index {
		f.index += len(items)
	}
	f.emit(domain.TimelineChanged{Count: len(f.media)})
	return nil
}

func (f *fakeEngine) MoveItem(from, to int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("MoveItem")
	f.media = domain.MoveItem(f.media, from, to)
	f.index = domain.ShiftIndex(f.index, from, to)
	f.emit(domain.TimelineChanged{Count: len(f.media)})
	return nil
}

func (f *fakeEngine) RemoveItem(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RemoveItem")
	f.media = append(append([]domain.Track{}, f.media[:index]...), f.media[index+1:]...)
	if f.index > index {
		f.index--
	}
	f.emit(domain.TimelineChanged{Count: len(f.media)})
	return nil
}

func (f *fakeEngine) SetShuffle(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetShuffle")
	f.shuffle = enabled
	f.emit(domain.ModeChanged{Shuffle: f.shuffle, Repeat: f.repeat})
}

func (f *fakeEngine) SetRepeat(mode domain.RepeatMode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetRepeat")
	f.repeat = mode
	f.emit(domain.ModeChanged{Shuffle: f.shuffle, Repeat: f.repeat})
}

func (f *fakeEngine) SetClock(position, duration time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position, f.duration = position, duration
}

func (f *fakeEngine) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position
}

func (f *fakeEngine) Duration() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration
}

func (f *fakeEngine) CurrentIndex() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index
}

func (f *fakeEngine) State() domain.EngineState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeEngine) PlayWhenReady() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playWhenReady
}

func (f *fakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
