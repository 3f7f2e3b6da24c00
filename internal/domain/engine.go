package domain

import (
	"context"
	"time"
)

// EngineState is the raw state reported by the playback engine
type EngineState int

const (
	EngineIdle EngineState = iota
	EngineBuffering
	EngineReady
	EngineEnded
)

// String returns the engine state name
func (s EngineState) String() string {
	switch s {
	case EngineIdle:
		return "idle"
	case EngineBuffering:
		return "buffering"
	case EngineReady:
		return "ready"
	case EngineEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// TransitionReason explains why the current media item changed
type TransitionReason int

const (
	TransitionAuto     TransitionReason = iota // previous item finished
	TransitionSeek                             // user skipped or seeked into another item
	TransitionRepeat                           // item restarted under repeat-one
	TransitionPlaylist                         // media set replaced
)

// String returns the transition reason name
func (r TransitionReason) String() string {
	switch r {
	case TransitionAuto:
		return "auto"
	case TransitionSeek:
		return "seek"
	case TransitionRepeat:
		return "repeat"
	case TransitionPlaylist:
		return "playlist"
	default:
		return "unknown"
	}
}

// EngineEvent is emitted by the engine on its event channel.
// Concrete types: TimelineChanged, MediaItemTransition,
// PlaybackStateChanged, PlayWhenReadyChanged, ModeChanged.
type EngineEvent interface {
	engineEvent()
}

// TimelineChanged is emitted when the media set changes
type TimelineChanged struct {
	Count int
}

// MediaItemTransition is emitted when the current item changes
type MediaItemTransition struct {
	Item   *Track // nil when the media set became empty
	Index  int
	Reason TransitionReason
}

// PlaybackStateChanged is emitted when the engine state changes
type PlaybackStateChanged struct {
	State EngineState
}

// PlayWhenReadyChanged is emitted when the play/pause intent changes
type PlayWhenReadyChanged struct {
	PlayWhenReady bool
	UserRequested bool
}

// ModeChanged is emitted when shuffle or repeat change
type ModeChanged struct {
	Shuffle bool
	Repeat  RepeatMode
}

func (TimelineChanged) engineEvent()      {}
func (MediaItemTransition) engineEvent()  {}
func (PlaybackStateChanged) engineEvent() {}
func (PlayWhenReadyChanged) engineEvent() {}
func (ModeChanged) engineEvent()          {}

// Engine is the platform playback engine the orchestrator drives.
// Implementations are not required to be safe for concurrent use: the
// orchestrator calls every method from a single goroutine.
type Engine interface {
	// Connect blocks until the engine is usable, then delivers every
	// subsequent event on events in emission order.
	Connect(ctx context.Context, events chan<- EngineEvent) error

	SetMediaSet(items []Track, startIndex int, startPosition time.Duration) error
	Prepare() error
	Play()
	Pause()
	SeekTo(position time.Duration)
	SkipToNext()
	SkipToPrevious()
	AddItems(index int, items []Track) error
	MoveItem(from, to int) error
	RemoveItem(index int) error
	SetShuffle(enabled bool)
	SetRepeat(mode RepeatMode)

	// Engine state queries
	Position() time.Duration
	Duration() time.Duration
	CurrentIndex() int
	State() EngineState
	PlayWhenReady() bool

	Close() error
}
