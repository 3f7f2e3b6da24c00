package domain

// Phase is the coarse player phase shown to the UI
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseBuffering
	PhasePlaying
	PhasePaused
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseBuffering:
		return "buffering"
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// RepeatMode defines the repeat behavior
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatOne
	RepeatAll
)

// String returns the repeat mode name
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "off"
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "unknown"
	}
}

// Next cycles off -> all -> one -> off
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// ConnectionState tracks the orchestrator's link to the playback engine
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

// String returns the connection state name
func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Snapshot is the derived, read-only playback state. A new value is built
// for every engine event; published snapshots are never modified.
type Snapshot struct {
	Track   *Track // nil when nothing is loaded
	Index   int    // position of Track in the engine's media set, or NoIndex
	Phase   Phase
	Shuffle bool
	Repeat  RepeatMode
}

// IdleSnapshot is the snapshot published before the engine connects
func IdleSnapshot() Snapshot {
	return Snapshot{Index: NoIndex, Phase: PhaseIdle}
}

// IsPlaying returns true if the phase is PhasePlaying
func (s Snapshot) IsPlaying() bool {
	return s.Phase == PhasePlaying
}

// TrackURI returns the URI of the current track, or ""
func (s Snapshot) TrackURI() string {
	if s.Track == nil {
		return ""
	}
	return s.Track.URI
}
