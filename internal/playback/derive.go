package playback

import "github.com/mmcdole/cadence/internal/domain"

// derivePhase maps raw engine state onto the coarse UI phase. Anything
// the engine reports that is not ready or buffering is shown as paused so
// the UI never sits in "idle" while a track is loaded.
func derivePhase(state domain.EngineState, playWhenReady bool) domain.Phase {
	switch {
	case state == domain.EngineReady && playWhenReady:
		return domain.PhasePlaying
	case state == domain.EngineReady:
		return domain.PhasePaused
	case state == domain.EngineBuffering:
		return domain.PhaseBuffering
	default:
		return domain.PhasePaused
	}
}

// progressFraction returns position/duration clamped to [0,1], or 0 when
// the duration is unknown.
func progressFraction(position, duration int64) float64 {
	if duration <= 0 {
		return 0
	}
	f := float64(position) / float64(duration)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// buildSnapshot recomputes the entire snapshot from the engine and the
// orchestrator's copy of the media set.
func buildSnapshot(engine domain.Engine, media []domain.Track, shuffle bool, repeat domain.RepeatMode) domain.Snapshot {
	snap := domain.Snapshot{
		Index:   domain.NoIndex,
		Phase:   derivePhase(engine.State(), engine.PlayWhenReady()),
		Shuffle: shuffle,
		Repeat:  repeat,
	}
	if idx := engine.CurrentIndex(); idx >= 0 && idx < len(media) {
		t := media[idx]
		snap.Track = &t
		snap.Index = idx
	}
	return snap
}
