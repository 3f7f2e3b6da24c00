package lyrics

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mmcdole/cadence/internal/domain"
)

// Status is the presentation state of a track's lyrics
type Status int

const (
	StatusLoading Status = iota
	StatusPlain
	StatusSynced
	StatusNotFound
	StatusNetworkError
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusPlain:
		return "plain"
	case StatusSynced:
		return "synced"
	case StatusNotFound:
		return "not found"
	case StatusNetworkError:
		return "network error"
	default:
		return "unknown"
	}
}

// State is what the UI renders for a track's lyrics
type State struct {
	URI    string
	Status Status
	Lyrics domain.Lyrics
	Err    error
}

// Retryable reports whether the UI should retry automatically once
// connectivity returns. Missing lyrics are never retried.
func (s State) Retryable() bool {
	return s.Status == StatusNetworkError
}

// Service fetches lyrics through a source, caching successful results
type Service struct {
	source domain.LyricsSource
	cache  domain.LyricsCache
	logger *slog.Logger
}

// NewService creates a lyrics service. cache may be nil.
func NewService(source domain.LyricsSource, cache domain.LyricsCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, cache: cache, logger: logger}
}

// Fetch resolves lyrics for track, keeping "not found" and transient
// failures distinct.
func (s *Service) Fetch(ctx context.Context, track domain.Track) State {
	if s.cache != nil {
		if cached, ok := s.cache.GetLyrics(track.URI); ok {
			s.logger.Debug("lyrics cache hit", "uri", track.URI)
			return stateFor(track.URI, cached)
		}
	}

	lyrics, err := s.source.Fetch(ctx, domain.QueryFor(track))
	switch {
	case errors.Is(err, domain.ErrLyricsNotFound):
		s.logger.Debug("no lyrics for track", "uri", track.URI)
		return State{URI: track.URI, Status: StatusNotFound, Err: err}
	case err != nil:
		s.logger.Warn("lyrics fetch failed", "uri", track.URI, "error", err)
		return State{URI: track.URI, Status: StatusNetworkError, Err: err}
	}

	lyrics = normalize(lyrics)
	if lyrics.Kind == domain.LyricsPlain && lyrics.Plain == "" {
		return State{URI: track.URI, Status: StatusNotFound, Err: domain.ErrLyricsNotFound}
	}

	if s.cache != nil {
		if err := s.cache.SaveLyrics(track.URI, lyrics); err != nil {
			s.logger.Error("failed to cache lyrics", "uri", track.URI, "error", err)
		}
	}
	return stateFor(track.URI, lyrics)
}

// Refresh drops the cached copy and fetches again
func (s *Service) Refresh(ctx context.Context, track domain.Track) State {
	if s.cache != nil {
		s.cache.InvalidateLyrics(track.URI)
	}
	return s.Fetch(ctx, track)
}

func stateFor(uri string, l domain.Lyrics) State {
	if l.Kind == domain.LyricsSynced {
		return State{URI: uri, Status: StatusSynced, Lyrics: l}
	}
	return State{URI: uri, Status: StatusPlain, Lyrics: l}
}

// normalize sorts synced segments and demotes an empty synced document
func normalize(l domain.Lyrics) domain.Lyrics {
	if l.Kind != domain.LyricsSynced {
		return l
	}
	if len(l.Segments) == 0 {
		return domain.Lyrics{Kind: domain.LyricsPlain, Plain: l.Plain}
	}
	l.Segments = Sorted(l.Segments)
	return l
}
