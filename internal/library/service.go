// Package library indexes local audio files and searches them.
package library

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/mmcdole/cadence/internal/domain"
)

// SyncResult describes the outcome of loading the library
type SyncResult struct {
	Count     int
	FromCache bool
}

// Service keeps the scanned library in memory, backed by a cache so a
// restart does not rescan.
type Service struct {
	scanner *Scanner
	cache   domain.LibraryCache
	logger  *slog.Logger

	mu     sync.RWMutex
	tracks []domain.Track
	keys   []string // lowercase search text, parallel to tracks
}

// NewService creates a library service. cache may be nil.
func NewService(scanner *Scanner, cache domain.LibraryCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{scanner: scanner, cache: cache, logger: logger}
}

// Load uses the cached scan when there is one and scans otherwise
func (s *Service) Load(ctx context.Context, onProgress domain.ProgressFunc) (SyncResult, error) {
	if s.cache != nil {
		if tracks, ok := s.cache.GetTracks(s.scanner.Root()); ok {
			s.setTracks(tracks)
			s.logger.Debug("library cache hit", "root", s.scanner.Root(), "count", len(tracks))
			return SyncResult{Count: len(tracks), FromCache: true}, nil
		}
	}
	return s.Rescan(ctx, onProgress)
}

// Rescan walks the library root again and refreshes the cache
func (s *Service) Rescan(ctx context.Context, onProgress domain.ProgressFunc) (SyncResult, error) {
	s.logger.Debug("scanning library", "root", s.scanner.Root())
	tracks, err := s.scanner.Scan(ctx, onProgress)
	if err != nil {
		s.logger.Error("library scan failed", "root", s.scanner.Root(), "error", err)
		return SyncResult{}, err
	}
	s.setTracks(tracks)

	if s.cache != nil {
		if err := s.cache.SaveTracks(s.scanner.Root(), tracks); err != nil {
			s.logger.Error("failed to cache library", "error", err)
		}
	}
	s.logger.Info("library scanned", "root", s.scanner.Root(), "count", len(tracks))
	return SyncResult{Count: len(tracks)}, nil
}

// Tracks returns every track in library order
func (s *Service) Tracks() []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// Album returns the tracks sharing the album of t, in library order
func (s *Service) Album(t domain.Track) []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t.Album == "" {
		return []domain.Track{t}
	}
	var out []domain.Track
	for _, other := range s.tracks {
		if strings.EqualFold(other.Album, t.Album) && strings.EqualFold(other.Artist, t.Artist) {
			out = append(out, other)
		}
	}
	return out
}

func (s *Service) setTracks(tracks []domain.Track) {
	keys := make([]string, len(tracks))
	for i, t := range tracks {
		keys[i] = searchKey(t)
	}

	s.mu.Lock()
	s.tracks = tracks
	s.keys = keys
	s.mu.Unlock()
}

func searchKey(t domain.Track) string {
	return strings.ToLower(strings.Join([]string{t.Title, t.Artist, t.Album}, " "))
}
