package store

import "github.com/mmcdole/cadence/internal/domain"

// GetLyrics returns cached lyrics for a track URI
func (s *Store) GetLyrics(uri string) (domain.Lyrics, bool) {
	return load[domain.Lyrics](s, lyricsRecord(uri))
}

// SaveLyrics caches lyrics for a track URI
func (s *Store) SaveLyrics(uri string, lyrics domain.Lyrics) error {
	return s.save(entry{lyricsRecord(uri), lyrics})
}

// InvalidateLyrics drops the cached lyrics for a track URI
func (s *Store) InvalidateLyrics(uri string) {
	s.drop(lyricsRecord(uri))
}
