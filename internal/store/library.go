package store

import "github.com/mmcdole/cadence/internal/domain"

// GetTracks returns the cached scan of a library root
func (s *Store) GetTracks(root string) ([]domain.Track, bool) {
	return load[[]domain.Track](s, libraryRecord(root))
}

// SaveTracks caches the scan of a library root
func (s *Store) SaveTracks(root string, tracks []domain.Track) error {
	return s.save(entry{libraryRecord(root), tracks})
}

// InvalidateTracks drops the cached scan of a library root
func (s *Store) InvalidateTracks(root string) {
	s.drop(libraryRecord(root))
}
