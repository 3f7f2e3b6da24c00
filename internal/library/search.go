package library

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mmcdole/cadence/internal/domain"
)

// Search returns tracks whose title, artist or album fuzzily match query,
// best match first. An empty query returns nothing.
func (s *Service) Search(query string) []domain.Track {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := fuzzy.RankFindFold(query, s.keys)

	type ranked struct {
		index int
		score int
	}
	results := make([]ranked, len(matches))
	for i, m := range matches {
		results[i] = ranked{
			index: m.OriginalIndex,
			score: matchScore(strings.ToLower(s.tracks[m.OriginalIndex].Title), query, m.Distance),
		}
	}

	// Sort by score (lower is better), keeping library order on ties
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score < results[j].score
		}
		return results[i].index < results[j].index
	})

	out := make([]domain.Track, len(results))
	for i, r := range results {
		out[i] = s.tracks[r.index]
	}
	return out
}

// matchScore ranks a match. Lower score = better match.
func matchScore(title, query string, distance int) int {
	switch {
	case title == query:
		return 0
	case strings.HasPrefix(title, query):
		return 10
	case strings.Contains(title, query):
		return 50
	default:
		return 100 + distance
	}
}
