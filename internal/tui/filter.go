package tui

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/cadence/internal/domain"
)

// filterRows returns the indices of rows matching query, best match
// first. An empty query matches nothing and returns nil.
func filterRows(rows []domain.QueueRow, query string) []int {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = strings.ToLower(r.Title + " " + r.Artist)
	}

	matches := fuzzy.Find(strings.ToLower(query), keys)
	idx := make([]int, len(matches))
	for i, match := range matches {
		idx[i] = match.Index
	}
	return idx
}
