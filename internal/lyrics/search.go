package lyrics

import (
	"sort"
	"time"

	"github.com/mmcdole/cadence/internal/domain"
)

// ActiveIndex returns the index of the segment active at position: the
// last segment whose offset is <= position, clamped to [0, n-1]. Returns
// -1 for an empty document. segments must be sorted by Offset.
func ActiveIndex(segments []domain.LyricSegment, position time.Duration) int {
	n := len(segments)
	if n == 0 {
		return -1
	}
	// first segment starting after position
	next := sort.Search(n, func(i int) bool {
		return segments[i].Offset > position
	})
	idx := next - 1
	if idx < 0 {
		return 0
	}
	return idx
}

// Sorted returns a copy of segments ordered by offset. Equal offsets keep
// their document order.
func Sorted(segments []domain.LyricSegment) []domain.LyricSegment {
	out := append([]domain.LyricSegment(nil), segments...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Offset < out[j].Offset
	})
	return out
}
