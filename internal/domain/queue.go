package domain

import "time"

// NoIndex marks a queue with no current track
const NoIndex = -1

// QueueRow is the persisted form of one queue slot.
// SlotID distinguishes repeated occurrences of the same track.
type QueueRow struct {
	SlotID   string        `json:"slot_id"`
	URI      string        `json:"uri"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist"`
	Album    string        `json:"album"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Track rebuilds a track reference from the row's metadata snapshot
func (r QueueRow) Track() Track {
	return Track{
		URI:      r.URI,
		Title:    r.Title,
		Artist:   r.Artist,
		Album:    r.Album,
		Duration: r.Duration,
	}
}

// Queue is an ordered list of tracks plus a pointer to the current one.
// Index is NoIndex or a valid position in Tracks.
type Queue struct {
	Tracks []Track
	Index  int
}

// EmptyQueue returns a queue with no tracks and no current index
func EmptyQueue() Queue {
	return Queue{Index: NoIndex}
}

// Len returns the number of tracks in the queue
func (q Queue) Len() int {
	return len(q.Tracks)
}

// Current returns the track at Index, or nil
func (q Queue) Current() *Track {
	if q.Index < 0 || q.Index >= len(q.Tracks) {
		return nil
	}
	t := q.Tracks[q.Index]
	return &t
}

// Valid reports whether the index invariant holds
func (q Queue) Valid() bool {
	if len(q.Tracks) == 0 {
		return q.Index == NoIndex
	}
	return q.Index == NoIndex || (q.Index >= 0 && q.Index < len(q.Tracks))
}

// QueueFromRows rebuilds a persisted queue. A cursor that does not point
// into a non-empty queue falls back to the first track.
func QueueFromRows(rows []QueueRow, cursor int) Queue {
	if len(rows) == 0 {
		return EmptyQueue()
	}
	q := Queue{Tracks: make([]Track, len(rows)), Index: cursor}
	for i, r := range rows {
		q.Tracks[i] = r.Track()
	}
	if !q.Valid() || q.Index == NoIndex {
		q.Index = 0
	}
	return q
}

// MoveItem moves the element at from to position to (remove-then-insert).
// Out-of-range positions return the input unchanged.
func MoveItem[T any](items []T, from, to int) []T {
	n := len(items)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return items
	}
	item := items[from]
	out := make([]T, 0, n)
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out
}

// ShiftIndex returns where a tracked position ends up after a move
func ShiftIndex(index, from, to int) int {
	switch {
	case index == from:
		return to
	case from < index && to >= index:
		return index - 1
	case from > index && to <= index:
		return index + 1
	default:
		return index
	}
}
