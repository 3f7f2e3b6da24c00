package domain

import "time"

// LyricSegment is one timestamped line of synchronized lyrics
type LyricSegment struct {
	Offset time.Duration `json:"offset"`
	Text   string        `json:"text"`
}

// LyricsKind distinguishes plain from synchronized lyrics
type LyricsKind int

const (
	LyricsPlain LyricsKind = iota
	LyricsSynced
)

// Lyrics is a fetched lyrics document. Segments is set (and sorted by
// Offset) only for LyricsSynced.
type Lyrics struct {
	Kind     LyricsKind     `json:"kind"`
	Plain    string         `json:"plain,omitempty"`
	Segments []LyricSegment `json:"segments,omitempty"`
}

// LyricsQuery carries everything a source may use to find lyrics
type LyricsQuery struct {
	URI      string
	Title    string
	Album    string
	Artist   string
	Duration time.Duration
}

// DurationSeconds returns the track duration rounded down to seconds
func (q LyricsQuery) DurationSeconds() int {
	return int(q.Duration / time.Second)
}

// QueryFor builds a lyrics query from a track
func QueryFor(t Track) LyricsQuery {
	return LyricsQuery{
		URI:      t.URI,
		Title:    t.Title,
		Album:    t.Album,
		Artist:   t.Artist,
		Duration: t.Duration,
	}
}
