package domain

import "context"

// QueueRepository persists the play queue. Writes against one queue are
// serialized by the implementation.
type QueueRepository interface {
	// Read returns the persisted rows in order
	Read(ctx context.Context) ([]QueueRow, error)

	// Observe delivers the full row list after every committed write.
	// The returned func unsubscribes.
	Observe() (<-chan []QueueRow, func())

	// Replace swaps the whole queue
	Replace(ctx context.Context, rows []QueueRow) error

	// Insert places rows before position index (index == len appends)
	Insert(ctx context.Context, index int, rows []QueueRow) error

	// Move relocates one row from -> to
	Move(ctx context.Context, from, to int) error

	// Remove deletes the row at index
	Remove(ctx context.Context, index int) error

	// Cursor returns the persisted current index (NoIndex if unset)
	Cursor(ctx context.Context) (int, error)
	SetCursor(ctx context.Context, index int) error
}

// LyricsSource fetches lyrics for a track. Implementations return
// ErrLyricsNotFound when no lyrics exist and wrap ErrLyricsUnavailable for
// transient failures.
type LyricsSource interface {
	Fetch(ctx context.Context, q LyricsQuery) (Lyrics, error)
}

// LyricsCache stores previously fetched lyrics keyed by track URI
type LyricsCache interface {
	GetLyrics(uri string) (Lyrics, bool)
	SaveLyrics(uri string, lyrics Lyrics) error
	InvalidateLyrics(uri string)
}

// LibraryCache stores the last scan of a library root
type LibraryCache interface {
	GetTracks(root string) ([]Track, bool)
	SaveTracks(root string, tracks []Track) error
	InvalidateTracks(root string)
}

// ProgressFunc reports how many items a long operation has handled so far
type ProgressFunc func(done int)
