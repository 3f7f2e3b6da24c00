package domain

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// Track identifies a playable item. It is a value type: queues hold copies,
// never a shared mutable instance.
type Track struct {
	URI      string        // Stable content URI, used as the identity key
	Title    string        // Display title
	Artist   string        // Track artist
	Album    string        // Album title
	Duration time.Duration // Total runtime (0 if unknown)
	FileSize int64         // File size in bytes
}

// ID returns the identity key of the track
func (t Track) ID() string {
	return t.URI
}

// DisplayTitle falls back to the URI when the file carries no title tag
func (t Track) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.URI
}

// Subtitle returns "Artist · Album" with missing parts omitted
func (t Track) Subtitle() string {
	switch {
	case t.Artist != "" && t.Album != "":
		return t.Artist + " · " + t.Album
	case t.Artist != "":
		return t.Artist
	default:
		return t.Album
	}
}

// FormattedDuration returns the duration as m:ss (or h:mm:ss)
func (t Track) FormattedDuration() string {
	return FormatClock(t.Duration)
}

// FormattedFileSize returns the file size in a human-readable format
func (t Track) FormattedFileSize() string {
	if t.FileSize <= 0 {
		return ""
	}
	const (
		mb = 1024 * 1024
		kb = 1024
	)
	switch {
	case t.FileSize >= mb:
		return fmt.Sprintf("%.1f MB", float64(t.FileSize)/float64(mb))
	default:
		return fmt.Sprintf("%d KB", t.FileSize/kb)
	}
}

// Path returns the local file path behind the track URI, or "" when the
// URI is not a local file
func (t Track) Path() string {
	return PathFromURI(t.URI)
}

// Row returns the persisted metadata snapshot of the track
func (t Track) Row() QueueRow {
	return QueueRow{
		URI:      t.URI,
		Title:    t.Title,
		Artist:   t.Artist,
		Album:    t.Album,
		Duration: t.Duration,
	}
}

// FormatClock renders a playback position as m:ss or h:mm:ss
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	h := total / 3600
	m := (total / 60) % 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FileURI builds a file:// URI for an absolute path
func FileURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// PathFromURI converts a file:// URI (or a bare path) to a filesystem path
func PathFromURI(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return filepath.FromSlash(u.Path)
}
