package library

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/mmcdole/cadence/internal/domain"
)

// progressEvery is how many files pass between progress reports
const progressEvery = 50

// ProbeFunc returns the duration of an audio file
type ProbeFunc func(path string) (time.Duration, error)

// SupportedFunc reports whether a file can be played
type SupportedFunc func(path string) bool

// scanned carries the tag fields used for ordering
type scanned struct {
	track domain.Track
	disc  int
	num   int
}

// Scanner walks a directory tree and reads the tags of every playable
// file it finds.
type Scanner struct {
	root      string
	supported SupportedFunc
	probe     ProbeFunc
}

// NewScanner creates a scanner for root. probe may be nil, in which case
// durations stay unknown.
func NewScanner(root string, supported SupportedFunc, probe ProbeFunc) *Scanner {
	return &Scanner{root: root, supported: supported, probe: probe}
}

// Root returns the directory the scanner walks
func (s *Scanner) Root() string {
	return s.root
}

// Scan returns every playable file under root, ordered by artist, album,
// disc, track number and title. Unreadable files are skipped.
func (s *Scanner) Scan(ctx context.Context, onProgress domain.ProgressFunc) ([]domain.Track, error) {
	var found []scanned

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.root {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.supported(path) {
			return nil
		}

		found = append(found, s.read(path))
		if onProgress != nil && len(found)%progressEvery == 0 {
			onProgress(len(found))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if c := compareFold(a.track.Artist, b.track.Artist); c != 0 {
			return c < 0
		}
		if c := compareFold(a.track.Album, b.track.Album); c != 0 {
			return c < 0
		}
		if a.disc != b.disc {
			return a.disc < b.disc
		}
		if a.num != b.num {
			return a.num < b.num
		}
		return compareFold(a.track.Title, b.track.Title) < 0
	})

	tracks := make([]domain.Track, len(found))
	for i, f := range found {
		tracks[i] = f.track
	}
	if onProgress != nil {
		onProgress(len(tracks))
	}
	return tracks, nil
}

// read builds a track from the file's tags, falling back to the file
// name for the title
func (s *Scanner) read(path string) scanned {
	out := scanned{track: domain.Track{
		URI:   domain.FileURI(path),
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}}

	if info, err := os.Stat(path); err == nil {
		out.track.FileSize = info.Size()
	}

	if f, err := os.Open(path); err == nil {
		m, err := tag.ReadFrom(f)
		f.Close()
		if err == nil {
			if title := strings.TrimSpace(m.Title()); title != "" {
				out.track.Title = title
			}
			out.track.Artist = strings.TrimSpace(m.Artist())
			if out.track.Artist == "" {
				out.track.Artist = strings.TrimSpace(m.AlbumArtist())
			}
			out.track.Album = strings.TrimSpace(m.Album())
			out.num, _ = m.Track()
			out.disc, _ = m.Disc()
		}
	}

	if s.probe != nil {
		if d, err := s.probe(path); err == nil {
			out.track.Duration = d
		}
	}
	return out
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
