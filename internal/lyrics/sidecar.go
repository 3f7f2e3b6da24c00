package lyrics

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmcdole/cadence/internal/domain"
)

// SidecarSource reads lyrics from files stored next to the audio file:
// song.lrc first, then song.txt.
type SidecarSource struct {
	fsys fs.FS // nil reads the OS filesystem
}

// NewSidecarSource creates a source reading from the OS filesystem
func NewSidecarSource() *SidecarSource {
	return &SidecarSource{}
}

// Fetch implements domain.LyricsSource
func (s *SidecarSource) Fetch(ctx context.Context, q domain.LyricsQuery) (domain.Lyrics, error) {
	if err := ctx.Err(); err != nil {
		return domain.Lyrics{}, fmt.Errorf("%w: %v", domain.ErrLyricsUnavailable, err)
	}

	audioPath := domain.PathFromURI(q.URI)
	if audioPath == "" {
		return domain.Lyrics{}, domain.ErrLyricsNotFound
	}
	base := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))

	for _, ext := range []string{".lrc", ".txt"} {
		data, err := s.readFile(base + ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return domain.Lyrics{}, fmt.Errorf("%w: %v", domain.ErrLyricsUnavailable, err)
		}
		return Parse(string(data)), nil
	}
	return domain.Lyrics{}, domain.ErrLyricsNotFound
}

func (s *SidecarSource) readFile(name string) ([]byte, error) {
	if s.fsys != nil {
		return fs.ReadFile(s.fsys, strings.TrimPrefix(filepath.ToSlash(name), "/"))
	}
	return os.ReadFile(name)
}
