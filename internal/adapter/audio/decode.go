package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

const (
	extMP3  = ".mp3"
	extWAV  = ".wav"
	extFLAC = ".flac"
)

// Supported reports whether path has an extension the engine can decode
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case extMP3, extWAV, extFLAC:
		return true
	}
	return false
}

// Open decodes the audio file at path. Closing the returned streamer
// closes the file.
func Open(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case extMP3:
		streamer, format, err = mp3.Decode(f)
	case extWAV:
		streamer, format, err = wav.Decode(f)
	case extFLAC:
		streamer, format, err = flac.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q", ext)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return streamer, format, nil
}

// Probe returns the duration of the audio file at path
func Probe(path string) (time.Duration, error) {
	streamer, format, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()
	return format.SampleRate.D(streamer.Len()), nil
}
