//go:build cgo

package audio

import (
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Available indicates whether this build produces sound
const Available = true

// speakerSink plays through the system audio device
type speakerSink struct{}

func newDefaultSink() sink {
	return speakerSink{}
}

func (speakerSink) Init(rate beep.SampleRate) error {
	return speaker.Init(rate, rate.N(time.Second/10))
}

func (speakerSink) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerSink) Clear()               { speaker.Clear() }
func (speakerSink) Lock()                { speaker.Lock() }
func (speakerSink) Unlock()              { speaker.Unlock() }
func (speakerSink) Close()               { speaker.Close() }
