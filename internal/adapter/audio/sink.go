package audio

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

// sink is the audio output the engine streams into. Lock guards
// streamers that are being played, the same way speaker.Lock does.
type sink interface {
	Init(rate beep.SampleRate) error
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
	Close()
}

// mixerSink pulls samples from a mixer without producing sound. The
// engine still observes position and end of track, it just stays quiet.
type mixerSink struct {
	mu    sync.Mutex
	mixer beep.Mixer
	buf   [][2]float64
}

func (m *mixerSink) Init(beep.SampleRate) error { return nil }

func (m *mixerSink) Play(s beep.Streamer) {
	m.mu.Lock()
	m.mixer.Add(s)
	m.mu.Unlock()
}

func (m *mixerSink) Clear() {
	m.mu.Lock()
	m.mixer.Clear()
	m.mu.Unlock()
}

func (m *mixerSink) Lock()   { m.mu.Lock() }
func (m *mixerSink) Unlock() { m.mu.Unlock() }
func (m *mixerSink) Close()  { m.Clear() }

// drain streams n samples and discards them
func (m *mixerSink) drain(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cap(m.buf) < n {
		m.buf = make([][2]float64, n)
	}
	m.mixer.Stream(m.buf[:n])
}
