//go:build !cgo

package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

// Available indicates whether this build produces sound. Audio output
// needs cgo; without it tracks advance in real time but silently.
const Available = false

const drainInterval = 20 * time.Millisecond

// realtimeSink drains a mixerSink at the sample rate
type realtimeSink struct {
	mixerSink
	once sync.Once
	done chan struct{}
}

func newDefaultSink() sink {
	return &realtimeSink{done: make(chan struct{})}
}

func (r *realtimeSink) Init(rate beep.SampleRate) error {
	r.once.Do(func() {
		go r.run(rate.N(drainInterval))
	})
	return nil
}

func (r *realtimeSink) run(n int) {
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.drain(n)
		}
	}
}

func (r *realtimeSink) Close() {
	r.mixerSink.Close()
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}
