// SPDX-License-Identifier: MIT
package audio

import (
	"sync"
	"time"

	"stemviz/internal/log"
)

// NullPlayer advances the mixer from a clock instead of a sound card. It
// keeps taps, recording and auto-stop working on machines without audio.
type NullPlayer struct {
	mixer    *Mixer
	interval time.Duration
	buf      []float32

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewNullPlayer pulls sampleRate*interval frames from mixer every interval.
func NewNullPlayer(mixer *Mixer, interval time.Duration) *NullPlayer {
	frames := max(1, int(float64(mixer.SampleRate())*interval.Seconds()))
	return &NullPlayer{
		mixer:    mixer,
		interval: interval,
		buf:      make([]float32, frames*2),
		stop:     make(chan struct{}),
	}
}

// Name identifies the backend.
func (p *NullPlayer) Name() string { return "null" }

// Start launches the pull goroutine.
func (p *NullPlayer) Start() error {
	p.wg.Add(1)
	go p.run()
	log.Infof("Null: pulling %d frames every %v", len(p.buf)/2, p.interval)
	return nil
}

func (p *NullPlayer) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.mixer.Read(p.buf)
		}
	}
}

// Close stops the pull goroutine and waits for it.
func (p *NullPlayer) Close() error {
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
	return nil
}
