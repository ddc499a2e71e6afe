// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"sync"

	"stemviz/internal/analysis"
	"stemviz/pkg/bitint"
)

// Tap captures the mono signal of one stem into a ring buffer so the
// frame loop can read the latest window while the audio callback keeps
// writing. It is the analyser handle a Track samples.
type Tap struct {
	mu      sync.Mutex
	buf     []float32
	mask    int
	pos     int // Next write index.
	written int // Samples held, capped at len(buf).

	silenceFloor float32

	spectrum *analysis.FFTProcessor
	window   []float32
}

var (
	_ analysis.TimeDomainSource = (*Tap)(nil)
	_ analysis.SpectrumSource   = (*Tap)(nil)
)

// NewTap creates a tap holding at least capacity samples. The capacity is
// rounded up to a power of two.
func NewTap(capacity int) *Tap {
	size := bitint.NextPowerOfTwo(max(capacity, 2))
	return &Tap{
		buf:  make([]float32, size),
		mask: bitint.WrapMask(size),
	}
}

// Capacity is the number of samples the ring holds.
func (t *Tap) Capacity() int { return len(t.buf) }

// Write appends samples, gated by the silence floor. Called from the audio
// callback; it does not allocate.
func (t *Tap) Write(samples []float32) {
	t.mu.Lock()
	gated := t.silenceFloor > 0 && peak(samples) < t.silenceFloor
	for _, s := range samples {
		if gated {
			s = 0
		}
		t.buf[t.pos] = s
		t.pos = (t.pos + 1) & t.mask
	}
	t.written = min(t.written+len(samples), len(t.buf))
	t.mu.Unlock()
}

// FillTimeDomain copies the newest len(dst) samples into dst, oldest
// first. Positions with no audio yet, or beyond the ring capacity, are 0.
func (t *Tap) FillTimeDomain(dst []float32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := min(len(dst), t.written)
	lead := len(dst) - n
	clear(dst[:lead])

	start := (t.pos - n) & t.mask
	for i := range n {
		dst[lead+i] = t.buf[(start+i)&t.mask]
	}
}

// Reset discards everything captured so far.
func (t *Tap) Reset() {
	t.mu.Lock()
	clear(t.buf)
	t.pos, t.written = 0, 0
	t.mu.Unlock()
}

// EnableSpectrum attaches an FFT so FrequencyData can be served. The FFT
// size must not exceed the tap capacity.
func (t *Tap) EnableSpectrum(p *analysis.FFTProcessor) error {
	if p.GetFFTSize() > len(t.buf) {
		return errors.New("fft size exceeds tap capacity")
	}
	t.spectrum = p
	t.window = make([]float32, p.GetFFTSize())
	return nil
}

// Spectrum returns the attached FFT, or nil.
func (t *Tap) Spectrum() *analysis.FFTProcessor { return t.spectrum }

// UpdateSpectrum runs the attached FFT over the latest window. Consumers
// of Spectrum read the result. Only the frame loop goroutine may call it.
func (t *Tap) UpdateSpectrum() error {
	if t.spectrum == nil {
		return errors.New("spectrum not enabled on tap")
	}
	t.FillTimeDomain(t.window)
	t.spectrum.Process(t.window)
	return nil
}

// FrequencyData updates the spectrum and writes its magnitudes into dst.
func (t *Tap) FrequencyData(dst []float64) error {
	if err := t.UpdateSpectrum(); err != nil {
		return err
	}
	return t.spectrum.GetMagnitudesInto(dst)
}
