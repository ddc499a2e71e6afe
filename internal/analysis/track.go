// SPDX-License-Identifier: MIT
package analysis

// Track samples the loudness of one stem. It owns a window buffer sized
// once at construction, so Amplitude never allocates.
type Track struct {
	name   string
	source TimeDomainSource
	window []float32
}

// NewTrack creates a sampler reading windowSize samples from source per call.
func NewTrack(name string, source TimeDomainSource, windowSize int) *Track {
	return &Track{
		name:   name,
		source: source,
		window: make([]float32, windowSize),
	}
}

// Name returns the stem name.
func (t *Track) Name() string { return t.name }

// Amplitude reads the latest window from the source and returns RMS/25.
// Repeated calls without new audio return the same value.
func (t *Track) Amplitude() float64 {
	t.source.FillTimeDomain(t.window)
	return Amplitude(t.window)
}
