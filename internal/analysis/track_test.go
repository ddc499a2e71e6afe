// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"
)

// fixedSource fills every window from a fixed signal, newest samples last.
type fixedSource struct {
	samples []float32
	calls   int
}

func (f *fixedSource) FillTimeDomain(dst []float32) {
	f.calls++
	clear(dst)
	n := min(len(dst), len(f.samples))
	copy(dst[len(dst)-n:], f.samples[len(f.samples)-n:])
}

func TestTrackAmplitude(t *testing.T) {
	tests := []struct {
		name    string
		samples []float32
		window  int
		want    float64
	}{
		{"Silent source", nil, 8, 0},
		{"Full window of 0.5", []float32{0.5, -0.5, 0.5, -0.5}, 4, 0.5 / AmplitudeDivisor},
		// Two samples of 1 in a window of four: RMS = sqrt(2/4).
		{"Partially filled window", []float32{1, 1}, 4, math.Sqrt(0.5) / AmplitudeDivisor},
		{"Only the newest samples count", []float32{1, 1, 1, 0, 0}, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTrack("bass", &fixedSource{samples: tt.samples}, tt.window)
			if got := tr.Amplitude(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Amplitude = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestTrackAmplitudeIsStable(t *testing.T) {
	src := &fixedSource{samples: []float32{0.1, 0.2, 0.3, 0.4}}
	tr := NewTrack("vocal", src, 4)
	first := tr.Amplitude()
	second := tr.Amplitude()
	if first != second {
		t.Errorf("unchanged source gave %f then %f", first, second)
	}
	if src.calls != 2 {
		t.Errorf("source read %d times, want 2", src.calls)
	}
	if tr.Name() != "vocal" {
		t.Errorf("Name = %q", tr.Name())
	}
}

func TestTrackAmplitudeHotPath(t *testing.T) {
	tr := NewTrack("drums", &fixedSource{samples: make([]float32, 2048)}, 1024)
	allocs := testing.AllocsPerRun(100, func() {
		_ = tr.Amplitude()
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Track.Amplitude, got %.1f", allocs)
	}
}
