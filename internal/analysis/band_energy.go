package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// FrequencyBand defines the name and frequency range for an energy band.
type FrequencyBand struct {
	Name   string
	LowHz  float64
	HighHz float64

	// Bin range [lo, hi) resolved against the provider's bin frequencies.
	lo, hi int
}

// Bands are the per-stem band energies published with each frame.
// Values are RMS band magnitudes, normalized so a full-scale Hann-windowed
// sine reads about 1 at its own bin, doubled and clamped to [0, 1].
type Bands struct {
	Sub    float64 `json:"sub"`
	Bass   float64 `json:"bass"`
	Mid    float64 `json:"mid"`
	Treble float64 `json:"treble"`
}

const bandGain = 2.0

// BandEnergy calculates energy across fixed frequency bands from FFT data.
// It is informational only and never feeds the motion mapping.
type BandEnergy struct {
	provider   FFTResultProvider
	bands      [4]FrequencyBand
	magnitudes []float64
	norm       float64
}

// NewBandEnergy resolves the band bin ranges for provider.
func NewBandEnergy(provider FFTResultProvider) *BandEnergy {
	nyquist := provider.GetSampleRate() / 2
	b := &BandEnergy{
		provider: provider,
		bands: [4]FrequencyBand{
			{Name: "sub", LowHz: 20, HighHz: 60},
			{Name: "bass", LowHz: 60, HighHz: 250},
			{Name: "mid", LowHz: 250, HighHz: 4000},
			{Name: "treble", LowHz: 4000, HighHz: nyquist + 1},
		},
		magnitudes: make([]float64, provider.GetFFTSize()/2+1),
		norm:       4.0 / float64(provider.GetFFTSize()),
	}

	for i := range b.bands {
		band := &b.bands[i]
		band.lo, band.hi = -1, -1
		for bin := range b.magnitudes {
			freq := provider.GetFrequencyForBin(bin)
			if freq >= band.LowHz && freq < band.HighHz {
				if band.lo < 0 {
					band.lo = bin
				}
				band.hi = bin + 1
			}
		}
	}
	return b
}

// Compute reads the provider's latest spectrum and returns the band energies.
func (b *BandEnergy) Compute() (Bands, error) {
	if err := b.provider.GetMagnitudesInto(b.magnitudes); err != nil {
		return Bands{}, err
	}
	return Bands{
		Sub:    b.energy(0),
		Bass:   b.energy(1),
		Mid:    b.energy(2),
		Treble: b.energy(3),
	}, nil
}

// energy is the clamped, scaled RMS magnitude of one band.
func (b *BandEnergy) energy(i int) float64 {
	band := b.bands[i]
	if band.lo < 0 || band.hi <= band.lo {
		return 0
	}
	m := b.magnitudes[band.lo:band.hi]
	avg := floats.Dot(m, m) / float64(len(m))
	return math.Min(1.0, math.Sqrt(avg)*b.norm*bandGain)
}
