// SPDX-License-Identifier: MIT
package analysis

// TimeDomainSource is the live read handle of one track. FillTimeDomain
// overwrites dst with the most recent len(dst) samples. It never blocks
// and leaves zeros where no audio has been delivered yet.
type TimeDomainSource interface {
	FillTimeDomain(dst []float32)
}

// SpectrumSource exposes the frequency-domain view of the same handle.
type SpectrumSource interface {
	// FrequencyData writes FFT magnitudes of the latest window into dst,
	// which must hold FFTSize/2+1 values.
	FrequencyData(dst []float64) error
}

// FFTResultProvider defines an interface for components that can provide FFT magnitude
// results. This decouples consumers like BandEnergy from the FFT implementation.
type FFTResultProvider interface {
	GetMagnitudesInto(dst []float64) error   // Copies the latest magnitude spectrum into dst.
	GetFrequencyForBin(binIndex int) float64 // Center frequency (Hz) of a bin.
	GetFFTSize() int                         // Number of points of the FFT.
	GetSampleRate() float64                  // Sample rate used for the analysis.
}
