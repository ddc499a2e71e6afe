// SPDX-License-Identifier: MIT
package analysis

import "math"

// AmplitudeDivisor brings the RMS of normal playback into roughly 0..0.1.
const AmplitudeDivisor = 25.0

// RMS returns the root-mean-square of buffer. Non-finite samples count
// as silence. An empty buffer has an RMS of 0.
func RMS(buffer []float32) float64 {
	if len(buffer) == 0 {
		return 0.0
	}

	var sumSquare float64
	for _, sample := range buffer {
		s := float64(sample)
		if math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		sumSquare += s * s
	}

	return math.Sqrt(sumSquare / float64(len(buffer)))
}

// Amplitude is the normalized loudness of one sample window.
func Amplitude(buffer []float32) float64 {
	return RMS(buffer) / AmplitudeDivisor
}
