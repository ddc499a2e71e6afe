// SPDX-License-Identifier: MIT
package analysis

import "math"

const (
	// GlobalSpeedFactor is the master speed dial applied to every motion.
	GlobalSpeedFactor = 1.0

	// VocalSlowdownFloor keeps a loud vocal from freezing the scene.
	VocalSlowdownFloor = 0.05

	// VocalSlowdownGain maps vocal amplitude onto the slowdown; a vocal
	// above ~0.038 hits the floor.
	VocalSlowdownGain = 25.0
)

// Amplitudes holds one frame's loudness of every stem.
type Amplitudes struct {
	Bass  float64 `json:"bass"`
	Drums float64 `json:"drums"`
	Vocal float64 `json:"vocal"`
	Other float64 `json:"other"`
}

// Signal is the aggregate control signal derived from Amplitudes.
type Signal struct {
	TotalAmplitude float64 `json:"totalAmplitude"`
	VocalSlowdown  float64 `json:"vocalSlowdown"`
	DynamicSpeed   float64 `json:"dynamicSpeed"`
}

// Aggregate combines the four stem amplitudes. The sum is unweighted and
// may exceed 1.
func Aggregate(a Amplitudes) Signal {
	slowdown := VocalSlowdown(a.Vocal)
	return Signal{
		TotalAmplitude: a.Bass + a.Drums + a.Vocal + a.Other,
		VocalSlowdown:  slowdown,
		DynamicSpeed:   GlobalSpeedFactor * slowdown,
	}
}

// VocalSlowdown returns max(0.05, 1 - vocal*25). It is 1 for a silent
// vocal and never below the floor.
func VocalSlowdown(vocal float64) float64 {
	return math.Max(VocalSlowdownFloor, 1.0-vocal*VocalSlowdownGain)
}
