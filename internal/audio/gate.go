// SPDX-License-Identifier: MIT
package audio

import "math"

// SetSilenceFloor adjusts the gate on tap writes. The value is in the range
// 0.0-1.0: a block whose peak stays below it is captured as silence, so
// noise in a quiet stem does not nudge the scene. 0 disables the gate.
func (t *Tap) SetSilenceFloor(floor float64) {
	if floor < 0.0 {
		floor = 0.0
	}
	if floor > 1.0 {
		floor = 1.0
	}

	t.mu.Lock()
	t.silenceFloor = float32(floor)
	t.mu.Unlock()
}

// SilenceFloor returns the current gate level.
func (t *Tap) SilenceFloor() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return float64(t.silenceFloor)
}

// peak returns the largest absolute sample value in buffer.
func peak(buffer []float32) float32 {
	var maxAmplitude float32
	for _, s := range buffer {
		a := float32(math.Abs(float64(s)))
		if a > maxAmplitude {
			maxAmplitude = a
		}
	}
	return maxAmplitude
}
