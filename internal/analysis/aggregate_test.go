// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"testing"
)

const eps = 1e-12

func TestVocalSlowdownRange(t *testing.T) {
	for v := 0.0; v <= 1.0; v += 0.001 {
		s := VocalSlowdown(v)
		if s < VocalSlowdownFloor || s > 1.0 {
			t.Fatalf("VocalSlowdown(%f) = %f outside [0.05, 1]", v, s)
		}
	}
}

func TestVocalSlowdownValues(t *testing.T) {
	tests := []struct {
		vocal float64
		want  float64
	}{
		{0, 1.0},
		{0.01, 0.75},
		{0.038, VocalSlowdownFloor},
		{0.05, VocalSlowdownFloor},
		{3, VocalSlowdownFloor},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%g", tt.vocal), func(t *testing.T) {
			if got := VocalSlowdown(tt.vocal); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("VocalSlowdown(%g) = %f, want %f", tt.vocal, got, tt.want)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name string
		amps Amplitudes
		want Signal
	}{
		{
			"Silence",
			Amplitudes{},
			Signal{TotalAmplitude: 0, VocalSlowdown: 1, DynamicSpeed: 1},
		},
		{
			"Loud vocal hits the floor",
			Amplitudes{Vocal: 0.05},
			Signal{TotalAmplitude: 0.05, VocalSlowdown: 0.05, DynamicSpeed: 0.05},
		},
		{
			"Unweighted sum can exceed one",
			Amplitudes{Bass: 0.4, Drums: 0.4, Vocal: 0, Other: 0.4},
			Signal{TotalAmplitude: 1.2, VocalSlowdown: 1, DynamicSpeed: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.amps)
			if math.Abs(got.TotalAmplitude-tt.want.TotalAmplitude) > eps ||
				math.Abs(got.VocalSlowdown-tt.want.VocalSlowdown) > eps ||
				math.Abs(got.DynamicSpeed-tt.want.DynamicSpeed) > eps {
				t.Errorf("Aggregate(%+v) = %+v, want %+v", tt.amps, got, tt.want)
			}
		})
	}
}
