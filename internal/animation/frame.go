// SPDX-License-Identifier: MIT
package animation

import (
	"time"

	"stemviz/internal/analysis"
)

// Frame is an immutable snapshot of one tick, handed to renderers,
// recorders and the terminal meter. Vectors are x, y, z.
type Frame struct {
	Seq        uint64              `json:"seq"`
	Time       time.Time           `json:"time"`
	Amplitudes analysis.Amplitudes `json:"amplitudes"`
	Signal     analysis.Signal     `json:"signal"`
	State      State               `json:"state"`

	// Rotation is the full computed vector; only Y reaches the character.
	Rotation [3]float64 `json:"rotation"`
	Yaw      float64    `json:"yaw"`

	Camera [3]float64 `json:"camera"`
	Light  [3]float64 `json:"light"`

	Bands *StemBands `json:"bands,omitempty"`
}

// StemBands are optional per-stem band energies.
type StemBands struct {
	Bass  analysis.Bands `json:"bass"`
	Drums analysis.Bands `json:"drums"`
	Vocal analysis.Bands `json:"vocal"`
	Other analysis.Bands `json:"other"`
}
