// SPDX-License-Identifier: MIT
/*
Package motion maps loudness onto scene motion. Every function here is a
fixed formula with no state: the animation driver owns the accumulated
angles and passes them in.

Each speed formula carries a small additive floor so the scene keeps
moving through silence:

	stars   (total*50   + 0.1)   * dynamicSpeed
	light   (other*0.5  + 0.001) * dynamicSpeed
	camera  (total*0.01 + 0.005) * dynamicSpeed
	yaw      bass*5     + 0.001
*/
package motion

import (
	"math"

	"stemviz/internal/analysis"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	StarSpeedGain  = 50.0
	StarSpeedFloor = 0.1

	// Star depth wraps from just past DepthLimit back to DepthReset.
	DepthLimit = 100.0
	DepthReset = -100.0

	RotationFloor    = 0.001
	BassRotationGain = 5.0

	// InitialTilt is applied once about the lateral axis so the
	// character faces the camera.
	InitialTilt = -1.5

	LightOrbitGain  = 0.5
	LightOrbitFloor = 0.001
	LightElevation  = 10.0

	// CameraBase is both the orbit radius and the source of the
	// horizontal offset CameraBase/4.
	CameraBase  = 1.5
	OrbitGain   = 0.01
	OrbitFloor  = 0.005
	OrbitRadius = CameraBase
)

// LightOrbitRadius keeps the light at the horizontal distance of its
// starting position (5, 10, 7.5).
var LightOrbitRadius = math.Sqrt(5*5 + 7.5*7.5)

// Origin is where the camera always aims.
var Origin = mgl64.Vec3{0, 0, 0}

// StarSpeed is the per-tick depth advance of every star.
func StarSpeed(totalAmplitude, dynamicSpeed float64) float64 {
	return (totalAmplitude*StarSpeedGain + StarSpeedFloor) * dynamicSpeed
}

// AdvanceStars moves the depth (third) coordinate of every xyz triple in
// positions by speed. A star that passes DepthLimit is placed at exactly
// DepthReset; its x and y are left alone. The caller marks the buffer dirty.
func AdvanceStars(positions []float32, speed float64) {
	for i := 2; i < len(positions); i += 3 {
		// Add in float64 and round once on store.
		positions[i] = float32(float64(positions[i]) + speed)
		if positions[i] > DepthLimit {
			positions[i] = DepthReset
		}
	}
}

// Rotation returns the per-tick rotation vector. Only Y is applied to the
// character (see YawDelta); X and Z are computed for telemetry and left
// unapplied.
func Rotation(a analysis.Amplitudes) mgl64.Vec3 {
	return mgl64.Vec3{
		math.Sin(a.Drums) + RotationFloor,
		a.Bass*BassRotationGain + RotationFloor,
		math.Sin(a.Vocal) + RotationFloor,
	}
}

// YawDelta is the rotation about the vertical axis applied this tick.
func YawDelta(rotation mgl64.Vec3) float64 {
	return rotation.Y() * analysis.GlobalSpeedFactor
}

// LightOrbitSpeed is the per-tick increase of the light's orbit angle.
func LightOrbitSpeed(other, dynamicSpeed float64) float64 {
	return (other*LightOrbitGain + LightOrbitFloor) * dynamicSpeed
}

// LightPosition places the light on its orbit at the original elevation.
func LightPosition(angle float64) mgl64.Vec3 {
	return mgl64.Vec3{
		math.Sin(angle) * LightOrbitRadius,
		LightElevation,
		math.Cos(angle) * LightOrbitRadius,
	}
}

// OrbitSpeed is the per-tick increase of the camera's orbit angle.
func OrbitSpeed(totalAmplitude, dynamicSpeed float64) float64 {
	return (totalAmplitude*OrbitGain + OrbitFloor) * dynamicSpeed
}

// CameraPosition places the camera for orbitAngle. The vocal amplitude
// shifts the phase of X only. Y and Z share sin(orbitAngle), so the camera
// travels a diagonal line in the Y-Z plane rather than a circle.
func CameraPosition(orbitAngle, vocal float64) mgl64.Vec3 {
	yz := math.Sin(orbitAngle) * OrbitRadius
	return mgl64.Vec3{
		CameraBase/4 + math.Cos(orbitAngle+vocal)*OrbitRadius,
		yz,
		yz,
	}
}
