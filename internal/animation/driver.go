// SPDX-License-Identifier: MIT
/*
Package animation runs the per-frame audio-to-motion pipeline.

Each Tick, in order:
  - sample the loudness of all four tracks
  - aggregate them into the total amplitude and dynamic speed
  - apply the four motion rules (stars, character yaw, light orbit,
    camera orbit) to the scene
  - report whether the next tick should be scheduled

Tick is synchronous and never waits on audio. The Loop in loop.go drives
it from a ticker; tests call it directly.
*/
package animation

import (
	"sync/atomic"
	"time"

	"stemviz/internal/analysis"
	"stemviz/internal/motion"

	"github.com/go-gl/mathgl/mgl64"
)

// Result tells the scheduler what to do after a tick.
type Result int

const (
	Reschedule Result = iota
	Stop
)

func (r Result) String() string {
	if r == Stop {
		return "stop"
	}
	return "reschedule"
}

// Sampler yields one track's loudness for the current frame.
type Sampler interface {
	Amplitude() float64
}

// Particles is a flat xyz buffer the renderer re-reads after MarkDirty.
type Particles interface {
	Positions() []float32
	MarkDirty()
}

// Rotator is a scene node that can turn about its own axes.
type Rotator interface {
	RotateX(angle float64)
	RotateY(angle float64)
}

// Positioner is anything with a settable position.
type Positioner interface {
	SetPosition(p mgl64.Vec3)
}

// Aimer is a camera: it moves, then re-aims.
type Aimer interface {
	Positioner
	LookAt(target mgl64.Vec3)
}

// Tracks are the four stems in mapping order.
type Tracks struct {
	Bass  Sampler
	Drums Sampler
	Vocal Sampler
	Other Sampler
}

// Targets are the scene mutables the driver writes.
type Targets struct {
	Stars     Particles
	Character Rotator
	Light     Positioner
	Camera    Aimer
}

// State is the motion state carried across ticks. Both angles only grow.
type State struct {
	OrbitAngle      float64 `json:"orbitAngle"`
	LightOrbitAngle float64 `json:"lightOrbitAngle"`
}

// Driver owns the animation state and the scene mutation. Only the
// goroutine calling Tick may touch the targets; Stop and Stopped are safe
// from anywhere.
type Driver struct {
	tracks  Tracks
	targets Targets
	state   State
	yaw     float64
	seq     uint64
	frame   Frame
	stopped atomic.Bool
	now     func() time.Time
}

// NewDriver wires tracks to targets and applies the one-time tilt that
// turns the character toward the camera.
func NewDriver(tracks Tracks, targets Targets) *Driver {
	targets.Character.RotateX(motion.InitialTilt)
	return &Driver{
		tracks:  tracks,
		targets: targets,
		now:     time.Now,
	}
}

// Tick runs one frame. A stop requested before the tick skips it; a stop
// requested during the tick lets it finish and returns Stop.
func (d *Driver) Tick() Result {
	if d.stopped.Load() {
		return Stop
	}

	amps := analysis.Amplitudes{
		Bass:  d.tracks.Bass.Amplitude(),
		Drums: d.tracks.Drums.Amplitude(),
		Vocal: d.tracks.Vocal.Amplitude(),
		Other: d.tracks.Other.Amplitude(),
	}
	sig := analysis.Aggregate(amps)

	// Stars.
	motion.AdvanceStars(d.targets.Stars.Positions(), motion.StarSpeed(sig.TotalAmplitude, sig.DynamicSpeed))
	d.targets.Stars.MarkDirty()

	// Character.
	rot := motion.Rotation(amps)
	yaw := motion.YawDelta(rot)
	d.targets.Character.RotateY(yaw)
	d.yaw += yaw

	// Light.
	d.state.LightOrbitAngle += motion.LightOrbitSpeed(amps.Other, sig.DynamicSpeed)
	light := motion.LightPosition(d.state.LightOrbitAngle)
	d.targets.Light.SetPosition(light)

	// Camera.
	d.state.OrbitAngle += motion.OrbitSpeed(sig.TotalAmplitude, sig.DynamicSpeed)
	cam := motion.CameraPosition(d.state.OrbitAngle, amps.Vocal)
	d.targets.Camera.SetPosition(cam)
	d.targets.Camera.LookAt(motion.Origin)

	d.seq++
	d.frame = Frame{
		Seq:        d.seq,
		Time:       d.now(),
		Amplitudes: amps,
		Signal:     sig,
		State:      d.state,
		Rotation:   [3]float64{rot.X(), rot.Y(), rot.Z()},
		Yaw:        d.yaw,
		Camera:     [3]float64{cam.X(), cam.Y(), cam.Z()},
		Light:      [3]float64{light.X(), light.Y(), light.Z()},
	}

	if d.stopped.Load() {
		return Stop
	}
	return Reschedule
}

// Stop requests that no further tick be scheduled.
func (d *Driver) Stop() { d.stopped.Store(true) }

// Stopped reports whether Stop was called.
func (d *Driver) Stopped() bool { return d.stopped.Load() }

// State returns the accumulated angles.
func (d *Driver) State() State { return d.state }

// Frame returns the snapshot of the last completed tick.
func (d *Driver) Frame() Frame { return d.frame }
