// SPDX-License-Identifier: MIT
/*
Package scene holds the mutable scene state the animation driver writes
each frame: the star particle buffer, the camera, one light and the
character node. A renderer (external) reads it after every tick.

Nothing here is safe for concurrent use. The frame loop goroutine is the
only writer and reader; other goroutines receive snapshots.
*/
package scene

import (
	"math/rand"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

// Defaults for a fresh scene.
var (
	DefaultCameraPosition = mgl64.Vec3{0, 1.5, 1}
	DefaultLightPosition  = mgl64.Vec3{5, 10, 7.5}
)

// StarExtent is the edge length of the cube the stars start in.
const StarExtent = 200.0

// StarField is a flat xyz position buffer with a change counter the
// renderer uses to decide when to re-upload it.
type StarField struct {
	positions []float32
	version   atomic.Uint64
}

// NewStarField scatters count stars uniformly in a StarExtent cube
// centered on the origin. The same seed yields the same field.
func NewStarField(count int, seed int64) *StarField {
	rng := rand.New(rand.NewSource(seed))
	positions := make([]float32, count*3)
	for i := range positions {
		positions[i] = float32((rng.Float64() - 0.5) * StarExtent)
	}
	return &StarField{positions: positions}
}

// Positions returns the live buffer; writes are visible to the renderer
// after MarkDirty.
func (s *StarField) Positions() []float32 { return s.positions }

// Len is the number of stars.
func (s *StarField) Len() int { return len(s.positions) / 3 }

// MarkDirty records that the buffer changed.
func (s *StarField) MarkDirty() { s.version.Add(1) }

// Version increases on every MarkDirty.
func (s *StarField) Version() uint64 { return s.version.Load() }

// Camera is a perspective camera position plus the point it aims at.
type Camera struct {
	position mgl64.Vec3
	target   mgl64.Vec3
	up       mgl64.Vec3
	view     mgl64.Mat4
}

// NewCamera places a camera at position aimed at the origin.
func NewCamera(position mgl64.Vec3) *Camera {
	c := &Camera{position: position, up: mgl64.Vec3{0, 1, 0}}
	c.LookAt(mgl64.Vec3{})
	return c
}

// SetPosition moves the camera without re-aiming it.
func (c *Camera) SetPosition(p mgl64.Vec3) { c.position = p }

// Position returns the camera position.
func (c *Camera) Position() mgl64.Vec3 { return c.position }

// Target returns the point the camera last aimed at.
func (c *Camera) Target() mgl64.Vec3 { return c.target }

// LookAt aims the camera at target and rebuilds the view matrix.
func (c *Camera) LookAt(target mgl64.Vec3) {
	c.target = target
	c.view = mgl64.LookAtV(c.position, target, c.up)
}

// View returns the view matrix from the last LookAt.
func (c *Camera) View() mgl64.Mat4 { return c.view }

// Forward is the unit direction from the camera to its target. It is the
// zero vector when the camera sits on its target.
func (c *Camera) Forward() mgl64.Vec3 {
	d := c.target.Sub(c.position)
	if d.Len() == 0 {
		return mgl64.Vec3{}
	}
	return d.Normalize()
}

// Light is a directional light; its position sets the direction.
type Light struct {
	position mgl64.Vec3
}

// NewLight creates a light at position.
func NewLight(position mgl64.Vec3) *Light { return &Light{position: position} }

// SetPosition moves the light.
func (l *Light) SetPosition(p mgl64.Vec3) { l.position = p }

// Position returns the light position.
func (l *Light) Position() mgl64.Vec3 { return l.position }

// Node is a rotatable scene-graph node. Rotations are about the node's
// local axes, so a tilt applied first changes what "vertical" means for
// every later yaw.
type Node struct {
	orientation mgl64.Quat
	yaw         float64
}

// NewNode returns a node with identity orientation.
func NewNode() *Node { return &Node{orientation: mgl64.QuatIdent()} }

// RotateX rotates about the node's lateral axis.
func (n *Node) RotateX(angle float64) {
	n.rotate(angle, mgl64.Vec3{1, 0, 0})
}

// RotateY rotates about the node's vertical axis.
func (n *Node) RotateY(angle float64) {
	n.rotate(angle, mgl64.Vec3{0, 1, 0})
	n.yaw += angle
}

func (n *Node) rotate(angle float64, axis mgl64.Vec3) {
	n.orientation = n.orientation.Mul(mgl64.QuatRotate(angle, axis)).Normalize()
}

// Orientation returns the current rotation.
func (n *Node) Orientation() mgl64.Quat { return n.orientation }

// Yaw is the total angle applied through RotateY.
func (n *Node) Yaw() float64 { return n.yaw }

// Scene bundles the mutables one visualization drives.
type Scene struct {
	Stars     *StarField
	Camera    *Camera
	Light     *Light
	Character *Node
}

// New builds the default scene with count stars.
func New(count int, seed int64) *Scene {
	return &Scene{
		Stars:     NewStarField(count, seed),
		Camera:    NewCamera(DefaultCameraPosition),
		Light:     NewLight(DefaultLightPosition),
		Character: NewNode(),
	}
}
