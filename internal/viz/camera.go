package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/polarsim/internal/physics"
	"github.com/san-kum/polarsim/internal/sim"
)

// Camera orbits Target at Distance. It only feeds the render pass.
type Camera struct {
	Target     mgl64.Vec3
	Yaw, Pitch float64
	Distance   float64
	FOV        float64
	Near, Far  float64
}

func NewCamera() *Camera {
	return &Camera{Pitch: 0.35, Distance: 3, FOV: mgl64.DegToRad(45), Near: 0.05, Far: 1000}
}

func (c *Camera) RotateYaw(a float64) { c.Yaw += a }

func (c *Camera) RotatePitch(a float64) {
	c.Pitch = mgl64.Clamp(c.Pitch+a, -1.5, 1.5)
}

func (c *Camera) ZoomIn()  { c.Distance = math.Max(0.2, c.Distance/1.2) }
func (c *Camera) ZoomOut() { c.Distance = math.Min(500, c.Distance*1.2) }

// Eye is the camera position in world space.
func (c *Camera) Eye() mgl64.Vec3 {
	cp := math.Cos(c.Pitch)
	offset := mgl64.Vec3{
		c.Distance * cp * math.Sin(c.Yaw),
		c.Distance * math.Sin(c.Pitch),
		c.Distance * cp * math.Cos(c.Yaw),
	}
	return c.Target.Add(offset)
}

func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Eye(), c.Target, mgl64.Vec3{0, 1, 0})
}

func (c *Camera) Projection(w, h int) mgl64.Mat4 {
	aspect := 1.0
	if h > 0 {
		aspect = float64(w) / float64(h)
	}
	return mgl64.Perspective(c.FOV, aspect, c.Near, c.Far)
}

// Projector caches the combined matrix for one frame.
type Projector struct {
	mvp  mgl64.Mat4
	w, h int
}

func (c *Camera) Projector(w, h int) Projector {
	return Projector{mvp: c.Projection(w, h).Mul4(c.View()), w: w, h: h}
}

// Project maps a world point to sub-pixel coordinates. ok is false for
// points behind the camera; points off screen still project so lines can be
// clipped by the canvas.
func (p Projector) Project(v mgl64.Vec3) (x, y int, depth float64, ok bool) {
	clip := p.mvp.Mul4x1(v.Vec4(1))
	if clip.W() <= 1e-9 {
		return 0, 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	x = int((ndc.X() + 1) / 2 * float64(p.w))
	y = int((1 - ndc.Y()) / 2 * float64(p.h))
	return x, y, clip.W(), true
}

// Fit points the camera at the dynamic part of the scene. Static bodies are
// ignored since floors are usually far larger than the action.
func (c *Camera) Fit(s *sim.Snapshot) {
	var (
		sum mgl64.Vec3
		n   int
	)
	each := func(fn func(p mgl64.Vec3)) {
		for _, pv := range s.Particles {
			fn(pv.Position)
		}
		for _, b := range s.Bodies {
			if b.Kind == physics.Static {
				continue
			}
			for _, p := range b.Positions {
				fn(p)
			}
		}
	}
	each(func(p mgl64.Vec3) { sum = sum.Add(p); n++ })
	if n == 0 {
		return
	}
	c.Target = sum.Mul(1 / float64(n))

	radius := 0.0
	each(func(p mgl64.Vec3) { radius = math.Max(radius, p.Sub(c.Target).Len()) })
	c.Distance = math.Max(1, 2.5*radius+0.5)
}
