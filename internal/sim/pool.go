package sim

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/polarsim/internal/physics"
)

// BodyView is the render-facing copy of one body.
type BodyView struct {
	Name       string
	Kind       physics.Kind
	Positions  []mgl64.Vec3
	Velocities []mgl64.Vec3
	VertexMass float64
	Faces      [][3]int
}

// ParticleView is the render-facing copy of one particle.
type ParticleView struct {
	Polarity physics.Polarity
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Radius   float64
	Mass     float64
}

// Snapshot is a read-only copy of the world after a resolved frame. It never
// aliases simulator storage, so holding it across frames is safe.
type Snapshot struct {
	Frame     int
	Time      float64
	Bodies    []BodyView
	Particles []ParticleView
}

// Capture overwrites the snapshot with the state of w, reusing buffers.
func (s *Snapshot) Capture(frame int, t float64, w *World) {
	s.Frame = frame
	s.Time = t

	if cap(s.Bodies) < len(w.Bodies) {
		s.Bodies = make([]BodyView, len(w.Bodies))
	}
	s.Bodies = s.Bodies[:len(w.Bodies)]
	for i, b := range w.Bodies {
		bv := &s.Bodies[i]
		bv.Name = b.Name
		bv.Kind = b.Kind
		bv.Positions = b.AppendPositions(bv.Positions[:0])
		bv.Velocities = bv.Velocities[:0]
		for _, v := range b.Vertices {
			bv.Velocities = append(bv.Velocities, v.Velocity)
		}
		bv.VertexMass = b.Material.VertexMass
		// faces are immutable after construction
		bv.Faces = b.Faces
	}

	ps := w.Particles.Particles
	s.Particles = s.Particles[:0]
	for i := range ps {
		s.Particles = append(s.Particles, ParticleView{
			Polarity: ps[i].Polarity,
			Position: ps[i].Position,
			Velocity: ps[i].Velocity,
			Radius:   ps[i].Radius,
			Mass:     ps[i].Mass,
		})
	}
}

// Clone returns an independent deep copy.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Frame:     s.Frame,
		Time:      s.Time,
		Bodies:    make([]BodyView, len(s.Bodies)),
		Particles: append([]ParticleView(nil), s.Particles...),
	}
	for i, b := range s.Bodies {
		c.Bodies[i] = BodyView{
			Name:       b.Name,
			Kind:       b.Kind,
			Positions:  append([]mgl64.Vec3(nil), b.Positions...),
			Velocities: append([]mgl64.Vec3(nil), b.Velocities...),
			VertexMass: b.VertexMass,
			Faces:      b.Faces,
		}
	}
	return c
}

// SnapshotPool recycles per-frame snapshots.
type SnapshotPool struct {
	pool sync.Pool
}

func NewSnapshotPool() *SnapshotPool {
	return &SnapshotPool{
		pool: sync.Pool{
			New: func() interface{} {
				return &Snapshot{}
			},
		},
	}
}

func (p *SnapshotPool) Get() *Snapshot {
	return p.pool.Get().(*Snapshot)
}

func (p *SnapshotPool) Put(s *Snapshot) {
	if s != nil {
		p.pool.Put(s)
	}
}
