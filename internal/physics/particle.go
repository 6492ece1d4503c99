package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/polarsim/internal/dynamo"
)

// Polarity is the charge sign of a particle.
type Polarity int8

const (
	Negative Polarity = -1
	Positive Polarity = 1
)

func (p Polarity) Valid() bool { return p == Negative || p == Positive }

func (p Polarity) String() string {
	if p == Positive {
		return "+"
	}
	return "-"
}

// Particle is an independent point mass. Polarity must not change after
// creation.
type Particle struct {
	Polarity Polarity
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Radius   float64
	Mass     float64
}

// NewParticle creates a resting unit-mass particle.
func NewParticle(pol Polarity, pos mgl64.Vec3, radius float64) (Particle, error) {
	p := Particle{Polarity: pol, Position: pos, Radius: radius, Mass: 1}
	return p, p.Validate()
}

func (p *Particle) Validate() error {
	switch {
	case !p.Polarity.Valid():
		return fmt.Errorf("%w: polarity %d", dynamo.ErrInvalidConfig, p.Polarity)
	case !finite(p.Position) || !finite(p.Velocity):
		return fmt.Errorf("%w: particle at %v moving %v", dynamo.ErrInvalidConfig, p.Position, p.Velocity)
	case !finiteScalar(p.Radius) || p.Radius <= 0:
		return fmt.Errorf("%w: particle radius %v", dynamo.ErrInvalidConfig, p.Radius)
	case !finiteScalar(p.Mass) || p.Mass <= 0:
		return fmt.Errorf("%w: particle mass %v", dynamo.ErrInvalidConfig, p.Mass)
	}
	return nil
}

func (p *Particle) Finite() bool {
	return finite(p.Position) && finite(p.Velocity)
}

// ForceLaw is the inverse-square polarity interaction.
//
// The force on a particle from another at separation r is
// K*qa*qb/max(r, MinDistance)^2 directed away from the other particle, so like
// polarities repel and opposite polarities attract. Pairs further apart than
// Cutoff are ignored when Cutoff > 0.
type ForceLaw struct {
	K           float64
	MinDistance float64
	Cutoff      float64
	Damping     float64
	MaxSpeed    float64
}

func DefaultForceLaw() ForceLaw {
	return ForceLaw{
		K:           1e-4,
		MinDistance: 0.05,
		Cutoff:      0,
		Damping:     0.5,
		MaxSpeed:    5.0,
	}
}

func (l ForceLaw) Validate() error {
	for name, v := range map[string]float64{
		"k": l.K, "min_distance": l.MinDistance, "cutoff": l.Cutoff,
		"damping": l.Damping, "max_speed": l.MaxSpeed,
	} {
		if !finiteScalar(v) || v < 0 {
			return fmt.Errorf("%w: force law %s = %v", dynamo.ErrInvalidConfig, name, v)
		}
	}
	if l.MinDistance == 0 {
		return fmt.Errorf("%w: force law min_distance must be positive", dynamo.ErrInvalidConfig)
	}
	return nil
}

// Pair returns the force exerted on a particle at pa by one at pb.
func (l ForceLaw) Pair(pa, pb mgl64.Vec3, qa, qb Polarity) mgl64.Vec3 {
	d := pa.Sub(pb)
	r := d.Len()
	if r == 0 {
		return mgl64.Vec3{}
	}
	if l.Cutoff > 0 && r > l.Cutoff {
		return mgl64.Vec3{}
	}
	rc := math.Max(r, l.MinDistance)
	mag := l.K * float64(qa) * float64(qb) / (rc * rc)
	return d.Mul(mag / r)
}

// Frame is the read-only previous-frame view handed to Particle.Update.
type Frame struct {
	Positions []mgl64.Vec3
	Polarity  []Polarity

	grid *Grid
	near []int
}

// Capture copies the particle state into the frame, reusing its buffers.
func (f *Frame) Capture(ps []Particle, law ForceLaw) {
	f.Positions = f.Positions[:0]
	f.Polarity = f.Polarity[:0]
	for i := range ps {
		f.Positions = append(f.Positions, ps[i].Position)
		f.Polarity = append(f.Polarity, ps[i].Polarity)
	}

	if law.Cutoff <= 0 {
		f.grid = nil
		return
	}
	if f.grid == nil {
		f.grid = NewGrid(law.Cutoff)
	} else if f.grid.CellSize() != law.Cutoff {
		f.grid.Resize(law.Cutoff)
	}
	f.grid.Build(f.Positions)
}

// Update advances the particle at index self against frame, which must hold
// the positions from before any particle of this frame moved.
func (p *Particle) Update(self int, frame *Frame, law ForceLaw, dt float64) {
	if dt <= 0 {
		return
	}

	pos := frame.Positions[self]
	q := frame.Polarity[self]

	var force mgl64.Vec3
	if frame.grid != nil {
		frame.near = frame.grid.Near(pos, frame.near)
		for _, j := range frame.near {
			if j == self {
				continue
			}
			force = force.Add(law.Pair(pos, frame.Positions[j], q, frame.Polarity[j]))
		}
	} else {
		for j := range frame.Positions {
			if j == self {
				continue
			}
			force = force.Add(law.Pair(pos, frame.Positions[j], q, frame.Polarity[j]))
		}
	}

	p.Velocity = p.Velocity.Add(force.Mul(dt / p.Mass))
	if law.Damping > 0 {
		p.Velocity = p.Velocity.Mul(math.Max(0, 1-law.Damping*dt))
	}
	p.Velocity = clampLen(p.Velocity, law.MaxSpeed)
	p.Position = p.Position.Add(p.Velocity.Mul(dt))
}

// ParticleSystem owns the particle list and its double buffer.
type ParticleSystem struct {
	Particles []Particle
	Law       ForceLaw

	frame Frame
}

func NewParticleSystem(particles []Particle, law ForceLaw) (*ParticleSystem, error) {
	if err := law.Validate(); err != nil {
		return nil, err
	}
	for i := range particles {
		if err := particles[i].Validate(); err != nil {
			return nil, fmt.Errorf("particle %d: %w", i, err)
		}
	}
	return &ParticleSystem{Particles: particles, Law: law}, nil
}

// Step updates every particle in ascending index order against a snapshot of
// the positions taken before the first update.
func (s *ParticleSystem) Step(dt float64) {
	if dt <= 0 || len(s.Particles) == 0 {
		return
	}
	s.frame.Capture(s.Particles, s.Law)
	for i := range s.Particles {
		s.Particles[i].Update(i, &s.frame, s.Law, dt)
	}
}

// Momentum returns the total linear momentum.
func Momentum(ps []Particle) mgl64.Vec3 {
	var p mgl64.Vec3
	for i := range ps {
		p = p.Add(ps[i].Velocity.Mul(ps[i].Mass))
	}
	return p
}

// KineticEnergy returns sum(m v^2 / 2).
func KineticEnergy(ps []Particle) float64 {
	e := 0.0
	for i := range ps {
		v := ps[i].Velocity
		e += 0.5 * ps[i].Mass * v.Dot(v)
	}
	return e
}
