package metrics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/polarsim/internal/sim"
)

// ParticleMomentum returns the total linear momentum of the particles in s.
func ParticleMomentum(s *sim.Snapshot) mgl64.Vec3 {
	var p mgl64.Vec3
	for _, pv := range s.Particles {
		p = p.Add(pv.Velocity.Mul(pv.Mass))
	}
	return p
}

// MomentumDrift reports the largest distance between the particle momentum
// and its value at the first observed frame. It stays near zero for an
// isolated particle set without collisions against static geometry.
type MomentumDrift struct {
	name     string
	initial  mgl64.Vec3
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string {
	return m.name
}

func (m *MomentumDrift) Observe(s *sim.Snapshot) {
	p := ParticleMomentum(s)
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++
	if d := p.Sub(m.initial).Len(); d > m.maxDrift {
		m.maxDrift = d
	}
}

func (m *MomentumDrift) Value() float64 {
	return m.maxDrift
}

func (m *MomentumDrift) Reset() {
	m.initial = mgl64.Vec3{}
	m.maxDrift = 0
	m.samples = 0
}
