package metrics

import (
	"math"

	"github.com/san-kum/polarsim/internal/sim"
)

// PeakSpeed returns the fastest particle or vertex speed in s.
func PeakSpeed(s *sim.Snapshot) float64 {
	top := 0.0
	for _, p := range s.Particles {
		top = math.Max(top, p.Velocity.Len())
	}
	for _, b := range s.Bodies {
		for _, v := range b.Velocities {
			top = math.Max(top, v.Len())
		}
	}
	return top
}

// Overlap returns the deepest particle interpenetration in s.
func Overlap(s *sim.Snapshot) float64 {
	worst := 0.0
	ps := s.Particles
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			d := ps[j].Position.Sub(ps[i].Position).Len()
			if pen := ps[i].Radius + ps[j].Radius - d; pen > worst {
				worst = pen
			}
		}
	}
	return worst
}

type MaxSpeed struct {
	name string
	max  float64
}

func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{name: "max_speed"}
}

func (m *MaxSpeed) Name() string { return m.name }

func (m *MaxSpeed) Observe(s *sim.Snapshot) {
	m.max = math.Max(m.max, PeakSpeed(s))
}

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { m.max = 0 }

// Penetration is the worst residual overlap seen after resolution.
type Penetration struct {
	name  string
	worst float64
}

func NewPenetration() *Penetration {
	return &Penetration{name: "penetration"}
}

func (p *Penetration) Name() string { return p.name }

func (p *Penetration) Observe(s *sim.Snapshot) {
	p.worst = math.Max(p.worst, Overlap(s))
}

func (p *Penetration) Value() float64 { return p.worst }

func (p *Penetration) Reset() { p.worst = 0 }

// Stability is the fraction of frames whose peak speed stayed under the
// threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(snap *sim.Snapshot) {
	s.samples++
	if PeakSpeed(snap) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Standard returns the metric set attached by the CLI.
func Standard(speedLimit float64) []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewEnergyDrift(),
		NewMomentumDrift(),
		NewMaxSpeed(),
		NewPenetration(),
		NewStability(speedLimit),
	}
}
