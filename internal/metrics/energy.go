package metrics

import (
	"math"

	"github.com/san-kum/polarsim/internal/sim"
)

// Kinetic returns the total kinetic energy of every particle and every body
// vertex in s.
func Kinetic(s *sim.Snapshot) float64 {
	e := 0.0
	for _, p := range s.Particles {
		e += 0.5 * p.Mass * p.Velocity.Dot(p.Velocity)
	}
	for _, b := range s.Bodies {
		for _, v := range b.Velocities {
			e += 0.5 * b.VertexMass * v.Dot(v)
		}
	}
	return e
}

// KineticEnergy averages total kinetic energy over observed frames.
type KineticEnergy struct {
	name    string
	samples int
	total   float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(s *sim.Snapshot) {
	e.total += Kinetic(s)
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyDrift tracks the largest relative change of kinetic energy from the
// first observed frame.
type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s *sim.Snapshot) {
	energy := Kinetic(s)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
