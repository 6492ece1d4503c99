package metrics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/polarsim/internal/sim"
)

func snap(frame int, vels ...mgl64.Vec3) *sim.Snapshot {
	s := &sim.Snapshot{Frame: frame, Time: float64(frame) * 0.01}
	for i, v := range vels {
		s.Particles = append(s.Particles, sim.ParticleView{
			Position: mgl64.Vec3{float64(i), 0, 0},
			Velocity: v,
			Radius:   0.05,
			Mass:     1,
		})
	}
	return s
}

func TestKineticIncludesBodies(t *testing.T) {
	s := snap(1, mgl64.Vec3{1, 0, 0})
	s.Bodies = []sim.BodyView{{
		Velocities: []mgl64.Vec3{{0, 2, 0}, {0, 0, 0}},
		VertexMass: 0.5,
	}}

	// 0.5*1*1 + 0.5*0.5*4
	if got := Kinetic(s); math.Abs(got-1.5) > 1e-12 {
		t.Errorf("expected 1.5, got %v", got)
	}
}

func TestKineticEnergyAverages(t *testing.T) {
	m := NewKineticEnergy()
	m.Observe(snap(1, mgl64.Vec3{1, 0, 0}))
	m.Observe(snap(2, mgl64.Vec3{3, 0, 0}))

	if got := m.Value(); math.Abs(got-2.5) > 1e-12 {
		t.Errorf("expected mean 2.5, got %v", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift()
	m.Observe(snap(1, mgl64.Vec3{2, 0, 0}))
	m.Observe(snap(2, mgl64.Vec3{1, 0, 0}))
	m.Observe(snap(3, mgl64.Vec3{2, 0, 0}))

	if got := m.Value(); math.Abs(got-0.75) > 1e-12 {
		t.Errorf("expected drift 0.75, got %v", got)
	}
}

func TestMomentumDrift(t *testing.T) {
	m := NewMomentumDrift()
	m.Observe(snap(1, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{-1, 0, 0}))
	if m.Value() != 0 {
		t.Errorf("expected no drift on first frame, got %v", m.Value())
	}

	m.Observe(snap(2, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 0}))
	if got := m.Value(); math.Abs(got-1) > 1e-12 {
		t.Errorf("expected drift 1, got %v", got)
	}
}

func TestPeakAndOverlap(t *testing.T) {
	s := snap(1, mgl64.Vec3{0, 3, 4}, mgl64.Vec3{1, 0, 0})
	s.Particles[1].Position = mgl64.Vec3{0.08, 0, 0}

	if got := PeakSpeed(s); got != 5 {
		t.Errorf("expected peak speed 5, got %v", got)
	}
	if got := Overlap(s); math.Abs(got-0.02) > 1e-12 {
		t.Errorf("expected overlap 0.02, got %v", got)
	}
}

func TestStability(t *testing.T) {
	m := NewStability(2)
	m.Observe(snap(1, mgl64.Vec3{1, 0, 0}))
	m.Observe(snap(2, mgl64.Vec3{3, 0, 0}))

	if got := m.Value(); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
}

func TestRecorderSampling(t *testing.T) {
	r := NewRecorder(2)
	for f := 1; f <= 5; f++ {
		r.OnFrame(snap(f, mgl64.Vec3{float64(f), 0, 0}))
	}

	if len(r.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(r.Rows))
	}
	speeds := r.Series(func(row Row) float64 { return row.MaxSpeed })
	if speeds[0] != 2 || speeds[1] != 4 {
		t.Errorf("unexpected sampled speeds %v", speeds)
	}
	if r.Rows[1].Momentum.X() != 4 {
		t.Errorf("unexpected momentum %v", r.Rows[1].Momentum)
	}
}

func TestStandardNames(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Standard(5) {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %q", m.Name())
		}
		seen[m.Name()] = true
	}
	if len(seen) != 6 {
		t.Errorf("expected 6 metrics, got %d", len(seen))
	}
}
