package physics

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/polarsim/internal/dynamo"
)

func undampedLaw(k float64) ForceLaw {
	return ForceLaw{K: k, MinDistance: 0.05}
}

func pair(t *testing.T, qa, qb Polarity, dist float64) []Particle {
	t.Helper()
	a, err := NewParticle(qa, mgl64.Vec3{0, 0, 0}, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewParticle(qb, mgl64.Vec3{dist, 0, 0}, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	return []Particle{a, b}
}

func TestOppositePairAttracts(t *testing.T) {
	k, dt := 2.0, 0.01
	sys, err := NewParticleSystem(pair(t, Positive, Negative, 1.0), undampedLaw(k))
	if err != nil {
		t.Fatal(err)
	}

	sys.Step(dt)

	a, b := sys.Particles[0], sys.Particles[1]
	want := k * dt / (1.0 * 1.0)

	if math.Abs(a.Velocity.X()-want) > 1e-12 {
		t.Errorf("a.vx = %v, want %v toward b", a.Velocity.X(), want)
	}
	if math.Abs(b.Velocity.X()+want) > 1e-12 {
		t.Errorf("b.vx = %v, want %v toward a", b.Velocity.X(), -want)
	}
	if a.Velocity.Y() != 0 || a.Velocity.Z() != 0 {
		t.Errorf("unexpected off-axis velocity %v", a.Velocity)
	}

	moveA := a.Position.X()
	moveB := 1.0 - b.Position.X()
	if math.Abs(moveA-want*dt) > 1e-12 || math.Abs(moveA-moveB) > 1e-15 {
		t.Errorf("moves not symmetric: a=%v b=%v", moveA, moveB)
	}
}

func TestLikePairRepels(t *testing.T) {
	for _, q := range []Polarity{Positive, Negative} {
		sys, err := NewParticleSystem(pair(t, q, q, 0.5), undampedLaw(1))
		if err != nil {
			t.Fatal(err)
		}
		sys.Step(0.01)

		if sys.Particles[0].Velocity.X() >= 0 || sys.Particles[1].Velocity.X() <= 0 {
			t.Errorf("polarity %s: expected repulsion, got %v and %v",
				q, sys.Particles[0].Velocity, sys.Particles[1].Velocity)
		}
	}
}

func TestParticleZeroDtIsNoOp(t *testing.T) {
	ps := pair(t, Positive, Negative, 0.3)
	ps[0].Velocity = mgl64.Vec3{1, 2, 3}
	before := append([]Particle(nil), ps...)

	sys, err := NewParticleSystem(ps, DefaultForceLaw())
	if err != nil {
		t.Fatal(err)
	}
	sys.Step(0)

	for i := range before {
		if sys.Particles[i] != before[i] {
			t.Errorf("particle %d changed: %+v -> %+v", i, before[i], sys.Particles[i])
		}
	}
}

func TestMomentumConservedForIsolatedPair(t *testing.T) {
	ps := pair(t, Positive, Negative, 1.0)
	ps[0].Velocity = mgl64.Vec3{0, 0.1, 0}
	ps[1].Velocity = mgl64.Vec3{0, 0, -0.05}

	sys, err := NewParticleSystem(ps, undampedLaw(0.01))
	if err != nil {
		t.Fatal(err)
	}
	p0 := Momentum(sys.Particles)

	for i := 0; i < 1000; i++ {
		sys.Step(0.01)
	}

	drift := Momentum(sys.Particles).Sub(p0).Len()
	if drift > 1e-12 {
		t.Errorf("momentum drift %e", drift)
	}
}

func TestMinDistanceFloor(t *testing.T) {
	law := ForceLaw{K: 1, MinDistance: 0.05}

	f := law.Pair(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1e-9, 0, 0}, Positive, Positive)
	if !finite(f) {
		t.Fatalf("non-finite force %v", f)
	}
	if max := 1 / (0.05 * 0.05); f.Len() > max*(1+1e-12) {
		t.Errorf("force %v exceeds floor bound %v", f.Len(), max)
	}

	if got := law.Pair(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{1, 1, 1}, Positive, Negative); got != (mgl64.Vec3{}) {
		t.Errorf("coincident particles should exert no force, got %v", got)
	}
}

func TestCutoff(t *testing.T) {
	law := ForceLaw{K: 1, MinDistance: 0.05, Cutoff: 0.5}
	if f := law.Pair(mgl64.Vec3{}, mgl64.Vec3{0.6, 0, 0}, Positive, Negative); f != (mgl64.Vec3{}) {
		t.Errorf("expected no force beyond cutoff, got %v", f)
	}
	if f := law.Pair(mgl64.Vec3{}, mgl64.Vec3{0.4, 0, 0}, Positive, Negative); f == (mgl64.Vec3{}) {
		t.Error("expected force inside cutoff")
	}
}

func TestUpdateReadsPreviousFrame(t *testing.T) {
	law := undampedLaw(0.5)
	ps := []Particle{
		{Polarity: Positive, Position: mgl64.Vec3{0, 0, 0}, Radius: 0.01, Mass: 1},
		{Polarity: Negative, Position: mgl64.Vec3{0.4, 0, 0}, Radius: 0.01, Mass: 1},
		{Polarity: Positive, Position: mgl64.Vec3{0, 0.3, 0.1}, Radius: 0.01, Mass: 2},
	}

	dt := 0.02
	want := make([]mgl64.Vec3, len(ps))
	for i := range ps {
		var f mgl64.Vec3
		for j := range ps {
			if i != j {
				f = f.Add(law.Pair(ps[i].Position, ps[j].Position, ps[i].Polarity, ps[j].Polarity))
			}
		}
		want[i] = f.Mul(dt / ps[i].Mass)
	}

	sys, err := NewParticleSystem(ps, law)
	if err != nil {
		t.Fatal(err)
	}
	sys.Step(dt)

	for i := range ps {
		if !vecNear(sys.Particles[i].Velocity, want[i], 1e-14) {
			t.Errorf("particle %d velocity %v, want %v", i, sys.Particles[i].Velocity, want[i])
		}
	}
}

func TestGridMatchesAllPairs(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ps := make([]Particle, 300)
	for i := range ps {
		q := Negative
		if i%2 == 1 {
			q = Positive
		}
		ps[i] = Particle{
			Polarity: q,
			Position: mgl64.Vec3{rng.Float64() - 0.5, rng.Float64() - 0.5, rng.Float64() - 0.5},
			Radius:   0.01,
			Mass:     1,
		}
	}

	law := DefaultForceLaw()
	law.Cutoff = 0.2
	law.K = 1e-3

	gridded := append([]Particle(nil), ps...)
	brute := append([]Particle(nil), ps...)

	var gf Frame
	gf.Capture(gridded, law)
	for i := range gridded {
		gridded[i].Update(i, &gf, law, 0.01)
	}

	var bf Frame
	bf.Capture(brute, law)
	bf.grid = nil
	for i := range brute {
		brute[i].Update(i, &bf, law, 0.01)
	}

	for i := range ps {
		if gridded[i] != brute[i] {
			t.Fatalf("particle %d differs: grid %+v brute %+v", i, gridded[i], brute[i])
		}
	}
}

func TestVelocityClamp(t *testing.T) {
	law := ForceLaw{K: 1e6, MinDistance: 0.05, MaxSpeed: 2}
	sys, err := NewParticleSystem(pair(t, Positive, Negative, 0.1), law)
	if err != nil {
		t.Fatal(err)
	}
	sys.Step(0.01)

	for i, p := range sys.Particles {
		if p.Velocity.Len() > 2+1e-12 {
			t.Errorf("particle %d speed %v above clamp", i, p.Velocity.Len())
		}
	}
}

func TestNewParticleValidation(t *testing.T) {
	tests := []struct {
		name   string
		pol    Polarity
		pos    mgl64.Vec3
		radius float64
		valid  bool
	}{
		{"ok", Positive, mgl64.Vec3{1, 2, 3}, 0.1, true},
		{"zero polarity", 0, mgl64.Vec3{}, 0.1, false},
		{"polarity 2", 2, mgl64.Vec3{}, 0.1, false},
		{"nan position", Negative, mgl64.Vec3{math.NaN(), 0, 0}, 0.1, false},
		{"inf position", Negative, mgl64.Vec3{0, math.Inf(1), 0}, 0.1, false},
		{"zero radius", Positive, mgl64.Vec3{}, 0, false},
		{"negative radius", Positive, mgl64.Vec3{}, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParticle(tt.pol, tt.pos, tt.radius)
			if tt.valid && err != nil {
				t.Errorf("unexpected error %v", err)
			}
			if !tt.valid && !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestForceLawValidate(t *testing.T) {
	tests := []struct {
		name  string
		law   ForceLaw
		valid bool
	}{
		{"default", DefaultForceLaw(), true},
		{"zero min distance", ForceLaw{K: 1}, false},
		{"negative k", ForceLaw{K: -1, MinDistance: 0.1}, false},
		{"nan damping", ForceLaw{K: 1, MinDistance: 0.1, Damping: math.NaN()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.law.Validate()
			if (err == nil) != tt.valid {
				t.Errorf("Validate() = %v, valid = %v", err, tt.valid)
			}
		})
	}
}
