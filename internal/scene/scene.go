// Package scene turns a validated configuration into a world ready to step.
package scene

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/polarsim/internal/config"
	"github.com/san-kum/polarsim/internal/dynamo"
	"github.com/san-kum/polarsim/internal/physics"
	"github.com/san-kum/polarsim/internal/sim"
)

// Scene is everything a Simulator needs besides its logger.
type Scene struct {
	World    *sim.World
	Resolver *physics.Resolver
	Clock    sim.Clock
	Impulse  mgl64.Vec3
	Workers  int
}

// Options returns the simulator options matching the scene settings.
func (s *Scene) Options() []sim.Option {
	return []sim.Option{
		sim.WithResolver(s.Resolver),
		sim.WithClock(s.Clock),
		sim.WithImpulse(s.Impulse),
		sim.WithWorkers(s.Workers),
	}
}

// NewSimulator builds a simulator over the scene. Extra options are applied
// after the scene's own.
func (s *Scene) NewSimulator(opts ...sim.Option) *sim.Simulator {
	return sim.New(s.World, append(s.Options(), opts...)...)
}

func vec(v config.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[1], v[2]}
}

// Build validates cfg and constructs the world. Any configuration problem
// aborts construction with an error wrapping dynamo.ErrInvalidConfig or
// dynamo.ErrTopology.
func Build(cfg *config.Config) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	particles, err := buildParticles(cfg, rng)
	if err != nil {
		return nil, err
	}
	law := physics.ForceLaw{
		K:           cfg.Law.K,
		MinDistance: cfg.Law.MinDistance,
		Cutoff:      cfg.Law.Cutoff,
		Damping:     cfg.Law.Damping,
		MaxSpeed:    cfg.Law.MaxSpeed,
	}
	ps, err := physics.NewParticleSystem(particles, law)
	if err != nil {
		return nil, err
	}

	bodies := make([]*physics.Body, 0, len(cfg.Bodies))
	for _, bc := range cfg.Bodies {
		b, err := buildBody(bc)
		if err != nil {
			return nil, fmt.Errorf("body %q: %w", bc.Name, err)
		}
		bodies = append(bodies, b)
	}

	w, err := sim.NewWorld(bodies, ps, vec(cfg.Gravity))
	if err != nil {
		return nil, err
	}

	r := physics.DefaultResolver()
	r.Restitution = cfg.Collision.Restitution
	r.Tolerance = cfg.Collision.Tolerance
	r.MaxIterations = cfg.Collision.MaxIterations

	return &Scene{
		World:    w,
		Resolver: r,
		Clock:    sim.Clock{MaxDt: cfg.MaxDt},
		Impulse:  vec(cfg.Impulse),
		Workers:  cfg.Workers,
	}, nil
}

func polarityFor(pattern string, i int, rng *rand.Rand) physics.Polarity {
	switch pattern {
	case config.PolarityPositive:
		return physics.Positive
	case config.PolarityNegative:
		return physics.Negative
	case config.PolarityRandom:
		if rng.Intn(2) == 1 {
			return physics.Positive
		}
		return physics.Negative
	default:
		if i%2 == 1 {
			return physics.Positive
		}
		return physics.Negative
	}
}

// buildParticles places particles uniformly in a cube of side Spread around
// Center unless explicit points are given.
func buildParticles(cfg *config.Config, rng *rand.Rand) ([]physics.Particle, error) {
	pc := cfg.Particles
	n := cfg.ParticleCount()
	out := make([]physics.Particle, n)
	center := vec(pc.Center)

	for i := 0; i < n; i++ {
		pol := polarityFor(pc.Polarity, i, rng)

		var pos mgl64.Vec3
		if len(pc.Points) > 0 {
			pos = vec(pc.Points[i])
		} else {
			pos = center.Add(mgl64.Vec3{
				(rng.Float64() - 0.5) * pc.Spread,
				(rng.Float64() - 0.5) * pc.Spread,
				(rng.Float64() - 0.5) * pc.Spread,
			})
		}

		p := physics.Particle{Polarity: pol, Position: pos, Radius: pc.Radius, Mass: pc.Mass}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("particle %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

func material(m *config.MaterialConfig) physics.Material {
	if m == nil {
		return physics.DefaultMaterial()
	}
	return physics.Material{
		VertexMass:  m.VertexMass,
		Stiffness:   m.Stiffness,
		Damping:     m.Damping,
		Restitution: m.Restitution,
		Friction:    m.Friction,
	}
}

func buildBody(bc config.BodyConfig) (*physics.Body, error) {
	kind := physics.Dynamic
	if bc.Kind == "static" {
		kind = physics.Static
	}
	mat := material(bc.Material)

	var (
		b   *physics.Body
		err error
	)
	switch bc.Shape {
	case "prism":
		rot := mgl64.AnglesToQuat(
			mgl64.DegToRad(bc.Rotation[0]),
			mgl64.DegToRad(bc.Rotation[1]),
			mgl64.DegToRad(bc.Rotation[2]),
			mgl64.XYZ,
		)
		var prism *physics.RectPrism
		prism, err = physics.NewRectPrism(vec(bc.Center), bc.Size[0], bc.Size[1], bc.Size[2], rot)
		if err != nil {
			return nil, err
		}
		b, err = physics.NewPrismBody(bc.Name, kind, prism, mat)
	case "sphere":
		b, err = physics.NewSphereBody(bc.Name, vec(bc.Center), bc.Radius, bc.Subdivisions, mat)
	default:
		return nil, fmt.Errorf("%w: unknown shape %q", dynamo.ErrInvalidConfig, bc.Shape)
	}
	if err != nil {
		return nil, err
	}

	if kind == physics.Dynamic {
		v0 := vec(bc.Velocity)
		for i := range b.Vertices {
			b.Vertices[i].Velocity = v0
		}
	}
	return b, nil
}
