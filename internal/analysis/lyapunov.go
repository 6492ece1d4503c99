package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/polarsim/internal/config"
	"github.com/san-kum/polarsim/internal/physics"
	"github.com/san-kum/polarsim/internal/scene"
	"github.com/san-kum/polarsim/internal/sim"
)

var ErrNoParticles = errors.New("scene has no particles")

// Separation is the Euclidean distance between two particle states over
// positions and velocities. Both slices must have the same length.
func Separation(a, b []physics.Particle) float64 {
	sep := 0.0
	for i := range a {
		dp := b[i].Position.Sub(a[i].Position)
		dv := b[i].Velocity.Sub(a[i].Velocity)
		sep += dp.Dot(dp) + dv.Dot(dv)
	}
	return math.Sqrt(sep)
}

// LyapunovExponent estimates the largest Lyapunov exponent of the scene in
// cfg using the trajectory separation method:
//
//  1. Run a twin whose particle 0 starts displaced by perturbation along x
//  2. After each frame, accumulate ln(d/d0)
//  3. Pull the twin back to distance d0 along the separation
//
// Bodies are identical in both runs, so only particle state is compared.
func LyapunovExponent(ctx context.Context, cfg *config.Config, perturbation float64, frames int) (float64, error) {
	if perturbation <= 0 {
		return 0, fmt.Errorf("perturbation must be positive, got %v", perturbation)
	}
	if frames <= 0 {
		return 0, nil
	}

	ref, err := scene.Build(cfg)
	if err != nil {
		return 0, err
	}
	twin, err := scene.Build(cfg)
	if err != nil {
		return 0, err
	}

	a := ref.World.Particles.Particles
	b := twin.World.Particles.Particles
	if len(a) == 0 {
		return 0, ErrNoParticles
	}
	b[0].Position[0] += perturbation
	d0 := perturbation

	sa := ref.NewSimulator(sim.WithWorkers(1))
	sb := twin.NewSimulator(sim.WithWorkers(1))

	sumLog := 0.0
	elapsed := 0.0
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		ra, err := sa.Step(cfg.Dt, sim.Input{})
		if err != nil {
			return 0, err
		}
		if _, err := sb.Step(cfg.Dt, sim.Input{}); err != nil {
			return 0, err
		}
		if ra.Skipped {
			continue
		}
		elapsed += ra.Dt

		sep := Separation(a, b)
		if sep == 0 {
			// trajectories merged, e.g. both clamped against the same wall
			b[0].Position[0] = a[0].Position[0] + perturbation
			continue
		}
		sumLog += math.Log(sep / d0)

		scale := d0 / sep
		for k := range b {
			b[k].Position = a[k].Position.Add(b[k].Position.Sub(a[k].Position).Mul(scale))
			b[k].Velocity = a[k].Velocity.Add(b[k].Velocity.Sub(a[k].Velocity).Mul(scale))
		}
	}

	if elapsed == 0 {
		return 0, nil
	}
	return sumLog / elapsed, nil
}
