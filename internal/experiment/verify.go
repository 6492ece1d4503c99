package experiment

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/polarsim/internal/config"
	"github.com/san-kum/polarsim/internal/scene"
	"github.com/san-kum/polarsim/internal/sim"
)

// Verification compares the final state of replicated runs.
type Verification struct {
	Runs       int
	Frames     int
	Positions  int
	Mismatches int
	// First is the index of the first differing position, or -1.
	First int
}

func (v Verification) Identical() bool { return v.Mismatches == 0 }

// Verify builds the same scene once per entry of workers and runs all copies
// concurrently with identical deltas. Every copy must end bit-for-bit equal
// to the first.
func Verify(ctx context.Context, cfg *config.Config, workers []int) (Verification, error) {
	e := sim.NewEnsemble(len(workers),
		func(run int) (*sim.Simulator, error) {
			sc, err := scene.Build(cfg)
			if err != nil {
				return nil, err
			}
			sc.Workers = workers[run]
			return sc.NewSimulator(), nil
		},
		func(int) sim.TimeSource { return sim.FixedStep(cfg.Dt) },
	)

	results, err := e.Run(ctx, cfg.Frames)
	if err != nil {
		return Verification{}, err
	}

	v := Verification{Runs: len(results), First: -1}
	if len(results) == 0 {
		return v, nil
	}
	ref := flatten(results[0].Final)
	v.Frames = results[0].Frames
	v.Positions = len(ref)
	for _, r := range results[1:] {
		got := flatten(r.Final)
		if len(got) != len(ref) {
			v.Mismatches += len(ref)
			continue
		}
		for i := range ref {
			if got[i] != ref[i] {
				if v.First < 0 {
					v.First = i
				}
				v.Mismatches++
			}
		}
	}
	return v, nil
}

func flatten(s *sim.Snapshot) []mgl64.Vec3 {
	var out []mgl64.Vec3
	for _, b := range s.Bodies {
		out = append(out, b.Positions...)
	}
	for _, p := range s.Particles {
		out = append(out, p.Position, p.Velocity)
	}
	return out
}
