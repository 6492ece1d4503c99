package sim_test

import (
	"context"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/polarsim/internal/dynamo"
	"github.com/san-kum/polarsim/internal/physics"
	"github.com/san-kum/polarsim/internal/sim"
)

var gravity = mgl64.Vec3{0, -9.81, 0}

func cloud(seed int64, n int) *physics.ParticleSystem {
	rng := rand.New(rand.NewSource(seed))
	ps := make([]physics.Particle, n)
	for i := range ps {
		pol := physics.Negative
		if i%2 == 1 {
			pol = physics.Positive
		}
		pos := mgl64.Vec3{rng.Float64() - 0.5, rng.Float64() - 0.5, rng.Float64() - 0.5}
		p, err := physics.NewParticle(pol, pos, 0.05)
		Expect(err).NotTo(HaveOccurred())
		ps[i] = p
	}
	sys, err := physics.NewParticleSystem(ps, physics.DefaultForceLaw())
	Expect(err).NotTo(HaveOccurred())
	return sys
}

func scene(seed int64, particles int) *sim.World {
	floorShape, err := physics.NewRectPrism(mgl64.Vec3{0, -2, 0}, 20, 0.5, 20, mgl64.QuatIdent())
	Expect(err).NotTo(HaveOccurred())
	floor, err := physics.NewPrismBody("floor", physics.Static, floorShape, physics.DefaultMaterial())
	Expect(err).NotTo(HaveOccurred())

	boxShape, err := physics.NewRectPrism(mgl64.Vec3{2, 0, 0}, 0.5, 0.5, 0.5, mgl64.QuatIdent())
	Expect(err).NotTo(HaveOccurred())
	box, err := physics.NewPrismBody("box", physics.Dynamic, boxShape, physics.DefaultMaterial())
	Expect(err).NotTo(HaveOccurred())

	ball, err := physics.NewSphereBody("ball", mgl64.Vec3{-2, 0, 0}, 0.4, 1, physics.DefaultMaterial())
	Expect(err).NotTo(HaveOccurred())

	w, err := sim.NewWorld([]*physics.Body{floor, box, ball}, cloud(seed, particles), gravity)
	Expect(err).NotTo(HaveOccurred())
	return w
}

func positions(s *sim.Snapshot) []mgl64.Vec3 {
	var out []mgl64.Vec3
	for _, b := range s.Bodies {
		out = append(out, b.Positions...)
	}
	for _, p := range s.Particles {
		out = append(out, p.Position)
	}
	return out
}

type scripted struct {
	inputs []sim.Input
	i      int
}

func (s *scripted) Poll() sim.Input {
	if s.i >= len(s.inputs) {
		return sim.Input{}
	}
	in := s.inputs[s.i]
	s.i++
	return in
}

type counter struct{ frames []int }

func (c *counter) OnFrame(s *sim.Snapshot) { c.frames = append(c.frames, s.Frame) }

var _ = Describe("Simulator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Step", func() {
		It("advances frame and time by the sanitised delta", func() {
			s := sim.New(scene(1, 20), sim.WithWorkers(2))

			rep, err := s.Step(0.01, sim.Input{})
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Skipped).To(BeFalse())
			Expect(rep.Frame).To(Equal(1))
			Expect(rep.Dt).To(Equal(0.01))
			Expect(s.Time()).To(BeNumerically("~", 0.01, 1e-15))
			Expect(s.Phase()).To(Equal(sim.Idle))
		})

		It("skips degenerate deltas without touching state", func() {
			s := sim.New(scene(1, 20))
			before := positions(s.Snapshot())

			for _, dt := range []float64{0, -0.5, math.NaN()} {
				rep, err := s.Step(dt, sim.Input{Impulse: true})
				Expect(err).NotTo(HaveOccurred())
				Expect(rep.Skipped).To(BeTrue())
			}

			Expect(s.Frame()).To(Equal(0))
			Expect(positions(s.Snapshot())).To(Equal(before))
		})

		It("clamps stalled deltas to MaxDt", func() {
			s := sim.New(scene(1, 0), sim.WithClock(sim.Clock{MaxDt: 0.02}))

			rep, err := s.Step(3.0, sim.Input{})
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Dt).To(Equal(0.02))
			Expect(s.Time()).To(Equal(0.02))
		})

		It("never moves static bodies", func() {
			w := scene(2, 50)
			s := sim.New(w)
			floor := w.Bodies[0]
			before := append([]physics.Vertex(nil), floor.Vertices...)

			for i := 0; i < 20; i++ {
				_, err := s.Step(0.01, sim.Input{Impulse: i%3 == 0})
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(floor.Vertices).To(Equal(before))
		})

		It("applies the impulse to every dynamic vertex", func() {
			w := scene(1, 0)
			w.Gravity = mgl64.Vec3{}
			s := sim.New(w, sim.WithImpulse(mgl64.Vec3{0, 1, 0}))

			_, err := s.Step(0.01, sim.Input{Impulse: true})
			Expect(err).NotTo(HaveOccurred())

			for _, b := range w.Dynamic() {
				for _, v := range b.Vertices {
					Expect(v.Velocity.Y()).To(BeNumerically("~", 1, 1e-9))
				}
			}
		})

		It("keeps an impulse requested on a skipped frame", func() {
			w := scene(1, 0)
			w.Gravity = mgl64.Vec3{}
			s := sim.New(w, sim.WithImpulse(mgl64.Vec3{0, 1, 0}))

			rep, err := s.Step(0, sim.Input{Impulse: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Skipped).To(BeTrue())

			_, err = s.Step(0.01, sim.Input{})
			Expect(err).NotTo(HaveOccurred())
			for _, b := range w.Dynamic() {
				for _, v := range b.Vertices {
					Expect(v.Velocity.Y()).To(BeNumerically("~", 1, 1e-9))
				}
			}
		})

		It("reports the overlap left after static push-out", func() {
			floorShape, err := physics.NewRectPrism(mgl64.Vec3{0, -0.25, 0}, 10, 0.5, 10, mgl64.QuatIdent())
			Expect(err).NotTo(HaveOccurred())
			floor, err := physics.NewPrismBody("floor", physics.Static, floorShape, physics.DefaultMaterial())
			Expect(err).NotTo(HaveOccurred())

			// the lower particle sinks into the floor; pushing it out drives it
			// into the one resting just above
			low, err := physics.NewParticle(physics.Positive, mgl64.Vec3{0, 0.02, 0}, 0.05)
			Expect(err).NotTo(HaveOccurred())
			high, err := physics.NewParticle(physics.Positive, mgl64.Vec3{0, 0.121, 0}, 0.05)
			Expect(err).NotTo(HaveOccurred())
			law := physics.DefaultForceLaw()
			law.K = 0
			ps, err := physics.NewParticleSystem([]physics.Particle{low, high}, law)
			Expect(err).NotTo(HaveOccurred())

			w, err := sim.NewWorld([]*physics.Body{floor}, ps, mgl64.Vec3{})
			Expect(err).NotTo(HaveOccurred())
			s := sim.New(w)

			rep, err := s.Step(0.01, sim.Input{})
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.StaticContacts).To(Equal(1))
			Expect(rep.Contacts).To(BeNumerically(">", 0))

			final := physics.MaxPenetration(ps.Particles)
			Expect(final).To(BeNumerically("<=", s.World().Particles.Particles[0].Radius*1e-3))
			Expect(rep.Penetration).To(BeNumerically("~", final, 1e-12))
		})

		It("leaves no overlapping particles after the frame", func() {
			s := sim.New(scene(1, 600))

			rep, err := s.Step(0.01, sim.Input{})
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Contacts).To(BeNumerically(">", 0))

			snap := s.Snapshot()
			for _, p := range snap.Particles {
				for _, c := range p.Position {
					Expect(math.IsNaN(c) || math.IsInf(c, 0)).To(BeFalse())
				}
			}
			Expect(physics.MaxPenetration(s.World().Particles.Particles)).To(BeNumerically("<=", 1e-3))
		})

		It("notifies observers once per resolved frame", func() {
			s := sim.New(scene(1, 10))
			obs := &counter{}
			s.AddObserver(obs)

			for _, dt := range []float64{0.01, 0, 0.01, 0.01} {
				_, err := s.Step(dt, sim.Input{})
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(obs.frames).To(Equal([]int{1, 2, 3}))
		})
	})

	Describe("quit", func() {
		It("stops before integrating", func() {
			s := sim.New(scene(1, 10))
			before := positions(s.Snapshot())

			_, err := s.Step(0.01, sim.Input{Quit: true, Impulse: true})
			Expect(err).To(MatchError(dynamo.ErrQuit))
			Expect(s.Frame()).To(Equal(0))
			Expect(positions(s.Snapshot())).To(Equal(before))
		})

		It("ends Run cleanly", func() {
			s := sim.New(scene(1, 10))
			in := &scripted{inputs: []sim.Input{{}, {}, {Quit: true}}}

			res, err := s.Run(ctx, sim.FixedStep(0.01), in, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Frames).To(Equal(2))
			Expect(res.Final.Frame).To(Equal(2))
		})
	})

	Describe("failures", func() {
		It("halts on a non-finite vertex and names the body", func() {
			w := scene(1, 0)
			s := sim.New(w)
			w.Bodies[2].Vertices[0].Velocity = mgl64.Vec3{math.NaN(), 0, 0}

			_, err := s.Step(0.01, sim.Input{})
			Expect(err).To(MatchError(dynamo.ErrNonFinite))

			var simErr *dynamo.SimulationError
			Expect(err).To(BeAssignableToTypeOf(simErr))
			simErr = err.(*dynamo.SimulationError)
			Expect(simErr.Entity).To(Equal("ball"))
			Expect(simErr.Phase).To(Equal(dynamo.PhaseIntegrating))
			Expect(simErr.Frame).To(Equal(0))

			_, err = s.Step(0.01, sim.Input{})
			Expect(err).To(MatchError(dynamo.ErrHalted))
			Expect(s.Frame()).To(Equal(0))
		})

		It("surfaces a topology fault from a worker", func() {
			w := scene(1, 0)
			s := sim.New(w, sim.WithWorkers(4))
			box := w.Bodies[1]
			box.Vertices = box.Vertices[:2]

			_, err := s.Step(0.01, sim.Input{})
			Expect(err).To(MatchError(dynamo.ErrTopology))
			Expect(s.Halted()).To(HaveOccurred())
		})

		It("halts when a particle goes non-finite", func() {
			w := scene(1, 4)
			w.Particles.Particles[3].Velocity = mgl64.Vec3{0, math.Inf(1), 0}
			s := sim.New(w)

			_, err := s.Step(0.01, sim.Input{})
			Expect(err).To(MatchError(dynamo.ErrNonFinite))
		})
	})

	Describe("Run", func() {
		It("is bit-for-bit deterministic across worker counts", func() {
			deltas := []float64{0.01, 0.012, 0, 0.009, 0.2, 0.01}

			a := sim.New(scene(7, 200), sim.WithWorkers(1))
			b := sim.New(scene(7, 200), sim.WithWorkers(8))
			ra, err := a.Run(ctx, sim.NewSequence(deltas...), nil, 40)
			Expect(err).NotTo(HaveOccurred())
			rb, err := b.Run(ctx, sim.NewSequence(deltas...), nil, 40)
			Expect(err).NotTo(HaveOccurred())

			Expect(ra.Frames).To(Equal(39))
			Expect(ra.Skipped).To(Equal(1))
			Expect(positions(ra.Final)).To(Equal(positions(rb.Final)))
		})

		It("stops between frames when the context is cancelled", func() {
			s := sim.New(scene(1, 10))
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			res, err := s.Run(cctx, sim.FixedStep(0.01), nil, 0)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.Frames).To(Equal(0))
		})

		It("hands out snapshots that outlive later frames", func() {
			s := sim.New(scene(1, 10))
			_, err := s.Step(0.01, sim.Input{})
			Expect(err).NotTo(HaveOccurred())

			snap := s.Snapshot()
			held := positions(snap.Clone())
			for i := 0; i < 5; i++ {
				_, err := s.Step(0.01, sim.Input{})
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(positions(snap)).To(Equal(held))
			Expect(positions(s.Snapshot())).NotTo(Equal(held))
		})
	})

	Describe("Ensemble", func() {
		It("runs independent worlds", func() {
			e := sim.NewEnsemble(3,
				func(run int) (*sim.Simulator, error) {
					return sim.New(scene(int64(run), 30), sim.WithWorkers(1)), nil
				},
				func(int) sim.TimeSource { return sim.FixedStep(0.01) },
			)

			results, err := e.Run(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			for _, r := range results {
				Expect(r.Frames).To(Equal(10))
			}
			Expect(positions(results[0].Final)).NotTo(Equal(positions(results[1].Final)))
		})
	})
})

var _ = Describe("Clock", func() {
	DescribeTable("Sanitize",
		func(c sim.Clock, raw, want float64, ok bool) {
			got, gotOK := c.Sanitize(raw)
			Expect(gotOK).To(Equal(ok))
			Expect(got).To(Equal(want))
		},
		Entry("normal", sim.DefaultClock(), 0.01, 0.01, true),
		Entry("zero", sim.DefaultClock(), 0.0, 0.0, false),
		Entry("negative", sim.DefaultClock(), -1.0, 0.0, false),
		Entry("nan", sim.DefaultClock(), math.NaN(), 0.0, false),
		Entry("stall", sim.DefaultClock(), 2.5, 0.05, true),
		Entry("inf", sim.DefaultClock(), math.Inf(1), 0.0, false),
		Entry("inf without cap", sim.Clock{}, math.Inf(1), 0.0, false),
		Entry("stall without cap", sim.Clock{}, 3600.0, 0.05, true),
		Entry("custom cap", sim.Clock{MaxDt: 0.02}, 0.5, 0.02, true),
	)

	It("replays a sequence then repeats the last delta", func() {
		seq := sim.NewSequence(0.1, 0.2)
		Expect([]float64{seq.Next(), seq.Next(), seq.Next()}).To(Equal([]float64{0.1, 0.2, 0.2}))
	})

	It("reports zero on the first wall-clock tick", func() {
		Expect(sim.NewWallClock().Next()).To(Equal(0.0))
	})
})
