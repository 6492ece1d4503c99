package sim

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/polarsim/internal/dynamo"
	"github.com/san-kum/polarsim/internal/physics"
)

// Phase is the frame-level state of the simulator.
type Phase int

const (
	Idle Phase = iota
	Integrating
	Resolving
)

func (p Phase) String() string {
	switch p {
	case Integrating:
		return "integrating"
	case Resolving:
		return "resolving"
	default:
		return "idle"
	}
}

type Option func(*Simulator)

func WithLogger(l *log.Logger) Option { return func(s *Simulator) { s.logger = l } }
func WithWorkers(n int) Option { return func(s *Simulator) { s.pool = dynamo.NewPool(n) } }
func WithClock(c Clock) Option { return func(s *Simulator) { s.clock = c } }
func WithImpulse(dv mgl64.Vec3) Option { return func(s *Simulator) { s.impulse = dv } }
func WithResolver(r *physics.Resolver) Option {
	return func(s *Simulator) { s.resolver = r }
}

// Simulator drives the frame loop. Each frame runs, in order: body updates in
// parallel (joined), particle updates, collision resolution, then metrics and
// observers. A frame that fails halts the simulator for good.
//
// Simulator is not safe for concurrent use.
type Simulator struct {
	world    *World
	dynamic  []*physics.Body
	statics  []*physics.Body
	pool     *dynamo.Pool
	resolver *physics.Resolver
	clock    Clock
	impulse  mgl64.Vec3
	logger   *log.Logger

	metrics   []Metric
	observers []Observer
	snapshots *SnapshotPool

	phase  Phase
	frame  int
	t      float64
	halted error
}

func New(w *World, opts ...Option) *Simulator {
	s := &Simulator{
		world:     w,
		dynamic:   w.Dynamic(),
		statics:   w.Statics(),
		pool:      dynamo.NewPool(0),
		resolver:  physics.DefaultResolver(),
		clock:     DefaultClock(),
		impulse:   DefaultImpulse,
		logger:    log.New(io.Discard),
		snapshots: NewSnapshotPool(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) World() *World { return s.world }
func (s *Simulator) Phase() Phase { return s.phase }
func (s *Simulator) Frame() int { return s.frame }
func (s *Simulator) Time() float64 { return s.t }
func (s *Simulator) Halted() error { return s.halted }

// Snapshot copies the current world for the render stage. Call it between
// frames only.
func (s *Simulator) Snapshot() *Snapshot {
	snap := &Snapshot{}
	snap.Capture(s.frame, s.t, s.world)
	return snap
}

// Step advances one frame by the raw delta reported by the time source.
// Quit is honoured before any state is touched. Degenerate deltas skip the
// frame without error.
func (s *Simulator) Step(raw float64, in Input) (FrameReport, error) {
	rep := FrameReport{Frame: s.frame, Time: s.t}

	if s.halted != nil {
		return rep, fmt.Errorf("%w: %v", dynamo.ErrHalted, s.halted)
	}
	if in.Quit {
		return rep, dynamo.ErrQuit
	}

	// Impulses only queue a velocity delta on the bodies, consumed by the
	// next integrated frame, so a press landing on a skipped tick is kept.
	if in.Impulse {
		for _, b := range s.dynamic {
			b.ApplyImpulse(s.impulse)
		}
	}

	dt, ok := s.clock.Sanitize(raw)
	if !ok {
		s.logger.Debug("skipping frame", "frame", s.frame, "dt", raw)
		rep.Skipped = true
		return rep, nil
	}
	if dt != raw {
		s.logger.Debug("clamped delta", "frame", s.frame, "raw", raw, "dt", dt)
	}
	rep.Dt = dt

	s.phase = Integrating

	env := physics.Env{Gravity: s.world.Gravity}
	err := s.pool.For(len(s.dynamic), func(i int) error {
		b := s.dynamic[i]
		if err := b.Update(s.world.Bodies, env, dt); err != nil {
			return &dynamo.SimulationError{
				Frame: s.frame, Time: s.t, Phase: dynamo.PhaseIntegrating, Entity: b.Name, Wrapped: err,
			}
		}
		return nil
	})
	if err != nil {
		return rep, s.fail(dynamo.PhaseIntegrating, err)
	}

	ps := s.world.Particles
	ps.Step(dt)
	if err := checkParticles(ps.Particles); err != nil {
		return rep, s.fail(dynamo.PhaseParticles, err)
	}

	// Static push-out goes first so the pair pass sees, and reports, the
	// final particle positions.
	s.phase = Resolving
	if len(s.statics) > 0 {
		rep.StaticContacts = s.resolver.ResolveStatic(ps.Particles, s.statics)
	}
	res := s.resolver.ResolveCollision(ps.Particles)
	rep.Contacts = res.Contacts
	rep.Iterations = res.Iterations
	rep.Penetration = res.Penetration
	if err := checkParticles(ps.Particles); err != nil {
		return rep, s.fail(dynamo.PhaseResolving, err)
	}
	if res.Penetration > s.resolver.Tolerance {
		s.logger.Warn("collision budget exhausted",
			"frame", s.frame, "iterations", res.Iterations, "penetration", res.Penetration)
	}

	s.frame++
	s.t += dt
	s.phase = Idle
	rep.Frame = s.frame
	rep.Time = s.t

	if len(s.metrics) > 0 || len(s.observers) > 0 {
		snap := s.snapshots.Get()
		snap.Capture(s.frame, s.t, s.world)
		for _, m := range s.metrics {
			m.Observe(snap)
		}
		for _, o := range s.observers {
			o.OnFrame(snap)
		}
		s.snapshots.Put(snap)
	}

	return rep, nil
}

func (s *Simulator) fail(phase dynamo.Phase, err error) error {
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		simErr = &dynamo.SimulationError{Frame: s.frame, Time: s.t, Phase: phase, Wrapped: err}
	}
	s.halted = simErr
	s.phase = Idle
	s.logger.Error("frame failed, halting", "frame", simErr.Frame, "t", simErr.Time,
		"phase", simErr.Phase, "entity", simErr.Entity, "err", simErr.Wrapped)
	return simErr
}

func checkParticles(ps []physics.Particle) error {
	for i := range ps {
		if !ps[i].Finite() {
			return fmt.Errorf("%w: particle %d", dynamo.ErrNonFinite, i)
		}
	}
	return nil
}

// Run steps frames until maxTicks ticks have been consumed (maxTicks <= 0
// means unbounded), the context is cancelled, or quit is requested. Both
// checks happen between frames, so an in-flight frame always completes.
func (s *Simulator) Run(ctx context.Context, src TimeSource, in InputSource, maxTicks int) (*Result, error) {
	if in == nil {
		in = NoInput{}
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	result := &Result{Metrics: make(map[string]float64)}
	finish := func() *Result {
		result.Time = s.t
		for _, m := range s.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
		result.Final = s.Snapshot()
		return result
	}

	for tick := 0; maxTicks <= 0 || tick < maxTicks; tick++ {
		select {
		case <-ctx.Done():
			return finish(), ctx.Err()
		default:
		}

		rep, err := s.Step(src.Next(), in.Poll())
		if errors.Is(err, dynamo.ErrQuit) {
			s.logger.Info("quit requested", "frame", s.frame)
			return finish(), nil
		}
		if err != nil {
			return finish(), err
		}
		if rep.Skipped {
			result.Skipped++
		} else {
			result.Frames++
		}
	}

	return finish(), nil
}
