package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/polarsim/internal/config"
	"github.com/san-kum/polarsim/internal/metrics"
	"github.com/san-kum/polarsim/internal/scene"
	"github.com/san-kum/polarsim/internal/sim"
	"github.com/san-kum/polarsim/internal/storage"
)

// Outcome is everything a headless run produces.
type Outcome struct {
	Result  *sim.Result
	Rows    []metrics.Row
	Elapsed time.Duration
}

// Experiment is one headless run of a configured scene with fixed deltas.
type Experiment struct {
	cfg       *config.Config
	logger    *log.Logger
	scene     *scene.Scene
	simulator *sim.Simulator
	recorder  *metrics.Recorder
}

func New(cfg *config.Config, logger *log.Logger) *Experiment {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Experiment{cfg: cfg, logger: logger}
}

// Setup builds the scene and attaches metrics plus a frame recorder that
// samples every recordEvery-th frame.
func (e *Experiment) Setup(ms []sim.Metric, recordEvery int) error {
	sc, err := scene.Build(e.cfg)
	if err != nil {
		return err
	}
	e.scene = sc
	e.simulator = sc.NewSimulator(sim.WithLogger(e.logger))
	for _, m := range ms {
		e.simulator.AddMetric(m)
	}
	e.recorder = metrics.NewRecorder(recordEvery)
	e.simulator.AddObserver(e.recorder)
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	if e.simulator == nil {
		return nil, errors.New("experiment not setup")
	}

	e.logger.Debug("starting run", "scene", e.cfg.Name, "frames", e.cfg.Frames, "dt", e.cfg.Dt,
		"particles", e.cfg.ParticleCount(), "bodies", len(e.cfg.Bodies))

	start := time.Now()
	res, err := e.simulator.Run(ctx, sim.FixedStep(e.cfg.Dt), sim.NoInput{}, e.cfg.Frames)
	out := &Outcome{Result: res, Rows: e.recorder.Rows, Elapsed: time.Since(start)}
	if err != nil {
		return out, fmt.Errorf("%s: %w", e.cfg.Name, err)
	}
	return out, nil
}

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *sim.Simulator {
	return e.simulator
}

// Metadata describes the outcome for the run store.
func (e *Experiment) Metadata(out *Outcome) storage.RunMetadata {
	meta := storage.RunMetadata{
		Preset:    e.cfg.Name,
		Seed:      e.cfg.Seed,
		Dt:        e.cfg.Dt,
		Particles: e.cfg.ParticleCount(),
		Bodies:    len(e.cfg.Bodies),
		Workers:   e.cfg.Workers,
		Metrics:   map[string]float64{},
	}
	if out != nil && out.Result != nil {
		meta.Frames = out.Result.Frames
		meta.Skipped = out.Result.Skipped
		meta.SimTime = out.Result.Time
		meta.Metrics = out.Result.Metrics
	}
	return meta
}
