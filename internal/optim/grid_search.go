// Package optim sweeps scene parameters over a grid of headless runs.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/san-kum/polarsim/internal/config"
	"github.com/san-kum/polarsim/internal/experiment"
	"github.com/san-kum/polarsim/internal/metrics"
)

// Setters maps sweepable parameter names onto a configuration.
var Setters = map[string]func(cfg *config.Config, v float64){
	"k":            func(c *config.Config, v float64) { c.Law.K = v },
	"damping":      func(c *config.Config, v float64) { c.Law.Damping = v },
	"max_speed":    func(c *config.Config, v float64) { c.Law.MaxSpeed = v },
	"min_distance": func(c *config.Config, v float64) { c.Law.MinDistance = v },
	"restitution":  func(c *config.Config, v float64) { c.Collision.Restitution = v },
	"tolerance":    func(c *config.Config, v float64) { c.Collision.Tolerance = v },
	"iterations":   func(c *config.Config, v float64) { c.Collision.MaxIterations = int(v) },
	"dt":           func(c *config.Config, v float64) { c.Dt = v },
	"radius":       func(c *config.Config, v float64) { c.Particles.Radius = v },
}

// ParamNames lists the sweepable parameters.
func ParamNames() []string {
	names := make([]string, 0, len(Setters))
	for name := range Setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Trial is one grid point. Err is set when the configuration was rejected
// or the run halted; such trials never win.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	logger     *log.Logger
}

func NewGridSearch(params []string, ranges [][]float64, logger *log.Logger) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%d parameters but %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if _, ok := Setters[name]; !ok {
			return nil, fmt.Errorf("unknown parameter: %s (available: %v)", name, ParamNames())
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("parameter %s has no values", name)
		}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &GridSearch{paramNames: params, ranges: ranges, logger: logger}, nil
}

// Search runs base once per grid point and returns the trial minimising
// metricName along with every trial in grid order.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (Trial, []Trial, error) {
	var trials []Trial
	err := g.searchRecursive(ctx, 0, map[string]float64{}, base, metricName, &trials)
	if err != nil {
		return Trial{}, trials, err
	}

	best := Trial{Value: math.Inf(1)}
	found := false
	for _, t := range trials {
		if t.Err == nil && t.Value < best.Value {
			best = t
			found = true
		}
	}
	if !found {
		return Trial{}, trials, errors.New("no trial completed")
	}
	return best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	metricName string,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		t, err := g.trial(ctx, current, base, metricName)
		if err != nil {
			return err
		}
		*trials = append(*trials, t)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, metricName, trials); err != nil {
			return err
		}
	}
	return nil
}

// trial returns an error only for conditions that abort the whole search.
func (g *GridSearch) trial(ctx context.Context, params map[string]float64, base *config.Config, metricName string) (Trial, error) {
	t := Trial{Params: params, Value: math.NaN()}

	cfg := base.Clone()
	for name, v := range params {
		Setters[name](cfg, v)
	}

	limit := cfg.Law.MaxSpeed
	if limit <= 0 {
		limit = config.DefaultMaxSpeed
	}
	exp := experiment.New(cfg, g.logger)
	if t.Err = exp.Setup(metrics.Standard(limit), max(cfg.Frames, 1)); t.Err != nil {
		g.logger.Debug("trial rejected", "params", params, "err", t.Err)
		return t, nil
	}

	out, err := exp.Run(ctx)
	if ctx.Err() != nil {
		return t, ctx.Err()
	}
	if err != nil {
		t.Err = err
		g.logger.Debug("trial halted", "params", params, "err", err)
		return t, nil
	}

	v, ok := out.Result.Metrics[metricName]
	if !ok {
		return t, fmt.Errorf("unknown metric: %s", metricName)
	}
	t.Value = v
	g.logger.Debug("trial", "params", params, metricName, v)
	return t, nil
}
