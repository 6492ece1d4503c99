package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/polarsim/internal/config"
	"github.com/san-kum/polarsim/internal/metrics"
	"github.com/san-kum/polarsim/internal/sim"
)

var presetInfo = map[string]string{
	"default": "600 alternating particles",
	"pair":    "two opposite charges",
	"floor":   "ramps, floor and a crate",
	"soft":    "icosphere blob and a cloud",
}

// Registry maps scene names to configuration factories.
type Registry struct {
	scenes map[string]func() *config.Config
	info   map[string]string
}

func NewRegistry() *Registry {
	r := &Registry{
		scenes: make(map[string]func() *config.Config),
		info:   make(map[string]string),
	}
	for _, name := range config.ListPresets() {
		name := name
		r.Register(name, presetInfo[name], func() *config.Config { return config.GetPreset(name) })
	}
	return r
}

func (r *Registry) Register(name, desc string, fn func() *config.Config) {
	r.scenes[name] = fn
	r.info[name] = desc
}

// Get returns a fresh configuration for the named scene.
func (r *Registry) Get(name string) (*config.Config, error) {
	fn, ok := r.scenes[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene: %s (available: %v)", name, r.Names())
	}
	return fn(), nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scenes))
	for name := range r.scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Info() map[string]string {
	return r.info
}

// DefaultMetrics returns a fresh metric set for cfg.
func (r *Registry) DefaultMetrics(cfg *config.Config) []sim.Metric {
	limit := cfg.Law.MaxSpeed
	if limit <= 0 {
		limit = config.DefaultMaxSpeed
	}
	return metrics.Standard(limit)
}
