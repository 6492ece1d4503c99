package config

import (
	"fmt"
	"math"
	"os"

	"github.com/san-kum/polarsim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt        = 0.01
	DefaultFrames    = 1000
	DefaultMaxDt     = 0.05
	DefaultCount     = 600
	DefaultRadius    = 0.05
	DefaultSpread    = 1.0
	DefaultK         = 1e-4
	DefaultMinDist   = 0.05
	DefaultDamping   = 0.5
	DefaultMaxSpeed  = 5.0
	DefaultBounce    = 0.5
	DefaultTolerance = 1e-5
	DefaultMaxIter   = 500
)

// Polarity layouts for generated particles.
const (
	PolarityAlternate = "alternate"
	PolarityPositive  = "positive"
	PolarityNegative  = "negative"
	PolarityRandom    = "random"
)

// Vec3 is written as a three element YAML sequence.
type Vec3 [3]float64

type Config struct {
	Name      string          `yaml:"name,omitempty"`
	Seed      int64           `yaml:"seed"`
	Dt        float64         `yaml:"dt"`
	Frames    int             `yaml:"frames"`
	MaxDt     float64         `yaml:"max_dt"`
	Workers   int             `yaml:"workers"`
	Gravity   Vec3            `yaml:"gravity"`
	Impulse   Vec3            `yaml:"impulse"`
	Particles ParticleConfig  `yaml:"particles"`
	Law       LawConfig       `yaml:"law"`
	Collision CollisionConfig `yaml:"collision"`
	Bodies    []BodyConfig    `yaml:"bodies,omitempty"`
}

type ParticleConfig struct {
	Count    int     `yaml:"count"`
	Radius   float64 `yaml:"radius"`
	Mass     float64 `yaml:"mass"`
	Spread   float64 `yaml:"spread"`
	Center   Vec3    `yaml:"center"`
	Polarity string  `yaml:"polarity"`
	// Points places particles explicitly; Count is ignored when set.
	Points []Vec3 `yaml:"points,omitempty"`
}

type LawConfig struct {
	K           float64 `yaml:"k"`
	MinDistance float64 `yaml:"min_distance"`
	Cutoff      float64 `yaml:"cutoff"`
	Damping     float64 `yaml:"damping"`
	MaxSpeed    float64 `yaml:"max_speed"`
}

type CollisionConfig struct {
	Restitution   float64 `yaml:"restitution"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
}

type BodyConfig struct {
	Name         string          `yaml:"name"`
	Kind         string          `yaml:"kind"`
	Shape        string          `yaml:"shape"`
	Center       Vec3            `yaml:"center"`
	Size         Vec3            `yaml:"size,omitempty"`
	Radius       float64         `yaml:"radius,omitempty"`
	Subdivisions int             `yaml:"subdivisions,omitempty"`
	Rotation     Vec3            `yaml:"rotation,omitempty"` // euler degrees, XYZ
	Velocity     Vec3            `yaml:"velocity,omitempty"`
	Material     *MaterialConfig `yaml:"material,omitempty"`
}

type MaterialConfig struct {
	VertexMass  float64 `yaml:"vertex_mass"`
	Stiffness   float64 `yaml:"stiffness"`
	Damping     float64 `yaml:"damping"`
	Restitution float64 `yaml:"restitution"`
	Friction    float64 `yaml:"friction"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:    "default",
		Seed:    1,
		Dt:      DefaultDt,
		Frames:  DefaultFrames,
		MaxDt:   DefaultMaxDt,
		Impulse: Vec3{0, 0.1, 0},
		Particles: ParticleConfig{
			Count:    DefaultCount,
			Radius:   DefaultRadius,
			Mass:     1,
			Spread:   DefaultSpread,
			Polarity: PolarityAlternate,
		},
		Law: LawConfig{
			K:           DefaultK,
			MinDistance: DefaultMinDist,
			Damping:     DefaultDamping,
			MaxSpeed:    DefaultMaxSpeed,
		},
		Collision: CollisionConfig{
			Restitution:   DefaultBounce,
			Tolerance:     DefaultTolerance,
			MaxIterations: DefaultMaxIter,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dynamo.ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a copy that shares no slices with c.
func (c *Config) Clone() *Config {
	out := *c
	out.Particles.Points = append([]Vec3(nil), c.Particles.Points...)
	out.Bodies = make([]BodyConfig, len(c.Bodies))
	for i, b := range c.Bodies {
		out.Bodies[i] = b
		if b.Material != nil {
			m := *b.Material
			out.Bodies[i].Material = &m
		}
	}
	return &out
}

// ParticleCount is the number of particles the scene will hold.
func (c *Config) ParticleCount() int {
	if len(c.Particles.Points) > 0 {
		return len(c.Particles.Points)
	}
	return c.Particles.Count
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{dynamo.ErrInvalidConfig}, args...)...)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func finiteVec(v Vec3) bool {
	return finite(v[0]) && finite(v[1]) && finite(v[2])
}

// Validate rejects configurations that would produce a degenerate scene.
func (c *Config) Validate() error {
	if !finite(c.Dt) || c.Dt <= 0 {
		return invalid("dt must be positive, got %v", c.Dt)
	}
	if c.Frames < 0 {
		return invalid("frames must not be negative, got %d", c.Frames)
	}
	if !finite(c.MaxDt) || c.MaxDt <= 0 {
		return invalid("max_dt must be positive, got %v", c.MaxDt)
	}
	if c.Workers < 0 {
		return invalid("workers must not be negative, got %d", c.Workers)
	}
	if !finiteVec(c.Gravity) || !finiteVec(c.Impulse) {
		return invalid("gravity and impulse must be finite")
	}

	p := c.Particles
	if p.Count < 0 {
		return invalid("particle count %d", p.Count)
	}
	if c.ParticleCount() > 0 {
		if !finite(p.Radius) || p.Radius <= 0 {
			return invalid("particle radius must be positive, got %v", p.Radius)
		}
		if !finite(p.Mass) || p.Mass <= 0 {
			return invalid("particle mass must be positive, got %v", p.Mass)
		}
		if !finite(p.Spread) || p.Spread < 0 || !finiteVec(p.Center) {
			return invalid("particle spread %v around %v", p.Spread, p.Center)
		}
		for i, pt := range p.Points {
			if !finiteVec(pt) {
				return invalid("particle point %d is not finite", i)
			}
		}
	}
	switch p.Polarity {
	case PolarityAlternate, PolarityPositive, PolarityNegative, PolarityRandom:
	default:
		return invalid("unknown polarity pattern %q", p.Polarity)
	}

	l := c.Law
	for name, v := range map[string]float64{
		"k": l.K, "min_distance": l.MinDistance, "cutoff": l.Cutoff, "damping": l.Damping, "max_speed": l.MaxSpeed,
	} {
		if !finite(v) || v < 0 {
			return invalid("law %s must be finite and non-negative, got %v", name, v)
		}
	}
	if l.MinDistance == 0 {
		return invalid("law min_distance must be positive")
	}

	col := c.Collision
	if !finite(col.Restitution) || col.Restitution < 0 || col.Restitution > 1 {
		return invalid("collision restitution %v outside [0, 1]", col.Restitution)
	}
	if !finite(col.Tolerance) || col.Tolerance < 0 || col.MaxIterations <= 0 {
		return invalid("collision tolerance %v, max_iterations %d", col.Tolerance, col.MaxIterations)
	}

	names := make(map[string]bool, len(c.Bodies))
	for i, b := range c.Bodies {
		if err := b.validate(); err != nil {
			return fmt.Errorf("body %d: %w", i, err)
		}
		if names[b.Name] {
			return invalid("duplicate body name %q", b.Name)
		}
		names[b.Name] = true
	}
	return nil
}

func (b BodyConfig) validate() error {
	if b.Name == "" {
		return invalid("body needs a name")
	}
	if b.Kind != "dynamic" && b.Kind != "static" {
		return invalid("%s: unknown kind %q", b.Name, b.Kind)
	}
	if !finiteVec(b.Center) || !finiteVec(b.Rotation) || !finiteVec(b.Velocity) {
		return invalid("%s: non-finite placement", b.Name)
	}
	switch b.Shape {
	case "prism":
		for _, s := range b.Size {
			if !finite(s) || s <= 0 {
				return invalid("%s: prism size %v", b.Name, b.Size)
			}
		}
	case "sphere":
		if b.Kind == "static" {
			return invalid("%s: static spheres have no collision shape", b.Name)
		}
		if !finite(b.Radius) || b.Radius <= 0 {
			return invalid("%s: sphere radius %v", b.Name, b.Radius)
		}
		if b.Subdivisions < 0 || b.Subdivisions > 4 {
			return invalid("%s: subdivisions %d outside [0, 4]", b.Name, b.Subdivisions)
		}
	default:
		return invalid("%s: unknown shape %q", b.Name, b.Shape)
	}
	if m := b.Material; m != nil {
		if !finite(m.VertexMass) || m.VertexMass <= 0 {
			return invalid("%s: vertex mass %v", b.Name, m.VertexMass)
		}
		for _, v := range []float64{m.Stiffness, m.Damping, m.Restitution, m.Friction} {
			if !finite(v) || v < 0 {
				return invalid("%s: material %+v", b.Name, *m)
			}
		}
	}
	return nil
}
