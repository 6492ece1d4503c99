package config

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/san-kum/polarsim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Particles.Count != 600 {
		t.Errorf("expected 600 particles, got %d", cfg.Particles.Count)
	}
	if cfg.Particles.Polarity != PolarityAlternate {
		t.Errorf("expected alternating polarity, got %s", cfg.Particles.Polarity)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %s missing", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	cfg := GetPreset("floor")
	cfg.Bodies[0].Name = "changed"
	cfg.Dt = 1

	again := GetPreset("floor")
	if again.Bodies[0].Name != "floor" || again.Dt != 0.01 {
		t.Error("mutating a preset copy leaked into the preset table")
	}
}

func TestListPresetsSorted(t *testing.T) {
	got := ListPresets()
	want := []string{"default", "floor", "pair", "soft"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"nan dt", func(c *Config) { c.Dt = math.NaN() }},
		{"negative frames", func(c *Config) { c.Frames = -1 }},
		{"zero max dt", func(c *Config) { c.MaxDt = 0 }},
		{"inf max dt", func(c *Config) { c.MaxDt = math.Inf(1) }},
		{"inf gravity", func(c *Config) { c.Gravity[1] = math.Inf(-1) }},
		{"zero radius", func(c *Config) { c.Particles.Radius = 0 }},
		{"negative mass", func(c *Config) { c.Particles.Mass = -1 }},
		{"nan point", func(c *Config) { c.Particles.Points = []Vec3{{math.NaN(), 0, 0}} }},
		{"unknown polarity", func(c *Config) { c.Particles.Polarity = "checkerboard" }},
		{"zero min distance", func(c *Config) { c.Law.MinDistance = 0 }},
		{"negative k", func(c *Config) { c.Law.K = -1 }},
		{"restitution above one", func(c *Config) { c.Collision.Restitution = 1.5 }},
		{"no iterations", func(c *Config) { c.Collision.MaxIterations = 0 }},
		{"unknown shape", func(c *Config) {
			c.Bodies = []BodyConfig{{Name: "x", Kind: "dynamic", Shape: "torus"}}
		}},
		{"unknown kind", func(c *Config) {
			c.Bodies = []BodyConfig{{Name: "x", Kind: "kinematic", Shape: "prism", Size: Vec3{1, 1, 1}}}
		}},
		{"flat prism", func(c *Config) {
			c.Bodies = []BodyConfig{{Name: "x", Kind: "static", Shape: "prism", Size: Vec3{1, 0, 1}}}
		}},
		{"static sphere", func(c *Config) {
			c.Bodies = []BodyConfig{{Name: "x", Kind: "static", Shape: "sphere", Radius: 1}}
		}},
		{"too many subdivisions", func(c *Config) {
			c.Bodies = []BodyConfig{{Name: "x", Kind: "dynamic", Shape: "sphere", Radius: 1, Subdivisions: 6}}
		}},
		{"duplicate names", func(c *Config) {
			b := BodyConfig{Name: "x", Kind: "static", Shape: "prism", Size: Vec3{1, 1, 1}}
			c.Bodies = []BodyConfig{b, b}
		}},
		{"zero vertex mass", func(c *Config) {
			c.Bodies = []BodyConfig{{Name: "x", Kind: "dynamic", Shape: "prism", Size: Vec3{1, 1, 1},
				Material: &MaterialConfig{}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	cfg := GetPreset("soft")

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Name != "soft" || len(loaded.Bodies) != 2 {
		t.Fatalf("unexpected config %+v", loaded)
	}
	if loaded.Bodies[1].Material == nil || loaded.Bodies[1].Material.Stiffness != 80 {
		t.Errorf("material lost: %+v", loaded.Bodies[1].Material)
	}
	if loaded.Gravity != (Vec3{0, -9.81, 0}) {
		t.Errorf("gravity lost: %v", loaded.Gravity)
	}
}

func TestLoadValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	cfg := &Config{Seed: 9}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	// zero values written by Save override defaults, so Validate must catch them
	if _, err := Load(path); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for zero dt, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
