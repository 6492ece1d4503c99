package config

import "sort"

var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"pair": {
		Name: "pair", Seed: 1, Dt: 0.01, Frames: 200, MaxDt: DefaultMaxDt,
		Impulse: Vec3{0, 0.1, 0},
		Particles: ParticleConfig{
			Radius: DefaultRadius, Mass: 1, Polarity: PolarityAlternate,
			Points: []Vec3{{-0.5, 0, 0}, {0.5, 0, 0}},
		},
		Law: LawConfig{K: 1e-2, MinDistance: DefaultMinDist, MaxSpeed: DefaultMaxSpeed},
		Collision: CollisionConfig{
			Restitution: DefaultBounce, Tolerance: DefaultTolerance, MaxIterations: DefaultMaxIter,
		},
	},
	"floor": {
		Name: "floor", Seed: 3, Dt: 0.01, Frames: 600, MaxDt: DefaultMaxDt,
		Gravity: Vec3{0, -9.81, 0}, Impulse: Vec3{0, 0.1, 0},
		Particles: ParticleConfig{
			Count: 200, Radius: DefaultRadius, Mass: 1, Spread: 1, Center: Vec3{0, 1, 0},
			Polarity: PolarityAlternate,
		},
		Law: LawConfig{K: DefaultK, MinDistance: DefaultMinDist, Damping: DefaultDamping, MaxSpeed: DefaultMaxSpeed},
		Collision: CollisionConfig{
			Restitution: DefaultBounce, Tolerance: DefaultTolerance, MaxIterations: DefaultMaxIter,
		},
		Bodies: []BodyConfig{
			{Name: "floor", Kind: "static", Shape: "prism", Center: Vec3{0, -15, 0}, Size: Vec3{300, 0.5, 300}},
			{Name: "ramp-left", Kind: "static", Shape: "prism", Center: Vec3{-5, -10, 0}, Size: Vec3{13, 0.5, 5}, Rotation: Vec3{-57.3, 0, 0}},
			{Name: "ramp-right", Kind: "static", Shape: "prism", Center: Vec3{8, 0, 0}, Size: Vec3{13, 0.5, 5}, Rotation: Vec3{57.3, 0, 0}},
			{Name: "crate", Kind: "dynamic", Shape: "prism", Center: Vec3{8, 4, 0}, Size: Vec3{1, 1, 1}},
		},
	},
	"soft": {
		Name: "soft", Seed: 5, Dt: 0.01, Frames: 800, MaxDt: DefaultMaxDt,
		Gravity: Vec3{0, -9.81, 0}, Impulse: Vec3{0, 0.1, 0},
		Particles: ParticleConfig{
			Count: 300, Radius: DefaultRadius, Mass: 1, Spread: 1, Center: Vec3{0, 3, 0},
			Polarity: PolarityRandom,
		},
		Law: LawConfig{K: DefaultK, MinDistance: DefaultMinDist, Cutoff: 0.5, Damping: DefaultDamping, MaxSpeed: DefaultMaxSpeed},
		Collision: CollisionConfig{
			Restitution: DefaultBounce, Tolerance: DefaultTolerance, MaxIterations: DefaultMaxIter,
		},
		Bodies: []BodyConfig{
			{Name: "floor", Kind: "static", Shape: "prism", Center: Vec3{0, -2, 0}, Size: Vec3{20, 0.5, 20}},
			{Name: "blob", Kind: "dynamic", Shape: "sphere", Center: Vec3{0, 1, 0}, Radius: 1, Subdivisions: 2,
				Material: &MaterialConfig{VertexMass: 0.2, Stiffness: 80, Damping: 1, Restitution: 0.2, Friction: 0.4}},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
