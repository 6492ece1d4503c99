package sim

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/polarsim/internal/dynamo"
	"github.com/san-kum/polarsim/internal/physics"
)

// World holds the homogeneous entity collections of a scene. The Simulator
// owns it exclusively while a frame is being advanced.
type World struct {
	Bodies    []*physics.Body
	Particles *physics.ParticleSystem
	Gravity   mgl64.Vec3
}

// NewWorld validates the collections. A nil particle system is replaced by an
// empty one.
func NewWorld(bodies []*physics.Body, particles *physics.ParticleSystem, gravity mgl64.Vec3) (*World, error) {
	for i, v := range gravity {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: gravity component %d = %v", dynamo.ErrInvalidConfig, i, v)
		}
	}

	names := make(map[string]bool, len(bodies))
	for i, b := range bodies {
		if b == nil {
			return nil, fmt.Errorf("%w: body %d is nil", dynamo.ErrInvalidConfig, i)
		}
		if names[b.Name] {
			return nil, fmt.Errorf("%w: duplicate body name %q", dynamo.ErrInvalidConfig, b.Name)
		}
		names[b.Name] = true
	}

	if particles == nil {
		var err error
		particles, err = physics.NewParticleSystem(nil, physics.DefaultForceLaw())
		if err != nil {
			return nil, err
		}
	}

	return &World{Bodies: bodies, Particles: particles, Gravity: gravity}, nil
}

// Dynamic returns the bodies that integrate.
func (w *World) Dynamic() []*physics.Body {
	out := make([]*physics.Body, 0, len(w.Bodies))
	for _, b := range w.Bodies {
		if b.Kind == physics.Dynamic {
			out = append(out, b)
		}
	}
	return out
}

// Statics returns the immovable bodies.
func (w *World) Statics() []*physics.Body {
	out := make([]*physics.Body, 0, len(w.Bodies))
	for _, b := range w.Bodies {
		if b.Kind == physics.Static {
			out = append(out, b)
		}
	}
	return out
}
