package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Resolver removes particle overlap after integration. Pairs are visited
// sequentially in ascending (i, j) order; the pass repeats until the deepest
// overlap found is within Tolerance or MaxIterations passes have run.
type Resolver struct {
	Restitution   float64
	Tolerance     float64
	MaxIterations int

	grid      *Grid
	near      []int
	positions []mgl64.Vec3
}

// Resolution summarises one ResolveCollision call.
type Resolution struct {
	Iterations int
	// Contacts counts the overlapping pairs found by the first pass.
	Contacts int
	// Penetration is the deepest overlap found by the last pass.
	Penetration float64
}

func DefaultResolver() *Resolver {
	return &Resolver{
		Restitution:   0.5,
		Tolerance:     1e-5,
		MaxIterations: 500,
	}
}

// ResolveCollision separates every overlapping pair of ps in place.
func (r *Resolver) ResolveCollision(ps []Particle) Resolution {
	var res Resolution
	if len(ps) < 2 {
		return res
	}

	maxRadius := 0.0
	for i := range ps {
		maxRadius = math.Max(maxRadius, ps[i].Radius)
	}
	cell := 2 * maxRadius
	if r.grid == nil {
		r.grid = NewGrid(cell)
	} else if r.grid.CellSize() != cell {
		r.grid.Resize(cell)
	}

	iterations := r.MaxIterations
	if iterations < 1 {
		iterations = 1
	}

	for iter := 0; iter < iterations; iter++ {
		r.positions = r.positions[:0]
		for i := range ps {
			r.positions = append(r.positions, ps[i].Position)
		}
		r.grid.Build(r.positions)
		worst := 0.0
		contacts := 0

		for i := range ps {
			r.near = r.grid.Near(ps[i].Position, r.near)
			for _, j := range r.near {
				if j <= i {
					continue
				}
				depth := r.resolvePair(&ps[i], &ps[j])
				if depth > 0 {
					contacts++
					worst = math.Max(worst, depth)
				}
			}
		}

		if iter == 0 {
			res.Contacts = contacts
		}
		res.Iterations = iter + 1
		res.Penetration = worst
		if worst <= r.Tolerance {
			break
		}
	}

	return res
}

// resolvePair pushes a and b apart along their centre line, split by inverse
// mass, and applies a restitution impulse if they are approaching. It returns
// the overlap depth before correction.
func (r *Resolver) resolvePair(a, b *Particle) float64 {
	d := b.Position.Sub(a.Position)
	dist := d.Len()
	sum := a.Radius + b.Radius
	if dist >= sum {
		return 0
	}

	n := mgl64.Vec3{1, 0, 0}
	if dist > 1e-12 {
		n = d.Mul(1 / dist)
	}
	depth := sum - dist

	ia, ib := 1/a.Mass, 1/b.Mass
	w := ia + ib
	a.Position = a.Position.Sub(n.Mul(depth * ia / w))
	b.Position = b.Position.Add(n.Mul(depth * ib / w))

	vn := b.Velocity.Sub(a.Velocity).Dot(n)
	if vn < 0 {
		j := -(1 + r.Restitution) * vn / w
		a.Velocity = a.Velocity.Sub(n.Mul(j * ia))
		b.Velocity = b.Velocity.Add(n.Mul(j * ib))
	}
	return depth
}

// ResolveStatic pushes particles out of the collision shapes of static
// bodies. It returns the number of contacts corrected.
func (r *Resolver) ResolveStatic(ps []Particle, bodies []*Body) int {
	contacts := 0
	for _, b := range bodies {
		if b.Kind != Static || b.Shape == nil {
			continue
		}
		for i := range ps {
			p := &ps[i]
			normal, depth, ok := b.Shape.Contact(p.Position, p.Radius)
			if !ok {
				continue
			}
			p.Position = p.Position.Add(normal.Mul(depth))
			p.Velocity = bounce(p.Velocity, normal, b.Material.Restitution, b.Material.Friction)
			contacts++
		}
	}
	return contacts
}

// MaxPenetration returns the deepest pairwise overlap in ps using all pairs.
func MaxPenetration(ps []Particle) float64 {
	worst := 0.0
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			d := ps[i].Position.Sub(ps[j].Position).Len()
			worst = math.Max(worst, ps[i].Radius+ps[j].Radius-d)
		}
	}
	return worst
}
