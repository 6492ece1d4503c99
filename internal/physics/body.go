package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/polarsim/internal/dynamo"
)

// Kind classifies a body as integrating or immovable.
type Kind int

const (
	Dynamic Kind = iota
	Static
)

func (k Kind) String() string {
	if k == Static {
		return "static"
	}
	return "dynamic"
}

// Vertex is one mass point of a body.
type Vertex struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
}

// Spring joins two vertices of the same body.
type Spring struct {
	A, B int
	Rest float64
}

// Material holds the per-body physical constants.
type Material struct {
	VertexMass  float64
	Stiffness   float64
	Damping     float64
	Restitution float64
	Friction    float64
}

func DefaultMaterial() Material {
	return Material{
		VertexMass:  1.0,
		Stiffness:   200.0,
		Damping:     2.0,
		Restitution: 0.3,
		Friction:    0.2,
	}
}

// Env carries the world-level forces applied during a body update.
type Env struct {
	Gravity mgl64.Vec3
}

// Body is a collection of vertices. Vertex order is topology order: Faces and
// Springs index into Vertices.
type Body struct {
	Name     string
	Kind     Kind
	Vertices []Vertex
	Faces    [][3]int
	Springs  []Spring
	Material Material

	// Shape is the collision geometry other entities rest against. Only
	// static bodies carry one.
	Shape *RectPrism

	impulse mgl64.Vec3
	forces  []mgl64.Vec3
}

// NewBody creates a body from its vertex positions and triangle faces. A
// spring is placed on every unique face edge with its initial length as rest
// length.
func NewBody(name string, kind Kind, positions []mgl64.Vec3, faces [][3]int, mat Material) (*Body, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: body %q has no vertices", dynamo.ErrInvalidConfig, name)
	}
	if mat.VertexMass <= 0 || !finiteScalar(mat.VertexMass) {
		return nil, fmt.Errorf("%w: body %q vertex mass %v", dynamo.ErrInvalidConfig, name, mat.VertexMass)
	}

	b := &Body{
		Name:     name,
		Kind:     kind,
		Vertices: make([]Vertex, len(positions)),
		Faces:    faces,
		Material: mat,
	}
	for i, p := range positions {
		if !finite(p) {
			return nil, fmt.Errorf("%w: body %q vertex %d at %v", dynamo.ErrInvalidConfig, name, i, p)
		}
		b.Vertices[i].Position = p
	}

	seen := make(map[[2]int]bool)
	for fi, f := range faces {
		for k := 0; k < 3; k++ {
			a, c := f[k], f[(k+1)%3]
			if a < 0 || a >= len(positions) || c < 0 || c >= len(positions) {
				return nil, fmt.Errorf("%w: body %q face %d references %v", dynamo.ErrTopology, name, fi, f)
			}
			key := [2]int{a, c}
			if a > c {
				key = [2]int{c, a}
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			b.Springs = append(b.Springs, Spring{
				A:    key[0],
				B:    key[1],
				Rest: positions[key[1]].Sub(positions[key[0]]).Len(),
			})
		}
	}

	return b, nil
}

// NewPrismBody builds a box body. Static prism bodies keep the prism as their
// collision shape.
func NewPrismBody(name string, kind Kind, prism *RectPrism, mat Material) (*Body, error) {
	corners := prism.Corners()
	b, err := NewBody(name, kind, corners[:], prismFaces, mat)
	if err != nil {
		return nil, err
	}
	if kind == Static {
		b.Shape = prism
	}
	return b, nil
}

// NewSphereBody builds a soft icosphere body.
func NewSphereBody(name string, center mgl64.Vec3, radius float64, subdivisions int, mat Material) (*Body, error) {
	if !finiteScalar(radius) || radius <= 0 {
		return nil, fmt.Errorf("%w: sphere %q radius %v", dynamo.ErrInvalidConfig, name, radius)
	}
	if subdivisions < 0 || subdivisions > 4 {
		return nil, fmt.Errorf("%w: sphere %q subdivisions %d", dynamo.ErrInvalidConfig, name, subdivisions)
	}
	verts, faces := Icosphere(center, radius, subdivisions)
	return NewBody(name, Dynamic, verts, faces, mat)
}

// ApplyImpulse queues a velocity change for every vertex, consumed by the
// next Update with a positive dt. Static bodies ignore it.
func (b *Body) ApplyImpulse(dv mgl64.Vec3) {
	if b.Kind == Static {
		return
	}
	b.impulse = b.impulse.Add(dv)
}

// Update advances the body by dt. Only static bodies of world are consulted,
// so concurrent updates of distinct dynamic bodies never read each other's
// vertices.
func (b *Body) Update(world []*Body, env Env, dt float64) error {
	if b.Kind == Static || dt <= 0 {
		return nil
	}

	n := len(b.Vertices)
	if cap(b.forces) < n {
		b.forces = make([]mgl64.Vec3, n)
	}
	forces := b.forces[:n]
	for i := range forces {
		forces[i] = mgl64.Vec3{}
	}

	mat := b.Material
	for _, s := range b.Springs {
		if s.A < 0 || s.A >= n || s.B < 0 || s.B >= n {
			return fmt.Errorf("%w: body %q spring %d-%d", dynamo.ErrTopology, b.Name, s.A, s.B)
		}
		va, vb := &b.Vertices[s.A], &b.Vertices[s.B]
		d := vb.Position.Sub(va.Position)
		l := d.Len()
		if l < 1e-12 {
			continue
		}
		dir := d.Mul(1 / l)
		closing := vb.Velocity.Sub(va.Velocity).Dot(dir)
		f := dir.Mul(mat.Stiffness*(l-s.Rest) + mat.Damping*closing)
		forces[s.A] = forces[s.A].Add(f)
		forces[s.B] = forces[s.B].Sub(f)
	}

	impulse := b.impulse
	b.impulse = mgl64.Vec3{}
	invMass := 1 / mat.VertexMass

	for i := range b.Vertices {
		v := &b.Vertices[i]
		acc := env.Gravity.Add(forces[i].Mul(invMass))
		v.Velocity = v.Velocity.Add(impulse).Add(acc.Mul(dt))
		v.Position = v.Position.Add(v.Velocity.Mul(dt))
	}

	for _, other := range world {
		if other == b || other.Kind != Static || other.Shape == nil {
			continue
		}
		for i := range b.Vertices {
			v := &b.Vertices[i]
			normal, depth, ok := other.Shape.Contact(v.Position, 0)
			if !ok {
				continue
			}
			v.Position = v.Position.Add(normal.Mul(depth))
			v.Velocity = bounce(v.Velocity, normal, other.Material.Restitution, other.Material.Friction)
		}
	}

	for i := range b.Vertices {
		if !finite(b.Vertices[i].Position) || !finite(b.Vertices[i].Velocity) {
			return fmt.Errorf("%w: body %q vertex %d", dynamo.ErrNonFinite, b.Name, i)
		}
	}
	return nil
}

// AppendPositions appends the world-space vertex positions to dst.
func (b *Body) AppendPositions(dst []mgl64.Vec3) []mgl64.Vec3 {
	for i := range b.Vertices {
		dst = append(dst, b.Vertices[i].Position)
	}
	return dst
}

// Centroid returns the mean vertex position.
func (b *Body) Centroid() mgl64.Vec3 {
	var c mgl64.Vec3
	for i := range b.Vertices {
		c = c.Add(b.Vertices[i].Position)
	}
	return c.Mul(1 / float64(len(b.Vertices)))
}

// Momentum returns the total linear momentum of the vertices.
func (b *Body) Momentum() mgl64.Vec3 {
	var p mgl64.Vec3
	for i := range b.Vertices {
		p = p.Add(b.Vertices[i].Velocity)
	}
	return p.Mul(b.Material.VertexMass)
}

// KineticEnergy returns sum(m v^2 / 2) over the vertices.
func (b *Body) KineticEnergy() float64 {
	e := 0.0
	for i := range b.Vertices {
		v := b.Vertices[i].Velocity
		e += v.Dot(v)
	}
	return 0.5 * b.Material.VertexMass * e
}

// MaxSpeed returns the largest vertex speed.
func (b *Body) MaxSpeed() float64 {
	best := 0.0
	for i := range b.Vertices {
		best = math.Max(best, b.Vertices[i].Velocity.Len())
	}
	return best
}
