package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/polarsim/internal/dynamo"
)

// RectPrism is an oriented box: the immovable geometry of a static body.
type RectPrism struct {
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
	Rotation    mgl64.Quat
}

// NewRectPrism builds a box of the given full width, height and depth.
func NewRectPrism(center mgl64.Vec3, width, height, depth float64, rotation mgl64.Quat) (*RectPrism, error) {
	if !finite(center) {
		return nil, fmt.Errorf("%w: prism center %v", dynamo.ErrInvalidConfig, center)
	}
	for _, d := range []float64{width, height, depth} {
		if !finiteScalar(d) || d <= 0 {
			return nil, fmt.Errorf("%w: prism dimension %v", dynamo.ErrInvalidConfig, d)
		}
	}
	if rotation.Len() == 0 {
		rotation = mgl64.QuatIdent()
	}
	return &RectPrism{
		Center:      center,
		HalfExtents: mgl64.Vec3{width / 2, height / 2, depth / 2},
		Rotation:    rotation.Normalize(),
	}, nil
}

// prismFaces triangulates the corners returned by Corners, wound outward.
var prismFaces = [][3]int{
	{0, 4, 6}, {0, 6, 2},
	{1, 3, 7}, {1, 7, 5},
	{0, 1, 5}, {0, 5, 4},
	{2, 6, 7}, {2, 7, 3},
	{0, 2, 3}, {0, 3, 1},
	{4, 5, 7}, {4, 7, 6},
}

// Corners returns the eight world-space corners. Bit 0 of the index selects
// +x, bit 1 +y and bit 2 +z.
func (r *RectPrism) Corners() [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	for i := range out {
		local := r.HalfExtents
		if i&1 == 0 {
			local[0] = -local[0]
		}
		if i&2 == 0 {
			local[1] = -local[1]
		}
		if i&4 == 0 {
			local[2] = -local[2]
		}
		out[i] = r.Center.Add(r.Rotation.Rotate(local))
	}
	return out
}

func (r *RectPrism) toLocal(p mgl64.Vec3) mgl64.Vec3 {
	return r.Rotation.Conjugate().Rotate(p.Sub(r.Center))
}

// Contact reports how far a sphere of the given radius at p sinks into the
// prism, and the world-space normal to push it out along. A radius of zero
// tests a point.
func (r *RectPrism) Contact(p mgl64.Vec3, radius float64) (normal mgl64.Vec3, depth float64, ok bool) {
	local := r.toLocal(p)
	h := r.HalfExtents

	var clamped mgl64.Vec3
	inside := true
	for a := 0; a < 3; a++ {
		clamped[a] = math.Max(-h[a], math.Min(h[a], local[a]))
		if clamped[a] != local[a] {
			inside = false
		}
	}

	var nLocal mgl64.Vec3
	if inside {
		// least penetration face
		axis := 0
		best := h[0] - math.Abs(local[0])
		for a := 1; a < 3; a++ {
			if d := h[a] - math.Abs(local[a]); d < best {
				axis, best = a, d
			}
		}
		depth = best + radius
		if depth <= 0 {
			return mgl64.Vec3{}, 0, false
		}
		nLocal[axis] = 1
		if local[axis] < 0 {
			nLocal[axis] = -1
		}
	} else {
		d := local.Sub(clamped)
		dist := d.Len()
		if dist >= radius {
			return mgl64.Vec3{}, 0, false
		}
		depth = radius - dist
		nLocal = d.Mul(1 / dist)
	}

	return r.Rotation.Rotate(nLocal), depth, true
}

// icosahedron vertices and faces, unit radius after normalisation.
var (
	icoT     = (1 + math.Sqrt(5)) / 2
	icoVerts = []mgl64.Vec3{
		{-1, icoT, 0}, {1, icoT, 0}, {-1, -icoT, 0}, {1, -icoT, 0},
		{0, -1, icoT}, {0, 1, icoT}, {0, -1, -icoT}, {0, 1, -icoT},
		{icoT, 0, -1}, {icoT, 0, 1}, {-icoT, 0, -1}, {-icoT, 0, 1},
	}
	icoFaces = [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
)

// Icosphere returns the vertices and faces of a subdivided icosahedron of the
// given radius centred at center.
func Icosphere(center mgl64.Vec3, radius float64, subdivisions int) ([]mgl64.Vec3, [][3]int) {
	verts := make([]mgl64.Vec3, len(icoVerts))
	for i, v := range icoVerts {
		verts[i] = v.Normalize()
	}
	faces := append([][3]int(nil), icoFaces...)

	for s := 0; s < subdivisions; s++ {
		mid := make(map[[2]int]int)
		midpoint := func(a, b int) int {
			key := [2]int{a, b}
			if a > b {
				key = [2]int{b, a}
			}
			if idx, ok := mid[key]; ok {
				return idx
			}
			verts = append(verts, verts[a].Add(verts[b]).Normalize())
			mid[key] = len(verts) - 1
			return len(verts) - 1
		}

		next := make([][3]int, 0, len(faces)*4)
		for _, f := range faces {
			ab := midpoint(f[0], f[1])
			bc := midpoint(f[1], f[2])
			ca := midpoint(f[2], f[0])
			next = append(next,
				[3]int{f[0], ab, ca},
				[3]int{f[1], bc, ab},
				[3]int{f[2], ca, bc},
				[3]int{ab, bc, ca},
			)
		}
		faces = next
	}

	for i := range verts {
		verts[i] = center.Add(verts[i].Mul(radius))
	}
	return verts, faces
}
