package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func finiteScalar(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// clampLen scales v down so that |v| <= max. max <= 0 disables the clamp.
func clampLen(v mgl64.Vec3, max float64) mgl64.Vec3 {
	if max <= 0 {
		return v
	}
	l2 := v.Dot(v)
	if l2 <= max*max {
		return v
	}
	return v.Mul(max / math.Sqrt(l2))
}

// bounce removes the inward normal velocity (reflected by restitution) and
// scales the tangential part by 1-friction. n points away from the surface.
func bounce(vel, n mgl64.Vec3, restitution, friction float64) mgl64.Vec3 {
	vn := vel.Dot(n)
	if vn >= 0 {
		return vel
	}
	normal := n.Mul(vn)
	tangent := vel.Sub(normal)
	return tangent.Mul(1 - friction).Sub(normal.Mul(restitution))
}
