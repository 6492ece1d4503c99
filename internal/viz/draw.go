package viz

import (
	"github.com/san-kum/polarsim/internal/physics"
	"github.com/san-kum/polarsim/internal/sim"
)

// DrawSnapshot clears c and draws body wireframes, then particles, as seen
// through cam. Each shared triangle edge is drawn once.
func DrawSnapshot(c *Canvas, cam *Camera, snap *sim.Snapshot) {
	c.Clear()
	if snap == nil {
		return
	}
	w, h := c.Dots()
	proj := cam.Projector(w, h)

	for _, b := range snap.Bodies {
		pen := PenBody
		if b.Kind == physics.Static {
			pen = PenStatic
		}
		c.SetPen(pen)
		for _, f := range b.Faces {
			for k := 0; k < 3; k++ {
				i, j := f[k], f[(k+1)%3]
				if i > j {
					continue
				}
				x0, y0, _, ok0 := proj.Project(b.Positions[i])
				x1, y1, _, ok1 := proj.Project(b.Positions[j])
				if !ok0 || !ok1 || !nearScreen(x0, y0, w, h) || !nearScreen(x1, y1, w, h) {
					continue
				}
				c.DrawLine(x0, y0, x1, y1)
			}
		}
	}

	for _, p := range snap.Particles {
		x, y, _, ok := proj.Project(p.Position)
		if !ok {
			continue
		}
		if p.Polarity == physics.Positive {
			c.SetPen(PenPositive)
		} else {
			c.SetPen(PenNegative)
		}
		c.Set(x, y)
	}
}

// nearScreen bounds line rasterisation for vertices projected far outside
// the canvas.
func nearScreen(x, y, w, h int) bool {
	return absInt(x) < 8*w && absInt(y) < 8*h
}
