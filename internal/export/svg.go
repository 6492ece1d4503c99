// Package export renders simulation output to standalone SVG documents.
package export

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/san-kum/polarsim/internal/sim"
	"github.com/san-kum/polarsim/internal/viz"
)

const background = "#0a0a0a"

// CanvasToSVG converts a braille canvas to SVG, one circle per lit dot,
// grouped by pen. Pens missing from palette are drawn white.
func CanvasToSVG(canvas *viz.Canvas, palette map[viz.Pen]string, scale float64) string {
	if canvas == nil {
		return ""
	}

	dw, dh := canvas.Dots()
	width := float64(dw) * scale
	height := float64(dh) * scale

	pixelMap := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}
	dotRadius := scale * 0.4

	groups := make(map[viz.Pen]*strings.Builder)
	var order []viz.Pen

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r <= 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)
			pen := canvas.Pens[row][col]
			sb, ok := groups[pen]
			if !ok {
				sb = &strings.Builder{}
				groups[pen] = sb
				order = append(order, pen)
			}

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					cx := baseX + float64(dx)*scale + scale/2
					cy := baseY + float64(dy)*scale + scale/2
					fmt.Fprintf(sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
				}
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	for _, pen := range order {
		color, ok := palette[pen]
		if !ok {
			color = "#ffffff"
		}
		fmt.Fprintf(&sb, "<g fill=\"%s\">\n%s</g>\n", color, groups[pen].String())
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// SnapshotSVG draws snap on a fresh w x h canvas with a camera fitted to
// the scene and the current theme's colours.
func SnapshotSVG(snap *sim.Snapshot, w, h int, scale float64) string {
	canvas := viz.NewCanvas(w, h)
	cam := viz.NewCamera()
	cam.Fit(snap)
	viz.DrawSnapshot(canvas, cam, snap)
	return CanvasToSVG(canvas, viz.PenColors(), scale)
}

// SeriesToSVG draws ys against their index as a polyline. It returns an
// empty string for fewer than two samples.
func SeriesToSVG(ys []float64, width, height int, strokeColor string) string {
	if len(ys) < 2 {
		return ""
	}

	minY, maxY := ys[0], ys[0]
	for _, y := range ys {
		minY = min(minY, y)
		maxY = max(maxY, y)
	}

	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY
	rangeX := float64(len(ys) - 1)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, background, strokeColor)

	for i, v := range ys {
		x := float64(i) / rangeX * float64(width)
		y := float64(height) - (v-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// WriteFile writes an SVG document to path, or to w when path is empty.
func WriteFile(w io.Writer, path, doc string) error {
	if path == "" {
		_, err := io.WriteString(w, doc)
		return err
	}
	return os.WriteFile(path, []byte(doc), 0644)
}
