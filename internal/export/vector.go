package export

import (
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/banshee-data/scadc/internal/geometry"
)

// WriteDXF writes every 2D outline as closed LINE entities in an R12
// drawing.
func WriteDXF(w io.Writer, g *geometry.Geometry) error {
	ew := &errWriter{w: w}
	for _, section := range []string{"HEADER", "TABLES", "BLOCKS"} {
		ew.printf("  0\nSECTION\n  2\n%s\n  0\nENDSEC\n", section)
	}
	ew.printf("  0\nSECTION\n  2\nENTITIES\n")
	for _, p := range g.Polygons {
		for i, a := range p {
			b := p[(i+1)%len(p)]
			ew.printf("  0\nLINE\n  8\n0\n 10\n%s\n 20\n%s\n 11\n%s\n 21\n%s\n",
				num(a.X), num(a.Y), num(b.X), num(b.Y))
		}
	}
	ew.printf("  0\nENDSEC\n  0\nEOF\n")
	return ew.err
}

var (
	svgFill   = color.RGBA{R: 0xf9, G: 0xd7, B: 0x2c, A: 0xff}
	svgStroke = color.Black
)

// svgStrokeWidth is the outline width in millimetres.
const svgStrokeWidth = 0.35

// WriteSVG writes g as a filled drawing one unit to the millimetre. Holes
// are left unfilled by the outlines' opposite winding.
func WriteSVG(w io.Writer, g *geometry.Geometry) error {
	minX, minY, width, height := 0.0, 0.0, 1.0, 1.0
	if !g.IsEmpty() {
		box := g.Bounds()
		minX, minY = box.Min.X, box.Min.Y
		width = math.Max(box.Max.X-box.Min.X, 1e-3)
		height = math.Max(box.Max.Y-box.Min.Y, 1e-3)
	}

	c := vgsvg.New(vg.Length(width)*vg.Millimeter, vg.Length(height)*vg.Millimeter)
	var path vg.Path
	for _, p := range g.Polygons {
		for i, v := range p {
			pt := vg.Point{
				X: vg.Length(v.X-minX) * vg.Millimeter,
				Y: vg.Length(v.Y-minY) * vg.Millimeter,
			}
			if i == 0 {
				path.Move(pt)
			} else {
				path.Line(pt)
			}
		}
		path.Close()
	}
	if len(path) > 0 {
		c.SetColor(svgFill)
		c.Fill(path)
		c.SetColor(svgStroke)
		c.SetLineWidth(vg.Length(svgStrokeWidth) * vg.Millimeter)
		c.Stroke(path)
	}
	_, err := c.WriteTo(w)
	return err
}
