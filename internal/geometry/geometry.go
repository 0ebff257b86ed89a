// Package geometry builds polygon geometry from an instantiated scene.
//
// The reference evaluator here has no exact boolean kernel: unions are
// concatenations and differences or intersections are only resolved when
// their operands' bounds are disjoint. CSG terms carry the unevaluated
// boolean structure for previews.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/scadc/internal/scene"
)

// Polygon is a planar loop of vertices, counter-clockwise seen from outside.
type Polygon []r3.Vec

// Geometry is a set of polygons of one dimension. Dim 0 means empty.
type Geometry struct {
	Dim      int
	Polygons []Polygon
}

// Empty returns geometry with no polygons.
func Empty() *Geometry { return &Geometry{} }

// IsEmpty reports whether g has nothing to export.
func (g *Geometry) IsEmpty() bool {
	return g == nil || g.Dim == 0 || len(g.Polygons) == 0
}

// Bounds returns the axis-aligned bounding box of every vertex. The box of
// empty geometry has Min greater than Max.
func (g *Geometry) Bounds() r3.Box {
	box := r3.Box{
		Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	if g == nil {
		return box
	}
	for _, p := range g.Polygons {
		for _, v := range p {
			box.Min = r3.Vec{X: math.Min(box.Min.X, v.X), Y: math.Min(box.Min.Y, v.Y), Z: math.Min(box.Min.Z, v.Z)}
			box.Max = r3.Vec{X: math.Max(box.Max.X, v.X), Y: math.Max(box.Max.Y, v.Y), Z: math.Max(box.Max.Z, v.Z)}
		}
	}
	return box
}

// VertexCount is the total number of polygon vertices.
func (g *Geometry) VertexCount() int {
	n := 0
	for _, p := range g.Polygons {
		n += len(p)
	}
	return n
}

// Transform returns a copy of g with m applied. Mirroring transforms reverse
// each polygon so faces keep pointing outwards.
func (g *Geometry) Transform(m scene.Matrix) *Geometry {
	if g == nil {
		return Empty()
	}
	flip := m.Determinant() < 0
	out := &Geometry{Dim: g.Dim, Polygons: make([]Polygon, len(g.Polygons))}
	for i, p := range g.Polygons {
		q := make(Polygon, len(p))
		for j, v := range p {
			q[j] = m.Apply(v)
		}
		if g.Dim == 2 {
			for j := range q {
				q[j].Z = 0
			}
		}
		if flip {
			q.reverse()
		}
		out.Polygons[i] = q
	}
	return out
}

// Triangles fans every polygon into triangles.
func (g *Geometry) Triangles() []Polygon {
	var out []Polygon
	for _, p := range g.Polygons {
		for i := 1; i+1 < len(p); i++ {
			out = append(out, Polygon{p[0], p[i], p[i+1]})
		}
	}
	return out
}

// Normal returns the unit normal of p by Newell's method, or the zero vector
// for degenerate polygons.
func (p Polygon) Normal() r3.Vec {
	var n r3.Vec
	for i, a := range p {
		b := p[(i+1)%len(p)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	if r3.Norm(n) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(n)
}

func (p Polygon) reverse() {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}

// concat appends the polygons of parts that share dim.
func concat(dim int, parts ...*Geometry) *Geometry {
	out := &Geometry{Dim: dim}
	for _, g := range parts {
		out.Polygons = append(out.Polygons, g.Polygons...)
	}
	return out
}

// boxesOverlap reports whether a and b share any volume or area.
func boxesOverlap(a, b r3.Box) bool {
	return a.Min.X < b.Max.X && b.Min.X < a.Max.X &&
		a.Min.Y < b.Max.Y && b.Min.Y < a.Max.Y &&
		(a.Min.Z < b.Max.Z && b.Min.Z < a.Max.Z || a.Min.Z == a.Max.Z && b.Min.Z == b.Max.Z)
}
