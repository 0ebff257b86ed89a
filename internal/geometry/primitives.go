package geometry

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidPrimitive is wrapped by errors for malformed primitive input.
var ErrInvalidPrimitive = errors.New("invalid primitive")

// Cube returns an axis-aligned box with one corner at the origin, or
// centred on it. Non-positive sizes produce empty geometry.
func Cube(size r3.Vec, center bool) *Geometry {
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return Empty()
	}
	var o r3.Vec
	if center {
		o = r3.Scale(-0.5, size)
	}
	p := func(i, j, k float64) r3.Vec {
		return r3.Vec{X: o.X + i*size.X, Y: o.Y + j*size.Y, Z: o.Z + k*size.Z}
	}
	return &Geometry{Dim: 3, Polygons: []Polygon{
		{p(0, 0, 0), p(0, 1, 0), p(1, 1, 0), p(1, 0, 0)}, // bottom
		{p(0, 0, 1), p(1, 0, 1), p(1, 1, 1), p(0, 1, 1)}, // top
		{p(0, 0, 0), p(1, 0, 0), p(1, 0, 1), p(0, 0, 1)}, // front
		{p(0, 1, 0), p(0, 1, 1), p(1, 1, 1), p(1, 1, 0)}, // back
		{p(0, 0, 0), p(0, 0, 1), p(0, 1, 1), p(0, 1, 0)}, // left
		{p(1, 0, 0), p(1, 1, 0), p(1, 1, 1), p(1, 0, 1)}, // right
	}}
}

// Square returns an axis-aligned rectangle in the XY plane.
func Square(size r3.Vec, center bool) *Geometry {
	if size.X <= 0 || size.Y <= 0 {
		return Empty()
	}
	var ox, oy float64
	if center {
		ox, oy = -size.X/2, -size.Y/2
	}
	return &Geometry{Dim: 2, Polygons: []Polygon{{
		{X: ox, Y: oy},
		{X: ox + size.X, Y: oy},
		{X: ox + size.X, Y: oy + size.Y},
		{X: ox, Y: oy + size.Y},
	}}}
}

// Polygon2D builds one outline per path. A nil paths list uses every point
// in order. The first outline is oriented counter-clockwise; later outlines
// are holes and run clockwise.
func Polygon2D(points []r3.Vec, paths [][]int) (*Geometry, error) {
	if len(points) < 3 {
		return Empty(), nil
	}
	if paths == nil {
		paths = [][]int{make([]int, len(points))}
		for i := range points {
			paths[0][i] = i
		}
	}
	out := &Geometry{Dim: 2}
	for i, path := range paths {
		loop, err := gather(points, path)
		if err != nil {
			return nil, err
		}
		if len(loop) < 3 {
			continue
		}
		for j := range loop {
			loop[j].Z = 0
		}
		if ccw := signedArea(loop) > 0; ccw != (i == 0) {
			loop.reverse()
		}
		out.Polygons = append(out.Polygons, loop)
	}
	if len(out.Polygons) == 0 {
		return Empty(), nil
	}
	return out, nil
}

// Polyhedron builds a solid from faces listed clockwise when seen from
// outside.
func Polyhedron(points []r3.Vec, faces [][]int) (*Geometry, error) {
	out := &Geometry{Dim: 3}
	for _, f := range faces {
		loop, err := gather(points, f)
		if err != nil {
			return nil, err
		}
		if len(loop) < 3 {
			continue
		}
		loop.reverse()
		out.Polygons = append(out.Polygons, loop)
	}
	if len(out.Polygons) == 0 {
		return Empty(), nil
	}
	return out, nil
}

func gather(points []r3.Vec, idx []int) (Polygon, error) {
	loop := make(Polygon, 0, len(idx))
	for _, i := range idx {
		if i < 0 || i >= len(points) {
			return nil, fmt.Errorf("%w: point index %d out of range (%d points)", ErrInvalidPrimitive, i, len(points))
		}
		loop = append(loop, points[i])
	}
	return loop, nil
}

func signedArea(p Polygon) float64 {
	var a float64
	for i, v := range p {
		w := p[(i+1)%len(p)]
		a += v.X*w.Y - w.X*v.Y
	}
	return a / 2
}
