// Package export writes evaluated geometry to mesh, vector and raster
// formats.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/scadc/internal/artifact"
	"github.com/banshee-data/scadc/internal/geometry"
)

// ErrUnsupportedKind is returned by Write for kinds that are not geometry
// exports.
var ErrUnsupportedKind = errors.New("kind is not a geometry export")

// ErrDimensionMismatch is returned when geometry does not have the
// dimension the format needs.
var ErrDimensionMismatch = errors.New("geometry has the wrong dimension for this format")

// Write encodes g as kind to w.
func Write(w io.Writer, kind artifact.Kind, g *geometry.Geometry) error {
	if !kind.IsGeometryExport() {
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	if !g.IsEmpty() && g.Dim != kind.Dimension() {
		return fmt.Errorf("%w: %s needs %dD, got %dD", ErrDimensionMismatch, kind, kind.Dimension(), g.Dim)
	}
	switch kind {
	case artifact.KindSTL:
		return WriteSTL(w, g)
	case artifact.KindOFF:
		return WriteOFF(w, g)
	case artifact.KindAMF:
		return WriteAMF(w, g)
	case artifact.KindDXF:
		return WriteDXF(w, g)
	case artifact.KindSVG:
		return WriteSVG(w, g)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
}

// mesh is an indexed form of a geometry with shared vertices.
type mesh struct {
	vertices []r3.Vec
	faces    [][]int
}

func indexMesh(polys []geometry.Polygon) mesh {
	var m mesh
	seen := make(map[r3.Vec]int)
	for _, p := range polys {
		face := make([]int, 0, len(p))
		for _, v := range p {
			idx, ok := seen[v]
			if !ok {
				idx = len(m.vertices)
				seen[v] = idx
				m.vertices = append(m.vertices, v)
			}
			face = append(face, idx)
		}
		m.faces = append(m.faces, face)
	}
	return m
}

func num(v float64) string {
	if v == 0 || math.Abs(v) < 1e-12 {
		return "0"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// errWriter latches the first write error so encoders can write
// unconditionally and check once.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, v ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, v...)
}
