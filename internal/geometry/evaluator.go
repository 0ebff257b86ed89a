package geometry

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/scadc/internal/fsutil"
	"github.com/banshee-data/scadc/internal/monitoring"
	"github.com/banshee-data/scadc/internal/scene"
)

// ErrKernelRequired is returned for boolean operations the reference
// evaluator cannot resolve without an exact geometry kernel.
var ErrKernelRequired = errors.New("operation requires an exact geometry kernel")

// PrimitiveBuilder turns leaf nodes into geometry. Imported files are
// reported to the dependency handler before they are read.
type PrimitiveBuilder struct {
	fs   fsutil.FileSystem
	deps scene.DependencyHandler
}

// NewPrimitiveBuilder returns a builder reading imports from fsys. deps may
// be nil.
func NewPrimitiveBuilder(fsys fsutil.FileSystem, deps scene.DependencyHandler) *PrimitiveBuilder {
	return &PrimitiveBuilder{fs: fsys, deps: deps}
}

// Build returns the untransformed geometry of leaf node n.
func (b *PrimitiveBuilder) Build(n *scene.Node) (*Geometry, error) {
	switch n.Kind {
	case scene.NodeCube:
		return Cube(n.Size, n.Center), nil
	case scene.NodeSquare:
		return Square(n.Size, n.Center), nil
	case scene.NodePolygon:
		return Polygon2D(n.Points, n.Paths)
	case scene.NodePolyhedron:
		return Polyhedron(n.Points, n.Paths)
	case scene.NodeImport:
		return b.importFile(n.File)
	}
	return nil, fmt.Errorf("%s is not a primitive", n.Name())
}

func (b *PrimitiveBuilder) importFile(path string) (*Geometry, error) {
	if path == "" {
		return Empty(), nil
	}
	if b.deps != nil {
		b.deps.Handle(path)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".off" {
		monitoring.Logf("WARNING: Unsupported file format %q while trying to import file '%s'", ext, path)
		return Empty(), nil
	}
	data, err := b.fs.ReadFile(path)
	if err != nil {
		monitoring.Logf("WARNING: Can't open import file '%s'.", path)
		return Empty(), nil
	}
	g, err := ReadOFF(data)
	if err != nil {
		return nil, fmt.Errorf("import of %s failed: %w", path, err)
	}
	return g, nil
}

// Evaluator computes the geometry of a node tree with the reference
// semantics described in the package documentation.
type Evaluator struct {
	builder *PrimitiveBuilder
	cache   map[int]*Geometry
}

// NewEvaluator returns an Evaluator using builder for leaves.
func NewEvaluator(builder *PrimitiveBuilder) *Evaluator {
	return &Evaluator{builder: builder, cache: make(map[int]*Geometry)}
}

// Evaluate returns the geometry of the subtree rooted at root. Background
// nodes contribute nothing.
func (e *Evaluator) Evaluate(root *scene.Node) (*Geometry, error) {
	g, err := e.eval(root)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return Empty(), nil
	}
	return g, nil
}

func (e *Evaluator) eval(n *scene.Node) (*Geometry, error) {
	if n.Has(scene.TagBackground) {
		return nil, nil
	}
	if g, ok := e.cache[n.Index]; ok {
		return g, nil
	}
	g, err := e.evalUncached(n)
	if err != nil {
		return nil, err
	}
	e.cache[n.Index] = g
	return g, nil
}

func (e *Evaluator) evalUncached(n *scene.Node) (*Geometry, error) {
	if n.Kind.IsLeaf() {
		return e.builder.Build(n)
	}

	children := make([]*Geometry, 0, len(n.Children))
	for _, c := range n.Children {
		g, err := e.eval(c)
		if err != nil {
			return nil, err
		}
		children = append(children, g)
	}

	switch n.Kind {
	case scene.NodeTransform:
		return union(children).Transform(n.Matrix), nil
	case scene.NodeDifference:
		return difference(children)
	case scene.NodeIntersection:
		return intersection(children)
	}
	return union(children), nil
}

// nonEmpty drops empty children and those whose dimension differs from the
// first non-empty one.
func nonEmpty(children []*Geometry) []*Geometry {
	var out []*Geometry
	dim := 0
	for _, g := range children {
		if g.IsEmpty() {
			continue
		}
		if dim == 0 {
			dim = g.Dim
		}
		if g.Dim != dim {
			monitoring.Logf("WARNING: Mixing 2D and 3D objects is not supported.")
			continue
		}
		out = append(out, g)
	}
	return out
}

func union(children []*Geometry) *Geometry {
	parts := nonEmpty(children)
	if len(parts) == 0 {
		return Empty()
	}
	return concat(parts[0].Dim, parts...)
}

// difference resolves a difference whose subtracted children lie entirely
// outside the first child.
func difference(children []*Geometry) (*Geometry, error) {
	if len(children) == 0 || children[0].IsEmpty() {
		return Empty(), nil
	}
	first := children[0]
	rest := nonEmpty(children[1:])
	box := first.Bounds()
	for _, g := range rest {
		if g.Dim != first.Dim {
			continue
		}
		if boxesOverlap(box, g.Bounds()) {
			return nil, fmt.Errorf("%w: difference", ErrKernelRequired)
		}
	}
	return first, nil
}

// intersection resolves single-operand intersections and operands with
// disjoint bounds.
func intersection(children []*Geometry) (*Geometry, error) {
	for _, g := range children {
		if g != nil && g.IsEmpty() {
			return Empty(), nil
		}
	}
	parts := nonEmpty(children)
	if len(parts) == 0 {
		return Empty(), nil
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	for i := 0; i < len(parts); i++ {
		for j := i + 1; j < len(parts); j++ {
			if !boxesOverlap(parts[i].Bounds(), parts[j].Bounds()) {
				return Empty(), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: intersection", ErrKernelRequired)
}
