package geometry

import (
	"fmt"

	"github.com/banshee-data/scadc/internal/scene"
)

// TermOp is the operation of a CSG term.
type TermOp int

const (
	TermLeaf TermOp = iota
	TermUnion
	TermIntersection
	TermDifference
)

var termSymbols = map[TermOp]string{
	TermUnion:        "+",
	TermIntersection: "*",
	TermDifference:   "-",
}

// Term is a node of the flattened boolean expression of a scene.
type Term struct {
	Op          TermOp
	Left, Right *Term

	// Leaf fields.
	Label  string
	Node   *scene.Node
	Matrix scene.Matrix
	// Geom is the transformed leaf geometry; nil when the term was built
	// without geometry.
	Geom *Geometry
}

func (t *Term) String() string {
	if t.Op == TermLeaf {
		return t.Label
	}
	return fmt.Sprintf("(%s %s %s)", t.Left, termSymbols[t.Op], t.Right)
}

// SignedLeaf is a leaf with whether it is subtracted from the result.
type SignedLeaf struct {
	*Term
	Negative bool
}

// Leaves lists every leaf with its sign, left to right.
func (t *Term) Leaves() []SignedLeaf {
	var out []SignedLeaf
	var walk func(*Term, bool)
	walk = func(x *Term, neg bool) {
		if x == nil {
			return
		}
		if x.Op == TermLeaf {
			out = append(out, SignedLeaf{Term: x, Negative: neg})
			return
		}
		walk(x.Left, neg)
		walk(x.Right, neg != (x.Op == TermDifference))
	}
	walk(t, false)
	return out
}

// TermSet is the result of term evaluation.
type TermSet struct {
	// Root is nil when the scene has no top-level CSG object.
	Root        *Term
	Highlights  []*Term
	Backgrounds []*Term
}

// LeafCount is the number of leaves in Root.
func (s *TermSet) LeafCount() int {
	if s.Root == nil {
		return 0
	}
	return len(s.Root.Leaves())
}

// TermEvaluator flattens a node tree into a CSG term.
type TermEvaluator struct {
	builder *PrimitiveBuilder
}

// NewTermEvaluator returns an evaluator that attaches leaf geometry built
// by builder. With a nil builder, terms carry labels only.
func NewTermEvaluator(builder *PrimitiveBuilder) *TermEvaluator {
	return &TermEvaluator{builder: builder}
}

// Evaluate builds the term set of the subtree rooted at root.
func (e *TermEvaluator) Evaluate(root *scene.Node) (*TermSet, error) {
	set := &TermSet{}
	t, err := e.eval(root, scene.Identity(), set)
	if err != nil {
		return nil, err
	}
	set.Root = t
	return set, nil
}

func (e *TermEvaluator) eval(n *scene.Node, m scene.Matrix, set *TermSet) (*Term, error) {
	t, err := e.evalNode(n, m, set)
	if err != nil || t == nil {
		return t, err
	}
	if n.Has(scene.TagHighlight) {
		set.Highlights = append(set.Highlights, t)
	}
	if n.Has(scene.TagBackground) {
		set.Backgrounds = append(set.Backgrounds, t)
		return nil, nil
	}
	return t, nil
}

func (e *TermEvaluator) evalNode(n *scene.Node, m scene.Matrix, set *TermSet) (*Term, error) {
	if n.Kind.IsLeaf() {
		return e.leaf(n, m)
	}
	if n.Kind == scene.NodeTransform {
		m = m.Mul(n.Matrix)
	}

	var acc *Term
	// The first non-empty child is the base of a difference.
	for _, c := range n.Children {
		t, err := e.eval(c, m, set)
		if err != nil {
			return nil, err
		}
		switch {
		case t == nil:
		case acc == nil:
			acc = t
		default:
			acc = &Term{Op: opFor(n.Kind), Left: acc, Right: t}
		}
	}
	return acc, nil
}

func opFor(k scene.NodeKind) TermOp {
	switch k {
	case scene.NodeDifference:
		return TermDifference
	case scene.NodeIntersection:
		return TermIntersection
	}
	return TermUnion
}

func (e *TermEvaluator) leaf(n *scene.Node, m scene.Matrix) (*Term, error) {
	t := &Term{
		Op:     TermLeaf,
		Label:  fmt.Sprintf("%s%d", n.Name(), n.Index),
		Node:   n,
		Matrix: m,
	}
	if e.builder != nil {
		g, err := e.builder.Build(n)
		if err != nil {
			return nil, err
		}
		t.Geom = g.Transform(m)
	}
	return t, nil
}
