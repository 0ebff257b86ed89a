package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// NodeKind is the kind of an instantiated node.
type NodeKind int

const (
	NodeGroup NodeKind = iota
	NodeUnion
	NodeDifference
	NodeIntersection
	NodeTransform
	NodeCube
	NodeSquare
	NodePolygon
	NodePolyhedron
	NodeImport
)

var nodeNames = map[NodeKind]string{
	NodeGroup:        "group",
	NodeUnion:        "union",
	NodeDifference:   "difference",
	NodeIntersection: "intersection",
	NodeTransform:    "multmatrix",
	NodeCube:         "cube",
	NodeSquare:       "square",
	NodePolygon:      "polygon",
	NodePolyhedron:   "polyhedron",
	NodeImport:       "import",
}

func (k NodeKind) String() string { return nodeNames[k] }

// IsLeaf reports whether nodes of kind k produce geometry themselves.
func (k NodeKind) IsLeaf() bool {
	return k >= NodeCube
}

// Tag is the set of modifiers applied to a node.
type Tag uint8

const (
	TagRoot Tag = 1 << iota
	TagHighlight
	TagBackground
)

// Node is one element of an instantiated scene.
type Node struct {
	// Index is unique within a tree and assigned in creation order.
	Index int
	Kind  NodeKind
	Tags  Tag

	// Matrix is set for NodeTransform.
	Matrix Matrix

	// Size and Center are set for NodeCube and NodeSquare.
	Size   r3.Vec
	Center bool

	// Points holds polygon or polyhedron vertices; Paths holds polygon
	// paths or polyhedron faces. A nil Paths on a polygon means the points
	// in order.
	Points []r3.Vec
	Paths  [][]int

	// File is the absolute path of an imported file.
	File string

	Convexity int
	Children  []*Node
}

// Name is the node's name in dumps and term labels.
func (n *Node) Name() string { return n.Kind.String() }

// Has reports whether tag is set on n.
func (n *Node) Has(tag Tag) bool { return n.Tags&tag != 0 }

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// FindRootTag returns the first node tagged with the root modifier in
// depth-first order, or nil.
func FindRootTag(n *Node) *Node {
	var found *Node
	n.Walk(func(x *Node) bool {
		if found != nil {
			return false
		}
		if x.Has(TagRoot) {
			found = x
			return false
		}
		return true
	})
	return found
}

// Matrix is a row-major 4x4 affine transform.
type Matrix [16]float64

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation returns a transform moving points by v.
func Translation(v r3.Vec) Matrix {
	m := Identity()
	m[3], m[7], m[11] = v.X, v.Y, v.Z
	return m
}

// Scaling returns a transform scaling each axis by v.
func Scaling(v r3.Vec) Matrix {
	m := Identity()
	m[0], m[5], m[10] = v.X, v.Y, v.Z
	return m
}

// AxisRotation returns a rotation of deg degrees about axis.
func AxisRotation(deg float64, axis r3.Vec) Matrix {
	if r3.Norm(axis) == 0 {
		return Identity()
	}
	rot := r3.NewRotation(deg*math.Pi/180, r3.Unit(axis))
	x := rot.Rotate(r3.Vec{X: 1})
	y := rot.Rotate(r3.Vec{Y: 1})
	z := rot.Rotate(r3.Vec{Z: 1})
	return Matrix{
		snap(x.X), snap(y.X), snap(z.X), 0,
		snap(x.Y), snap(y.Y), snap(z.Y), 0,
		snap(x.Z), snap(y.Z), snap(z.Z), 0,
		0, 0, 0, 1,
	}
}

// snap rounds values within rotation noise of an integer.
func snap(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < 1e-12 {
		return r
	}
	return v
}

// EulerRotation rotates about x, then y, then z by the components of deg.
func EulerRotation(deg r3.Vec) Matrix {
	rx := AxisRotation(deg.X, r3.Vec{X: 1})
	ry := AxisRotation(deg.Y, r3.Vec{Y: 1})
	rz := AxisRotation(deg.Z, r3.Vec{Z: 1})
	return rz.Mul(ry.Mul(rx))
}

// Mul returns m*o, the transform applying o first.
func (m Matrix) Mul(o Matrix) Matrix {
	var out Matrix
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[r*4+k] * o[k*4+c]
			}
			out[r*4+c] = sum
		}
	}
	return out
}

// Apply transforms point p.
func (m Matrix) Apply(p r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3],
		Y: m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7],
		Z: m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11],
	}
}

// Determinant returns the determinant of the linear part of m. A negative
// value means the transform mirrors.
func (m Matrix) Determinant() float64 {
	return m[0]*(m[5]*m[10]-m[6]*m[9]) -
		m[1]*(m[4]*m[10]-m[6]*m[8]) +
		m[2]*(m[4]*m[9]-m[5]*m[8])
}
