package scene

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/scadc/internal/fsutil"
)

func instantiate(t *testing.T, src string, features Features) *Node {
	t.Helper()
	f := NewFrontend(fsutil.NewMemoryFileSystem(), nil, features)
	m, err := f.Parse(src, "/doc")
	require.NoError(t, err)
	root, err := f.Instantiate(m)
	require.NoError(t, err)
	return root
}

func TestInstantiate_LastAssignmentWins(t *testing.T) {
	lines := captureLog(t)
	// The override appended last takes effect at the first assignment.
	instantiate(t, "a = 1;\nb = a * 2;\necho(b);\na = 5;\n", Features{})
	assert.Equal(t, []string{"ECHO: 10"}, *lines)
}

func TestInstantiate_EchoFormat(t *testing.T) {
	lines := captureLog(t)
	instantiate(t, `echo("hi", x = [1, 2.5], true, undef, -3);`, Features{})
	assert.Equal(t, []string{`ECHO: "hi", x = [1, 2.5], true, undef, -3`}, *lines)
}

func TestInstantiate_TagsAndIndices(t *testing.T) {
	root := instantiate(t, `
translate([1, 0, 0]) !cube(2);
#square(1);
%cube();
*cube();
`, Features{})

	type shape struct {
		Index int
		Kind  NodeKind
		Tags  Tag
	}
	var got []shape
	root.Walk(func(n *Node) bool {
		got = append(got, shape{n.Index, n.Kind, n.Tags})
		return true
	})
	want := []shape{
		{0, NodeGroup, 0},
		{1, NodeTransform, 0},
		{2, NodeCube, TagRoot},
		{3, NodeSquare, TagHighlight},
		{4, NodeCube, TagBackground},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}

	tagged := FindRootTag(root)
	require.NotNil(t, tagged)
	assert.Equal(t, 2, tagged.Index)
	assert.Nil(t, FindRootTag(root.Children[1]))
}

func TestInstantiate_Primitives(t *testing.T) {
	root := instantiate(t, `
cube([1, 2, 3], center = true);
square(4);
polygon([[0, 0], [2, 0], [0, 2]], paths = [[0, 1, 2]], convexity = 3);
polyhedron(points = [[0, 0, 0], [1, 0, 0], [0, 1, 0], [0, 0, 1]],
           faces = [[0, 1, 2], [0, 3, 1], [0, 2, 3], [1, 3, 2]]);
`, Features{})
	require.Len(t, root.Children, 4)

	cube := root.Children[0]
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, cube.Size)
	assert.True(t, cube.Center)

	sq := root.Children[1]
	assert.Equal(t, r3.Vec{X: 4, Y: 4}, sq.Size)

	poly := root.Children[2]
	assert.Len(t, poly.Points, 3)
	assert.Equal(t, [][]int{{0, 1, 2}}, poly.Paths)
	assert.Equal(t, 3, poly.Convexity)

	ph := root.Children[3]
	assert.Len(t, ph.Points, 4)
	assert.Len(t, ph.Paths, 4)
}

func TestInstantiate_UserModuleWithChildren(t *testing.T) {
	root := instantiate(t, `
module wrap(s = 1) {
	scale(s) children();
}
wrap(2) { cube(); square(); }
`, Features{})

	require.Len(t, root.Children, 1)
	call := root.Children[0]
	assert.Equal(t, NodeGroup, call.Kind)
	require.Len(t, call.Children, 1)

	scale := call.Children[0]
	assert.Equal(t, NodeTransform, scale.Kind)
	assert.Equal(t, Scaling(r3.Vec{X: 2, Y: 2, Z: 2}), scale.Matrix)

	require.Len(t, scale.Children, 1)
	kids := scale.Children[0].Children
	require.Len(t, kids, 2)
	assert.Equal(t, NodeCube, kids[0].Kind)
	assert.Equal(t, NodeSquare, kids[1].Kind)
}

func TestInstantiate_ChildrenByIndex(t *testing.T) {
	root := instantiate(t, `
module second() { children(1); }
second() { cube(); square(); }
`, Features{})
	group := root.Children[0].Children[0]
	require.Len(t, group.Children, 1)
	assert.Equal(t, NodeSquare, group.Children[0].Kind)
}

func TestInstantiate_UnknownNamesWarn(t *testing.T) {
	lines := captureLog(t)
	root := instantiate(t, "sphere(r = 2);\ncube(missing);\n", Features{})
	require.Len(t, root.Children, 1)
	assert.Equal(t, r3.Vec{X: 1, Y: 1, Z: 1}, root.Children[0].Size)
	assert.Equal(t, []string{
		"WARNING: Ignoring unknown module 'sphere'.",
		"WARNING: Ignoring unknown variable 'missing'.",
	}, *lines)
}

func TestInstantiate_Assert(t *testing.T) {
	src := "w = 3;\nassert(w > 5, \"too narrow\");\ncube(w);\n"

	f := NewFrontend(fsutil.NewMemoryFileSystem(), nil, mustFeatures(t, "assert"))
	m, err := f.Parse(src, "/doc")
	require.NoError(t, err)
	_, err = f.Instantiate(m)
	require.ErrorIs(t, err, ErrAssertion)
	assert.Contains(t, err.Error(), "too narrow")

	// Without the feature assert is just an unknown module.
	lines := captureLog(t)
	root := instantiate(t, src, Features{})
	assert.Len(t, root.Children, 1)
	assert.Contains(t, *lines, "WARNING: Ignoring unknown module 'assert'.")
}

func TestInstantiate_Recursion(t *testing.T) {
	f := NewFrontend(fsutil.NewMemoryFileSystem(), nil, Features{})
	m, err := f.Parse("module r() { r(); }\nr();\n", "/doc")
	require.NoError(t, err)
	_, err = f.Instantiate(m)
	assert.ErrorIs(t, err, ErrRecursion)
}

func TestInstantiate_ImportResolvesAgainstSourceDir(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/doc/lib/part.scad", []byte(`module part() { import("part.off"); }`), 0o644))
	f := NewFrontend(mfs, nil, Features{})
	m, err := f.Parse("use <lib/part.scad>\npart();\nimport(\"base.off\", convexity = 4);\n", "/doc")
	require.NoError(t, err)
	root, err := f.Instantiate(m)
	require.NoError(t, err)

	require.Len(t, root.Children, 2)
	assert.Equal(t, "/doc/lib/part.off", root.Children[0].Children[0].File)
	assert.Equal(t, "/doc/base.off", root.Children[1].File)
	assert.Equal(t, 4, root.Children[1].Convexity)
}

func TestMatrix(t *testing.T) {
	approx := cmpopts.EquateApprox(0, 1e-9)

	rz := AxisRotation(90, r3.Vec{Z: 1})
	got := rz.Apply(r3.Vec{X: 1})
	if diff := cmp.Diff(r3.Vec{Y: 1}, got, approx); diff != "" {
		t.Errorf("rotate z (-want +got):\n%s", diff)
	}

	m := Translation(r3.Vec{X: 5}).Mul(Scaling(r3.Vec{X: 2, Y: 2, Z: 2}))
	assert.Equal(t, r3.Vec{X: 7, Y: 2, Z: 2}, m.Apply(r3.Vec{X: 1, Y: 1, Z: 1}))

	e := EulerRotation(r3.Vec{X: 90, Z: 90})
	got = e.Apply(r3.Vec{Y: 1})
	if diff := cmp.Diff(r3.Vec{Z: 1}, got, approx); diff != "" {
		t.Errorf("euler (-want +got):\n%s", diff)
	}

	assert.Less(t, Scaling(r3.Vec{X: -1, Y: 1, Z: 1}).Determinant(), 0.0)
	assert.InDelta(t, 1.0, rz.Determinant(), 1e-12)
	assert.Equal(t, Identity(), AxisRotation(30, r3.Vec{}))
}
