package geometry

import (
	"fmt"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/scadc/internal/fsutil"
	"github.com/banshee-data/scadc/internal/monitoring"
	"github.com/banshee-data/scadc/internal/scene"
)

type recordingDeps struct {
	paths []string
}

func (r *recordingDeps) Handle(path string) { r.paths = append(r.paths, path) }

const tetraOFF = "OFF\n4 4 6\n0 0 0\n1 0 0\n0 1 0\n0 0 1\n3 0 2 1\n3 0 1 3\n3 0 3 2\n3 1 2 3\n"

func buildTree(t *testing.T, mfs *fsutil.MemoryFileSystem, src string) *scene.Node {
	t.Helper()
	f := scene.NewFrontend(mfs, nil, scene.Features{})
	m, err := f.Parse(src, "/doc")
	require.NoError(t, err)
	root, err := f.Instantiate(m)
	require.NoError(t, err)
	return root
}

func captureLog(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.SetLogger(log.Printf) })
	return &lines
}

func TestEvaluator_UnionAndTransform(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	root := buildTree(t, mfs, `
union() {
	cube(1);
	translate([5, 0, 0]) cube(1);
	%translate([50, 0, 0]) cube(1);
}
`)
	ev := NewEvaluator(NewPrimitiveBuilder(mfs, nil))
	g, err := ev.Evaluate(root)
	require.NoError(t, err)

	assert.Equal(t, 3, g.Dim)
	assert.Len(t, g.Polygons, 12)
	box := g.Bounds()
	assert.Equal(t, r3.Vec{}, box.Min)
	assert.Equal(t, r3.Vec{X: 6, Y: 1, Z: 1}, box.Max, "background geometry is excluded")
}

func TestEvaluator_MixedDimensionsWarn(t *testing.T) {
	lines := captureLog(t)
	mfs := fsutil.NewMemoryFileSystem()
	root := buildTree(t, mfs, "square(2);\ncube(1);\n")

	g, err := NewEvaluator(NewPrimitiveBuilder(mfs, nil)).Evaluate(root)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Dim)
	assert.Len(t, g.Polygons, 1)
	assert.Equal(t, []string{"WARNING: Mixing 2D and 3D objects is not supported."}, *lines)
}

func TestEvaluator_Booleans(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantErr  bool
		wantDim  int
		polygons int
	}{
		{"difference with disjoint subtrahend", "difference() { cube(1); translate([5, 0, 0]) cube(1); }", false, 3, 6},
		{"difference with overlap", "difference() { cube(2); cube(1); }", true, 0, 0},
		{"difference of nothing", "difference() { group(); cube(1); }", false, 0, 0},
		{"single intersection", "intersection() { cube(1); }", false, 3, 6},
		{"disjoint intersection", "intersection() { cube(1); translate([3, 0, 0]) cube(1); }", false, 0, 0},
		{"overlapping intersection", "intersection() { cube(2); cube(1); }", true, 0, 0},
		{"empty operand", "intersection() { cube(2); group(); }", false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mfs := fsutil.NewMemoryFileSystem()
			root := buildTree(t, mfs, tt.src)
			g, err := NewEvaluator(NewPrimitiveBuilder(mfs, nil)).Evaluate(root)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrKernelRequired)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDim, g.Dim)
			assert.Len(t, g.Polygons, tt.polygons)
		})
	}
}

func TestEvaluator_ImportRegistersDependency(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/doc/tetra.off", []byte(tetraOFF), 0o644))
	deps := &recordingDeps{}
	root := buildTree(t, mfs, `import("tetra.off"); import("gone.off"); import("shape.stl");`)

	lines := captureLog(t)
	g, err := NewEvaluator(NewPrimitiveBuilder(mfs, deps)).Evaluate(root)
	require.NoError(t, err)
	assert.Len(t, g.Polygons, 4)
	assert.Equal(t, []string{"/doc/tetra.off", "/doc/gone.off", "/doc/shape.stl"}, deps.paths)
	assert.Len(t, *lines, 2)
}

func TestEvaluator_CachesByIndex(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/doc/tetra.off", []byte(tetraOFF), 0o644))
	deps := &recordingDeps{}
	root := buildTree(t, mfs, `import("tetra.off");`)

	ev := NewEvaluator(NewPrimitiveBuilder(mfs, deps))
	_, err := ev.Evaluate(root)
	require.NoError(t, err)
	_, err = ev.Evaluate(root)
	require.NoError(t, err)
	assert.Len(t, deps.paths, 1)
}
