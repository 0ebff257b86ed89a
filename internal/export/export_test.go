package export

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/scadc/internal/artifact"
	"github.com/banshee-data/scadc/internal/geometry"
)

func unitCube() *geometry.Geometry {
	return geometry.Cube(r3.Vec{X: 1, Y: 1, Z: 1}, false)
}

func TestWriteSTL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSTL(&buf, unitCube()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "solid scadc_model\n"))
	assert.True(t, strings.HasSuffix(out, "endsolid scadc_model\n"))
	assert.Equal(t, 12, strings.Count(out, "facet normal"))
	assert.Equal(t, 36, strings.Count(out, "vertex "))
	assert.Contains(t, out, "facet normal 0 0 -1\n")
}

func TestWriteOFF_ReadsBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOFF(&buf, unitCube()))
	assert.True(t, strings.HasPrefix(buf.String(), "OFF\n8 6 0\n"))

	g, err := geometry.ReadOFF(buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, g.Polygons, 6)
	assert.Equal(t, unitCube().Bounds(), g.Bounds())
}

func TestWriteAMF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAMF(&buf, unitCube()))
	assert.True(t, strings.HasPrefix(buf.String(), xml.Header))

	var doc amfDoc
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "millimeter", doc.Unit)
	assert.Len(t, doc.Object.Vertices, 8)
	assert.Len(t, doc.Object.Volume, 12)
	require.Len(t, doc.Metadata, 1)
	assert.Equal(t, "producer", doc.Metadata[0].Type)
}

func TestWriteDXF(t *testing.T) {
	var buf bytes.Buffer
	sq := geometry.Square(r3.Vec{X: 2, Y: 3}, false)
	require.NoError(t, WriteDXF(&buf, sq))
	out := buf.String()

	assert.Equal(t, 4, strings.Count(out, "\nLINE\n"))
	assert.Contains(t, out, "  2\nENTITIES\n")
	assert.True(t, strings.HasSuffix(out, "  0\nEOF\n"))
	assert.Contains(t, out, " 10\n2\n 20\n0\n 11\n2\n 21\n3\n")
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	sq := geometry.Square(r3.Vec{X: 10, Y: 5}, true)
	require.NoError(t, WriteSVG(&buf, sq))
	out := buf.String()

	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "<path")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))
}

func TestWrite_Dispatch(t *testing.T) {
	tests := []struct {
		name    string
		kind    artifact.Kind
		geom    *geometry.Geometry
		wantErr error
	}{
		{"stl of a cube", artifact.KindSTL, unitCube(), nil},
		{"amf of nothing", artifact.KindAMF, geometry.Empty(), nil},
		{"dxf of a square", artifact.KindDXF, geometry.Square(r3.Vec{X: 1, Y: 1}, false), nil},
		{"dxf of a cube", artifact.KindDXF, unitCube(), ErrDimensionMismatch},
		{"off of a square", artifact.KindOFF, geometry.Square(r3.Vec{X: 1, Y: 1}, false), ErrDimensionMismatch},
		{"png is not an export", artifact.KindPNG, unitCube(), ErrUnsupportedKind},
		{"csg is not an export", artifact.KindCSGTree, unitCube(), ErrUnsupportedKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Write(&buf, tt.kind, tt.geom)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, buf.Len())
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, buf.Len())
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, assert.AnError }

func TestWrite_PropagatesWriterErrors(t *testing.T) {
	assert.ErrorIs(t, WriteSTL(failingWriter{}, unitCube()), assert.AnError)
	assert.ErrorIs(t, WriteOFF(failingWriter{}, unitCube()), assert.AnError)
	assert.Error(t, WriteAMF(failingWriter{}, unitCube()))
}
