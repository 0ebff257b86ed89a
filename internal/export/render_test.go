package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/scadc/internal/camera"
	"github.com/banshee-data/scadc/internal/config"
	"github.com/banshee-data/scadc/internal/fsutil"
	"github.com/banshee-data/scadc/internal/geometry"
	"github.com/banshee-data/scadc/internal/scene"
)

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func sameColor(a, b color.Color) bool {
	r1, g1, b1, a1 := a.RGBA()
	r2, g2, b2, a2 := b.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}

func newRenderer(t *testing.T, opts camera.Options) (*Renderer, Scheme) {
	t.Helper()
	cam, err := camera.Resolve(opts, 64, 48)
	require.NoError(t, err)
	scheme, err := SchemeByName("Cornfield")
	require.NoError(t, err)
	return NewRenderer(cam, scheme), scheme
}

func TestRenderFull(t *testing.T) {
	tests := []struct {
		name string
		opts camera.Options
		geom *geometry.Geometry
	}{
		{"auto framed cube", camera.Options{}, geometry.Cube(r3.Vec{X: 2, Y: 2, Z: 2}, true)},
		{"orthogonal viewall", camera.Options{Camera: "10,10,10,0,0,0", Projection: "o", ViewAll: true}, geometry.Cube(r3.Vec{X: 2, Y: 2, Z: 2}, true)},
		{"gimbal viewall", camera.Options{Camera: "0,0,0,55,0,25,50", ViewAll: true}, geometry.Cube(r3.Vec{X: 2, Y: 2, Z: 2}, true)},
		{"flat square", camera.Options{}, geometry.Square(r3.Vec{X: 3, Y: 1}, true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, scheme := newRenderer(t, tt.opts)
			var buf bytes.Buffer
			require.NoError(t, r.RenderFull(&buf, tt.geom))

			img := decodePNG(t, buf.Bytes())
			assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
			assert.False(t, sameColor(scheme.Background, img.At(32, 24)), "scene should cover the image centre")
			assert.True(t, sameColor(scheme.Background, img.At(0, 0)), "corner should be background")
		})
	}
}

func TestRenderFull_EmptyGeometry(t *testing.T) {
	r, scheme := newRenderer(t, camera.Options{})
	var buf bytes.Buffer
	require.NoError(t, r.RenderFull(&buf, geometry.Empty()))
	img := decodePNG(t, buf.Bytes())
	assert.True(t, sameColor(scheme.Background, img.At(32, 24)))
}

func termSet(t *testing.T, src string) *geometry.TermSet {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	f := scene.NewFrontend(mfs, nil, scene.Features{})
	m, err := f.Parse(src, "/doc")
	require.NoError(t, err)
	root, err := f.Instantiate(m)
	require.NoError(t, err)
	set, err := geometry.NewTermEvaluator(geometry.NewPrimitiveBuilder(mfs, nil)).Evaluate(root)
	require.NoError(t, err)
	return set
}

func TestRenderPreviewAndThrownTogether(t *testing.T) {
	set := termSet(t, `
difference() {
	cube(4, center = true);
	translate([0, 0, 3]) cube(1, center = true);
}
#translate([4, 0, 0]) cube(1);
`)
	r, scheme := newRenderer(t, camera.Options{})

	var preview, thrown bytes.Buffer
	require.NoError(t, r.RenderPreview(&preview, set))
	require.NoError(t, r.RenderThrownTogether(&thrown, set))

	pimg := decodePNG(t, preview.Bytes())
	timg := decodePNG(t, thrown.Bytes())
	assert.False(t, sameColor(scheme.Background, pimg.At(32, 24)))
	assert.NotEqual(t, preview.Bytes(), thrown.Bytes(), "subtracted leaves are only drawn thrown together")
	assert.Equal(t, pimg.Bounds(), timg.Bounds())
}

func TestSchemes(t *testing.T) {
	for _, name := range config.ColorSchemes {
		s, err := SchemeByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, s.Name)
	}
	_, err := SchemeByName("Nope")
	assert.ErrorIs(t, err, ErrUnknownScheme)
}

func TestRenderMode_String(t *testing.T) {
	assert.Equal(t, "full", RenderFull.String())
	assert.Equal(t, "preview", RenderPreview.String())
	assert.Equal(t, "thrown-together", RenderThrownTogether.String())
}
