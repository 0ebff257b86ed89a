package camera

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestResolve_Defaults(t *testing.T) {
	cfg, err := Resolve(Options{}, 512, 384)
	require.NoError(t, err)

	assert.Equal(t, ModeNone, cfg.Mode)
	assert.Equal(t, Perspective, cfg.Projection)
	assert.Equal(t, 512, cfg.Width)
	assert.Equal(t, 384, cfg.Height)
	assert.False(t, cfg.AutoCenter)
	assert.False(t, cfg.ViewAll)
	assert.Nil(t, cfg.Components())
}

func TestResolve_VectorCamera(t *testing.T) {
	cfg, err := Resolve(Options{Camera: "1,2,3,4,5,6"}, 512, 512)
	require.NoError(t, err)

	assert.Equal(t, ModeVector, cfg.Mode)
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, cfg.Eye)
	assert.Equal(t, r3.Vec{X: 4, Y: 5, Z: 6}, cfg.Center)
}

func TestResolve_VectorCameraRoundTrip(t *testing.T) {
	want := []float64{1, 2, 3, 4, 5, 6}
	cfg, err := Resolve(Options{Camera: "1,2,3,4,5,6"}, 512, 512)
	require.NoError(t, err)
	if diff := cmp.Diff(want, cfg.Components()); diff != "" {
		t.Errorf("Components() mismatch (-want +got):\n%s", diff)
	}

	cfg, err = Resolve(Options{Camera: "-0.25,1e3,3.5,0,0,-7.125"}, 512, 512)
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{-0.25, 1000, 3.5, 0, 0, -7.125}, cfg.Components()); diff != "" {
		t.Errorf("Components() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_GimbalCamera(t *testing.T) {
	cfg, err := Resolve(Options{Camera: "1,2,3,10,20,30,100"}, 512, 512)
	require.NoError(t, err)

	assert.Equal(t, ModeGimbal, cfg.Mode)
	assert.Equal(t, r3.Vec{X: -1, Y: -2, Z: -3}, cfg.Translate)
	assert.InDelta(t, 80.0, cfg.Rotate.X, 1e-9)
	assert.InDelta(t, 340.0, cfg.Rotate.Y, 1e-9)
	assert.InDelta(t, 330.0, cfg.Rotate.Z, 1e-9)
	assert.Equal(t, 100.0, cfg.Distance)
	assert.Len(t, cfg.Components(), 7)
}

func TestResolve_CameraComponentCount(t *testing.T) {
	for _, cam := range []string{"1,2,3,4,5", "1,2,3,4,5,6,7,8", "1", "1,2"} {
		t.Run(cam, func(t *testing.T) {
			_, err := Resolve(Options{Camera: cam}, 512, 512)
			if !errors.Is(err, ErrInvalidCamera) {
				t.Fatalf("Resolve(%q) error = %v, want ErrInvalidCamera", cam, err)
			}
			assert.Contains(t, err.Error(), "7 numbers")
			assert.Contains(t, err.Error(), "6 numbers")
		})
	}
}

func TestResolve_CameraNonNumeric(t *testing.T) {
	for _, cam := range []string{"1,2,3,x,5,6", "1,2,3,4,5,6,", "1,,3,4,5,6", "1,2,3,4,5,inf"} {
		_, err := Resolve(Options{Camera: cam}, 512, 512)
		assert.ErrorIs(t, err, ErrInvalidCamera, "camera %q", cam)
	}
}

func TestResolve_Projection(t *testing.T) {
	tests := []struct {
		in   string
		want Projection
	}{
		{"o", Orthogonal},
		{"ortho", Orthogonal},
		{"orthogonal", Orthogonal},
		{"p", Perspective},
		{"perspective", Perspective},
	}
	for _, tt := range tests {
		cfg, err := Resolve(Options{Projection: tt.in}, 512, 512)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, cfg.Projection, tt.in)
	}

	short, err := Resolve(Options{Projection: "o"}, 512, 512)
	require.NoError(t, err)
	long, err := Resolve(Options{Projection: "ortho"}, 512, 512)
	require.NoError(t, err)
	assert.Equal(t, short.Projection, long.Projection)
}

func TestResolve_BadProjection(t *testing.T) {
	for _, p := range []string{"bogus", "O", "persp"} {
		_, err := Resolve(Options{Projection: p}, 512, 512)
		assert.ErrorIs(t, err, ErrInvalidProjection, p)
	}
}

func TestResolve_ImgSize(t *testing.T) {
	cfg, err := Resolve(Options{ImgSize: "800,600"}, 512, 512)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 600, cfg.Height)

	for _, s := range []string{"800", "800,600,1", "a,600", "800,1.5", "0,10", "-1,10"} {
		_, err := Resolve(Options{ImgSize: s}, 512, 512)
		assert.ErrorIs(t, err, ErrInvalidImageSize, s)
	}
}

func TestResolve_Flags(t *testing.T) {
	cfg, err := Resolve(Options{AutoCenter: true, ViewAll: true}, 512, 512)
	require.NoError(t, err)
	assert.True(t, cfg.AutoCenter)
	assert.True(t, cfg.ViewAll)
}

func TestView_ViewAllKeepsSceneInside(t *testing.T) {
	bounds := r3.Box{Min: r3.Vec{X: -10, Y: -10, Z: -10}, Max: r3.Vec{X: 10, Y: 10, Z: 10}}
	for _, opts := range []Options{
		{},
		{Camera: "50,50,50,0,0,0", ViewAll: true},
		{Camera: "0,0,0,55,0,25,140", ViewAll: true, Projection: "o"},
	} {
		cfg, err := Resolve(opts, 200, 100)
		require.NoError(t, err)
		v := NewView(cfg, bounds)
		for _, c := range boxCorners(bounds) {
			x, y, _ := v.Project(c)
			assert.True(t, x >= 0 && x <= 200, "x=%v out of image for %+v", x, opts)
			assert.True(t, y >= 0 && y <= 100, "y=%v out of image for %+v", y, opts)
		}
	}
}

func TestView_VectorCameraLooksAtCenter(t *testing.T) {
	cfg, err := Resolve(Options{Camera: "0,-10,0,0,0,0"}, 100, 100)
	require.NoError(t, err)
	v := NewView(cfg, r3.Box{})
	x, y, depth := v.Project(r3.Vec{})
	assert.InDelta(t, 50, x, 1e-9)
	assert.InDelta(t, 50, y, 1e-9)
	assert.InDelta(t, 10, depth, 1e-9)

	// Points further along +x land right of center.
	xr, _, _ := v.Project(r3.Vec{X: 1})
	assert.Greater(t, xr, x)
	_, yu, _ := v.Project(r3.Vec{Z: 1})
	assert.Greater(t, yu, y)
}

func TestView_AutoCenter(t *testing.T) {
	bounds := r3.Box{Min: r3.Vec{X: 10, Y: 10, Z: 10}, Max: r3.Vec{X: 12, Y: 12, Z: 12}}
	cfg, err := Resolve(Options{Camera: "0,-10,0,0,0,0", AutoCenter: true}, 100, 100)
	require.NoError(t, err)
	v := NewView(cfg, bounds)
	x, y, _ := v.Project(r3.Vec{X: 11, Y: 11, Z: 11})
	assert.InDelta(t, 50, x, 1e-6)
	assert.InDelta(t, 50, y, 1e-6)
	assert.False(t, math.IsNaN(x))
}
