// Package camera resolves the image camera from command-line settings.
package camera

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrInvalidCamera is returned for a camera value that is neither a
	// 6-number vector camera nor a 7-number gimbal camera.
	ErrInvalidCamera = errors.New("invalid camera")
	// ErrInvalidProjection is returned for an unrecognised projection name.
	ErrInvalidProjection = errors.New("invalid projection")
	// ErrInvalidImageSize is returned for an imgsize value that is not two
	// positive integers.
	ErrInvalidImageSize = errors.New("invalid imgsize")
)

// Mode selects how the camera position is described.
type Mode int

const (
	// ModeNone means no camera was given; renderers frame the scene
	// automatically.
	ModeNone Mode = iota
	// ModeVector positions the camera with an eye and a center point.
	ModeVector
	// ModeGimbal positions the camera with translate, rotate and distance.
	ModeGimbal
)

func (m Mode) String() string {
	switch m {
	case ModeVector:
		return "vector"
	case ModeGimbal:
		return "gimbal"
	default:
		return "none"
	}
}

// Projection is the image projection. The zero value is perspective.
type Projection int

const (
	Perspective Projection = iota
	Orthogonal
)

func (p Projection) String() string {
	if p == Orthogonal {
		return "orthogonal"
	}
	return "perspective"
}

// Options are the raw camera-related settings. Empty strings mean unset.
type Options struct {
	Camera     string
	Projection string
	ImgSize    string
	AutoCenter bool
	ViewAll    bool
}

// Config is a validated camera.
type Config struct {
	Mode Mode

	// Vector mode.
	Eye    r3.Vec
	Center r3.Vec

	// Gimbal mode. Rotate holds degrees about x, y and z.
	Translate r3.Vec
	Rotate    r3.Vec
	Distance  float64

	Projection Projection
	Width      int
	Height     int
	AutoCenter bool
	ViewAll    bool
}

// Resolve validates opts into a Config. defaultWidth and defaultHeight come
// from the render settings and apply when imgsize is unset.
func Resolve(opts Options, defaultWidth, defaultHeight int) (Config, error) {
	cfg := Config{
		Mode:   ModeNone,
		Width:  defaultWidth,
		Height: defaultHeight,
	}

	if opts.Camera != "" {
		params, err := parseNumbers(opts.Camera)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidCamera, err)
		}
		switch len(params) {
		case 6:
			cfg.Mode = ModeVector
			cfg.Eye = r3.Vec{X: params[0], Y: params[1], Z: params[2]}
			cfg.Center = r3.Vec{X: params[3], Y: params[4], Z: params[5]}
		case 7:
			cfg.Mode = ModeGimbal
			cfg.Translate = r3.Vec{X: params[0], Y: params[1], Z: params[2]}
			cfg.Rotate = r3.Vec{X: params[3], Y: params[4], Z: params[5]}
			cfg.Distance = params[6]
		default:
			return Config{}, fmt.Errorf("%w: camera setup requires either 7 numbers for gimbal camera "+
				"(translatex,y,z,rotx,y,z,dist) or 6 numbers for vector camera (eyex,y,z,centerx,y,z), got %d",
				ErrInvalidCamera, len(params))
		}
	}

	if cfg.Mode == ModeGimbal {
		cfg.applyGimbalDefaultTranslate()
	}

	cfg.ViewAll = opts.ViewAll
	cfg.AutoCenter = opts.AutoCenter

	if opts.Projection != "" {
		p, err := ParseProjection(opts.Projection)
		if err != nil {
			return Config{}, err
		}
		cfg.Projection = p
	}

	if opts.ImgSize != "" {
		w, h, err := parseImageSize(opts.ImgSize)
		if err != nil {
			return Config{}, err
		}
		cfg.Width, cfg.Height = w, h
	}

	return cfg, nil
}

// ParseProjection accepts the short and long projection names.
func ParseProjection(s string) (Projection, error) {
	switch s {
	case "o", "ortho", "orthogonal":
		return Orthogonal, nil
	case "p", "perspective":
		return Perspective, nil
	default:
		return Perspective, fmt.Errorf("%w %q: projection needs to be 'o' or 'p' for ortho or perspective", ErrInvalidProjection, s)
	}
}

// Components returns the numbers the camera was configured from: 6 for a
// vector camera, 7 for a gimbal camera (after default translation) and nil
// otherwise.
func (c Config) Components() []float64 {
	switch c.Mode {
	case ModeVector:
		return []float64{c.Eye.X, c.Eye.Y, c.Eye.Z, c.Center.X, c.Center.Y, c.Center.Z}
	case ModeGimbal:
		return []float64{c.Translate.X, c.Translate.Y, c.Translate.Z, c.Rotate.X, c.Rotate.Y, c.Rotate.Z, c.Distance}
	default:
		return nil
	}
}

// applyGimbalDefaultTranslate converts command-line gimbal numbers into the
// convention used by the interactive viewport.
func (c *Config) applyGimbalDefaultTranslate() {
	c.Translate = r3.Scale(-1, c.Translate)
	c.Rotate = r3.Vec{
		X: math.Mod(360-c.Rotate.X+90, 360),
		Y: math.Mod(360-c.Rotate.Y, 360),
		Z: math.Mod(360-c.Rotate.Z, 360),
	}
}

func parseNumbers(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", p)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite number %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseImageSize(s string) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w %q: need 2 numbers for imgsize", ErrInvalidImageSize, s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w %q: bad width: %v", ErrInvalidImageSize, s, err)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w %q: bad height: %v", ErrInvalidImageSize, s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w %q: width and height must be positive", ErrInvalidImageSize, s)
	}
	return w, h, nil
}
