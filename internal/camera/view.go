package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	fieldOfViewDeg = 45.0
	nearPlane      = 1e-3
	fitMargin      = 0.9
)

// View projects scene coordinates onto the image plane of a Config.
// Image coordinates have their origin at the bottom-left pixel.
type View struct {
	cfg Config

	// Gimbal cameras transform the scene before viewing it.
	pre       bool
	translate r3.Vec
	rotations []r3.Rotation

	eye     r3.Vec
	right   r3.Vec
	up      r3.Vec
	forward r3.Vec

	scale   float64
	offsetX float64
	offsetY float64
}

// NewView builds the view for cfg framing a scene bounded by bounds. An
// empty or zero-sized bounds is treated as a unit box at the origin.
func NewView(cfg Config, bounds r3.Box) *View {
	if boxEmpty(bounds) {
		bounds = r3.Box{Min: r3.Vec{X: -0.5, Y: -0.5, Z: -0.5}, Max: r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}}
	}
	mid := boxCenter(bounds)
	radius := r3.Norm(r3.Sub(bounds.Max, bounds.Min)) / 2

	v := &View{cfg: cfg}
	var eye, center r3.Vec
	switch cfg.Mode {
	case ModeVector:
		eye, center = cfg.Eye, cfg.Center
		if cfg.AutoCenter {
			shift := r3.Sub(mid, center)
			eye, center = r3.Add(eye, shift), mid
		}
	case ModeGimbal:
		v.pre = true
		v.translate = cfg.Translate
		if cfg.AutoCenter {
			v.translate = r3.Scale(-1, mid)
		}
		// Applied about z, then y, then x.
		v.rotations = []r3.Rotation{
			r3.NewRotation(radians(cfg.Rotate.Z), r3.Vec{Z: 1}),
			r3.NewRotation(radians(cfg.Rotate.Y), r3.Vec{Y: 1}),
			r3.NewRotation(radians(cfg.Rotate.X), r3.Vec{X: 1}),
		}
		eye, center = r3.Vec{Y: -cfg.Distance}, r3.Vec{}
	default:
		center = mid
		dir := r3.Vec{X: 1, Y: 1, Z: -0.5}
		eye = r3.Sub(center, r3.Scale(2*radius, dir))
	}
	v.setBasis(eye, center)

	if cfg.ViewAll || cfg.Mode == ModeNone {
		v.fit(bounds)
	} else {
		v.setDefaultScale(r3.Norm(r3.Sub(center, eye)))
	}
	return v
}

// Project maps p to image coordinates and returns its depth along the view
// direction. Larger depth is further from the eye.
func (v *View) Project(p r3.Vec) (x, y, depth float64) {
	px, py, depth := v.planar(p)
	return px*v.scale + v.offsetX, py*v.scale + v.offsetY, depth
}

// Width returns the image width in pixels.
func (v *View) Width() int { return v.cfg.Width }

// Height returns the image height in pixels.
func (v *View) Height() int { return v.cfg.Height }

func (v *View) setBasis(eye, center r3.Vec) {
	forward := r3.Sub(center, eye)
	if r3.Norm(forward) == 0 {
		forward = r3.Vec{Y: 1}
	}
	forward = r3.Unit(forward)
	worldUp := r3.Vec{Z: 1}
	if r3.Norm(r3.Cross(forward, worldUp)) < 1e-9 {
		worldUp = r3.Vec{Y: 1}
	}
	right := r3.Unit(r3.Cross(forward, worldUp))
	v.eye = eye
	v.forward = forward
	v.right = right
	v.up = r3.Cross(right, forward)
}

func (v *View) planar(p r3.Vec) (x, y, depth float64) {
	if v.pre {
		p = r3.Add(p, v.translate)
		for _, r := range v.rotations {
			p = r.Rotate(p)
		}
	}
	d := r3.Sub(p, v.eye)
	x, y, depth = r3.Dot(d, v.right), r3.Dot(d, v.up), r3.Dot(d, v.forward)
	if v.cfg.Projection == Perspective {
		z := math.Max(depth, nearPlane)
		x, y = x/z, y/z
	}
	return x, y, depth
}

func (v *View) setDefaultScale(distance float64) {
	half := math.Tan(radians(fieldOfViewDeg / 2))
	h := float64(v.cfg.Height)
	if v.cfg.Projection == Perspective {
		v.scale = (h / 2) / half
	} else {
		if distance <= 0 {
			distance = 1
		}
		v.scale = h / (2 * distance * half)
	}
	v.offsetX = float64(v.cfg.Width) / 2
	v.offsetY = h / 2
}

// fit scales and centers the projected bounds inside the image.
func (v *View) fit(bounds r3.Box) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range boxCorners(bounds) {
		x, y, _ := v.planar(c)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	w, h := float64(v.cfg.Width), float64(v.cfg.Height)
	spanX, spanY := maxX-minX, maxY-minY
	switch {
	case spanX <= 0 && spanY <= 0:
		v.scale = 1
	case spanX <= 0:
		v.scale = fitMargin * h / spanY
	case spanY <= 0:
		v.scale = fitMargin * w / spanX
	default:
		v.scale = fitMargin * math.Min(w/spanX, h/spanY)
	}
	v.offsetX = w/2 - v.scale*(minX+maxX)/2
	v.offsetY = h/2 - v.scale*(minY+maxY)/2
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// boxEmpty reports a degenerate box: a single point, or Min past Max as
// returned for empty geometry.
func boxEmpty(b r3.Box) bool {
	return b.Min == b.Max || b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

func boxCenter(b r3.Box) r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

func boxCorners(b r3.Box) []r3.Vec {
	out := make([]r3.Vec, 0, 8)
	for _, x := range []float64{b.Min.X, b.Max.X} {
		for _, y := range []float64{b.Min.Y, b.Max.Y} {
			for _, z := range []float64{b.Min.Z, b.Max.Z} {
				out = append(out, r3.Vec{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}
