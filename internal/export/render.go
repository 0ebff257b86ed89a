package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/scadc/internal/camera"
	"github.com/banshee-data/scadc/internal/geometry"
)

// RenderMode selects how a PNG is drawn.
type RenderMode int

const (
	// RenderFull draws the fully evaluated geometry.
	RenderFull RenderMode = iota
	// RenderPreview draws the positive CSG term leaves.
	RenderPreview
	// RenderThrownTogether draws every leaf, subtracted ones included.
	RenderThrownTogether
)

func (m RenderMode) String() string {
	switch m {
	case RenderPreview:
		return "preview"
	case RenderThrownTogether:
		return "thrown-together"
	}
	return "full"
}

// ErrUnknownScheme is returned for a colour scheme name with no palette.
var ErrUnknownScheme = errors.New("unknown colour scheme")

// Scheme is a render palette.
type Scheme struct {
	Name       string
	Background color.Color
	Face       color.Color
	Face2D     color.Color
	Subtracted color.Color
	Highlight  color.Color
	Ghost      color.Color
	Edge       color.Color
}

var schemes = map[string]Scheme{
	"Cornfield": {
		Name:       "Cornfield",
		Background: color.RGBA{R: 0xff, G: 0xff, B: 0xe5, A: 0xff},
		Face:       color.RGBA{R: 0xf9, G: 0xd7, B: 0x2c, A: 0xff},
		Face2D:     color.RGBA{R: 0x00, G: 0xbf, B: 0x99, A: 0xff},
		Subtracted: color.RGBA{R: 0x9d, G: 0xcb, B: 0x51, A: 0xff},
		Highlight:  color.NRGBA{R: 0xff, G: 0x51, B: 0x51, A: 0x80},
		Ghost:      color.NRGBA{R: 0xb4, G: 0xb4, B: 0xb4, A: 0x80},
		Edge:       color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff},
	},
	"Metallic": {
		Name:       "Metallic",
		Background: color.RGBA{R: 0xaa, G: 0xaa, B: 0xff, A: 0xff},
		Face:       color.RGBA{R: 0xdd, G: 0xdd, B: 0xff, A: 0xff},
		Face2D:     color.RGBA{R: 0x00, G: 0xbf, B: 0x99, A: 0xff},
		Subtracted: color.RGBA{R: 0xdd, G: 0x22, B: 0xdd, A: 0xff},
		Highlight:  color.NRGBA{R: 0xff, G: 0x51, B: 0x51, A: 0x80},
		Ghost:      color.NRGBA{R: 0xb4, G: 0xb4, B: 0xb4, A: 0x80},
		Edge:       color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff},
	},
	"Sunset": {
		Name:       "Sunset",
		Background: color.RGBA{R: 0xaa, G: 0x44, B: 0x44, A: 0xff},
		Face:       color.RGBA{R: 0xff, G: 0xaa, B: 0xaa, A: 0xff},
		Face2D:     color.RGBA{R: 0x00, G: 0xbf, B: 0x99, A: 0xff},
		Subtracted: color.RGBA{R: 0x88, G: 0x22, B: 0x33, A: 0xff},
		Highlight:  color.NRGBA{R: 0xff, G: 0x51, B: 0x51, A: 0x80},
		Ghost:      color.NRGBA{R: 0xb4, G: 0xb4, B: 0xb4, A: 0x80},
		Edge:       color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	},
}

// SchemeByName returns the palette called name.
func SchemeByName(name string) (Scheme, error) {
	s, ok := schemes[name]
	if !ok {
		return Scheme{}, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
	return s, nil
}

// lightDir is the fixed direction faces are shaded against.
var lightDir = r3.Unit(r3.Vec{X: -1, Y: -2, Z: 3})

// Renderer rasterises scenes to PNG through a camera.
type Renderer struct {
	cam    camera.Config
	scheme Scheme
}

// NewRenderer returns a Renderer for cam drawing with scheme.
func NewRenderer(cam camera.Config, scheme Scheme) *Renderer {
	return &Renderer{cam: cam, scheme: scheme}
}

type face struct {
	poly    geometry.Polygon
	dim     int
	fill    color.Color
	outline bool
}

// RenderFull draws evaluated geometry.
func (r *Renderer) RenderFull(w io.Writer, g *geometry.Geometry) error {
	var faces []face
	fill := r.scheme.Face
	if g.Dim == 2 {
		fill = r.scheme.Face2D
	}
	for _, p := range g.Polygons {
		faces = append(faces, face{poly: p, dim: g.Dim, fill: fill, outline: g.Dim == 2})
	}
	return r.draw(w, g.Bounds(), faces)
}

// RenderPreview draws the positive leaves of the term set, then its
// highlighted and background terms translucently.
func (r *Renderer) RenderPreview(w io.Writer, set *geometry.TermSet) error {
	return r.renderTerms(w, set, false)
}

// RenderThrownTogether draws every leaf of the term set. Subtracted leaves
// are drawn outlined in the scheme's subtracted colour.
func (r *Renderer) RenderThrownTogether(w io.Writer, set *geometry.TermSet) error {
	return r.renderTerms(w, set, true)
}

func (r *Renderer) renderTerms(w io.Writer, set *geometry.TermSet, thrown bool) error {
	var faces []face
	bounds := emptyBox()
	add := func(t *geometry.Term, fill color.Color, outline bool) {
		for _, l := range t.Leaves() {
			if l.Geom.IsEmpty() {
				continue
			}
			bounds = unionBox(bounds, l.Geom.Bounds())
			c := fill
			if c == nil {
				c = r.scheme.Face
				if l.Geom.Dim == 2 {
					c = r.scheme.Face2D
				}
			}
			for _, p := range l.Geom.Polygons {
				faces = append(faces, face{poly: p, dim: l.Geom.Dim, fill: c, outline: outline})
			}
		}
	}

	if set.Root != nil {
		for _, l := range set.Root.Leaves() {
			switch {
			case !l.Negative:
				add(l.Term, nil, false)
			case thrown:
				add(l.Term, r.scheme.Subtracted, true)
			}
		}
	}
	for _, t := range set.Highlights {
		add(t, r.scheme.Highlight, false)
	}
	for _, t := range set.Backgrounds {
		add(t, r.scheme.Ghost, false)
	}
	return r.draw(w, bounds, faces)
}

type projected struct {
	path  vg.Path
	depth float64
	face  face
}

// draw paints faces back to front.
func (r *Renderer) draw(w io.Writer, bounds r3.Box, faces []face) error {
	view := camera.NewView(r.cam, bounds)
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Points(float64(view.Width())), vg.Points(float64(view.Height()))),
		vgimg.UseDPI(72),
		vgimg.UseBackgroundColor(r.scheme.Background),
	)

	items := make([]projected, 0, len(faces))
	for _, f := range faces {
		var path vg.Path
		var depth float64
		for i, v := range f.poly {
			x, y, d := view.Project(v)
			pt := vg.Point{X: vg.Points(x), Y: vg.Points(y)}
			if i == 0 {
				path.Move(pt)
			} else {
				path.Line(pt)
			}
			depth += d
		}
		path.Close()
		items = append(items, projected{path: path, depth: depth / float64(len(f.poly)), face: f})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].depth > items[j].depth })

	for _, it := range items {
		fill := it.face.fill
		if it.face.dim == 3 {
			fill = shade(fill, it.face.poly.Normal())
		}
		c.SetColor(fill)
		c.Fill(it.path)
		if it.face.outline {
			c.SetColor(r.scheme.Edge)
			c.SetLineWidth(vg.Points(1))
			c.Stroke(it.path)
		}
	}

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// shade darkens c by how far normal n turns away from the light.
func shade(c color.Color, n r3.Vec) color.Color {
	k := 0.45 + 0.55*math.Abs(r3.Dot(n, lightDir))
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	return color.NRGBA{
		R: uint8(float64(nc.R) * k),
		G: uint8(float64(nc.G) * k),
		B: uint8(float64(nc.B) * k),
		A: nc.A,
	}
}

func emptyBox() r3.Box {
	return r3.Box{
		Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
}

// unionBox encloses a and b. Unlike r3.Box.Union it keeps flat boxes, which
// 2D geometry always has.
func unionBox(a, b r3.Box) r3.Box {
	return r3.Box{
		Min: r3.Vec{X: math.Min(a.Min.X, b.Min.X), Y: math.Min(a.Min.Y, b.Min.Y), Z: math.Min(a.Min.Z, b.Min.Z)},
		Max: r3.Vec{X: math.Max(a.Max.X, b.Max.X), Y: math.Max(a.Max.Y, b.Max.Y), Z: math.Max(a.Max.Z, b.Max.Z)},
	}
}
