package pipeline

import (
	"io"

	"github.com/banshee-data/scadc/internal/export"
	"github.com/banshee-data/scadc/internal/geometry"
	"github.com/banshee-data/scadc/internal/monitoring"
)

// noTermSentinel is written instead of a term dump when the root has no
// representable CSG term.
const noTermSentinel = "No top-level CSG object\n"

// emitText writes a textual dump. The output path resolves against the
// invocation directory; when inDocument is set the content is produced with
// the document directory current so embedded file names are portable.
func (s *Sequencer) emitText(content func() string, inDocument bool) error {
	restore := s.dirs.EnterOriginal()
	defer restore()

	path := s.dirs.Resolve(s.req.OutputPath)
	var text string
	if inDocument {
		back := s.dirs.EnterDocument()
		text = content()
		back()
	} else {
		text = content()
	}

	if err := s.fs.WriteFile(path, []byte(text), 0644); err != nil {
		monitoring.Logf("Can't open file \"%s\" for export", s.req.OutputPath)
		return ioError(err, "can't open file %q for export", s.req.OutputPath)
	}
	return nil
}

func (s *Sequencer) emitTerm() error {
	set, err := s.termSet()
	if err != nil {
		return err
	}
	return s.emitText(func() string {
		if set.Root == nil {
			return noTermSentinel
		}
		return set.Root.String() + "\n"
	}, false)
}

// emitGeometry checks the evaluated geometry has the dimension the kind
// needs and exports it.
func (s *Sequencer) emitGeometry() error {
	g, err := s.geometry()
	if err != nil {
		return err
	}
	want := s.req.Kind.Dimension()
	if g.Dim != want {
		monitoring.Logf("Current top level object is not a %dD object.", want)
		return evaluationError(nil, "current top-level object is not a %dD object", want)
	}

	data, err := render(func(w io.Writer) error { return export.Write(w, s.req.Kind, g) })
	if err != nil {
		return ioError(err, "failed to export %s", s.req.OutputPath)
	}
	return s.writeArtifact(data)
}

// emitImage renders the PNG with the requested renderer. Preview renders
// with more leaves than the term limit fall back to thrown-together.
func (s *Sequencer) emitImage() error {
	var draw func(w io.Writer) error
	if s.req.Renderer == export.RenderFull {
		g, err := s.geometry()
		if err != nil {
			return err
		}
		draw = func(w io.Writer) error { return s.c.Renderer.RenderFull(w, g) }
	} else {
		set, err := s.termSet()
		if err != nil {
			return err
		}
		mode := s.req.Renderer
		if limit := s.req.Settings.GetCSGTermLimit(); mode == export.RenderPreview && set.LeafCount() > limit {
			monitoring.Logf("WARNING: CSG term has %d elements, more than the limit of %d. Rendering thrown together.", set.LeafCount(), limit)
			mode = export.RenderThrownTogether
		}
		if mode == export.RenderThrownTogether {
			draw = func(w io.Writer) error { return s.c.Renderer.RenderThrownTogether(w, set) }
		} else {
			draw = func(w io.Writer) error { return s.c.Renderer.RenderPreview(w, set) }
		}
	}

	data, err := render(draw)
	if err != nil {
		return ioError(err, "failed to render %s", s.req.OutputPath)
	}
	return s.writeArtifact(data)
}

func (s *Sequencer) termSet() (*geometry.TermSet, error) {
	restore := s.dirs.EnterDocument()
	defer restore()
	set, err := s.c.Terms.Evaluate(s.root)
	if err != nil {
		return nil, evaluationError(err, "CSG term evaluation failed")
	}
	if set == nil {
		set = &geometry.TermSet{}
	}
	return set, nil
}
