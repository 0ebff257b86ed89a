// Package pipeline turns one source document into the single artifact named
// by the output path. The Sequencer runs only the evaluation steps the
// artifact kind needs, in order, and hands their results to the emitter for
// that kind.
package pipeline

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/banshee-data/scadc/internal/artifact"
	"github.com/banshee-data/scadc/internal/camera"
	"github.com/banshee-data/scadc/internal/config"
	"github.com/banshee-data/scadc/internal/deps"
	"github.com/banshee-data/scadc/internal/dirctx"
	"github.com/banshee-data/scadc/internal/export"
	"github.com/banshee-data/scadc/internal/fsutil"
	"github.com/banshee-data/scadc/internal/geometry"
	"github.com/banshee-data/scadc/internal/monitoring"
	"github.com/banshee-data/scadc/internal/scene"
)

// Frontend parses and instantiates scene documents.
type Frontend interface {
	Parse(text, docDir string) (*scene.Module, error)
	Instantiate(m *scene.Module) (*scene.Node, error)
}

// GeometryEvaluator fully evaluates a node tree. A nil or empty result means
// there is no top-level object.
type GeometryEvaluator interface {
	Evaluate(root *scene.Node) (*geometry.Geometry, error)
}

// TermEvaluator flattens a node tree into CSG terms without evaluating any
// boolean operation.
type TermEvaluator interface {
	Evaluate(root *scene.Node) (*geometry.TermSet, error)
}

// Renderer rasterises a scene to PNG.
type Renderer interface {
	RenderFull(w io.Writer, g *geometry.Geometry) error
	RenderPreview(w io.Writer, set *geometry.TermSet) error
	RenderThrownTogether(w io.Writer, set *geometry.TermSet) error
}

// DependencyTracker records the files touched while resolving a scene.
type DependencyTracker interface {
	Handle(path string)
	Files() []string
}

// Request is one canonicalised invocation.
type Request struct {
	// InputPath and OutputPath are as given on the command line; relative
	// paths resolve against the invocation directory.
	InputPath  string
	OutputPath string
	Kind       artifact.Kind

	// DepsPath names the dependency manifest to write. Empty means none.
	DepsPath    string
	MakeCommand string

	// Assignments are var=val strings appended to the source as statements.
	Assignments []string
	Features    scene.Features

	Camera   camera.Config
	Renderer export.RenderMode
	Settings *config.RenderSettings
}

// commandLineSource renders the -D assignments as trailing statements.
func (r Request) commandLineSource() string {
	var sb strings.Builder
	for _, a := range r.Assignments {
		sb.WriteString(a)
		sb.WriteString(";\n")
	}
	return sb.String()
}

// Collaborators are the external pieces a Sequencer drives.
type Collaborators struct {
	Frontend Frontend
	Geometry GeometryEvaluator
	Terms    TermEvaluator
	Renderer Renderer
	// Metrics counts geometry evaluations. Nil records nothing.
	Metrics *monitoring.RunMetrics
}

// NewCollaborators wires the reference front-end, evaluators and renderer.
func NewCollaborators(fsys fsutil.FileSystem, tracker DependencyTracker, req Request) (Collaborators, error) {
	settings := req.Settings
	if settings == nil {
		settings = config.DefaultRenderSettings()
	}
	scheme, err := export.SchemeByName(settings.GetColorScheme())
	if err != nil {
		return Collaborators{}, usagef("%v", err)
	}
	builder := geometry.NewPrimitiveBuilder(fsys, tracker)
	return Collaborators{
		Frontend: scene.NewFrontend(fsys, tracker, req.Features),
		Geometry: geometry.NewEvaluator(builder),
		Terms:    geometry.NewTermEvaluator(builder),
		Renderer: export.NewRenderer(req.Camera, scheme),
	}, nil
}

// Sequencer runs the evaluation steps of one request. It is single use.
type Sequencer struct {
	req     Request
	fs      fsutil.FileSystem
	dirs    *dirctx.Context
	tracker DependencyTracker
	c       Collaborators

	module *scene.Module
	root   *scene.Node
	tree   *scene.Tree

	geom     *geometry.Geometry
	geomDone bool
}

// NewSequencer returns a Sequencer for req.
func NewSequencer(req Request, fsys fsutil.FileSystem, dirs *dirctx.Context, tracker DependencyTracker, c Collaborators) *Sequencer {
	if req.Settings == nil {
		req.Settings = config.DefaultRenderSettings()
	}
	return &Sequencer{req: req, fs: fsys, dirs: dirs, tracker: tracker, c: c}
}

// Run produces the requested artifact. Any failing step stops the run;
// artifacts already written are left in place.
func (s *Sequencer) Run() error {
	kind := s.req.Kind
	if kind == artifact.KindUnknown {
		return usagef("Unknown suffix for output file %s", s.req.OutputPath)
	}
	if s.req.DepsPath != "" && !kind.HasManifest() {
		monitoring.Logf("Output file:%s", s.req.OutputPath)
		return usagef("Sorry, don't know how to write deps for that file type")
	}

	if kind == artifact.KindEcho {
		restore, err := s.captureEcho()
		if err != nil {
			return err
		}
		defer restore()
	}

	if err := s.load(); err != nil {
		return err
	}

	switch kind {
	case artifact.KindCSGTree:
		return s.emitText(s.tree.Dump, true)
	case artifact.KindAST:
		return s.emitText(func() string { return s.module.Dump() + "\n" }, true)
	case artifact.KindTerm:
		return s.emitTerm()
	}

	if s.needsGeometry() {
		if _, err := s.geometry(); err != nil {
			return err
		}
	}

	restore := s.dirs.EnterOriginal()
	defer restore()

	if s.req.DepsPath != "" {
		if err := s.writeDeps(); err != nil {
			return err
		}
	}

	switch {
	case kind.IsGeometryExport():
		return s.emitGeometry()
	case kind == artifact.KindPNG:
		return s.emitImage()
	}
	return nil
}

// load reads, parses and instantiates the input document and picks the
// root node. Parsing and instantiation run under the document directory.
func (s *Sequencer) load() error {
	s.tracker.Handle(s.req.InputPath)

	inputPath := s.dirs.Resolve(s.req.InputPath)
	data, err := s.fs.ReadFile(inputPath)
	if err != nil {
		monitoring.Logf("Can't open input file '%s'!", s.req.InputPath)
		return inputError(err, "can't open input file '%s'", s.req.InputPath)
	}
	text := string(data) + "\n" + s.req.commandLineSource()

	docDir := s.dirs.SetDocument(s.req.InputPath)
	restore := s.dirs.EnterDocument()
	defer restore()

	s.module, err = s.c.Frontend.Parse(text, docDir)
	if err != nil {
		monitoring.Logf("Can't parse file '%s'!", s.req.InputPath)
		return inputError(err, "can't parse file '%s'", s.req.InputPath)
	}

	top, err := s.c.Frontend.Instantiate(s.module)
	if err != nil {
		return evaluationError(err, "can't instantiate '%s'", s.req.InputPath)
	}
	s.root = scene.FindRootTag(top)
	if s.root == nil {
		s.root = top
	}

	s.tree, err = scene.NewTree(s.root, s.dirs)
	if err != nil {
		return evaluationError(err, "can't build node tree")
	}
	return nil
}

// needsGeometry reports whether the artifact needs full geometry
// evaluation. Echo logs and term-based PNG renders do not.
func (s *Sequencer) needsGeometry() bool {
	switch {
	case s.req.Kind.IsGeometryExport():
		return true
	case s.req.Kind == artifact.KindPNG:
		return s.req.Renderer == export.RenderFull
	}
	return false
}

// geometry evaluates the root once and caches the result for the rest of
// the run.
func (s *Sequencer) geometry() (*geometry.Geometry, error) {
	if s.geomDone {
		return s.geom, nil
	}
	restore := s.dirs.EnterDocument()
	g, err := s.c.Geometry.Evaluate(s.root)
	restore()
	s.c.Metrics.RecordGeometryEvaluation(context.Background(), s.req.Kind.String())
	if err != nil {
		return nil, evaluationError(err, "geometry evaluation failed")
	}
	if g.IsEmpty() {
		monitoring.Logf("No top-level object found.")
		return nil, evaluationError(nil, "no top-level object found")
	}
	s.geom, s.geomDone = g, true
	return g, nil
}

func (s *Sequencer) writeDeps() error {
	target := s.dirs.Resolve(s.req.OutputPath)
	if err := deps.WriteManifest(s.fs, s.dirs.Resolve(s.req.DepsPath), target, s.tracker.Files()); err != nil {
		monitoring.Logf("error writing deps")
		return ioError(err, "error writing deps")
	}
	return nil
}

// captureEcho sends the diagnostic stream to the output file until the
// returned func runs.
func (s *Sequencer) captureEcho() (func(), error) {
	path := s.dirs.Resolve(s.req.OutputPath)
	f, err := s.fs.Create(path)
	if err != nil {
		monitoring.Logf("Can't open file \"%s\" for export", s.req.OutputPath)
		return nil, ioError(err, "can't open file %q for export", s.req.OutputPath)
	}
	restoreLog := monitoring.Redirect(f)
	return func() {
		restoreLog()
		if err := f.Close(); err != nil {
			monitoring.Logf("failed to close %s: %v", s.req.OutputPath, err)
		}
	}, nil
}

// writeArtifact writes data to the output path resolved against the
// current directory.
func (s *Sequencer) writeArtifact(data []byte) error {
	path := s.dirs.Resolve(s.req.OutputPath)
	if err := s.fs.WriteFile(path, data, 0644); err != nil {
		monitoring.Logf("Can't open file \"%s\" for export", s.req.OutputPath)
		return ioError(err, "can't open file %q for export", s.req.OutputPath)
	}
	return nil
}

// render runs fn against a buffer so a failing encoder leaves no partial
// file behind.
func render(fn func(w io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
