// Package artifact maps an output path to the single artifact a run produces.
package artifact

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnknownSuffix is returned by Select when the output path's extension
// does not name any supported artifact.
var ErrUnknownSuffix = errors.New("unknown suffix for output file")

// Kind identifies the artifact produced by a run. Exactly one Kind is
// selected per invocation.
type Kind int

const (
	KindUnknown Kind = iota
	KindAST          // .ast   parsed source, re-serialised
	KindCSGTree      // .csg   instantiated node tree
	KindTerm         // .term  raw CSG term
	KindSTL          // .stl   3D mesh
	KindOFF          // .off   3D mesh
	KindAMF          // .amf   3D mesh
	KindDXF          // .dxf   2D vector
	KindSVG          // .svg   2D vector
	KindPNG          // .png   raster image
	KindEcho         // .echo  captured echo/diagnostic output
)

var suffixes = map[string]Kind{
	".stl":  KindSTL,
	".off":  KindOFF,
	".amf":  KindAMF,
	".dxf":  KindDXF,
	".svg":  KindSVG,
	".csg":  KindCSGTree,
	".png":  KindPNG,
	".ast":  KindAST,
	".term": KindTerm,
	".echo": KindEcho,
}

// Select returns the Kind for outputPath, derived only from its lower-cased
// extension.
func Select(outputPath string) (Kind, error) {
	suffix := strings.ToLower(filepath.Ext(outputPath))
	if k, ok := suffixes[suffix]; ok {
		return k, nil
	}
	return KindUnknown, fmt.Errorf("%w %s", ErrUnknownSuffix, outputPath)
}

func (k Kind) String() string {
	switch k {
	case KindAST:
		return "ast"
	case KindCSGTree:
		return "csg"
	case KindTerm:
		return "term"
	case KindSTL:
		return "stl"
	case KindOFF:
		return "off"
	case KindAMF:
		return "amf"
	case KindDXF:
		return "dxf"
	case KindSVG:
		return "svg"
	case KindPNG:
		return "png"
	case KindEcho:
		return "echo"
	default:
		return "unknown"
	}
}

// Dimension is the dimensionality an exported geometry must have for this
// kind: 3 for meshes, 2 for vector drawings and 0 when the kind does not
// export geometry directly.
func (k Kind) Dimension() int {
	switch k {
	case KindSTL, KindOFF, KindAMF:
		return 3
	case KindDXF, KindSVG:
		return 2
	default:
		return 0
	}
}

// IsTextDump reports whether the kind is one of the zero-geometry dumps.
func (k Kind) IsTextDump() bool {
	return k == KindAST || k == KindCSGTree || k == KindTerm
}

// IsGeometryExport reports whether the kind is a mesh or vector export.
func (k Kind) IsGeometryExport() bool {
	return k.Dimension() != 0
}

// HasManifest reports whether a dependency manifest can be written for the
// kind. Only kinds with an on-disk byte artifact built from the scene
// geometry qualify.
func (k Kind) HasManifest() bool {
	return k.IsGeometryExport() || k == KindPNG
}
