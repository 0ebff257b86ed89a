// Package cli turns command-line arguments into a single pipeline run and
// maps its outcome to a process exit code.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/scadc/internal/camera"
	"github.com/banshee-data/scadc/internal/monitoring"
	"github.com/banshee-data/scadc/internal/pipeline"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Invocation is the parsed command line before any settings are applied.
type Invocation struct {
	ShowHelp    bool
	ShowVersion bool
	ShowInfo    bool

	InputFiles  []string
	OutputFiles []string
	DepsFiles   []string
	MakeCmds    []string
	Assignments []string
	Enable      []string

	Camera camera.Options

	Render  bool
	Preview string // "" when --preview is absent

	CSGLimit     int // -1 when unset
	SettingsFile string
}

// usagef reports a malformed command line.
func usagef(format string, args ...any) error {
	return &pipeline.RunError{Kind: pipeline.ErrUsage, Msg: fmt.Sprintf(format, args...)}
}

// repeated collects every value of a flag that may be given more than once.
type repeated struct {
	values *[]string
	// deprecated names the flag when using it should log a notice.
	deprecated string
}

func (r repeated) String() string {
	if r.values == nil {
		return ""
	}
	return strings.Join(*r.values, ",")
}

func (r repeated) Set(v string) error {
	if r.deprecated != "" {
		monitoring.Deprecationf("The -%s option is deprecated. Use -o instead.", r.deprecated)
	}
	*r.values = append(*r.values, v)
	return nil
}

// previewFlag is a bool flag that also accepts a value, as in
// --preview=throwntogether.
type previewFlag struct {
	value *string
}

func (p previewFlag) String() string {
	if p.value == nil {
		return ""
	}
	return *p.value
}

func (p previewFlag) Set(v string) error {
	*p.value = v
	return nil
}

func (p previewFlag) IsBoolFlag() bool { return true }

// ParseInvocation parses args, which exclude the program name. Flags and
// input files may be interleaved.
func ParseInvocation(args []string) (Invocation, error) {
	inv := Invocation{CSGLimit: -1}

	fs := flag.NewFlagSet("scadc", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.BoolVar(&inv.ShowHelp, "help", false, "help message")
	fs.BoolVar(&inv.ShowHelp, "h", false, "help message")
	fs.BoolVar(&inv.ShowVersion, "version", false, "print the version")
	fs.BoolVar(&inv.ShowVersion, "v", false, "print the version")
	fs.BoolVar(&inv.ShowInfo, "info", false, "print information about the build")

	fs.BoolVar(&inv.Render, "render", false, "if exporting a png image, do a full geometry render")
	fs.Var(previewFlag{&inv.Preview}, "preview", "if exporting a png image, do a preview or thrown-together render")
	fs.IntVar(&inv.CSGLimit, "csglimit", -1, "if exporting a png image, stop rendering at the given number of CSG elements")

	fs.StringVar(&inv.Camera.Camera, "camera", "", "parameters for camera when exporting png")
	fs.BoolVar(&inv.Camera.AutoCenter, "autocenter", false, "adjust camera to look at object center")
	fs.BoolVar(&inv.Camera.ViewAll, "viewall", false, "adjust camera to fit object")
	fs.StringVar(&inv.Camera.ImgSize, "imgsize", "", "=width,height for exporting png")
	fs.StringVar(&inv.Camera.Projection, "projection", "", "(o)rtho or (p)erspective when exporting png")

	fs.Var(repeated{values: &inv.OutputFiles}, "o", "out-file")
	fs.Var(repeated{values: &inv.OutputFiles, deprecated: "s"}, "s", "stl-file")
	fs.Var(repeated{values: &inv.OutputFiles, deprecated: "x"}, "x", "dxf-file")
	fs.Var(repeated{values: &inv.DepsFiles}, "d", "deps-file")
	fs.Var(repeated{values: &inv.MakeCmds}, "m", "makefile")
	fs.Var(repeated{values: &inv.Assignments}, "D", "var=val")
	fs.Var(repeated{values: &inv.Enable}, "enable", "enable experimental features")
	fs.StringVar(&inv.SettingsFile, "settings", "", "render settings JSON file")

	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				inv.ShowHelp = true
				return inv, nil
			}
			return Invocation{}, usagef("%v", err)
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		inv.InputFiles = append(inv.InputFiles, rest[0])
		rest = rest[1:]
	}

	switch {
	case len(inv.OutputFiles) > 1:
		return Invocation{}, usagef("only one output file may be given")
	case len(inv.DepsFiles) > 1:
		return Invocation{}, usagef("-d may only be given once")
	case len(inv.MakeCmds) > 1:
		return Invocation{}, usagef("-m may only be given once")
	case len(inv.InputFiles) > 1:
		return Invocation{}, usagef("only one input file may be given")
	case inv.CSGLimit < -1:
		return Invocation{}, usagef("--csglimit must not be negative")
	}
	return inv, nil
}

// OutputFile is the single requested output, or "" for none.
func (inv Invocation) OutputFile() string {
	if len(inv.OutputFiles) == 0 {
		return ""
	}
	return inv.OutputFiles[0]
}

func (inv Invocation) first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
