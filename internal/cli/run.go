package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/banshee-data/scadc/internal/artifact"
	"github.com/banshee-data/scadc/internal/camera"
	"github.com/banshee-data/scadc/internal/config"
	"github.com/banshee-data/scadc/internal/dirctx"
	"github.com/banshee-data/scadc/internal/export"
	"github.com/banshee-data/scadc/internal/fsutil"
	"github.com/banshee-data/scadc/internal/monitoring"
	"github.com/banshee-data/scadc/internal/pipeline"
	"github.com/banshee-data/scadc/internal/scene"
	"github.com/banshee-data/scadc/internal/version"
)

const usageText = `Usage: scadc [ -o output_file [ -d deps_file ] ]\
             [ -m make_command ] [ -D var=val [..] ] \
             [ --version ] [ --info ] \
             [ --camera=translatex,y,z,rotx,y,z,dist | \
               --camera=eyex,y,z,centerx,y,z ] \
             [ --autocenter ] \
             [ --viewall ] \
             [ --imgsize=width,height ] [ --projection=(o)rtho|(p)ersp] \
             [ --render | --preview[=throwntogether] ] \
             [ --csglimit=num ] [ --enable=<feature> ] \
             [ --settings=file.json ] \
             filename
`

var (
	// errHelp and errVersion end a run with a failing exit code after
	// their output has been printed.
	errHelp    = &pipeline.RunError{Kind: pipeline.ErrUsage, Msg: "help requested"}
	errVersion = &pipeline.RunError{Kind: pipeline.ErrUsage, Msg: "version requested"}
)

// Env is what a run needs from the process.
type Env struct {
	FS       fsutil.FileSystem
	Dirs     *dirctx.Context
	Settings *config.RenderSettings
	Stdout   io.Writer
	// Metrics is nil unless a metrics file was requested.
	Metrics *monitoring.RunMetrics
}

// ExitCode maps the result of Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return ExitFailure
}

// RendererMode picks the PNG renderer: full unless --preview is given, in
// which case preview unless its value is throwntogether. --render always
// wins.
func RendererMode(render bool, preview string) export.RenderMode {
	switch {
	case render:
		return export.RenderFull
	case preview == "throwntogether":
		return export.RenderThrownTogether
	case preview != "":
		return export.RenderPreview
	}
	return export.RenderFull
}

// Execute carries out inv. Help and version output end the run with an
// error so the process exits non-zero.
func Execute(inv Invocation, env Env) error {
	if inv.ShowHelp {
		fmt.Fprint(env.Stdout, usageText)
		return errHelp
	}
	if inv.ShowVersion {
		fmt.Fprintln(env.Stdout, version.String())
		return errVersion
	}
	if inv.ShowInfo {
		fmt.Fprintln(env.Stdout, version.Info())
		return nil
	}

	settings, err := applySettings(inv, env.Settings)
	if err != nil {
		return err
	}

	cam, err := camera.Resolve(inv.Camera, settings.GetImgWidth(), settings.GetImgHeight())
	if err != nil {
		return usagef("%v", err)
	}

	output := inv.OutputFile()
	if output == "" {
		return usagef("Requested GUI mode but can't open display!")
	}
	if len(inv.InputFiles) == 0 {
		return usagef("an input file is required with -o")
	}

	kind, err := artifact.Select(output)
	if err != nil {
		return usagef("Unknown suffix for output file %s", output)
	}
	features, err := scene.NewFeatures(inv.Enable...)
	if err != nil {
		return usagef("%v", err)
	}

	req := pipeline.Request{
		InputPath:   inv.InputFiles[0],
		OutputPath:  output,
		Kind:        kind,
		DepsPath:    inv.first(inv.DepsFiles),
		MakeCommand: inv.first(inv.MakeCmds),
		Assignments: inv.Assignments,
		Features:    features,
		Camera:      cam,
		Renderer:    RendererMode(inv.Render, inv.Preview),
		Settings:    settings,
	}
	return pipeline.Run(req, env.FS, env.Dirs, env.Metrics)
}

// applySettings layers --settings and --csglimit over the environment
// settings.
func applySettings(inv Invocation, base *config.RenderSettings) (*config.RenderSettings, error) {
	settings := base
	if settings == nil {
		settings = config.DefaultRenderSettings()
	}
	if inv.SettingsFile != "" {
		loaded, err := config.LoadRenderSettings(inv.SettingsFile)
		if err != nil {
			return nil, usagef("%v", err)
		}
		settings = loaded
	}
	if inv.CSGLimit >= 0 {
		settings.SetCSGTermLimit(inv.CSGLimit)
	}
	return settings, nil
}

// Main parses args, runs them against the process environment and returns
// the exit code.
func Main(args []string, stdout, stderr io.Writer) int {
	log.SetFlags(0)
	log.SetOutput(stderr)
	monitoring.SetLogger(log.Printf)

	inv, err := ParseInvocation(args)
	if err != nil {
		report(stderr, err)
		return ExitCode(err)
	}

	env := Env{FS: fsutil.OSFileSystem{}, Stdout: stdout}
	if !inv.ShowHelp && !inv.ShowVersion && !inv.ShowInfo {
		env.Dirs, err = dirctx.FromWorkingDirectory()
		if err != nil {
			report(stderr, err)
			return ExitCode(err)
		}
		env.Settings, err = config.FromEnvironment()
		if err != nil {
			err = usagef("%v", err)
			report(stderr, err)
			return ExitCode(err)
		}
		if path := config.MetricsFile(); path != "" {
			env.Metrics, err = monitoring.NewRunMetrics()
			if err != nil {
				monitoring.Logf("WARNING: metrics disabled: %v", err)
			} else {
				defer flushMetrics(env.Metrics, path)
			}
		}
	}

	err = Execute(inv, env)
	if err != nil && err != errHelp && err != errVersion {
		report(stderr, err)
	}
	return ExitCode(err)
}

// flushMetrics writes the run metrics. A failure is logged and does not
// change the exit code.
func flushMetrics(m *monitoring.RunMetrics, path string) {
	if err := m.WriteTextfile(path); err != nil {
		monitoring.Logf("WARNING: can't write metrics file %s: %v", path, err)
	}
	if err := m.Shutdown(context.Background()); err != nil {
		monitoring.Logf("WARNING: metrics shutdown: %v", err)
	}
}

// report prints err, followed by the usage text for command-line mistakes.
func report(w io.Writer, err error) {
	fmt.Fprintln(w, err)
	if errors.Is(err, pipeline.ErrUsage) {
		fmt.Fprint(w, usageText)
	}
}
