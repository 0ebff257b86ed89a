package cli

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scadc/internal/camera"
	"github.com/banshee-data/scadc/internal/export"
	"github.com/banshee-data/scadc/internal/pipeline"
	"github.com/banshee-data/scadc/internal/testutil"
)

func TestParseInvocation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Invocation
	}{
		{
			name: "output and input",
			args: []string{"-o", "out.stl", "model.scad"},
			want: Invocation{OutputFiles: []string{"out.stl"}, InputFiles: []string{"model.scad"}, CSGLimit: -1},
		},
		{
			name: "input before flags",
			args: []string{"model.scad", "-o", "out.png", "--preview"},
			want: Invocation{OutputFiles: []string{"out.png"}, InputFiles: []string{"model.scad"}, Preview: "true", CSGLimit: -1},
		},
		{
			name: "everything",
			args: []string{
				"-o", "out.png", "-d", "out.d", "-m", "make", "-D", "a=1", "-D", `b="x"`,
				"--camera=1,2,3,4,5,6", "--autocenter", "--viewall", "--imgsize=640,480",
				"--projection=o", "--preview=throwntogether", "--csglimit=10",
				"--enable=assert", "--enable", "exponent", "--settings=render.json", "model.scad",
			},
			want: Invocation{
				OutputFiles: []string{"out.png"},
				DepsFiles:   []string{"out.d"},
				MakeCmds:    []string{"make"},
				Assignments: []string{"a=1", `b="x"`},
				Enable:      []string{"assert", "exponent"},
				InputFiles:  []string{"model.scad"},
				Camera: camera.Options{
					Camera:     "1,2,3,4,5,6",
					Projection: "o",
					ImgSize:    "640,480",
					AutoCenter: true,
					ViewAll:    true,
				},
				Preview:      "throwntogether",
				CSGLimit:     10,
				SettingsFile: "render.json",
			},
		},
		{
			name: "version",
			args: []string{"--version"},
			want: Invocation{ShowVersion: true, CSGLimit: -1},
		},
		{
			name: "short help",
			args: []string{"-h"},
			want: Invocation{ShowHelp: true, CSGLimit: -1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInvocation(tt.args)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("ParseInvocation() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseInvocation_DeprecatedOutputFlags(t *testing.T) {
	lines := testutil.CaptureLogs(t)

	inv, err := ParseInvocation([]string{"-s", "out.stl", "model.scad"})
	require.NoError(t, err)
	assert.Equal(t, "out.stl", inv.OutputFile())
	assert.Equal(t, []string{"DEPRECATED: The -s option is deprecated. Use -o instead."}, *lines)
}

func TestParseInvocation_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"two outputs", []string{"-o", "a.stl", "-o", "b.stl", "m.scad"}},
		{"output and deprecated stl", []string{"-o", "a.stl", "-s", "b.stl", "m.scad"}},
		{"deprecated stl and dxf", []string{"-s", "a.stl", "-x", "b.dxf", "m.scad"}},
		{"two deps files", []string{"-o", "a.stl", "-d", "a.d", "-d", "b.d", "m.scad"}},
		{"two make commands", []string{"-o", "a.stl", "-m", "make", "-m", "make", "m.scad"}},
		{"two inputs", []string{"-o", "a.stl", "m.scad", "n.scad"}},
		{"unknown flag", []string{"--frobnicate", "m.scad"}},
		{"bad csglimit", []string{"--csglimit=lots", "m.scad"}},
		{"negative csglimit", []string{"--csglimit=-5", "m.scad"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.SilenceLogs(t)

			_, err := ParseInvocation(tt.args)
			require.Error(t, err)
			assert.ErrorIs(t, err, pipeline.ErrUsage)
			assert.Equal(t, ExitFailure, ExitCode(err))
		})
	}
}

func TestRendererMode(t *testing.T) {
	tests := []struct {
		render  bool
		preview string
		want    export.RenderMode
	}{
		{false, "", export.RenderFull},
		{false, "true", export.RenderPreview},
		{false, "opencsg", export.RenderPreview},
		{false, "throwntogether", export.RenderThrownTogether},
		{true, "throwntogether", export.RenderFull},
		{true, "", export.RenderFull},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("render=%v preview=%q", tt.render, tt.preview), func(t *testing.T) {
			assert.Equal(t, tt.want, RendererMode(tt.render, tt.preview))
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(assert.AnError))
	assert.Equal(t, ExitFailure, ExitCode(errHelp))
}
