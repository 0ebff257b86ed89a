// Package deps records the files a run reads and writes them out as a
// make-style dependency manifest.
package deps

import (
	"bytes"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/banshee-data/scadc/internal/dirctx"
	"github.com/banshee-data/scadc/internal/fsutil"
	"github.com/banshee-data/scadc/internal/monitoring"
	"github.com/banshee-data/scadc/internal/security"
)

// CommandRunner runs argv in dir. It is replaced in tests.
type CommandRunner func(dir string, argv []string) error

// Tracker collects every source file touched while resolving a scene.
type Tracker struct {
	fs      fsutil.FileSystem
	dirs    *dirctx.Context
	makeCmd []string
	run     CommandRunner
	files   map[string]struct{}
}

// NewTracker returns a Tracker resolving relative paths through dirs. When
// makeCommand is non-empty, missing files are handed to it for regeneration.
func NewTracker(fsys fsutil.FileSystem, dirs *dirctx.Context, makeCommand string) (*Tracker, error) {
	t := &Tracker{
		fs:    fsys,
		dirs:  dirs,
		run:   runCommand,
		files: make(map[string]struct{}),
	}
	if strings.TrimSpace(makeCommand) != "" {
		argv, err := security.SplitMakeCommand(makeCommand)
		if err != nil {
			return nil, err
		}
		t.makeCmd = argv
	}
	return t, nil
}

// SetRunner replaces the command runner used for the make command.
func (t *Tracker) SetRunner(run CommandRunner) {
	t.run = run
}

// Handle records path, resolved against the current directory. If the file
// does not exist and a make command is configured, the command is run once
// with path as its last argument; its failure is logged, not returned.
func (t *Tracker) Handle(path string) {
	abs := t.dirs.Resolve(path)
	t.files[abs] = struct{}{}

	if len(t.makeCmd) == 0 || t.fs.Exists(abs) {
		return
	}
	argv := append(append([]string{}, t.makeCmd...), path)
	if err := t.run(t.dirs.Current(), argv); err != nil {
		monitoring.Logf("WARNING: make command %q failed for %s: %v", strings.Join(t.makeCmd, " "), path, err)
	}
}

// Files returns the recorded absolute paths in sorted order.
func (t *Tracker) Files() []string {
	out := make([]string, 0, len(t.files))
	for f := range t.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func runCommand(dir string, argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
