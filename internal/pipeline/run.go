package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/scadc/internal/deps"
	"github.com/banshee-data/scadc/internal/dirctx"
	"github.com/banshee-data/scadc/internal/fsutil"
	"github.com/banshee-data/scadc/internal/monitoring"
	"github.com/banshee-data/scadc/internal/timeutil"
)

// clock times runs; tests replace it.
var clock timeutil.Clock = timeutil.RealClock{}

// Run executes req with the reference collaborators. dirs must hold the
// invocation directory; it is restored before Run returns. metrics may be
// nil.
func Run(req Request, fsys fsutil.FileSystem, dirs *dirctx.Context, metrics *monitoring.RunMetrics) (err error) {
	runID := uuid.NewString()
	start := clock.Now()
	monitoring.Logf("[%s] compiling %s -> %s (%s)", runID, req.InputPath, req.OutputPath, req.Kind)
	defer func() {
		metrics.RecordRun(context.Background(), req.Kind.String(), outcome(err), clock.Since(start))
	}()

	tracker, err := deps.NewTracker(fsys, dirs, req.MakeCommand)
	if err != nil {
		return usagef("%v", err)
	}
	collab, err := NewCollaborators(fsys, tracker, req)
	if err != nil {
		return err
	}
	collab.Metrics = metrics

	err = NewSequencer(req, fsys, dirs, tracker, collab).Run()
	if err != nil {
		monitoring.Logf("[%s] failed after %s: %v", runID, clock.Since(start).Round(time.Millisecond), err)
		return err
	}
	monitoring.Logf("[%s] done in %s", runID, clock.Since(start).Round(time.Millisecond))
	return nil
}
