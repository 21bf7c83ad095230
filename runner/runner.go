// Package runner executes independent pipeline runs concurrently. Each run
// owns its PipelineState exclusively; the only shared objects are the
// completion client and the store, both safe for concurrent use.
package runner

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"storyboard-pipeline/pipeline"
	"storyboard-pipeline/types"
)

// Result pairs one run's input with its outcome.
type Result struct {
	ScriptID string
	Envelope *types.OutputEnvelope
	Err      error
}

// Runner fans pipeline runs out over a bounded worker pool.
type Runner struct {
	orchestrator *pipeline.Orchestrator
	maxWorkers   int
}

// New creates a runner. maxWorkers caps how many scripts run at once.
func New(orchestrator *pipeline.Orchestrator, maxWorkers int) *Runner {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Runner{orchestrator: orchestrator, maxWorkers: maxWorkers}
}

// RunAll processes every input and returns one result per input, in input
// order. A failed run does not cancel its siblings: partial results are
// worth returning.
func (r *Runner) RunAll(ctx context.Context, inputs []pipeline.RunInput) []Result {
	results := make([]Result, len(inputs))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxWorkers)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			envelope, err := r.orchestrator.Run(ctx, in)
			mu.Lock()
			results[i] = Result{ScriptID: in.ScriptID, Envelope: envelope, Err: err}
			mu.Unlock()
			if err != nil {
				log.Printf("⚠️  Run %s failed: %v", in.ScriptID, err)
			}
			return nil // keep sibling runs alive
		})
	}
	_ = g.Wait()
	return results
}
