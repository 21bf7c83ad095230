// Package pipeline sequences the transformation stages over one shared
// PipelineState and owns the bounded validation/correction loop. A run ends
// in exactly one of three ways: a clean envelope, a degraded envelope with
// unresolved critical errors, or a typed PipelineFailure.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"storyboard-pipeline/llm"
	"storyboard-pipeline/metrics"
	"storyboard-pipeline/stages"
	"storyboard-pipeline/store"
	"storyboard-pipeline/types"
)

// maxCorrectionIterations bounds the repair loop. A run that still has
// critical errors afterwards completes in a degraded-success state rather
// than looping forever.
const maxCorrectionIterations = 3

// RunInput are the immutable inputs of one pipeline run.
type RunInput struct {
	ScriptID        string
	ScriptText      string
	DurationMinutes int
	DurationSeconds int
	VideoFormat     types.VideoFormat
	VideoType       types.VideoType
	Orientation     types.Orientation
	Language        string
}

// PipelineFailure is the typed error a caller receives when a stage fails
// unrecoverably. It carries the state snapshot at failure time so partial
// history survives for audit.
type PipelineFailure struct {
	Stage string
	State *types.PipelineState
	Cause error
}

func (f *PipelineFailure) Error() string {
	return fmt.Sprintf("pipeline failed at stage %s: %v", f.Stage, f.Cause)
}

func (f *PipelineFailure) Unwrap() error { return f.Cause }

// Orchestrator runs the six stages in order for one script at a time. It is
// safe to share across goroutines: all per-run state lives in the
// PipelineState it creates.
type Orchestrator struct {
	llmClient llm.Client
	store     store.Store
	now       func() time.Time

	breakdown    stages.Stage
	direction    stages.Stage
	optimization stages.Stage
	continuity   stages.Stage
	validation   stages.Stage
	correction   stages.Stage
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock fixes the timestamp source, making runs reproducible in tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithStore persists the final state and envelope of every run.
func WithStore(s store.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// New wires the stage sequence around a completion client.
func New(client llm.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		llmClient: client,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}

	deps := stages.Deps{LLM: client, Now: o.now}
	o.breakdown = &stages.Breakdown{Deps: deps}
	o.direction = &stages.Direction{Deps: deps}
	o.optimization = &stages.Optimization{Deps: deps}
	o.continuity = &stages.Continuity{Deps: deps}
	o.validation = &stages.Validation{Now: o.now}
	o.correction = &stages.Correction{Deps: deps}
	return o
}

// Run executes the full pipeline for one script and returns the output
// envelope. Any unrecoverable stage error surfaces as a *PipelineFailure;
// the caller never sees a silently-empty or partially-mutated result.
func (o *Orchestrator) Run(ctx context.Context, in RunInput) (*types.OutputEnvelope, error) {
	language := in.Language
	if language == "" {
		language = detectLanguage(in.ScriptText)
	}
	state := types.NewPipelineState(in.ScriptID, in.ScriptText,
		in.DurationMinutes, in.DurationSeconds,
		in.VideoFormat, in.VideoType, in.Orientation, language)

	log.Printf("🎬 Pipeline starting — script %s (%s %s, %s, %ds target)",
		in.ScriptID, in.VideoFormat, in.VideoType, in.Orientation,
		in.DurationMinutes*60+in.DurationSeconds)

	for _, stage := range []stages.Stage{o.breakdown, o.direction, o.optimization, o.continuity, o.validation} {
		if err := o.runStage(ctx, stage, state); err != nil {
			return nil, o.fail(stage.Name(), state, err)
		}
	}

	iterations := 0
	for len(state.Validation.CriticalErrors) > 0 && iterations < maxCorrectionIterations {
		iterations++
		log.Printf("🔁 Correction iteration %d/%d (%d critical errors)",
			iterations, maxCorrectionIterations, len(state.Validation.CriticalErrors))
		if err := o.runStage(ctx, o.correction, state); err != nil {
			return nil, o.fail(stages.NameCorrection, state, err)
		}
		if err := o.runStage(ctx, o.validation, state); err != nil {
			return nil, o.fail(stages.NameValidation, state, err)
		}
	}
	metrics.ObserveIterations(iterations)
	metrics.ReportFindings(len(state.Validation.Errors), len(state.Validation.Warnings), len(state.Validation.CriticalErrors))

	status := metrics.StatusSuccess
	if len(state.Validation.CriticalErrors) > 0 {
		// Iteration budget exhausted: still a completed run, just degraded.
		// Partial results are valuable to the caller.
		status = metrics.StatusDegraded
		state.AppendHistory("orchestrator", "degraded_completion", o.now(),
			fmt.Sprintf("%d critical errors remain after %d iterations",
				len(state.Validation.CriticalErrors), iterations))
		log.Printf("⚠️  Completing degraded: %d critical errors remain", len(state.Validation.CriticalErrors))
	}
	metrics.RunCompleted(status)

	envelope := buildEnvelope(state)
	o.persist(state, envelope)
	log.Printf("✅ Pipeline complete — %d scenes, quality %.2f", len(envelope.Scenes), envelope.QualityScore)
	return envelope, nil
}

func (o *Orchestrator) runStage(ctx context.Context, stage stages.Stage, state *types.PipelineState) error {
	// Cancellation stops before the next stage starts; stages are not
	// internally interruptible.
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := stage.Apply(ctx, state)
	metrics.ObserveStage(stage.Name(), time.Since(start))
	return err
}

func (o *Orchestrator) fail(stageName string, state *types.PipelineState, cause error) error {
	state.AppendHistory(stageName, "failed", o.now(), cause.Error())
	metrics.RunCompleted(metrics.StatusFailed)
	o.persist(state, nil)
	return &PipelineFailure{Stage: stageName, State: state, Cause: cause}
}

func (o *Orchestrator) persist(state *types.PipelineState, envelope *types.OutputEnvelope) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveState(state); err != nil {
		log.Printf("⚠️  Could not persist state for %s: %v", state.ScriptID, err)
	}
	if envelope != nil {
		if err := o.store.SaveEnvelope(state.ScriptID, envelope); err != nil {
			log.Printf("⚠️  Could not persist envelope for %s: %v", state.ScriptID, err)
		}
	}
}

func buildEnvelope(state *types.PipelineState) *types.OutputEnvelope {
	flattened := make([]types.EnvelopeScene, 0, len(state.Scenes))
	totalSec := 0
	for i := range state.Scenes {
		scene := &state.Scenes[i]
		totalSec += scene.DurationSec
		flattened = append(flattened, types.EnvelopeScene{
			ID:            scene.Order,
			SceneID:       scene.ID,
			Summary:       scene.Summary,
			ScriptText:    scene.ScriptText,
			DurationSec:   scene.DurationSec,
			VisualPrompt:  scene.VisualPrompt,
			Platform:      scene.Platform,
			AvatarPresent: scene.AvatarPresent,
		})
	}
	return &types.OutputEnvelope{
		Project: types.ProjectSummary{
			PlatformMode:              state.VideoFormat,
			NumScenes:                 len(state.Scenes),
			Language:                  state.Language,
			TotalEstimatedDurationMin: float64(totalSec) / 60,
		},
		Scenes:       flattened,
		Metrics:      state.Metrics,
		QualityScore: state.Validation.QualityScore,
		State:        state,
	}
}
