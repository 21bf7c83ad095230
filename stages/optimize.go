package stages

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"storyboard-pipeline/llm"
	"storyboard-pipeline/platform"
	"storyboard-pipeline/types"
)

const tightenSystemPrompt = `You are an editor tightening video narration to fit a time budget without losing meaning.

You MUST respond with ONLY valid JSON — no preamble, no markdown, no explanation.

The JSON must have exactly this shape:
{"narration": "the rewritten narration"}`

// Optimization snaps every scene's duration to a platform-legal value and
// records the estimated narration timing in scene metadata. Narration that
// runs far over its slot gets one model rewrite attempt; the correction
// stage's truncation remains the backstop.
type Optimization struct {
	Deps
}

func (o *Optimization) Name() string { return NameOptimization }

func (o *Optimization) Apply(ctx context.Context, state *types.PipelineState) error {
	log.Printf("[optimization] Adjusting durations for %d scenes...", len(state.Scenes))

	adjusted := 0
	tightened := 0
	for i := range state.Scenes {
		scene := &state.Scenes[i]

		requested := scene.DurationSec
		if requested <= 0 {
			// No duration from the breakdown: derive one from the narration.
			requested = int(math.Round(platform.EstimateNarrationSec(scene.ScriptText, state.Language)))
		}
		result, err := platform.SolveDuration(scene.Platform, requested, state.VideoFormat)
		if err != nil {
			return fmt.Errorf("optimization: %s: %w", scene.ID, err)
		}
		if scene.DurationSec != result.Corrected {
			log.Printf("[optimization] %s: %ds → %ds (%s)", scene.ID, scene.DurationSec, result.Corrected, scene.Platform)
			scene.DurationSec = result.Corrected
			adjusted++
		}

		if o.tightenNarration(ctx, scene, state.Language) {
			tightened++
		}

		scene.MergeMetadata(map[string]interface{}{
			"audio_duration_sec": platform.EstimateNarrationSec(scene.ScriptText, state.Language),
			"word_count":         len(strings.Fields(scene.ScriptText)),
		})
	}

	state.RecordMetrics(NameOptimization, types.StageMetrics{
		"durations_adjusted":   float64(adjusted),
		"narrations_tightened": float64(tightened),
	})
	state.AppendHistory(NameOptimization, "durations_snapped", o.now(),
		fmt.Sprintf("%d durations adjusted, %d narrations tightened", adjusted, tightened))

	log.Printf("[optimization] ✅ %d durations adjusted", adjusted)
	return nil
}

// tightenNarration asks the model to shorten an over-long narration. Any
// model or parse failure just keeps the original text; the validation and
// correction loop will deal with it deterministically.
func (o *Optimization) tightenNarration(ctx context.Context, scene *types.Scene, language string) bool {
	check := platform.ValidateTextLength(scene.ScriptText, scene.DurationSec, language)
	if !check.TooLong {
		return false
	}

	var parsed struct {
		Narration string `json:"narration"`
	}
	req := llm.Request{
		System: tightenSystemPrompt,
		User: fmt.Sprintf("Rewrite to at most %d words, keeping the meaning and tone. Language: %s.\n\nNARRATION:\n%s\n\nRespond ONLY with valid JSON.",
			check.MaxWords, language, scene.ScriptText),
		Temperature: 0.3,
		MaxTokens:   1024,
	}
	if err := completeObject(ctx, o.LLM, req, &parsed); err != nil {
		log.Printf("[optimization] ⚠️  %s: tighten failed: %v — keeping original", scene.ID, err)
		return false
	}
	rewritten := strings.TrimSpace(parsed.Narration)
	if rewritten == "" || len(strings.Fields(rewritten)) > check.WordCount {
		return false
	}
	scene.ScriptText = rewritten
	return true
}
