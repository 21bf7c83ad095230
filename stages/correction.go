package stages

import (
	"context"
	"fmt"
	"log"
	"strings"

	"storyboard-pipeline/llm"
	"storyboard-pipeline/platform"
	"storyboard-pipeline/types"
)

const repairSystemPrompt = `You are repairing one scene of an AI video storyboard that failed validation.

You MUST respond with ONLY valid JSON — no preamble, no markdown, no explanation.

The JSON must have exactly this shape (omit fields you did not change):
{"narration": "...", "duration_sec": 8, "summary": "..."}`

// Correction consumes the critical errors of the latest validation report
// and rewrites only the implicated scenes. Deterministic repair rules run
// first; the model is only asked when no rule matches. Every applied fix is
// appended to the scene's metadata audit trail.
type Correction struct {
	Deps
}

func (c *Correction) Name() string { return NameCorrection }

func (c *Correction) Apply(ctx context.Context, state *types.PipelineState) error {
	if state.Validation == nil || len(state.Validation.CriticalErrors) == 0 {
		return nil
	}
	log.Printf("[correction] Repairing %d critical errors...", len(state.Validation.CriticalErrors))

	fixed := 0
	for _, msg := range state.Validation.CriticalErrors {
		scene, detail := c.attributeError(state, msg)
		if scene == nil {
			continue // not attributable to one scene; re-validation decides
		}
		if c.repairScene(ctx, state, scene, detail) {
			fixed++
		}
	}

	state.RecordMetrics(NameCorrection, types.StageMetrics{
		"criticals_seen": float64(len(state.Validation.CriticalErrors)),
		"repairs":        float64(fixed),
	})
	state.AppendHistory(NameCorrection, "corrections_applied", c.now(),
		fmt.Sprintf("%d/%d critical errors repaired", fixed, len(state.Validation.CriticalErrors)))

	log.Printf("[correction] ✅ %d repairs applied", fixed)
	return nil
}

// attributeError resolves a "{sceneId}: detail" message to its scene.
func (c *Correction) attributeError(state *types.PipelineState, msg string) (*types.Scene, string) {
	idx := strings.Index(msg, ": ")
	if idx <= 0 {
		return nil, ""
	}
	scene := state.SceneByID(msg[:idx])
	if scene == nil {
		return nil, ""
	}
	return scene, msg[idx+2:]
}

func (c *Correction) repairScene(ctx context.Context, state *types.PipelineState, scene *types.Scene, detail string) bool {
	switch {
	case strings.Contains(detail, "unknown platform"),
		strings.Contains(detail, "forbids avatar"):
		prev := scene.Platform
		scene.Platform = fallbackPlatform(state.VideoType)
		if state.VideoType == types.TypeUltra {
			scene.Platform = types.PlatformGeminiVeo
		}
		scene.AvatarPresent = scene.Platform == types.PlatformHeyGen
		c.snapDuration(state, scene)
		scene.AddCorrection(fmt.Sprintf("platform %q replaced with %s", prev, scene.Platform))
		return true

	case strings.Contains(detail, "not legal for"):
		return c.snapDuration(state, scene)

	case strings.Contains(detail, "narration has") && strings.Contains(detail, "max"):
		return c.truncateNarration(state, scene)

	case strings.Contains(detail, "empty narration"):
		if scene.Summary != "" {
			scene.ScriptText = scene.Summary
			scene.AddCorrection("empty narration filled from scene summary")
			c.refreshTiming(state, scene)
			return true
		}
		return c.modelRepair(ctx, state, scene, detail)

	case strings.Contains(detail, "missing duration"):
		scene.DurationSec = 8
		c.snapDuration(state, scene)
		scene.AddCorrection("missing duration defaulted to 8s")
		return true

	case strings.Contains(detail, "audio") && strings.Contains(detail, "exceeds"):
		return c.truncateNarration(state, scene)

	default:
		return c.modelRepair(ctx, state, scene, detail)
	}
}

func (c *Correction) snapDuration(state *types.PipelineState, scene *types.Scene) bool {
	if !types.KnownPlatform(scene.Platform) {
		scene.Platform = fallbackPlatform(state.VideoType)
		scene.AvatarPresent = scene.Platform == types.PlatformHeyGen
	}
	result, err := platform.SolveDuration(scene.Platform, scene.DurationSec, state.VideoFormat)
	if err != nil || result.Valid {
		return false
	}
	scene.AddCorrection(fmt.Sprintf("duration %ds snapped to %ds for %s", scene.DurationSec, result.Corrected, scene.Platform))
	scene.DurationSec = result.Corrected
	return true
}

// truncateNarration cuts the narration to the word budget of the scene's
// duration, preserving whole words and appending an ellipsis.
func (c *Correction) truncateNarration(state *types.PipelineState, scene *types.Scene) bool {
	_, maxWords := platform.ExpectedWordRange(scene.DurationSec, state.Language)
	before := len(strings.Fields(scene.ScriptText))
	if before <= maxWords {
		return false
	}
	scene.ScriptText = platform.TruncateWords(scene.ScriptText, maxWords)
	scene.AddCorrection(fmt.Sprintf("narration truncated from %d to %d words", before, maxWords))
	c.refreshTiming(state, scene)
	return true
}

func (c *Correction) refreshTiming(state *types.PipelineState, scene *types.Scene) {
	scene.MergeMetadata(map[string]interface{}{
		"audio_duration_sec": platform.EstimateNarrationSec(scene.ScriptText, state.Language),
		"word_count":         len(strings.Fields(scene.ScriptText)),
	})
}

// modelRepair is the fallback for errors no fixed rule covers. A failed
// model call leaves the scene untouched; the iteration budget bounds how
// often we end up here.
func (c *Correction) modelRepair(ctx context.Context, state *types.PipelineState, scene *types.Scene, detail string) bool {
	var parsed struct {
		Narration   string `json:"narration"`
		DurationSec int    `json:"duration_sec"`
		Summary     string `json:"summary"`
	}
	req := llm.Request{
		System: repairSystemPrompt,
		User: fmt.Sprintf("Validation error: %s\n\nSCENE %s (%s, %ds):\nsummary: %s\nnarration: %s\n\nRespond ONLY with valid JSON.",
			detail, scene.ID, scene.Platform, scene.DurationSec, scene.Summary, scene.ScriptText),
		Temperature: 0.3,
		MaxTokens:   1024,
	}
	if err := completeObject(ctx, c.LLM, req, &parsed); err != nil {
		log.Printf("[correction] ⚠️  %s: model repair failed: %v", scene.ID, err)
		return false
	}

	changed := false
	if narration := strings.TrimSpace(parsed.Narration); narration != "" && narration != scene.ScriptText {
		scene.ScriptText = narration
		changed = true
	}
	if parsed.DurationSec > 0 && parsed.DurationSec != scene.DurationSec {
		scene.DurationSec = parsed.DurationSec
		c.snapDuration(state, scene)
		changed = true
	}
	if summary := strings.TrimSpace(parsed.Summary); summary != "" && summary != scene.Summary {
		scene.Summary = summary
		changed = true
	}
	if changed {
		scene.AddCorrection(fmt.Sprintf("model-assisted repair for: %s", detail))
		c.refreshTiming(state, scene)
	}
	return changed
}
