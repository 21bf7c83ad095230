package stages

import (
	"context"
	"fmt"
	"log"
	"strings"

	"storyboard-pipeline/continuity"
	"storyboard-pipeline/llm"
	"storyboard-pipeline/types"
)

const continuitySystemPrompt = `You are a continuity supervisor reviewing an AI video storyboard for cross-scene consistency.

You MUST respond with ONLY valid JSON — no preamble, no markdown, no explanation.

The JSON must have exactly this shape:
{
  "scores": {"characters": 0.9, "scenarios": 0.8, "style": 0.95},
  "color_palette": "the dominant palette the whole video should keep",
  "visual_style": "one sentence describing the shared visual style"
}

Scores are 0.0-1.0: how consistently characters, scenarios and visual style
carry across the scene sequence as written.`

// Continuity computes the run-wide narrative context once, scores the
// sequence's consistency, then rewrites each scene's continuity notes from
// the scenes before it. Per pass it touches every scene exactly once — the
// note enhancement is idempotent but must not be invoked twice in one pass.
type Continuity struct {
	Deps
}

func (c *Continuity) Name() string { return NameContinuity }

type continuityResponse struct {
	Scores       map[string]float64 `json:"scores"`
	ColorPalette string             `json:"color_palette"`
	VisualStyle  string             `json:"visual_style"`
}

func (c *Continuity) Apply(ctx context.Context, state *types.PipelineState) error {
	log.Printf("[continuity] Analyzing %d scenes...", len(state.Scenes))

	state.Context = continuity.ExtractGlobalContext(state.ScriptText)

	var parsed continuityResponse
	if err := completeObject(ctx, c.LLM, c.buildRequest(state), &parsed); err != nil {
		return fmt.Errorf("continuity: %w", err)
	}
	state.Continuity = parsed.Scores
	state.Context.ColorPalette = strings.TrimSpace(parsed.ColorPalette)
	state.Context.VisualStyle = strings.TrimSpace(parsed.VisualStyle)

	backRefs := 0
	for i := range state.Scenes {
		scene := &state.Scenes[i]
		before := len(scene.VisualPrompt.ContinuityNotes)
		continuity.EnhancePrompt(scene, state.Scenes[:i], state.Context)
		if len(scene.VisualPrompt.ContinuityNotes) > before {
			backRefs++
		}
	}

	state.RecordMetrics(NameContinuity, types.StageMetrics{
		"scenes_enhanced": float64(backRefs),
		"characters":      parsed.Scores["characters"],
		"scenarios":       parsed.Scores["scenarios"],
		"style":           parsed.Scores["style"],
	})
	state.AppendHistory(NameContinuity, "continuity_pass", c.now(),
		fmt.Sprintf("period %q, %d scenes enhanced", state.Context.TimePeriod, backRefs))

	log.Printf("[continuity] ✅ Period %q, %d scenes enhanced", state.Context.TimePeriod, backRefs)
	return nil
}

func (c *Continuity) buildRequest(state *types.PipelineState) (req llm.Request) {
	var sb strings.Builder
	sb.WriteString("Score this storyboard's cross-scene consistency and define its shared palette and style.\n\nSCENES:\n")
	for i := range state.Scenes {
		scene := &state.Scenes[i]
		chars := strings.Join(scene.VisualPrompt.CharactersInScene, ", ")
		sb.WriteString(fmt.Sprintf("- %s: %s [characters: %s] %s\n",
			scene.ID, scene.Summary, chars, scene.VisualPrompt.Description))
	}
	sb.WriteString("\nRespond ONLY with valid JSON. No markdown. No explanation.")

	req.System = continuitySystemPrompt
	req.User = sb.String()
	req.Temperature = 0.2
	req.MaxTokens = 1024
	return req
}
