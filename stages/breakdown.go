package stages

import (
	"context"
	"fmt"
	"log"
	"strings"

	"storyboard-pipeline/llm"
	"storyboard-pipeline/types"
)

const breakdownSystemPrompt = `You are a professional video director breaking a narrative script into scenes for AI video generation.

You MUST respond with ONLY valid JSON — no preamble, no markdown, no explanation.

The JSON must have exactly this shape:
{
  "scenes": [
    {
      "summary": "one-line summary of the scene",
      "narration": "the exact words narrated over this scene",
      "duration_sec": 8,
      "characters": ["character name", ...]
    }
  ]
}

Rules:
- Cover the full script in order. Do not invent content that is not in the script.
- Each scene gets 4-15 seconds. Short punchy scenes keep retention.
- narration must be the literal script text for that scene, split at natural sentence boundaries.
- characters lists every recurring person visible in the scene, by a short stable name.`

// Breakdown splits the raw script into an ordered scene sequence. Producing
// zero scenes is fatal: nothing downstream can correct an empty run.
type Breakdown struct {
	Deps
}

func (b *Breakdown) Name() string { return NameBreakdown }

type breakdownResponse struct {
	Scenes []struct {
		Summary     string   `json:"summary"`
		Narration   string   `json:"narration"`
		DurationSec int      `json:"duration_sec"`
		Characters  []string `json:"characters"`
	} `json:"scenes"`
}

func (b *Breakdown) Apply(ctx context.Context, state *types.PipelineState) error {
	log.Printf("[breakdown] Splitting script into scenes (target %ds, %s)...",
		targetDurationSec(state), state.VideoFormat)

	var parsed breakdownResponse
	err := completeObject(ctx, b.LLM, b.buildRequest(state), &parsed)
	if err != nil {
		return fmt.Errorf("breakdown: %w", err)
	}
	if len(parsed.Scenes) == 0 {
		return fmt.Errorf("breakdown: model produced zero scenes")
	}

	state.Scenes = make([]types.Scene, 0, len(parsed.Scenes))
	totalWords := 0
	for i, raw := range parsed.Scenes {
		scene := types.Scene{
			ID:         fmt.Sprintf("scene_%03d", i+1),
			Order:      i,
			Summary:    strings.TrimSpace(raw.Summary),
			ScriptText: strings.TrimSpace(raw.Narration),
			VisualPrompt: &types.VisualPrompt{
				CharactersInScene: raw.Characters,
			},
			DurationSec: raw.DurationSec,
		}
		totalWords += len(strings.Fields(scene.ScriptText))
		state.Scenes = append(state.Scenes, scene)
	}

	state.RecordMetrics(NameBreakdown, types.StageMetrics{
		"scenes": float64(len(state.Scenes)),
		"words":  float64(totalWords),
	})
	state.AppendHistory(NameBreakdown, "scenes_created", b.now(),
		fmt.Sprintf("%d scenes from %d script chars", len(state.Scenes), len(state.ScriptText)))

	log.Printf("[breakdown] ✅ %d scenes created", len(state.Scenes))
	return nil
}

func (b *Breakdown) buildRequest(state *types.PipelineState) (req llm.Request) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Break this script into scenes for a %s %s video (%s), total target %d seconds.\n\n",
		state.VideoFormat, state.VideoType, state.Orientation, targetDurationSec(state)))
	sb.WriteString("SCRIPT:\n")
	sb.WriteString(state.ScriptText)
	sb.WriteString("\n\nRespond ONLY with valid JSON. No markdown. No explanation.")

	req.System = breakdownSystemPrompt
	req.User = sb.String()
	req.Temperature = 0.4
	req.MaxTokens = 4096
	return req
}
