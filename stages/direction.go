package stages

import (
	"context"
	"fmt"
	"log"
	"strings"

	"storyboard-pipeline/llm"
	"storyboard-pipeline/types"
)

const directionSystemPrompt = `You are a cinematographer writing visual direction for AI video generation platforms.

Available platforms:
- "gemini_veo": generated cinematic footage, clips of 4, 6 or 8 seconds
- "sora": generated cinematic footage, clips of 4, 8 or 12 seconds
- "heygen": talking avatar presenter, clips of 15-60 seconds

You MUST respond with ONLY valid JSON — no preamble, no markdown, no explanation.

The JSON must have exactly this shape:
{
  "scenes": [
    {
      "id": "scene_001",
      "description": "what the camera sees, concrete and visual",
      "camera": "shot type and movement",
      "lighting": "lighting setup",
      "composition": "framing notes",
      "atmosphere": "mood and tone",
      "style_reference": "consistent visual style for the whole video",
      "platform": "gemini_veo"
    }
  ]
}

Rules:
- Return exactly one entry per input scene, keyed by the given id. Never add or drop scenes.
- style_reference must be identical across all scenes.
- description must not mention the platform or any text overlays.`

// Direction annotates every scene with a visual prompt and a platform
// choice. It never adds or removes scenes: model output is matched back by
// scene id and anything unmatched keeps a deterministic fallback.
type Direction struct {
	Deps
}

func (d *Direction) Name() string { return NameDirection }

type directionResponse struct {
	Scenes []struct {
		ID             string `json:"id"`
		Description    string `json:"description"`
		Camera         string `json:"camera"`
		Lighting       string `json:"lighting"`
		Composition    string `json:"composition"`
		Atmosphere     string `json:"atmosphere"`
		StyleReference string `json:"style_reference"`
		Platform       string `json:"platform"`
	} `json:"scenes"`
}

func (d *Direction) Apply(ctx context.Context, state *types.PipelineState) error {
	log.Printf("[direction] Writing visual direction for %d scenes...", len(state.Scenes))

	var parsed directionResponse
	if err := completeObject(ctx, d.LLM, d.buildRequest(state), &parsed); err != nil {
		return fmt.Errorf("direction: %w", err)
	}

	annotated := 0
	for _, raw := range parsed.Scenes {
		scene := state.SceneByID(raw.ID)
		if scene == nil {
			continue // model invented a scene; drop it
		}
		keep := scene.VisualPrompt.CharactersInScene
		notes := scene.VisualPrompt.ContinuityNotes
		scene.VisualPrompt = &types.VisualPrompt{
			Description:       strings.TrimSpace(raw.Description),
			Camera:            raw.Camera,
			Lighting:          raw.Lighting,
			Composition:       raw.Composition,
			Atmosphere:        raw.Atmosphere,
			StyleReference:    raw.StyleReference,
			ContinuityNotes:   notes,
			CharactersInScene: keep,
		}
		scene.Platform = types.Platform(raw.Platform)
		annotated++
	}

	d.enforcePolicy(state)

	state.RecordMetrics(NameDirection, types.StageMetrics{
		"annotated": float64(annotated),
		"fallbacks": float64(len(state.Scenes) - annotated),
	})
	state.AppendHistory(NameDirection, "visual_direction", d.now(),
		fmt.Sprintf("%d/%d scenes annotated by model", annotated, len(state.Scenes)))

	log.Printf("[direction] ✅ %d/%d scenes annotated", annotated, len(state.Scenes))
	return nil
}

// enforcePolicy applies the deterministic routing rules the model may have
// ignored: ultra runs never use avatars, avatar runs prefer HeyGen, and
// avatar_present always follows the platform.
func (d *Direction) enforcePolicy(state *types.PipelineState) {
	for i := range state.Scenes {
		scene := &state.Scenes[i]

		if !types.KnownPlatform(scene.Platform) {
			scene.Platform = fallbackPlatform(state.VideoType)
		}
		if state.VideoType == types.TypeUltra && scene.Platform == types.PlatformHeyGen {
			scene.Platform = types.PlatformGeminiVeo
		}
		scene.AvatarPresent = scene.Platform == types.PlatformHeyGen
		if scene.Platform == types.PlatformHeyGen {
			// The HeyGen duration range depends on the run's format;
			// carry it on the scene for standalone validation.
			scene.MergeMetadata(map[string]interface{}{"video_format": string(state.VideoFormat)})
		}
	}
}

func (d *Direction) buildRequest(state *types.PipelineState) (req llm.Request) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Write visual direction for a %s %s video, orientation %s, language %s.\n",
		state.VideoFormat, state.VideoType, state.Orientation, state.Language))
	switch state.VideoType {
	case types.TypeUltra:
		sb.WriteString("POLICY: never use heygen. No avatars anywhere.\n")
	case types.TypeAvatar:
		sb.WriteString("POLICY: route at least 70% of scenes to heygen.\n")
	}
	sb.WriteString("\nSCENES:\n")
	for i := range state.Scenes {
		scene := &state.Scenes[i]
		sb.WriteString(fmt.Sprintf("- %s (%ds): %s\n  narration: %s\n",
			scene.ID, scene.DurationSec, scene.Summary, scene.ScriptText))
	}
	sb.WriteString("\nRespond ONLY with valid JSON. No markdown. No explanation.")

	req.System = directionSystemPrompt
	req.User = sb.String()
	req.Temperature = 0.5
	req.MaxTokens = 4096
	return req
}
