// Package stages holds the six pipeline phases. Each stage consumes the
// shared PipelineState, mutates it in place and reports an error only when
// the run cannot continue. The orchestrator composes them as an ordered
// list; there is no stage hierarchy.
package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storyboard-pipeline/llm"
	"storyboard-pipeline/types"
)

// Stage names as they appear in metrics and the history log.
const (
	NameBreakdown    = "breakdown"
	NameDirection    = "direction"
	NameOptimization = "optimization"
	NameContinuity   = "continuity"
	NameValidation   = "validation"
	NameCorrection   = "correction"
)

// Stage is one pipeline phase.
type Stage interface {
	Name() string
	Apply(ctx context.Context, state *types.PipelineState) error
}

// Deps are the shared dependencies every model-backed stage needs. Now is
// injectable so fixed inputs produce identical history logs.
type Deps struct {
	LLM llm.Client
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

// completeObject runs one completion and decodes the JSON object out of the
// raw text. A parse failure gets exactly one retry with the same input
// before it becomes a stage failure.
func completeObject(ctx context.Context, client llm.Client, req llm.Request, out interface{}) error {
	var lastReason string
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := client.Complete(ctx, req)
		if err != nil {
			return err
		}
		result := llm.ExtractObject(raw)
		if !result.OK {
			lastReason = result.Reason
			continue
		}
		if err := json.Unmarshal([]byte(result.JSON), out); err != nil {
			lastReason = err.Error()
			continue
		}
		return nil
	}
	return fmt.Errorf("unparseable model output after retry: %s", lastReason)
}

// targetDurationSec is the requested total video length in seconds.
func targetDurationSec(state *types.PipelineState) int {
	return state.DurationMinutes*60 + state.DurationSeconds
}

// fallbackPlatform is the deterministic platform choice when the model gave
// none or an unusable one.
func fallbackPlatform(videoType types.VideoType) types.Platform {
	if videoType == types.TypeAvatar {
		return types.PlatformHeyGen
	}
	return types.PlatformGeminiVeo
}
