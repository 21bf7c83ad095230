package runner

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyboard-pipeline/llm"
	"storyboard-pipeline/pipeline"
	"storyboard-pipeline/types"
)

// singleSceneLLM is a minimal deterministic model: one scene per script.
type singleSceneLLM struct{}

func (singleSceneLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	switch {
	case strings.Contains(req.System, "breaking a narrative script"):
		return `{"scenes": [{"summary": "apertura", "narration": "la ciudad despierta entre la niebla y el ruido lejano", "duration_sec": 4, "characters": []}]}`, nil
	case strings.Contains(req.System, "cinematographer"):
		return `{"scenes": [{"id": "scene_001", "description": "amanecer sobre tejados", "style_reference": "neorealist", "platform": "gemini_veo"}]}`, nil
	case strings.Contains(req.System, "continuity supervisor"):
		return `{"scores": {"characters": 1, "scenarios": 1, "style": 1}}`, nil
	}
	return "", fmt.Errorf("unexpected request")
}

func TestRunAllIsolatesRuns(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	orchestrator := pipeline.New(singleSceneLLM{}, pipeline.WithClock(clock))

	inputs := make([]pipeline.RunInput, 4)
	for i := range inputs {
		inputs[i] = pipeline.RunInput{
			ScriptID:        fmt.Sprintf("scr-%d", i),
			ScriptText:      "la ciudad despierta",
			DurationMinutes: 1,
			VideoFormat:     types.FormatSocial,
			VideoType:       types.TypeGeneral,
			Orientation:     types.OrientationLandscape,
			Language:        "es",
		}
	}

	results := New(orchestrator, 2).RunAll(context.Background(), inputs)
	require.Len(t, results, 4)
	for i, res := range results {
		assert.Equal(t, fmt.Sprintf("scr-%d", i), res.ScriptID, "results keep input order")
		require.NoError(t, res.Err)
		require.NotNil(t, res.Envelope)
		assert.Equal(t, fmt.Sprintf("scr-%d", i), res.Envelope.State.ScriptID)
	}
}

func TestRunAllSurvivesFailedSibling(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	orchestrator := pipeline.New(singleSceneLLM{}, pipeline.WithClock(clock))

	done, cancel := context.WithCancel(context.Background())
	cancel()
	// A cancelled context fails every run but must still yield one result
	// per input rather than panicking or hanging.
	results := New(orchestrator, 2).RunAll(done, []pipeline.RunInput{
		{ScriptID: "a", ScriptText: "x", VideoFormat: types.FormatSocial, VideoType: types.TypeGeneral},
		{ScriptID: "b", ScriptText: "y", VideoFormat: types.FormatSocial, VideoType: types.TypeGeneral},
	})
	require.Len(t, results, 2)
	for _, res := range results {
		assert.Error(t, res.Err)
	}
}
