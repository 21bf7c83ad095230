package validate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyboard-pipeline/types"
)

func narration(n int) string {
	return strings.TrimSpace(strings.Repeat("palabra ", n))
}

func goodScene(id string, order int) types.Scene {
	return types.Scene{
		ID:          id,
		Order:       order,
		Summary:     "a scene",
		ScriptText:  narration(16), // valid for 8s in es (16-22)
		DurationSec: 8,
		Platform:    types.PlatformGeminiVeo,
		VisualPrompt: &types.VisualPrompt{
			Description: "wide shot of a plaza",
		},
	}
}

func TestValidateCleanSequence(t *testing.T) {
	scenes := []types.Scene{goodScene("scene_001", 0), goodScene("scene_002", 1)}
	report := NewEngine("es").Validate(scenes, types.TypeGeneral)

	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
	assert.Empty(t, report.CriticalErrors)
	assert.Equal(t, 1.0, report.QualityScore)
}

func TestValidateIllegalDurationIsCritical(t *testing.T) {
	scene := goodScene("scene_001", 0)
	scene.DurationSec = 7
	scene.ScriptText = narration(15) // in range for 7s (14-20)
	report := NewEngine("es").Validate([]types.Scene{scene}, types.TypeGeneral)

	require.Len(t, report.CriticalErrors, 1)
	assert.False(t, report.Valid)
	assert.Contains(t, report.CriticalErrors[0], "scene_001: duration 7s not legal for gemini_veo")
	assert.Contains(t, report.CriticalErrors[0], "nearest 6")
}

func TestValidateNarrationLength(t *testing.T) {
	long := goodScene("scene_001", 0)
	long.ScriptText = narration(30) // over 22 for 8s

	short := goodScene("scene_002", 1)
	short.ScriptText = narration(10) // under 16 for 8s

	report := NewEngine("es").Validate([]types.Scene{long, short}, types.TypeGeneral)
	require.Len(t, report.CriticalErrors, 1)
	require.Len(t, report.Warnings, 1)
	assert.True(t, strings.HasPrefix(report.CriticalErrors[0], "scene_001: "))
	assert.True(t, strings.HasPrefix(report.Warnings[0], "scene_002: "))
}

func TestValidateMissingFields(t *testing.T) {
	scene := types.Scene{ID: "scene_001", Order: 0}
	report := NewEngine("es").Validate([]types.Scene{scene}, types.TypeGeneral)

	assert.False(t, report.Valid)
	// Empty narration and missing duration are critical.
	assert.Len(t, report.CriticalErrors, 2)
	// Missing visual prompt and platform are plain errors.
	assert.Len(t, report.Errors, 2)
}

func TestValidateUltraPolicy(t *testing.T) {
	avatar := goodScene("scene_001", 0)
	avatar.Platform = types.PlatformHeyGen
	avatar.AvatarPresent = true
	avatar.DurationSec = 20
	avatar.ScriptText = narration(45) // in range for 20s
	avatar.Metadata = map[string]interface{}{"video_format": "social"}

	report := NewEngine("es").Validate([]types.Scene{avatar}, types.TypeUltra)
	require.NotEmpty(t, report.CriticalErrors)
	assert.Contains(t, report.CriticalErrors[0], "ultra mode forbids avatar scenes")

	// The same scene is fine under general policy.
	report = NewEngine("es").Validate([]types.Scene{avatar}, types.TypeGeneral)
	assert.Empty(t, report.CriticalErrors)
}

func TestValidateAvatarRatioIsSoft(t *testing.T) {
	scenes := make([]types.Scene, 0, 10)
	for i := 0; i < 10; i++ {
		scenes = append(scenes, goodScene(fmt.Sprintf("scene_%03d", i+1), i))
	}
	report := NewEngine("es").Validate(scenes, types.TypeAvatar)

	assert.Empty(t, report.CriticalErrors, "ratio miss must not block completion")
	require.NotEmpty(t, report.Errors)
	assert.Contains(t, report.Errors[len(report.Errors)-1], "70%")
}

func TestValidateAudioSync(t *testing.T) {
	over := goodScene("scene_001", 0)
	over.Metadata = map[string]interface{}{"audio_duration_sec": 9.5}

	under := goodScene("scene_002", 1)
	under.Metadata = map[string]interface{}{"audio_duration_sec": 5.0}

	report := NewEngine("es").Validate([]types.Scene{over, under}, types.TypeGeneral)
	require.Len(t, report.CriticalErrors, 1)
	assert.Contains(t, report.CriticalErrors[0], "scene_001: audio")
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "scene_002: audio")
}

func TestValidateAvatarConsistency(t *testing.T) {
	scene := goodScene("scene_001", 0)
	scene.AvatarPresent = true // but platform is gemini_veo
	report := NewEngine("es").Validate([]types.Scene{scene}, types.TypeGeneral)

	assert.Empty(t, report.CriticalErrors)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "inconsistent with platform")
}

func TestQualityScoreFormula(t *testing.T) {
	// 10 scenes, 2 errors, 1 warning → 1 − (0.1·2 + 0.05·1)/10 = 0.975 → 0.98.
	assert.Equal(t, 0.98, qualityScore(2, 1, 10))
	assert.Equal(t, 1.0, qualityScore(0, 0, 5))
	assert.Equal(t, 0.0, qualityScore(0, 0, 0))
	assert.Equal(t, 0.0, qualityScore(100, 0, 2))
}

func TestUnknownPlatformIsCritical(t *testing.T) {
	scene := goodScene("scene_001", 0)
	scene.Platform = types.Platform("runway")
	report := NewEngine("es").Validate([]types.Scene{scene}, types.TypeGeneral)

	require.NotEmpty(t, report.CriticalErrors)
	assert.Contains(t, report.CriticalErrors[0], `unknown platform "runway"`)
}
