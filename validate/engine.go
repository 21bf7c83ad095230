// Package validate scans a full scene sequence and produces a structured
// report of errors, warnings and critical errors plus a numeric quality
// score. Critical errors drive the orchestrator's correction loop; warnings
// are recorded and never block completion.
package validate

import (
	"fmt"
	"math"

	"storyboard-pipeline/platform"
	"storyboard-pipeline/types"
)

// Audio may run a little over or under the scene duration before it breaks
// sync with the visuals.
const (
	audioOverFactor  = 1.1
	audioUnderFactor = 0.8
)

// At least this share of scenes must be avatar scenes in avatar mode. Soft
// target: missing it is a plain error, never critical.
const avatarSceneRatio = 0.7

// Engine validates scene sequences. It is stateless apart from the narration
// language and safe to use standalone for dry-run checks outside a pipeline
// run.
type Engine struct {
	language string
}

// NewEngine creates a validation engine for the given narration language.
func NewEngine(language string) *Engine {
	if language == "" {
		language = "es"
	}
	return &Engine{language: language}
}

// Validate runs every check against the scene list and merges the findings.
// All messages are prefixed with the scene id they concern so the correction
// stage can attribute them.
func (e *Engine) Validate(scenes []types.Scene, videoType types.VideoType) *types.ValidationReport {
	report := &types.ValidationReport{
		Errors:         []string{},
		Warnings:       []string{},
		CriticalErrors: []string{},
	}

	for i := range scenes {
		scene := &scenes[i]
		e.checkRequiredFields(scene, report)
		e.checkDuration(scene, report)
		e.checkNarrationLength(scene, report)
		e.checkAvatarConsistency(scene, report)
		e.checkAudioSync(scene, report)
		e.checkUltraPolicy(scene, videoType, report)
	}
	e.checkAvatarRatio(scenes, videoType, report)

	report.Valid = len(report.CriticalErrors) == 0
	report.QualityScore = qualityScore(len(report.Errors)+len(report.CriticalErrors), len(report.Warnings), len(scenes))
	return report
}

func (e *Engine) checkRequiredFields(scene *types.Scene, report *types.ValidationReport) {
	id := sceneLabel(scene)
	if scene.ID == "" {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: missing scene id", id))
	}
	if scene.ScriptText == "" {
		report.CriticalErrors = append(report.CriticalErrors, fmt.Sprintf("%s: empty narration", id))
	}
	if scene.DurationSec <= 0 {
		report.CriticalErrors = append(report.CriticalErrors, fmt.Sprintf("%s: missing duration", id))
	}
	if scene.VisualPrompt == nil || scene.VisualPrompt.Description == "" {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: missing visual prompt", id))
	}
	if scene.Platform == "" {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: missing platform", id))
	}
}

func (e *Engine) checkDuration(scene *types.Scene, report *types.ValidationReport) {
	if scene.Platform == "" || scene.DurationSec <= 0 {
		return // already reported by the required-field check
	}
	if !types.KnownPlatform(scene.Platform) {
		report.CriticalErrors = append(report.CriticalErrors,
			fmt.Sprintf("%s: unknown platform %q", sceneLabel(scene), scene.Platform))
		return
	}
	result, err := platform.SolveDuration(scene.Platform, scene.DurationSec, formatForScene(scene))
	if err != nil {
		report.CriticalErrors = append(report.CriticalErrors,
			fmt.Sprintf("%s: %v", sceneLabel(scene), err))
		return
	}
	if !result.Valid {
		report.CriticalErrors = append(report.CriticalErrors,
			fmt.Sprintf("%s: duration %ds not legal for %s (nearest %d)",
				sceneLabel(scene), scene.DurationSec, scene.Platform, result.Corrected))
	}
}

func (e *Engine) checkNarrationLength(scene *types.Scene, report *types.ValidationReport) {
	if scene.ScriptText == "" || scene.DurationSec <= 0 {
		return // critical already reported above
	}
	check := platform.ValidateTextLength(scene.ScriptText, scene.DurationSec, e.language)
	switch {
	case check.TooLong:
		report.CriticalErrors = append(report.CriticalErrors,
			fmt.Sprintf("%s: %s", sceneLabel(scene), check.Message))
	case check.TooShort:
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%s: %s", sceneLabel(scene), check.Message))
	}
}

func (e *Engine) checkAvatarConsistency(scene *types.Scene, report *types.ValidationReport) {
	isHeyGen := scene.Platform == types.PlatformHeyGen
	if scene.AvatarPresent != isHeyGen {
		report.Errors = append(report.Errors,
			fmt.Sprintf("%s: avatar_present=%t inconsistent with platform %s",
				sceneLabel(scene), scene.AvatarPresent, scene.Platform))
	}
}

func (e *Engine) checkAudioSync(scene *types.Scene, report *types.ValidationReport) {
	audioSec, ok := metadataFloat(scene.Metadata, "audio_duration_sec")
	if !ok || scene.DurationSec <= 0 {
		return
	}
	duration := float64(scene.DurationSec)
	switch {
	case audioSec > duration*audioOverFactor:
		report.CriticalErrors = append(report.CriticalErrors,
			fmt.Sprintf("%s: audio %.1fs exceeds scene duration %ds", sceneLabel(scene), audioSec, scene.DurationSec))
	case audioSec < duration*audioUnderFactor:
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%s: audio %.1fs well below scene duration %ds", sceneLabel(scene), audioSec, scene.DurationSec))
	}
}

func (e *Engine) checkUltraPolicy(scene *types.Scene, videoType types.VideoType, report *types.ValidationReport) {
	if videoType != types.TypeUltra {
		return
	}
	if scene.Platform == types.PlatformHeyGen || scene.AvatarPresent {
		report.CriticalErrors = append(report.CriticalErrors,
			fmt.Sprintf("%s: ultra mode forbids avatar scenes (platform %s)", sceneLabel(scene), scene.Platform))
	}
}

func (e *Engine) checkAvatarRatio(scenes []types.Scene, videoType types.VideoType, report *types.ValidationReport) {
	if videoType != types.TypeAvatar || len(scenes) == 0 {
		return
	}
	heygen := 0
	for i := range scenes {
		if scenes[i].Platform == types.PlatformHeyGen {
			heygen++
		}
	}
	ratio := float64(heygen) / float64(len(scenes))
	if ratio < avatarSceneRatio {
		report.Errors = append(report.Errors,
			fmt.Sprintf("avatar mode expects at least %.0f%% heygen scenes, got %.0f%% (%d/%d)",
				avatarSceneRatio*100, ratio*100, heygen, len(scenes)))
	}
}

// qualityScore summarizes error and warning density across the run in [0,1],
// rounded to two decimals. Zero scenes scores zero.
func qualityScore(errors, warnings, sceneCount int) float64 {
	if sceneCount == 0 {
		return 0
	}
	score := 1 - (0.1*float64(errors)+0.05*float64(warnings))/float64(sceneCount)
	if score < 0 {
		score = 0
	}
	return math.Round(score*100) / 100
}

// formatForScene recovers the video format a HeyGen duration range check
// needs. Scenes validated standalone may carry it in metadata; the pipeline
// records it there during the direction stage.
func formatForScene(scene *types.Scene) types.VideoFormat {
	if scene.Metadata != nil {
		if v, ok := scene.Metadata["video_format"].(string); ok && v != "" {
			return types.VideoFormat(v)
		}
	}
	return types.FormatSocial
}

func metadataFloat(m map[string]interface{}, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func sceneLabel(scene *types.Scene) string {
	if scene.ID != "" {
		return scene.ID
	}
	return fmt.Sprintf("scene at index %d", scene.Order)
}
