package types

import "time"

// VideoFormat is the target platform mode for the final video.
type VideoFormat string

const (
	FormatSocial      VideoFormat = "social"
	FormatEducational VideoFormat = "educational"
	FormatLongform    VideoFormat = "longform"
)

// VideoType selects the generation policy for the whole run.
type VideoType string

const (
	TypeUltra   VideoType = "ultra"   // no avatars, pure generated footage
	TypeAvatar  VideoType = "avatar"  // avatar-led, mostly HeyGen scenes
	TypeGeneral VideoType = "general" // mixed
)

// Platform is the downstream video-generation service a scene is routed to.
type Platform string

const (
	PlatformGeminiVeo Platform = "gemini_veo"
	PlatformSora      Platform = "sora"
	PlatformHeyGen    Platform = "heygen"
)

// Orientation is the aspect ratio of the final video.
type Orientation string

const (
	OrientationLandscape Orientation = "16:9"
	OrientationPortrait  Orientation = "9:16"
)

// VisualPrompt is the structured generation prompt for one scene.
type VisualPrompt struct {
	Description       string   `json:"description"`
	Camera            string   `json:"camera,omitempty"`
	Lighting          string   `json:"lighting,omitempty"`
	Composition       string   `json:"composition,omitempty"`
	Atmosphere        string   `json:"atmosphere,omitempty"`
	StyleReference    string   `json:"style_reference,omitempty"`
	ContinuityNotes   string   `json:"continuity_notes,omitempty"`
	CharactersInScene []string `json:"characters_in_scene,omitempty"`
}

// Scene is one segment of the final video: its own narration, visual prompt,
// target duration and generation platform. ID is stable for the whole run;
// corrections update fields in place, never reassign it.
type Scene struct {
	ID            string                 `json:"id"`
	Order         int                    `json:"order"`
	Summary       string                 `json:"summary"`
	ScriptText    string                 `json:"script_text"`
	VisualPrompt  *VisualPrompt          `json:"visual_prompt,omitempty"`
	DurationSec   int                    `json:"duration_sec"`
	Platform      Platform               `json:"platform,omitempty"`
	AvatarPresent bool                   `json:"avatar_present"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// MergeMetadata adds entries to the scene's metadata without replacing
// what earlier stages recorded.
func (s *Scene) MergeMetadata(extra map[string]interface{}) {
	if s.Metadata == nil {
		s.Metadata = make(map[string]interface{}, len(extra))
	}
	for k, v := range extra {
		s.Metadata[k] = v
	}
}

// AddCorrection appends a human-readable correction note to the scene's
// audit trail in metadata.
func (s *Scene) AddCorrection(note string) {
	if s.Metadata == nil {
		s.Metadata = make(map[string]interface{})
	}
	var list []string
	switch prev := s.Metadata["corrections"].(type) {
	case []string:
		list = prev
	case []interface{}: // state reloaded from JSON
		for _, v := range prev {
			if str, ok := v.(string); ok {
				list = append(list, str)
			}
		}
	}
	s.Metadata["corrections"] = append(list, note)
}

// ValidationReport is the structured result of one validation pass over the
// full scene sequence. Valid is true iff CriticalErrors is empty.
type ValidationReport struct {
	Valid          bool     `json:"valid"`
	Errors         []string `json:"errors"`
	Warnings       []string `json:"warnings"`
	CriticalErrors []string `json:"critical_errors"`
	QualityScore   float64  `json:"quality_score"`
}

// StageMetrics is a small bag of counters recorded by one stage.
type StageMetrics map[string]float64

// HistoryEntry is one append-only audit log line. Entries are never mutated
// once appended.
type HistoryEntry struct {
	Stage     string    `json:"stage"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details,omitempty"`
}

// GlobalContext is the run-wide narrative context the continuity pass
// derives once and applies to every scene.
type GlobalContext struct {
	TimePeriod   string   `json:"time_period"`
	Locations    []string `json:"locations,omitempty"`
	ColorPalette string   `json:"color_palette,omitempty"`
	VisualStyle  string   `json:"visual_style,omitempty"`
}

// PipelineState is the single mutable document threaded through all stages
// of one run. It is owned exclusively by the orchestrator and never shared
// across concurrent runs.
type PipelineState struct {
	ScriptID        string      `json:"script_id"`
	ScriptText      string      `json:"script_text"`
	DurationMinutes int         `json:"duration_minutes"`
	DurationSeconds int         `json:"duration_seconds"`
	VideoFormat     VideoFormat `json:"video_format"`
	VideoType       VideoType   `json:"video_type"`
	Orientation     Orientation `json:"orientation"`
	Language        string      `json:"language"`

	Scenes     []Scene                 `json:"scenes"`
	Context    *GlobalContext          `json:"global_context,omitempty"`
	Continuity map[string]float64      `json:"continuity,omitempty"`
	Validation *ValidationReport       `json:"validation,omitempty"`
	Metrics    map[string]StageMetrics `json:"metrics"`
	History    []HistoryEntry          `json:"history"`
}

// NewPipelineState builds the initial state for one run from immutable inputs.
func NewPipelineState(scriptID, scriptText string, durationMin, durationSec int, format VideoFormat, vtype VideoType, orientation Orientation, language string) *PipelineState {
	return &PipelineState{
		ScriptID:        scriptID,
		ScriptText:      scriptText,
		DurationMinutes: durationMin,
		DurationSeconds: durationSec,
		VideoFormat:     format,
		VideoType:       vtype,
		Orientation:     orientation,
		Language:        language,
		Metrics:         make(map[string]StageMetrics),
	}
}

// RecordMetrics stores one stage's counters. Later stages add their own
// entries; existing entries are never overwritten.
func (st *PipelineState) RecordMetrics(stage string, m StageMetrics) {
	if _, exists := st.Metrics[stage]; exists {
		return
	}
	st.Metrics[stage] = m
}

// AppendHistory adds one audit entry to the run log.
func (st *PipelineState) AppendHistory(stage, action string, at time.Time, details string) {
	st.History = append(st.History, HistoryEntry{
		Stage:     stage,
		Action:    action,
		Timestamp: at,
		Details:   details,
	})
}

// SceneByID returns a pointer into Scenes for in-place updates, or nil when
// the id is unknown.
func (st *PipelineState) SceneByID(id string) *Scene {
	for i := range st.Scenes {
		if st.Scenes[i].ID == id {
			return &st.Scenes[i]
		}
	}
	return nil
}

// KnownPlatform reports whether p is one of the supported generation
// platforms.
func KnownPlatform(p Platform) bool {
	switch p {
	case PlatformGeminiVeo, PlatformSora, PlatformHeyGen:
		return true
	}
	return false
}

// EnvelopeScene is the flattened per-scene record handed to downstream
// rendering systems.
type EnvelopeScene struct {
	ID            int           `json:"id"`
	SceneID       string        `json:"scene_id"`
	Summary       string        `json:"summary"`
	ScriptText    string        `json:"script_text"`
	DurationSec   int           `json:"duration_sec"`
	VisualPrompt  *VisualPrompt `json:"visual_prompt,omitempty"`
	Platform      Platform      `json:"platform"`
	AvatarPresent bool          `json:"avatar_present"`
}

// ProjectSummary describes the whole run in the output envelope.
type ProjectSummary struct {
	PlatformMode              VideoFormat `json:"platform_mode"`
	NumScenes                 int         `json:"num_scenes"`
	Language                  string      `json:"language"`
	TotalEstimatedDurationMin float64     `json:"total_estimated_duration_min"`
}

// OutputEnvelope is the terminal result of one pipeline run. A run returns
// either a complete envelope (possibly degraded, QualityScore < 1) or a
// typed failure — never a silently-empty result.
type OutputEnvelope struct {
	Project      ProjectSummary          `json:"project"`
	Scenes       []EnvelopeScene         `json:"scenes"`
	Metrics      map[string]StageMetrics `json:"metrics"`
	QualityScore float64                 `json:"quality_score"`
	State        *PipelineState          `json:"state"`
}
