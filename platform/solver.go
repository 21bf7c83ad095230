// Package platform holds the pure numeric constraints of the downstream
// video-generation platforms: which clip durations each one accepts and how
// many narration words fit in a clip of a given length.
package platform

import (
	"fmt"

	"storyboard-pipeline/types"
)

// ErrUnknownPlatform is returned when a scene is routed to a platform the
// solver has no duration rules for. This is a structural error, not a
// repairable one.
var ErrUnknownPlatform = fmt.Errorf("unknown platform")

// Discrete legal duration sets, in ascending order.
var (
	geminiVeoDurations = []int{4, 6, 8}
	soraDurations      = []int{4, 8, 12}
)

// HeyGen accepts continuous ranges that depend on the video format.
var heygenRanges = map[types.VideoFormat][2]int{
	types.FormatSocial:      {15, 25},
	types.FormatEducational: {30, 45},
	types.FormatLongform:    {45, 60},
}

// SolveResult reports whether a requested duration was already legal and the
// nearest legal value for the platform.
type SolveResult struct {
	Valid     bool
	Corrected int
}

// SolveDuration maps a requested scene duration to the nearest legal value
// for the platform. For HeyGen the legal range depends on format. On exact
// ties between two discrete legal values the smaller one wins, so a 5s
// request on gemini_veo resolves to 4, not 6.
func SolveDuration(p types.Platform, requested int, format types.VideoFormat) (SolveResult, error) {
	switch p {
	case types.PlatformGeminiVeo:
		return snapToSet(requested, geminiVeoDurations), nil
	case types.PlatformSora:
		return snapToSet(requested, soraDurations), nil
	case types.PlatformHeyGen:
		r, ok := heygenRanges[format]
		if !ok {
			// Unknown format: fall back to the widest avatar range.
			r = [2]int{15, 60}
		}
		return clampToRange(requested, r[0], r[1]), nil
	default:
		return SolveResult{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, p)
	}
}

// LegalDurations returns the discrete legal set for a platform, or nil for
// HeyGen's continuous ranges.
func LegalDurations(p types.Platform) []int {
	switch p {
	case types.PlatformGeminiVeo:
		return geminiVeoDurations
	case types.PlatformSora:
		return soraDurations
	}
	return nil
}

func snapToSet(requested int, legal []int) SolveResult {
	best := legal[0]
	bestDist := abs(requested - best)
	for _, v := range legal[1:] {
		// Strict less keeps the smaller value on exact ties, since the
		// set is ascending.
		if d := abs(requested - v); d < bestDist {
			best, bestDist = v, d
		}
	}
	return SolveResult{Valid: bestDist == 0, Corrected: best}
}

func clampToRange(requested, min, max int) SolveResult {
	switch {
	case requested < min:
		return SolveResult{Valid: false, Corrected: min}
	case requested > max:
		return SolveResult{Valid: false, Corrected: max}
	}
	return SolveResult{Valid: true, Corrected: requested}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
