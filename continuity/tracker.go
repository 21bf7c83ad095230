// Package continuity tracks cross-scene narrative consistency: the time
// period and locations of the story, recurring characters, and the visual
// style notes each scene must carry so the generation platforms render a
// coherent sequence.
package continuity

import (
	"fmt"
	"strings"

	"storyboard-pipeline/types"
)

// periodKeywords maps script keywords to a historical period label. Matched
// in declaration order; first hit wins. The roster covers the Spanish-first
// market plus English equivalents.
var periodKeywords = []struct {
	keyword string
	period  string
}{
	{"segunda guerra mundial", "1940s"},
	{"world war ii", "1940s"},
	{"world war 2", "1940s"},
	{"primera guerra mundial", "1910s"},
	{"world war i", "1910s"},
	{"guerra civil", "1930s"},
	{"imperio romano", "Ancient Rome"},
	{"roman empire", "Ancient Rome"},
	{"antiguo egipto", "Ancient Egypt"},
	{"ancient egypt", "Ancient Egypt"},
	{"medieval", "Medieval era"},
	{"edad media", "Medieval era"},
	{"renacimiento", "Renaissance"},
	{"renaissance", "Renaissance"},
	{"victoriana", "Victorian era"},
	{"victorian", "Victorian era"},
	{"años 20", "1920s"},
	{"años 50", "1950s"},
	{"años 60", "1960s"},
	{"años 80", "1980s"},
	{"años 90", "1990s"},
	{"futuro", "Near future"},
	{"futurista", "Near future"},
	{"futuristic", "Near future"},
}

// locationKeywords maps script keywords to interior/exterior location types.
var locationKeywords = map[string]string{
	"habitación": "interior",
	"oficina":    "interior",
	"cocina":     "interior",
	"salón":      "interior",
	"sala":       "interior",
	"interior":   "interior",
	"room":       "interior",
	"office":     "interior",
	"kitchen":    "interior",
	"calle":      "exterior",
	"bosque":     "exterior",
	"playa":      "exterior",
	"montaña":    "exterior",
	"ciudad":     "exterior",
	"exterior":   "exterior",
	"street":     "exterior",
	"forest":     "exterior",
	"beach":      "exterior",
	"city":       "exterior",
}

const defaultPeriod = "Modern / contemporary"

// ExtractGlobalContext derives the run-wide narrative context from the raw
// script using keyword tables only — no model call. Character roster and
// visual style come from the breakdown and direction stages, not from here.
func ExtractGlobalContext(scriptText string) *types.GlobalContext {
	lower := strings.ToLower(scriptText)

	ctx := &types.GlobalContext{TimePeriod: defaultPeriod}
	for _, pk := range periodKeywords {
		if strings.Contains(lower, pk.keyword) {
			ctx.TimePeriod = pk.period
			break
		}
	}

	seen := make(map[string]bool)
	for keyword, locType := range locationKeywords {
		if strings.Contains(lower, keyword) && !seen[locType] {
			seen[locType] = true
			ctx.Locations = append(ctx.Locations, locType)
		}
	}
	// Map iteration order is random; keep the list deterministic.
	if len(ctx.Locations) == 2 && ctx.Locations[0] == "exterior" {
		ctx.Locations[0], ctx.Locations[1] = ctx.Locations[1], ctx.Locations[0]
	}
	return ctx
}

// EnhancePrompt rewrites a scene's continuity notes from the scenes before
// it: characters that already appeared get an explicit back-reference to
// their first scene, and the global period and palette are restated. Scene i
// only ever references scenes j < i.
//
// The function is idempotent for a fixed prior-scene set: each note is only
// appended when not already present, so a double invocation in the
// orchestration loop cannot duplicate notes.
func EnhancePrompt(scene *types.Scene, prior []types.Scene, ctx *types.GlobalContext) {
	if scene.VisualPrompt == nil {
		return
	}

	for _, character := range scene.VisualPrompt.CharactersInScene {
		if ref, ok := firstAppearance(character, prior); ok {
			appendNote(scene.VisualPrompt, fmt.Sprintf("%s: same visual description as Scene %d", character, ref+1))
		}
	}
	if ctx != nil {
		if ctx.TimePeriod != "" {
			appendNote(scene.VisualPrompt, fmt.Sprintf("Historical context: %s", ctx.TimePeriod))
		}
		if ctx.ColorPalette != "" {
			appendNote(scene.VisualPrompt, fmt.Sprintf("Color palette: %s", ctx.ColorPalette))
		}
	}
}

func firstAppearance(character string, prior []types.Scene) (int, bool) {
	for _, p := range prior {
		if p.VisualPrompt == nil {
			continue
		}
		for _, c := range p.VisualPrompt.CharactersInScene {
			if c == character {
				return p.Order, true
			}
		}
	}
	return 0, false
}

func appendNote(vp *types.VisualPrompt, note string) {
	if strings.Contains(vp.ContinuityNotes, note) {
		return
	}
	if vp.ContinuityNotes != "" {
		vp.ContinuityNotes += " "
	}
	vp.ContinuityNotes += note + "."
}
