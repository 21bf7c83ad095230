package platform

import (
	"fmt"
	"math"
	"strings"
)

// Narration speed in words per second. Spanish narration runs slightly
// faster than English at natural pace.
const (
	rateSpanish = 2.5
	rateEnglish = 2.3
	rateDefault = 2.3
)

type wordRange struct {
	Min int
	Max int
}

// Pre-tuned ranges for the durations the platforms commonly produce. Short
// clips get proportionally wider tolerance than the naive linear formula
// would allow.
var tunedRangesES = map[int]wordRange{
	4:  {8, 11},
	5:  {10, 14},
	6:  {12, 17},
	7:  {14, 20},
	8:  {16, 22},
	12: {24, 33},
	15: {30, 42},
	20: {40, 55},
	25: {50, 69},
	30: {60, 83},
	35: {70, 97},
	45: {90, 124},
	50: {100, 138},
	60: {120, 165},
}

var tunedRangesEN = map[int]wordRange{
	4:  {7, 11},
	5:  {9, 13},
	6:  {11, 16},
	7:  {12, 18},
	8:  {14, 21},
	12: {22, 31},
	15: {27, 38},
	20: {36, 51},
	25: {46, 64},
	30: {55, 76},
	35: {64, 89},
	45: {82, 114},
	50: {92, 127},
	60: {110, 152},
}

func narrationRate(language string) float64 {
	switch normalizeLanguage(language) {
	case "es":
		return rateSpanish
	case "en":
		return rateEnglish
	}
	return rateDefault
}

func normalizeLanguage(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if i := strings.IndexAny(language, "-_"); i > 0 {
		language = language[:i]
	}
	return language
}

// ExpectedWordRange returns how many narration words fit a clip of the given
// duration in the given language. Durations outside the tuned table fall
// back to ±10% around the rate-derived estimate.
func ExpectedWordRange(durationSec int, language string) (minWords, maxWords int) {
	var tuned map[int]wordRange
	if normalizeLanguage(language) == "es" {
		tuned = tunedRangesES
	} else {
		tuned = tunedRangesEN
	}
	if r, ok := tuned[durationSec]; ok {
		return r.Min, r.Max
	}
	estimated := float64(durationSec) * narrationRate(language)
	return int(math.Floor(estimated * 0.9)), int(math.Ceil(estimated * 1.1))
}

// EstimateNarrationSec estimates how long the text takes to narrate at
// natural pace in the given language.
func EstimateNarrationSec(text, language string) float64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return float64(words) / narrationRate(language)
}

// TextCheck is the result of comparing narration length against a scene
// duration. Over-length is critical (it breaks lip-sync and avatar timing);
// under-length is only a warning.
type TextCheck struct {
	Valid     bool
	WordCount int
	MinWords  int
	MaxWords  int
	TooLong   bool
	TooShort  bool
	Message   string
}

// ValidateTextLength counts narration words and classifies the text against
// the expected range for the duration.
func ValidateTextLength(text string, durationSec int, language string) TextCheck {
	minWords, maxWords := ExpectedWordRange(durationSec, language)
	count := len(strings.Fields(text))
	check := TextCheck{
		WordCount: count,
		MinWords:  minWords,
		MaxWords:  maxWords,
	}
	switch {
	case count > maxWords:
		check.TooLong = true
		check.Message = fmt.Sprintf("narration has %d words, max %d for %ds", count, maxWords, durationSec)
	case count < minWords:
		check.TooShort = true
		check.Message = fmt.Sprintf("narration has %d words, min %d for %ds", count, minWords, durationSec)
	default:
		check.Valid = true
	}
	return check
}

// TruncateWords cuts text to at most maxWords whole words, appending an
// ellipsis when anything was removed.
func TruncateWords(text string, maxWords int) string {
	fields := strings.Fields(text)
	if len(fields) <= maxWords {
		return text
	}
	if maxWords <= 0 {
		return ""
	}
	return strings.Join(fields[:maxWords], " ") + "..."
}
