package pipeline

import "strings"

// Spanish function words that rarely appear in English prose.
var spanishMarkers = []string{
	" el ", " la ", " los ", " las ", " una ", " que ", " pero ",
	" porque ", " cuando ", " también ", " más ", " está ", " años ",
}

// detectLanguage is a cheap fallback for runs that do not declare a
// narration language. It only distinguishes Spanish from everything else,
// which is all the word-rate model differentiates anyway.
func detectLanguage(scriptText string) string {
	lower := " " + strings.ToLower(scriptText) + " "
	hits := 0
	for _, marker := range spanishMarkers {
		hits += strings.Count(lower, marker)
	}
	words := len(strings.Fields(scriptText))
	if words > 0 && float64(hits)/float64(words) > 0.04 {
		return "es"
	}
	return "en"
}
