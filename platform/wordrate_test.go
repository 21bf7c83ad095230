package platform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("palabra ", n))
}

func TestExpectedWordRangeSpanishShortClip(t *testing.T) {
	min, max := ExpectedWordRange(4, "es")
	assert.Equal(t, 8, min)
	assert.Equal(t, 11, max)
}

func TestExpectedWordRangeFallbackOutsideTable(t *testing.T) {
	// 10s is not in the tuned table: es rate 2.5 → estimate 25, ±10%.
	min, max := ExpectedWordRange(10, "es")
	assert.Equal(t, 22, min)
	assert.Equal(t, 28, max)
}

func TestExpectedWordRangeLanguageNormalization(t *testing.T) {
	esMin, esMax := ExpectedWordRange(8, "es-MX")
	min, max := ExpectedWordRange(8, "es")
	assert.Equal(t, min, esMin)
	assert.Equal(t, max, esMax)

	// Unknown languages use the English table.
	deMin, deMax := ExpectedWordRange(8, "de")
	enMin, enMax := ExpectedWordRange(8, "en")
	assert.Equal(t, enMin, deMin)
	assert.Equal(t, enMax, deMax)
}

func TestValidateTextLengthBoundaries(t *testing.T) {
	for count := 8; count <= 11; count++ {
		check := ValidateTextLength(words(count), 4, "es")
		assert.True(t, check.Valid, "%d words should be valid", count)
	}

	short := ValidateTextLength(words(7), 4, "es")
	assert.False(t, short.Valid)
	assert.True(t, short.TooShort)
	assert.False(t, short.TooLong)
	assert.Equal(t, 7, short.WordCount)

	long := ValidateTextLength(words(13), 4, "es")
	assert.False(t, long.Valid)
	assert.True(t, long.TooLong)
	assert.False(t, long.TooShort)
	assert.Contains(t, long.Message, "max 11")
}

func TestEstimateNarrationSec(t *testing.T) {
	assert.InDelta(t, 10.0, EstimateNarrationSec(words(25), "es"), 0.001)
	assert.InDelta(t, 10.0, EstimateNarrationSec(words(23), "en"), 0.001)
	assert.Zero(t, EstimateNarrationSec("", "es"))
}

func TestTruncateWords(t *testing.T) {
	assert.Equal(t, "one two three...", TruncateWords("one two three four five", 3))
	assert.Equal(t, "one two", TruncateWords("one two", 5))
	assert.Equal(t, "", TruncateWords("one two", 0))
}
