package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyboard-pipeline/types"
)

func TestSolveDurationAlwaysLegal(t *testing.T) {
	legal := map[types.Platform]map[int]bool{
		types.PlatformGeminiVeo: {4: true, 6: true, 8: true},
		types.PlatformSora:      {4: true, 8: true, 12: true},
	}

	for p, set := range legal {
		for requested := 0; requested <= 120; requested++ {
			result, err := SolveDuration(p, requested, types.FormatSocial)
			require.NoError(t, err)
			assert.True(t, set[result.Corrected], "%s: %d corrected to illegal %d", p, requested, result.Corrected)
			assert.Equal(t, set[requested], result.Valid, "%s: valid flag wrong for %d", p, requested)
		}
	}
}

func TestSolveDurationTieBreaksToSmaller(t *testing.T) {
	cases := []struct {
		platform  types.Platform
		requested int
		want      int
	}{
		{types.PlatformGeminiVeo, 5, 4},
		{types.PlatformGeminiVeo, 7, 6},
		{types.PlatformSora, 6, 4},
		{types.PlatformSora, 10, 8},
	}
	for _, tc := range cases {
		result, err := SolveDuration(tc.platform, tc.requested, types.FormatSocial)
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, tc.want, result.Corrected, "%s requested %d", tc.platform, tc.requested)
	}
}

func TestSolveDurationHeyGenClampsByFormat(t *testing.T) {
	for requested := 0; requested <= 120; requested++ {
		result, err := SolveDuration(types.PlatformHeyGen, requested, types.FormatEducational)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.Corrected, 30)
		assert.LessOrEqual(t, result.Corrected, 45)
		assert.Equal(t, requested >= 30 && requested <= 45, result.Valid)
	}

	result, err := SolveDuration(types.PlatformHeyGen, 10, types.FormatSocial)
	require.NoError(t, err)
	assert.Equal(t, 15, result.Corrected)

	result, err = SolveDuration(types.PlatformHeyGen, 90, types.FormatLongform)
	require.NoError(t, err)
	assert.Equal(t, 60, result.Corrected)

	result, err = SolveDuration(types.PlatformHeyGen, 50, types.FormatLongform)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 50, result.Corrected)
}

func TestSolveDurationUnknownPlatform(t *testing.T) {
	_, err := SolveDuration(types.Platform("runway"), 8, types.FormatSocial)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownPlatform)
}
