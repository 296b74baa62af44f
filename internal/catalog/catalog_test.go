package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCatalog_EmbeddedDefaultHasEnoughEntries(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	require.GreaterOrEqual(t, c.Size(), 80)
}

func TestLoadCatalog_ValidateFindsNoErrors(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	require.Empty(t, c.Validate())
}

func TestLookup_ResolvesAlias(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)

	direct := c.Lookup("kubernetes")
	aliased := c.Lookup("k8s")
	require.NotEmpty(t, direct)
	require.Equal(t, direct, aliased)
}

func TestLookup_UnknownKeywordReturnsEmpty(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)

	require.Empty(t, c.Lookup("totally-unknown-keyword-xyz"))
	require.False(t, c.HasKeyword("totally-unknown-keyword-xyz"))
}

func TestLookup_SortedByDifficultyThenTitle(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)

	rank := map[string]int{"beginner": 0, "intermediate": 1, "advanced": 2}
	res := c.Lookup("go")
	for i := 1; i < len(res); i++ {
		require.LessOrEqual(t, rank[string(res[i-1].Difficulty)], rank[string(res[i].Difficulty)])
	}
}

func TestLookupAny_DeduplicatesAndRespectsLimit(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)

	out := c.LookupAny([]string{"go", "golang"}, 2, nil)
	require.LessOrEqual(t, len(out), 2)

	seen := make(map[string]bool)
	for _, r := range out {
		require.False(t, seen[r.URL])
		seen[r.URL] = true
	}
}

func TestLookupAny_ExcludesGivenURLs(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)

	first := c.LookupAny([]string{"react"}, 1, nil)
	require.NotEmpty(t, first)

	exclude := map[string]bool{first[0].URL: true}
	second := c.LookupAny([]string{"react"}, 1, exclude)
	if len(second) > 0 {
		require.NotEqual(t, first[0].URL, second[0].URL)
	}
}
