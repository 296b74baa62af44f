package keyword

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtract_FiltersStopWordsAndShortTokens(t *testing.T) {
	kw := Extract("You will work with our team on a new role for the job")
	require.Empty(t, kw)
}

func TestExtract_PreservesTechSuffixes(t *testing.T) {
	kw := Extract("Proficient in C++ and Node.js, with C# experience")
	require.True(t, kw["c++"])
	require.True(t, kw["node.js"])
	require.True(t, kw["c#"])
}

func TestExtract_LowercasesAndDedupes(t *testing.T) {
	kw := Extract("Kubernetes kubernetes KUBERNETES")
	require.Len(t, kw, 1)
	require.True(t, kw["kubernetes"])
}

func TestExtract_DropsTrailingPeriod(t *testing.T) {
	kw := Extract("Experience with docker.")
	require.True(t, kw["docker"])
	require.False(t, kw["docker."])
}

func TestExtract_KeepsKnownShortTechTokens(t *testing.T) {
	kw := Extract("Five years of Go and R experience")
	require.True(t, kw["go"])
	require.True(t, kw["r"])
}

func TestExtract_StillDropsOtherTwoLetterWords(t *testing.T) {
	kw := Extract("an ok hi team")
	require.False(t, kw["ok"])
	require.False(t, kw["hi"])
}

func TestNormalize_StripsWhitespaceAndLowercases(t *testing.T) {
	require.Equal(t, "kubernetes", Normalize(" Kubernetes "))
	require.Equal(t, "nodejs", Normalize("node js"))
}

func TestSorted_ReturnsDeterministicOrder(t *testing.T) {
	set := map[string]bool{"zebra": true, "alpha": true, "middle": true}
	require.Equal(t, []string{"alpha", "middle", "zebra"}, Sorted(set))
}
