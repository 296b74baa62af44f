package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"resumatch/internal/domain"
)

func sampleResume() string {
	var b strings.Builder
	b.WriteString("Summary\n")
	b.WriteString(strings.Repeat("Experienced backend engineer focused on distributed systems and Go services. ", 40))
	b.WriteString("\n\nExperience\n")
	b.WriteString(strings.Repeat("Built and operated a high-throughput ingestion pipeline at Acme Corp using Go and Postgres. ", 60))
	b.WriteString("\n\nSkills\nGo, Postgres, Kubernetes, React.\n")
	return b.String()
}

func TestChunk_ProducesContiguousIndexes(t *testing.T) {
	chunks, err := Chunk(sampleResume(), domain.FileTypeResume)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, c := range chunks {
		require.Equal(t, i, c.ChunkIndex)
	}
}

func TestChunk_IsDeterministic(t *testing.T) {
	text := sampleResume()

	a, err := Chunk(text, domain.FileTypeResume)
	require.NoError(t, err)
	b, err := Chunk(text, domain.FileTypeResume)
	require.NoError(t, err)

	require.Equal(t, a, b)
}

func TestChunk_RespectsTokenBudget(t *testing.T) {
	chunks, err := Chunk(sampleResume(), domain.FileTypeResume)
	require.NoError(t, err)

	for _, c := range chunks[:len(chunks)-1] {
		require.LessOrEqual(t, c.TokenCount, maxTokens+overlapTokens)
	}
}

func TestChunk_EmptyInput(t *testing.T) {
	chunks, err := Chunk("   ", domain.FileTypeResume)
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestChunk_AssignsSectionTypes(t *testing.T) {
	chunks, err := Chunk(sampleResume(), domain.FileTypeResume)
	require.NoError(t, err)

	var sawSkills bool
	for _, c := range chunks {
		if c.SectionType == domain.SectionSkills {
			sawSkills = true
		}
	}
	require.True(t, sawSkills)
}
