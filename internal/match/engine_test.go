package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"resumatch/internal/domain"
)

type fakeStore struct {
	docs          map[string]*domain.Document
	chunkCounts   map[string]int
	pairwise      []domain.ChunkMatch
	overallSim    float64
}

func (f *fakeStore) UpsertDocument(ctx context.Context, doc *domain.Document) (string, error) { return doc.DocumentID, nil }
func (f *fakeStore) InsertChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error { return nil }
func (f *fakeStore) SetStatus(ctx context.Context, documentID string, status domain.EmbeddingStatus) error { return nil }
func (f *fakeStore) GetDocument(ctx context.Context, documentID, fileID string) (*domain.Document, error) {
	d, ok := f.docs[documentID]
	if !ok {
		return nil, domain.NewValidationError("fake", "not found")
	}
	return d, nil
}
func (f *fakeStore) ListDocuments(ctx context.Context) ([]domain.Document, error) { return nil, nil }
func (f *fakeStore) DeleteDocument(ctx context.Context, documentID string) error  { return nil }
func (f *fakeStore) CountChunks(ctx context.Context, documentID string) (int, error) {
	return f.chunkCounts[documentID], nil
}
func (f *fakeStore) MatchDocuments(ctx context.Context, queryVec []float32, k int, filterFileType, filterDocumentID string, minSimilarity float64) ([]domain.ChunkMatch, error) {
	return nil, nil
}
func (f *fakeStore) MatchDocumentsByFile(ctx context.Context, resumeDocumentID, jdDocumentID string, topK int) ([]domain.ChunkMatch, error) {
	return f.pairwise, nil
}
func (f *fakeStore) OverallSimilarity(ctx context.Context, docAID, docBID string) (float64, error) {
	return f.overallSim, nil
}

func baseStore() *fakeStore {
	return &fakeStore{
		docs: map[string]*domain.Document{
			"resume-1": {DocumentID: "resume-1", CleanedText: "react typescript node postgres"},
			"jd-1":     {DocumentID: "jd-1", CleanedText: "react typescript next.js postgres"},
		},
		chunkCounts: map[string]int{"resume-1": 3, "jd-1": 3},
		pairwise: []domain.ChunkMatch{
			{ResumeChunkIndex: 0, JDChunkIndex: 0, SectionType: domain.SectionRequirements, Similarity: 0.9},
			{ResumeChunkIndex: 1, JDChunkIndex: 0, SectionType: domain.SectionRequirements, Similarity: 0.7},
			{ResumeChunkIndex: 0, JDChunkIndex: 1, SectionType: domain.SectionTechnical, Similarity: 0.8},
		},
		overallSim: 0.85,
	}
}

func TestMatch_ScoreAndGradeBounds(t *testing.T) {
	e := New(baseStore())

	res, err := e.Match(context.Background(), "resume-1", "jd-1")

	require.NoError(t, err)
	require.GreaterOrEqual(t, res.MatchScore, 0)
	require.LessOrEqual(t, res.MatchScore, 100)
	require.Contains(t, []domain.Grade{domain.GradeS, domain.GradeA, domain.GradeB, domain.GradeC, domain.GradeD}, res.MatchGrade)
}

func TestMatch_InsufficientData(t *testing.T) {
	store := baseStore()
	store.chunkCounts["resume-1"] = 0

	e := New(store)
	res, err := e.Match(context.Background(), "resume-1", "jd-1")

	require.NoError(t, err)
	require.True(t, res.InsufficientData)
	require.Equal(t, 0, res.MatchScore)
	require.Equal(t, domain.GradeD, res.MatchGrade)
}

func TestMatch_SimilarTechBonusIsMonotonic(t *testing.T) {
	store := baseStore()
	e := New(store)
	withoutBonus, err := e.Match(context.Background(), "resume-1", "jd-1")
	require.NoError(t, err)

	store.docs["resume-1"].CleanedText += " react" // already present, no-op
	withSameBonus, err := e.Match(context.Background(), "resume-1", "jd-1")
	require.NoError(t, err)
	require.Equal(t, withoutBonus.MatchScore, withSameBonus.MatchScore)
}

func TestMatch_SectionScoresSortedByWeightThenScore(t *testing.T) {
	e := New(baseStore())

	res, err := e.Match(context.Background(), "resume-1", "jd-1")
	require.NoError(t, err)

	for i := 1; i < len(res.SectionScores); i++ {
		require.GreaterOrEqual(t, res.SectionScores[i-1].Weight, res.SectionScores[i].Weight)
	}
}

func TestMatch_OverallSimilarityWithinBounds(t *testing.T) {
	e := New(baseStore())

	res, err := e.Match(context.Background(), "resume-1", "jd-1")
	require.NoError(t, err)
	require.GreaterOrEqual(t, res.OverallSimilarity, 0.0)
	require.LessOrEqual(t, res.OverallSimilarity, 1.0)
}
