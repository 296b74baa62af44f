package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"resumatch/internal/domain"
	"resumatch/internal/extract"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(context.Context, string, []byte) (extract.Result, error) {
	if f.err != nil {
		return extract.Result{}, f.err
	}
	return extract.Result{
		Text: f.text,
		Metadata: map[string]any{
			"parser_used":        "fake-parser",
			"extraction_time_ms": int64(7),
		},
	}, nil
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeStore struct {
	docs       map[string]*domain.Document
	chunkCount map[string]int
	statuses   []domain.EmbeddingStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]*domain.Document), chunkCount: make(map[string]int)}
}

func (s *fakeStore) UpsertDocument(_ context.Context, doc *domain.Document) (string, error) {
	cp := *doc
	s.docs[doc.DocumentID] = &cp
	return doc.DocumentID, nil
}

func (s *fakeStore) InsertChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	s.chunkCount[documentID] = len(chunks)
	return nil
}

func (s *fakeStore) SetStatus(_ context.Context, documentID string, status domain.EmbeddingStatus) error {
	s.statuses = append(s.statuses, status)
	if d, ok := s.docs[documentID]; ok {
		d.EmbeddingStatus = status
	}
	return nil
}

func (s *fakeStore) GetDocument(_ context.Context, documentID, fileID string) (*domain.Document, error) {
	if d, ok := s.docs[documentID]; ok {
		return d, nil
	}
	for _, d := range s.docs {
		if d.FileID == fileID {
			return d, nil
		}
	}
	return nil, errors.New("not found")
}

func (s *fakeStore) ListDocuments(context.Context) ([]domain.Document, error) { return nil, nil }
func (s *fakeStore) DeleteDocument(context.Context, string) error             { return nil }

func (s *fakeStore) CountChunks(_ context.Context, documentID string) (int, error) {
	return s.chunkCount[documentID], nil
}

func (s *fakeStore) MatchDocuments(context.Context, []float32, int, string, string, float64) ([]domain.ChunkMatch, error) {
	return nil, nil
}

func (s *fakeStore) MatchDocumentsByFile(context.Context, string, string, int) ([]domain.ChunkMatch, error) {
	return nil, nil
}

func (s *fakeStore) OverallSimilarity(context.Context, string, string) (float64, error) {
	return 0, nil
}

func TestIngest_SuccessMarksCompleted(t *testing.T) {
	store := newFakeStore()
	o := New(&fakeExtractor{text: "Experience\nWorked as an engineer for five years building distributed systems."}, &fakeEmbedder{}, store, nil, NoopPublisher{})

	doc, err := o.Ingest(context.Background(), "resume.txt", domain.FileTypeResume, []byte("irrelevant"))

	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, doc.EmbeddingStatus)
	require.NotEmpty(t, doc.DocumentID)
	require.NotEmpty(t, doc.FileID)
	require.NotEmpty(t, doc.ContentHash)
	require.Equal(t, "fake-parser", doc.ParserUsed)
	require.Equal(t, int64(7), doc.ExtractionTimeMS)
}

func TestIngest_ExtractionFailureReturnsError(t *testing.T) {
	store := newFakeStore()
	o := New(&fakeExtractor{err: errors.New("corrupt pdf")}, &fakeEmbedder{}, store, nil, NoopPublisher{})

	doc, err := o.Ingest(context.Background(), "resume.pdf", domain.FileTypeResume, []byte("irrelevant"))

	require.Error(t, err)
	require.Nil(t, doc)
}

func TestIngest_EmbeddingFailureMarksFailed(t *testing.T) {
	store := newFakeStore()
	o := New(&fakeExtractor{text: "Experience\nWorked as an engineer for five years building distributed systems."}, &fakeEmbedder{err: errors.New("upstream unavailable")}, store, nil, NoopPublisher{})

	doc, err := o.Ingest(context.Background(), "resume.txt", domain.FileTypeResume, []byte("irrelevant"))

	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, doc.EmbeddingStatus)
}

func TestIngest_EmptyTextCompletesWithNoChunks(t *testing.T) {
	store := newFakeStore()
	o := New(&fakeExtractor{text: ""}, &fakeEmbedder{}, store, nil, NoopPublisher{})

	doc, err := o.Ingest(context.Background(), "empty.txt", domain.FileTypeResume, []byte(""))

	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, doc.EmbeddingStatus)
	count, _ := store.CountChunks(context.Background(), doc.DocumentID)
	require.Equal(t, 0, count)
}

func TestIngest_TwoUploadsOfSameContentGetDistinctIDs(t *testing.T) {
	store := newFakeStore()
	o := New(&fakeExtractor{text: "Experience\nWorked as an engineer for five years building distributed systems."}, &fakeEmbedder{}, store, nil, NoopPublisher{})

	first, err := o.Ingest(context.Background(), "resume.txt", domain.FileTypeResume, []byte("irrelevant"))
	require.NoError(t, err)
	second, err := o.Ingest(context.Background(), "resume.txt", domain.FileTypeResume, []byte("irrelevant"))
	require.NoError(t, err)

	require.NotEqual(t, first.DocumentID, second.DocumentID)
	require.NotEqual(t, first.FileID, second.FileID)
	require.Equal(t, first.ContentHash, second.ContentHash)
}
