package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/route/param"
	"github.com/stretchr/testify/require"

	"resumatch/internal/api/dto"
	"resumatch/internal/catalog"
	"resumatch/internal/domain"
	"resumatch/internal/extract"
	"resumatch/internal/feedback"
	"resumatch/internal/ingest"
	"resumatch/internal/match"
	"resumatch/internal/roadmap"
)

// fakeStore is a minimal vectorstore.Store double, keyed by document_id with
// a secondary file_id index, enough to drive the handler and match.Engine
// without a database.
type fakeStore struct {
	byDocID     map[string]*domain.Document
	byFileID    map[string]*domain.Document
	chunkCounts map[string]int
	deleted     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byDocID:     make(map[string]*domain.Document),
		byFileID:    make(map[string]*domain.Document),
		chunkCounts: make(map[string]int),
	}
}

func (s *fakeStore) put(doc *domain.Document, chunks int) {
	s.byDocID[doc.DocumentID] = doc
	s.byFileID[doc.FileID] = doc
	s.chunkCounts[doc.DocumentID] = chunks
}

func (s *fakeStore) UpsertDocument(_ context.Context, doc *domain.Document) (string, error) {
	s.put(doc, 0)
	return doc.DocumentID, nil
}

func (s *fakeStore) InsertChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	s.chunkCounts[documentID] = len(chunks)
	return nil
}

func (s *fakeStore) SetStatus(_ context.Context, documentID string, status domain.EmbeddingStatus) error {
	if d, ok := s.byDocID[documentID]; ok {
		d.EmbeddingStatus = status
	}
	return nil
}

func (s *fakeStore) GetDocument(_ context.Context, documentID, fileID string) (*domain.Document, error) {
	if documentID != "" {
		if d, ok := s.byDocID[documentID]; ok {
			return d, nil
		}
	} else if d, ok := s.byFileID[fileID]; ok {
		return d, nil
	}
	return nil, domain.NewValidationError("vectorstore.GetDocument", "document not found")
}

func (s *fakeStore) ListDocuments(context.Context) ([]domain.Document, error) {
	out := make([]domain.Document, 0, len(s.byDocID))
	for _, d := range s.byDocID {
		out = append(out, *d)
	}
	return out, nil
}

func (s *fakeStore) DeleteDocument(_ context.Context, documentID string) error {
	s.deleted = append(s.deleted, documentID)
	delete(s.byDocID, documentID)
	return nil
}

func (s *fakeStore) CountChunks(_ context.Context, documentID string) (int, error) {
	return s.chunkCounts[documentID], nil
}

func (s *fakeStore) MatchDocuments(context.Context, []float32, int, string, string, float64) ([]domain.ChunkMatch, error) {
	return nil, nil
}

func (s *fakeStore) MatchDocumentsByFile(context.Context, string, string, int) ([]domain.ChunkMatch, error) {
	return []domain.ChunkMatch{
		{ResumeChunkIndex: 0, JDChunkIndex: 0, Similarity: 0.9, SectionType: domain.SectionRequirements, ResumeExcerpt: "built react apps", JDExcerpt: "needs react experience"},
	}, nil
}

func (s *fakeStore) OverallSimilarity(context.Context, string, string) (float64, error) {
	return 0.8, nil
}

// fakeExtractor and fakeEmbedder let Upload drive a real ingest.Orchestrator
// without touching a PDF parser or an embedding provider.
type fakeExtractor struct{}

func (fakeExtractor) Extract(_ context.Context, _ string, data []byte) (extract.Result, error) {
	return extract.Result{Text: string(data), Metadata: map[string]any{"parser_used": "plaintext"}}, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func completedDoc(docID, fileID string) *domain.Document {
	return &domain.Document{
		DocumentID:      docID,
		FileID:          fileID,
		Filename:        fileID + ".txt",
		FileType:        domain.FileTypeResume,
		CleanedText:     "built react and postgres services",
		EmbeddingStatus: domain.StatusCompleted,
		CreatedAt:       time.Now(),
	}
}

func newTestHandler(store *fakeStore) *Handler {
	cat, _ := catalog.LoadCatalog("")
	orchestrator := ingest.New(fakeExtractor{}, fakeEmbedder{}, store, nil, ingest.NoopPublisher{})
	return New(store, orchestrator, match.New(store), feedback.New(nil), roadmap.New(nil, cat), cat)
}

func decodeEnvelope(t *testing.T, body []byte) dto.Envelope {
	t.Helper()
	var env dto.Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func TestHealth_ReturnsOK(t *testing.T) {
	h := newTestHandler(newFakeStore())
	c := app.NewContext(16)

	h.Health(context.Background(), c)

	require.Equal(t, consts.StatusOK, c.Response.StatusCode())
	require.Contains(t, string(c.Response.Body()), `"ok"`)
}

func TestDocumentStatus_UnknownFileIDReturns400(t *testing.T) {
	h := newTestHandler(newFakeStore())
	c := app.NewContext(16)
	c.Params = append(c.Params, param.Param{Key: "file_id", Value: "missing"})

	h.DocumentStatus(context.Background(), c)

	require.Equal(t, consts.StatusBadRequest, c.Response.StatusCode())
	env := decodeEnvelope(t, c.Response.Body())
	require.False(t, env.Success)
}

func TestDocumentStatus_KnownFileIDReturnsDocument(t *testing.T) {
	store := newFakeStore()
	store.put(completedDoc("doc-1", "file-1"), 3)
	h := newTestHandler(store)
	c := app.NewContext(16)
	c.Params = append(c.Params, param.Param{Key: "file_id", Value: "file-1"})

	h.DocumentStatus(context.Background(), c)

	require.Equal(t, consts.StatusOK, c.Response.StatusCode())
	var resp dto.DocumentStatusResponse
	require.NoError(t, json.Unmarshal(c.Response.Body(), &resp))
	require.Equal(t, "doc-1", resp.DocumentID)
	require.Equal(t, 3, resp.ChunkCount)
}

func TestListDocuments_ReturnsEnvelopeWithData(t *testing.T) {
	store := newFakeStore()
	store.put(completedDoc("doc-1", "file-1"), 1)
	h := newTestHandler(store)
	c := app.NewContext(16)

	h.ListDocuments(context.Background(), c)

	require.Equal(t, consts.StatusOK, c.Response.StatusCode())
	env := decodeEnvelope(t, c.Response.Body())
	require.True(t, env.Success)
}

func TestDeleteDocument_RemovesDocumentFromStore(t *testing.T) {
	store := newFakeStore()
	store.put(completedDoc("doc-1", "file-1"), 1)
	h := newTestHandler(store)
	c := app.NewContext(16)
	c.Params = append(c.Params, param.Param{Key: "file_id", Value: "file-1"})

	h.DeleteDocument(context.Background(), c)

	require.Equal(t, consts.StatusOK, c.Response.StatusCode())
	require.Equal(t, []string{"doc-1"}, store.deleted)
}

func postJSON(c *app.RequestContext, body any) {
	b, _ := json.Marshal(body)
	c.Request.Header.SetContentTypeBytes([]byte("application/json"))
	c.Request.SetBody(b)
	c.Request.Header.SetMethod("POST")
}

func TestMatch_MissingFieldsReturns400(t *testing.T) {
	h := newTestHandler(newFakeStore())
	c := app.NewContext(16)
	postJSON(c, map[string]string{})

	h.Match(context.Background(), c)

	require.Equal(t, consts.StatusBadRequest, c.Response.StatusCode())
}

func TestMatch_BothDocumentsCompletedReturnsScore(t *testing.T) {
	store := newFakeStore()
	store.put(completedDoc("resume-1", "resume-file"), 2)
	store.put(completedDoc("jd-1", "jd-file"), 2)
	h := newTestHandler(store)
	c := app.NewContext(16)
	postJSON(c, dto.MatchRequest{ResumeDocumentID: "resume-1", JDDocumentID: "jd-1"})

	h.Match(context.Background(), c)

	require.Equal(t, consts.StatusOK, c.Response.StatusCode())
	env := decodeEnvelope(t, c.Response.Body())
	require.True(t, env.Success)
}

func TestMatch_NotReadyDocumentReturns422(t *testing.T) {
	store := newFakeStore()
	pending := completedDoc("resume-1", "resume-file")
	pending.EmbeddingStatus = domain.StatusProcessing
	store.put(pending, 0)
	store.put(completedDoc("jd-1", "jd-file"), 2)
	h := newTestHandler(store)
	c := app.NewContext(16)
	postJSON(c, dto.MatchRequest{ResumeDocumentID: "resume-1", JDDocumentID: "jd-1"})

	h.Match(context.Background(), c)

	require.Equal(t, consts.StatusUnprocessableEntity, c.Response.StatusCode())
}

func TestMatch_UnknownDocumentReturns422(t *testing.T) {
	h := newTestHandler(newFakeStore())
	c := app.NewContext(16)
	postJSON(c, dto.MatchRequest{ResumeDocumentID: "nope", JDDocumentID: "also-nope"})

	h.Match(context.Background(), c)

	require.Equal(t, consts.StatusUnprocessableEntity, c.Response.StatusCode())
	env := decodeEnvelope(t, c.Response.Body())
	require.False(t, env.Success)
}

func TestRoadmap_UnknownDocumentReturns422(t *testing.T) {
	h := newTestHandler(newFakeStore())
	c := app.NewContext(16)
	postJSON(c, dto.RoadmapRequest{ResumeID: "nope", JDID: "also-nope"})

	h.Roadmap(context.Background(), c)

	require.Equal(t, consts.StatusUnprocessableEntity, c.Response.StatusCode())
}

func TestCatalogResources_ReturnsEnvelope(t *testing.T) {
	h := newTestHandler(newFakeStore())
	c := app.NewContext(16)

	h.CatalogResources(context.Background(), c)

	require.Equal(t, consts.StatusOK, c.Response.StatusCode())
	env := decodeEnvelope(t, c.Response.Body())
	require.True(t, env.Success)
}

func TestExcerptsFrom_CapsAtTwoPerSection(t *testing.T) {
	result := &domain.MatchResult{
		ChunkMatches: []domain.ChunkMatch{
			{SectionType: domain.SectionRequirements, ResumeExcerpt: "a1", JDExcerpt: "b1"},
			{SectionType: domain.SectionRequirements, ResumeExcerpt: "a2", JDExcerpt: "b2"},
			{SectionType: domain.SectionRequirements, ResumeExcerpt: "a3", JDExcerpt: "b3"},
			{SectionType: domain.SectionTechnical, ResumeExcerpt: "c1", JDExcerpt: "d1"},
		},
	}

	resumeEx, jdEx := excerptsFrom(result)
	require.Len(t, resumeEx, 3) // 2 requirements + 1 technical
	require.Len(t, jdEx, 3)
}

func TestUpload_MissingFileFieldReturns400(t *testing.T) {
	h := newTestHandler(newFakeStore())
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("file_type", "resume"))
	require.NoError(t, w.Close())

	c := ut.CreateUtRequestContext(consts.MethodPost, "/api/v1/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: w.FormDataContentType()},
	)

	h.Upload(context.Background(), c)

	require.Equal(t, consts.StatusBadRequest, c.Response.StatusCode())
	env := decodeEnvelope(t, c.Response.Body())
	require.False(t, env.Success)
	require.Contains(t, env.Message, "file field is required")
}

func TestUpload_WithFileFieldIngestsAndReturnsDocument(t *testing.T) {
	h := newTestHandler(newFakeStore())

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("file", "resume.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Experience\nBuilt distributed systems for five years."))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	c := ut.CreateUtRequestContext(consts.MethodPost, "/api/v1/upload",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: w.FormDataContentType()},
	)

	h.Upload(context.Background(), c)

	require.Equal(t, consts.StatusOK, c.Response.StatusCode())
	var resp dto.UploadResponse
	require.NoError(t, json.Unmarshal(c.Response.Body(), &resp))
	require.NotEmpty(t, resp.DocumentID)
	require.Equal(t, "plaintext", resp.Metadata.ParserUsed)
}
