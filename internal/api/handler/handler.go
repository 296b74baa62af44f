// Package handler implements the HTTP surface from spec.md §6, as Hertz
// handlers. Grounded on the teacher's resume_handler.go (multipart upload
// handling, aggregated-dependency handler struct) and router.go's
// ctx.JSON(consts.StatusXXX, ...) response idiom.
package handler

import (
	"context"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resumatch/internal/api/dto"
	"resumatch/internal/catalog"
	"resumatch/internal/domain"
	"resumatch/internal/feedback"
	"resumatch/internal/ingest"
	"resumatch/internal/logger"
	"resumatch/internal/match"
	"resumatch/internal/metrics"
	"resumatch/internal/roadmap"
	"resumatch/internal/vectorstore"
)

const excerptsPerSection = 2

// Handler aggregates every collaborator the HTTP surface calls into, the
// same "one struct, many services" shape the teacher's ResumeHandler uses.
type Handler struct {
	store    vectorstore.Store
	ingestor *ingest.Orchestrator
	matcher  *match.Engine
	feedback *feedback.Generator
	roadmap  *roadmap.Planner
	catalog  *catalog.Catalog
}

// New builds a Handler from its collaborators.
func New(store vectorstore.Store, ingestor *ingest.Orchestrator, matcher *match.Engine, fb *feedback.Generator, planner *roadmap.Planner, cat *catalog.Catalog) *Handler {
	return &Handler{
		store:    store,
		ingestor: ingestor,
		matcher:  matcher,
		feedback: fb,
		roadmap:  planner,
		catalog:  cat,
	}
}

// Upload implements POST /api/v1/upload.
func (h *Handler) Upload(c context.Context, ctx *app.RequestContext) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		writeEnvelope(ctx, consts.StatusBadRequest, dto.Fail("file field is required"))
		return
	}

	fileTypeField := string(ctx.PostForm("file_type"))
	fileType := domain.FileTypeResume
	if fileTypeField == string(domain.FileTypeJD) {
		fileType = domain.FileTypeJD
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeEnvelope(ctx, consts.StatusInternalServerError, dto.Fail("could not open uploaded file"))
		return
	}
	defer file.Close()

	raw := make([]byte, fileHeader.Size)
	if _, err := file.Read(raw); err != nil && fileHeader.Size > 0 {
		writeEnvelope(ctx, consts.StatusInternalServerError, dto.Fail("could not read uploaded file"))
		return
	}

	doc, err := h.ingestor.Ingest(c, fileHeader.Filename, fileType, raw)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	ctx.JSON(consts.StatusOK, dto.UploadResponse{
		FileID:      doc.FileID,
		DocumentID:  doc.DocumentID,
		Filename:    doc.Filename,
		CleanedText: doc.CleanedText,
		WordCount:   doc.WordCount,
		CharCount:   doc.CharCount,
		Metadata: dto.UploadMetadata{
			PageCount:        doc.PageCount,
			Language:         doc.Language,
			ParserUsed:       doc.ParserUsed,
			ExtractionTimeMS: doc.ExtractionTimeMS,
		},
	})
}

// DocumentStatus implements GET /api/v1/analysis/documents/{file_id}.
func (h *Handler) DocumentStatus(c context.Context, ctx *app.RequestContext) {
	fileID := ctx.Param("file_id")
	doc, err := h.store.GetDocument(c, "", fileID)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}

	count, err := h.store.CountChunks(c, doc.DocumentID)
	if err != nil {
		writeDomainError(ctx, domain.NewUpstreamError("handler.DocumentStatus", err.Error()))
		return
	}

	ctx.JSON(consts.StatusOK, dto.DocumentStatusResponse{
		DocumentID:      doc.DocumentID,
		FileID:          doc.FileID,
		Filename:        doc.Filename,
		FileType:        doc.FileType,
		EmbeddingStatus: doc.EmbeddingStatus,
		ChunkCount:      count,
		CreatedAt:       doc.CreatedAt,
	})
}

// ListDocuments implements the supplemented GET /api/v1/analysis/documents.
func (h *Handler) ListDocuments(c context.Context, ctx *app.RequestContext) {
	docs, err := h.store.ListDocuments(c)
	if err != nil {
		writeDomainError(ctx, domain.NewUpstreamError("handler.ListDocuments", err.Error()))
		return
	}

	items := make([]dto.DocumentListItem, len(docs))
	for i, d := range docs {
		items[i] = dto.DocumentListItem{
			DocumentID:      d.DocumentID,
			FileID:          d.FileID,
			Filename:        d.Filename,
			FileType:        d.FileType,
			EmbeddingStatus: d.EmbeddingStatus,
			WordCount:       d.WordCount,
			CreatedAt:       d.CreatedAt,
		}
	}
	ctx.JSON(consts.StatusOK, dto.OK(items))
}

// DeleteDocument implements DELETE /api/v1/analysis/documents/{file_id}.
func (h *Handler) DeleteDocument(c context.Context, ctx *app.RequestContext) {
	fileID := ctx.Param("file_id")
	doc, err := h.store.GetDocument(c, "", fileID)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	if err := h.store.DeleteDocument(c, doc.DocumentID); err != nil {
		writeDomainError(ctx, domain.NewUpstreamError("handler.DeleteDocument", err.Error()))
		return
	}
	ctx.JSON(consts.StatusOK, dto.OK(nil))
}

// Match implements POST /api/v1/analysis/match.
func (h *Handler) Match(c context.Context, ctx *app.RequestContext) {
	var req dto.MatchRequest
	if err := ctx.BindAndValidate(&req); err != nil {
		writeEnvelope(ctx, consts.StatusBadRequest, dto.Fail(err.Error()))
		return
	}
	if req.ResumeDocumentID == "" || req.JDDocumentID == "" {
		writeEnvelope(ctx, consts.StatusBadRequest, dto.Fail("resume_document_id and jd_document_id are required"))
		return
	}

	result, err := h.runMatch(c, ctx, req.ResumeDocumentID, req.JDDocumentID)
	if err != nil {
		return // runMatch already wrote the error response
	}
	metrics.MatchScore.Observe(float64(result.MatchScore))
	ctx.JSON(consts.StatusOK, dto.OK(result))
}

// GapAnalysis implements POST /api/v1/analysis/gap-analysis: the match
// result plus an LLM-rendered Feedback block grounded in the same chunk
// excerpts the match computed.
func (h *Handler) GapAnalysis(c context.Context, ctx *app.RequestContext) {
	var req dto.MatchRequest
	if err := ctx.BindAndValidate(&req); err != nil {
		writeEnvelope(ctx, consts.StatusBadRequest, dto.Fail(err.Error()))
		return
	}
	if req.ResumeDocumentID == "" || req.JDDocumentID == "" {
		writeEnvelope(ctx, consts.StatusBadRequest, dto.Fail("resume_document_id and jd_document_id are required"))
		return
	}

	result, err := h.runMatch(c, ctx, req.ResumeDocumentID, req.JDDocumentID)
	if err != nil {
		return
	}
	metrics.MatchScore.Observe(float64(result.MatchScore))

	resumeEx, jdEx := excerptsFrom(result)
	fb := h.feedback.Generate(c, result, resumeEx, jdEx)

	ctx.JSON(consts.StatusOK, dto.OK(&dto.GapAnalysisResponse{MatchResult: result, Feedback: fb}))
}

// Roadmap implements POST /api/v1/roadmap/generate.
func (h *Handler) Roadmap(c context.Context, ctx *app.RequestContext) {
	var req dto.RoadmapRequest
	if err := ctx.BindAndValidate(&req); err != nil {
		writeEnvelope(ctx, consts.StatusBadRequest, dto.Fail(err.Error()))
		return
	}
	if req.ResumeID == "" || req.JDID == "" {
		writeEnvelope(ctx, consts.StatusBadRequest, dto.Fail("resume_id and jd_id are required"))
		return
	}
	if req.TargetWeeks != 0 && (req.TargetWeeks < 4 || req.TargetWeeks > 12) {
		writeEnvelope(ctx, consts.StatusBadRequest, dto.Fail("target_weeks must be between 4 and 12"))
		return
	}

	result, err := h.runMatch(c, ctx, req.ResumeID, req.JDID)
	if err != nil {
		return
	}

	resumeDoc, rerr := h.resolveMatchDocument(c, ctx, req.ResumeID)
	if rerr != nil {
		return
	}
	jdDoc, jerr := h.resolveMatchDocument(c, ctx, req.JDID)
	if jerr != nil {
		return
	}

	plan, err := h.roadmap.Generate(c, result, resumeDoc.CleanedText, jdDoc.CleanedText, req.TargetWeeks)
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, dto.OK(plan))
}

// CatalogResources implements the supplemented GET /api/v1/catalog/resources.
func (h *Handler) CatalogResources(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, dto.OK(h.catalog.All()))
}

// Health implements the liveness/readiness probe.
func (h *Handler) Health(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
}

// runMatch resolves both documents, checks they are embedding-complete, and
// runs the Matching Engine. On any failure it writes the HTTP error response
// itself and returns a non-nil err so callers can bail out immediately.
func (h *Handler) runMatch(c context.Context, ctx *app.RequestContext, resumeID, jdID string) (*domain.MatchResult, error) {
	resumeDoc, err := h.resolveMatchDocument(c, ctx, resumeID)
	if err != nil {
		return nil, err
	}
	jdDoc, err := h.resolveMatchDocument(c, ctx, jdID)
	if err != nil {
		return nil, err
	}

	if resumeDoc.EmbeddingStatus != domain.StatusCompleted || jdDoc.EmbeddingStatus != domain.StatusCompleted {
		err := domain.NewNotReadyError("handler.runMatch", "both documents must be fully embedded before matching")
		writeDomainError(ctx, err)
		return nil, err
	}

	result, err := h.matcher.Match(c, resumeID, jdID)
	if err != nil {
		writeDomainError(ctx, err)
		return nil, err
	}
	return result, nil
}

// resolveMatchDocument looks up a document_id for the match-family endpoints
// (match, gap-analysis, roadmap). Spec requires 422 — never the generic 400
// a bad request body gets — when either id is unknown, so a lookup miss here
// is re-tagged KindNotFound rather than left as vectorstore's KindValidation.
func (h *Handler) resolveMatchDocument(c context.Context, ctx *app.RequestContext, documentID string) (*domain.Document, error) {
	doc, err := h.store.GetDocument(c, documentID, "")
	if err != nil {
		notFound := domain.NewNotFoundError("handler.resolveMatchDocument", err.Error())
		writeDomainError(ctx, notFound)
		return nil, notFound
	}
	return doc, nil
}

// excerptsFrom derives feedback-generation excerpts directly from the
// MatchResult's own chunk matches, capped at excerptsPerSection per section,
// rather than a second round-trip to the vector store for raw chunk text.
func excerptsFrom(result *domain.MatchResult) ([]feedback.Excerpt, []feedback.Excerpt) {
	var resumeEx, jdEx []feedback.Excerpt
	perSection := make(map[domain.SectionType]int)
	for _, m := range result.ChunkMatches {
		if perSection[m.SectionType] >= excerptsPerSection {
			continue
		}
		perSection[m.SectionType]++
		if m.ResumeExcerpt != "" {
			resumeEx = append(resumeEx, feedback.Excerpt{SectionType: m.SectionType, Text: m.ResumeExcerpt})
		}
		if m.JDExcerpt != "" {
			jdEx = append(jdEx, feedback.Excerpt{SectionType: m.SectionType, Text: m.JDExcerpt})
		}
	}
	return resumeEx, jdEx
}

func writeEnvelope(ctx *app.RequestContext, status int, env dto.Envelope) {
	ctx.JSON(status, env)
}

// writeDomainError maps a domain.Error's Kind onto an HTTP status per
// spec.md §7's error handling design, logging the full detail server-side
// while sending only the stable message to the client.
func writeDomainError(ctx *app.RequestContext, err error) {
	logger.Error().Err(err).Msg("request failed")

	status := consts.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindValidation:
		status = consts.StatusBadRequest
	case domain.KindNotFound:
		status = consts.StatusUnprocessableEntity
	case domain.KindNotReady:
		status = consts.StatusUnprocessableEntity
	case domain.KindInsufficientData:
		status = consts.StatusUnprocessableEntity
	case domain.KindUpstream:
		status = consts.StatusBadGateway
	case domain.KindInternal:
		status = consts.StatusInternalServerError
	}

	msg := domain.ErrInternal.Error()
	var de *domain.Error
	if errors.As(err, &de) && de.BaseErr != nil {
		msg = de.BaseErr.Error()
	}
	ctx.JSON(status, dto.Fail(msg))
}
