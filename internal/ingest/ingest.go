// Package ingest is the Ingestion Orchestrator (spec §2 step 6): drives
// extraction → normalization → chunking → embedding → persistence, writes
// the embedding_status lifecycle field, and is safe to run for either a
// fresh upload or an admin-triggered reprocess of an existing document.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	gofrsuuid "github.com/gofrs/uuid/v5"
	"github.com/google/uuid"

	"resumatch/internal/chunker"
	"resumatch/internal/domain"
	"resumatch/internal/embedder"
	"resumatch/internal/extract"
	"resumatch/internal/logger"
	"resumatch/internal/metrics"
	"resumatch/internal/normalizer"
	"resumatch/internal/tracing"
	"resumatch/internal/vectorstore"
)

// reprocessLockTTL bounds how long a reprocess lock is held before it
// self-expires, in case a process dies mid-reprocess without releasing it.
const reprocessLockTTL = 5 * time.Minute

// chunkIDNamespace is a dedicated namespace for deriving deterministic chunk
// IDs from (document_id, chunk_index), so the same chunk gets the same ID
// across a reprocess. UUID generated via `uuidgen`.
var chunkIDNamespace = gofrsuuid.Must(gofrsuuid.FromString("c4a6e6a2-3e0a-4b8c-9f5d-1e7b6f9d2a10"))

func chunkID(documentID string, chunkIndex int) string {
	return gofrsuuid.NewV5(chunkIDNamespace, fmt.Sprintf("document_id:%s_chunk_index:%d", documentID, chunkIndex)).String()
}

// Orchestrator wires the pipeline collaborators together.
type Orchestrator struct {
	extractor extract.TextExtractor
	embed     embedder.Embedder
	store     vectorstore.Store
	locker    *Locker
	events    EventPublisher
}

// New builds an Orchestrator. locker and events may be nil-safe
// implementations (e.g. NoopPublisher) when those backends aren't
// configured, but must not be a nil interface value.
func New(extractor extract.TextExtractor, embed embedder.Embedder, store vectorstore.Store, locker *Locker, events EventPublisher) *Orchestrator {
	return &Orchestrator{extractor: extractor, embed: embed, store: store, locker: locker, events: events}
}

// Ingest runs the full pipeline for a freshly uploaded file and returns the
// resulting Document once processing settles into completed or failed.
// Per spec.md scenario 4, two uploads of byte-identical content produce two
// distinct Documents with distinct document_id/file_id — this is not
// content-addressed storage, so no dedup-by-hash collapsing happens here;
// ContentHash is recorded purely as an idempotent-reingestion detection
// signal for callers, not a storage key.
func (o *Orchestrator) Ingest(ctx context.Context, filename string, fileType domain.FileType, raw []byte) (*domain.Document, error) {
	tracer := tracing.Tracer(tracing.IngestTracerName)
	ctx, span := tracer.Start(ctx, "ingest.Ingest")
	defer span.End()

	extracted, err := timeStage("extract", func() (extract.Result, error) {
		return o.extractor.Extract(ctx, filename, raw)
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, fmt.Errorf("ingest: extracting %s: %w", filename, err)
	}

	norm := normalizer.Normalize(extracted.Text)

	doc := &domain.Document{
		DocumentID:       uuid.NewString(),
		FileID:           uuid.NewString(),
		Filename:         filename,
		FileType:         fileType,
		RawText:          extracted.Text,
		CleanedText:      norm.CleanedText,
		ContentHash:      contentHash(norm.CleanedText),
		Language:         norm.Language,
		WordCount:        wordCount(norm.CleanedText),
		CharCount:        len([]rune(norm.CleanedText)),
		PageCount:        pageCountOf(extracted.Metadata),
		ParserUsed:       parserUsedOf(extracted.Metadata),
		ExtractionTimeMS: extractionTimeMSOf(extracted.Metadata),
		EmbeddingStatus:  domain.StatusPending,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if _, err := o.store.UpsertDocument(ctx, doc); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, fmt.Errorf("ingest: persisting document row: %w", err)
	}

	if err := o.store.SetStatus(ctx, doc.DocumentID, domain.StatusProcessing); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, fmt.Errorf("ingest: marking %s processing: %w", doc.DocumentID, err)
	}
	doc.EmbeddingStatus = domain.StatusProcessing

	if err := o.chunkEmbedStore(ctx, doc); err != nil {
		o.failAndReport(ctx, doc, err)
		return doc, nil
	}

	doc.EmbeddingStatus = domain.StatusCompleted
	o.reportCompleted(ctx, doc)
	return doc, nil
}

// Reprocess re-runs chunking and embedding for an already-ingested document
// from its stored CleanedText, serialized by a Redis lock on document_id so
// concurrent reprocess requests (e.g. from multiple resumatchctl
// invocations or server instances) never race on the same row.
func (o *Orchestrator) Reprocess(ctx context.Context, documentID string) (*domain.Document, error) {
	tracer := tracing.Tracer(tracing.IngestTracerName)
	ctx, span := tracer.Start(ctx, "ingest.Reprocess")
	defer span.End()

	token, ok, err := o.locker.Acquire(ctx, documentID, reprocessLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewNotReadyError("ingest.Reprocess", "a reprocess for this document is already in flight")
	}
	defer o.locker.Release(ctx, documentID, token)

	doc, err := o.store.GetDocument(ctx, documentID, "")
	if err != nil {
		return nil, err
	}

	doc.EmbeddingStatus = domain.StatusProcessing
	if err := o.store.SetStatus(ctx, documentID, domain.StatusProcessing); err != nil {
		return nil, fmt.Errorf("ingest: marking %s processing: %w", documentID, err)
	}

	if err := o.chunkEmbedStore(ctx, doc); err != nil {
		o.failAndReport(ctx, doc, err)
		return doc, nil
	}

	doc.EmbeddingStatus = domain.StatusCompleted
	o.reportCompleted(ctx, doc)
	return doc, nil
}

// chunkEmbedStore runs chunking, embedding, and the chunk write for doc.
// Idempotent: InsertChunks deletes existing chunks for the document before
// inserting, so calling this twice for the same document_id (Reprocess)
// leaves exactly one generation of chunks behind.
func (o *Orchestrator) chunkEmbedStore(ctx context.Context, doc *domain.Document) error {
	chunks, err := timeStage("chunk", func() ([]chunker.Output, error) {
		return chunker.Chunk(doc.CleanedText, doc.FileType)
	})
	if err != nil {
		return fmt.Errorf("chunking: %w", err)
	}
	if len(chunks) == 0 {
		// Zero chunks is a valid terminal state (spec.md scenario 3, empty
		// résumé); record it as completed with no chunks rather than an
		// error, so the matching engine's insufficient-data path can react.
		if err := o.store.SetStatus(ctx, doc.DocumentID, domain.StatusCompleted); err != nil {
			return fmt.Errorf("marking completed: %w", err)
		}
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := timeStage("embed", func() ([][]float32, error) {
		return o.embed.Embed(ctx, texts)
	})
	if err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if len(vectors) != len(chunks) {
		return domain.NewInternalError("ingest.chunkEmbedStore", fmt.Sprintf("embedding alignment broken: %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	domainChunks := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		domainChunks[i] = domain.Chunk{
			ChunkID:        chunkID(doc.DocumentID, c.ChunkIndex),
			DocumentID:     doc.DocumentID,
			ChunkIndex:     c.ChunkIndex,
			Content:        c.Content,
			SectionType:    c.SectionType,
			CharCount:      c.CharCount,
			TokenCount:     c.TokenCount,
			Embedding:      vectors[i],
			EmbeddingModel: embedder.ModelTag,
			CreatedAt:      time.Now(),
		}
	}

	if err := timeStageErr("store", func() error {
		return o.store.InsertChunks(ctx, doc.DocumentID, domainChunks)
	}); err != nil {
		return fmt.Errorf("storing chunks: %w", err)
	}

	if err := o.store.SetStatus(ctx, doc.DocumentID, domain.StatusCompleted); err != nil {
		return fmt.Errorf("marking completed: %w", err)
	}
	return nil
}

func (o *Orchestrator) failAndReport(ctx context.Context, doc *domain.Document, cause error) {
	doc.EmbeddingStatus = domain.StatusFailed
	if err := o.store.SetStatus(ctx, doc.DocumentID, domain.StatusFailed); err != nil {
		logger.Error().Err(err).Str("document_id", doc.DocumentID).Msg("ingest: failed to record failed status")
	}
	metrics.IngestionFailures.WithLabelValues(string(doc.FileType), classifyFailure(cause)).Inc()

	if err := o.events.Publish(ctx, "document.failed", IngestionEvent{
		DocumentID:      doc.DocumentID,
		FileID:          doc.FileID,
		FileType:        string(doc.FileType),
		EmbeddingStatus: string(domain.StatusFailed),
		Error:           cause.Error(),
	}); err != nil {
		logger.Warn().Err(err).Str("document_id", doc.DocumentID).Msg("ingest: failed to publish failure event")
	}
}

func (o *Orchestrator) reportCompleted(ctx context.Context, doc *domain.Document) {
	count, _ := o.store.CountChunks(ctx, doc.DocumentID)
	if err := o.events.Publish(ctx, "document.completed", IngestionEvent{
		DocumentID:      doc.DocumentID,
		FileID:          doc.FileID,
		FileType:        string(doc.FileType),
		EmbeddingStatus: string(domain.StatusCompleted),
		ChunkCount:      count,
	}); err != nil {
		logger.Warn().Err(err).Str("document_id", doc.DocumentID).Msg("ingest: failed to publish completion event")
	}
}

func timeStage[T any](stage string, fn func() (T, error)) (T, error) {
	start := time.Now()
	out, err := fn()
	metrics.IngestStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	return out, err
}

func timeStageErr(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.IngestStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	return err
}

func classifyFailure(err error) string {
	return string(domain.KindOf(err))
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func wordCount(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		isSpace := r == ' ' || r == '\n' || r == '\t' || r == '\r'
		if isSpace {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}

func pageCountOf(meta map[string]any) int {
	if meta == nil {
		return 0
	}
	if v, ok := meta["page_count"].(int); ok {
		return v
	}
	return 0
}

func parserUsedOf(meta map[string]any) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta["parser_used"].(string); ok {
		return v
	}
	return ""
}

func extractionTimeMSOf(meta map[string]any) int64 {
	if meta == nil {
		return 0
	}
	if v, ok := meta["extraction_time_ms"].(int64); ok {
		return v
	}
	return 0
}
