package vectorstore

import (
	"context"
	"errors"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resumatch/internal/domain"
	"resumatch/internal/tracing"
)

// Store is the relational + vector store the ingestion orchestrator and
// matching engine depend on. Mirrors the teacher's VectorDatabase interface
// shape (upsert/get/search) but backed by Postgres+pgvector instead of
// Qdrant, per spec §4.5's "relational store with a vector extension".
type Store interface {
	UpsertDocument(ctx context.Context, doc *domain.Document) (string, error)
	InsertChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error
	SetStatus(ctx context.Context, documentID string, status domain.EmbeddingStatus) error
	GetDocument(ctx context.Context, documentID, fileID string) (*domain.Document, error)
	ListDocuments(ctx context.Context) ([]domain.Document, error)
	DeleteDocument(ctx context.Context, documentID string) error
	CountChunks(ctx context.Context, documentID string) (int, error)
	MatchDocuments(ctx context.Context, queryVec []float32, k int, filterFileType, filterDocumentID string, minSimilarity float64) ([]domain.ChunkMatch, error)
	MatchDocumentsByFile(ctx context.Context, resumeDocumentID, jdDocumentID string, topK int) ([]domain.ChunkMatch, error)
	OverallSimilarity(ctx context.Context, docAID, docBID string) (float64, error)
}

// PostgresStore is the default Store implementation.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore opens a GORM connection to dsn.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// Init creates the vector extension, migrates the schema, and adds the
// cascade-delete foreign key, the way the RAG reference's createRagTables
// bootstraps its schema.
func (s *PostgresStore) Init(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec(createExtensionSQL).Error; err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).AutoMigrate(&DocumentModel{}, &ChunkModel{}); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Exec(addCascadeFKSQL).Error; err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Exec(createIndexSQL).Error; err != nil {
		return err
	}
	return nil
}

// UpsertDocument inserts doc or updates it if DocumentID already exists.
func (s *PostgresStore) UpsertDocument(ctx context.Context, doc *domain.Document) (string, error) {
	tracer := tracing.Tracer(tracing.VectorStoreTracerName)
	ctx, span := tracer.Start(ctx, "vectorstore.UpsertDocument")
	defer span.End()

	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	m := toDocumentModel(doc)
	err := s.db.WithContext(ctx).Save(m).Error
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return "", err
	}
	return doc.DocumentID, nil
}

// InsertChunks replaces all chunks for documentID atomically: delete then
// insert within one transaction, per spec §5's idempotence requirement.
func (s *PostgresStore) InsertChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tracer := tracing.Tracer(tracing.VectorStoreTracerName)
	ctx, span := tracer.Start(ctx, "vectorstore.InsertChunks")
	defer span.End()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&ChunkModel{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		models := make([]ChunkModel, len(chunks))
		for i, c := range chunks {
			models[i] = toChunkModel(documentID, c)
		}
		return tx.Create(&models).Error
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return err
	}
	return nil
}

// SetStatus atomically updates a document's lifecycle state.
func (s *PostgresStore) SetStatus(ctx context.Context, documentID string, status domain.EmbeddingStatus) error {
	return s.db.WithContext(ctx).Model(&DocumentModel{}).
		Where("document_id = ?", documentID).
		Updates(map[string]any{"embedding_status": string(status), "updated_at": time.Now()}).Error
}

// GetDocument resolves by documentID if set, else by fileID.
func (s *PostgresStore) GetDocument(ctx context.Context, documentID, fileID string) (*domain.Document, error) {
	var m DocumentModel
	q := s.db.WithContext(ctx)
	if documentID != "" {
		q = q.Where("document_id = ?", documentID)
	} else {
		q = q.Where("file_id = ?", fileID)
	}
	if err := q.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewValidationError("vectorstore.GetDocument", "document not found")
		}
		return nil, err
	}
	return fromDocumentModel(&m), nil
}

// ListDocuments returns every document, newest first — the supplemented
// "list all documents" endpoint's backing query.
func (s *PostgresStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	var models []DocumentModel
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Document, len(models))
	for i := range models {
		out[i] = *fromDocumentModel(&models[i])
	}
	return out, nil
}

// DeleteDocument removes the document; chunks cascade via the FK.
func (s *PostgresStore) DeleteDocument(ctx context.Context, documentID string) error {
	res := s.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&DocumentModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NewValidationError("vectorstore.DeleteDocument", "document not found")
	}
	return nil
}

// CountChunks reports how many chunks a document currently has.
func (s *PostgresStore) CountChunks(ctx context.Context, documentID string) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&ChunkModel{}).Where("document_id = ?", documentID).Count(&count).Error
	return int(count), err
}

type matchRow struct {
	DocumentID  string
	ChunkIndex  int
	Content     string
	SectionType string
	Similarity  float64
}

// MatchDocuments is the match_documents RPC: kNN by cosine similarity with
// optional file-type and file filters and a minimum-similarity floor;
// filterDocumentID is matched against documents.file_id.
func (s *PostgresStore) MatchDocuments(ctx context.Context, queryVec []float32, k int, filterFileType, filterDocumentID string, minSimilarity float64) ([]domain.ChunkMatch, error) {
	tracer := tracing.Tracer(tracing.VectorStoreTracerName)
	ctx, span := tracer.Start(ctx, "vectorstore.MatchDocuments")
	defer span.End()

	var rows []matchRow
	err := s.db.WithContext(ctx).Raw(matchDocumentsSQL,
		pgvector.NewVector(queryVec), nullableString(filterFileType), nullableString(filterDocumentID), minSimilarity, k,
	).Scan(&rows).Error
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return nil, err
	}

	out := make([]domain.ChunkMatch, len(rows))
	for i, r := range rows {
		out[i] = domain.ChunkMatch{
			JDChunkIndex: r.ChunkIndex,
			JDExcerpt:    r.Content,
			SectionType:  domain.SectionType(r.SectionType),
			Similarity:   clip01(r.Similarity),
		}
	}
	return out, nil
}

type byFileRow struct {
	ResumeChunkIndex int
	JDChunkIndex     int
	ResumeContent    string
	JDContent        string
	JDSectionType    string
	Similarity       float64
}

// MatchDocumentsByFile is the match_documents_by_file RPC: for every resume
// chunk, its top_k most similar JD chunks.
func (s *PostgresStore) MatchDocumentsByFile(ctx context.Context, resumeDocumentID, jdDocumentID string, topK int) ([]domain.ChunkMatch, error) {
	tracer := tracing.Tracer(tracing.VectorStoreTracerName)
	ctx, span := tracer.Start(ctx, "vectorstore.MatchDocumentsByFile")
	defer span.End()

	var rows []byFileRow
	err := s.db.WithContext(ctx).Raw(matchDocumentsByFileSQL, resumeDocumentID, jdDocumentID, topK).Scan(&rows).Error
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return nil, err
	}

	out := make([]domain.ChunkMatch, len(rows))
	for i, r := range rows {
		out[i] = domain.ChunkMatch{
			ResumeChunkIndex: r.ResumeChunkIndex,
			JDChunkIndex:     r.JDChunkIndex,
			ResumeExcerpt:    r.ResumeContent,
			JDExcerpt:        r.JDContent,
			SectionType:      domain.SectionType(r.JDSectionType),
			Similarity:       clip01(r.Similarity),
		}
	}
	return out, nil
}

// OverallSimilarity is the overall_similarity / calculate_overall_similarity
// RPC: cosine between chunk-embedding centroids. Returns 0 if either
// centroid is undefined.
func (s *PostgresStore) OverallSimilarity(ctx context.Context, docAID, docBID string) (float64, error) {
	tracer := tracing.Tracer(tracing.VectorStoreTracerName)
	ctx, span := tracer.Start(ctx, "vectorstore.OverallSimilarity")
	defer span.End()

	var sim *float64
	err := s.db.WithContext(ctx).Raw(overallSimilaritySQL, docAID, docBID).Scan(&sim).Error
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return 0, err
	}
	if sim == nil {
		return 0, nil
	}
	return clip01(*sim), nil
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toDocumentModel(d *domain.Document) *DocumentModel {
	return &DocumentModel{
		DocumentID:       d.DocumentID,
		FileID:           d.FileID,
		Filename:         d.Filename,
		FileType:         string(d.FileType),
		RawText:          d.RawText,
		CleanedText:      d.CleanedText,
		ContentHash:      d.ContentHash,
		Language:         d.Language,
		WordCount:        d.WordCount,
		CharCount:        d.CharCount,
		PageCount:        d.PageCount,
		ParserUsed:       d.ParserUsed,
		ExtractionTimeMS: d.ExtractionTimeMS,
		EmbeddingStatus:  string(d.EmbeddingStatus),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func fromDocumentModel(m *DocumentModel) *domain.Document {
	return &domain.Document{
		DocumentID:       m.DocumentID,
		FileID:           m.FileID,
		Filename:         m.Filename,
		FileType:         domain.FileType(m.FileType),
		CleanedText:      m.CleanedText,
		ContentHash:      m.ContentHash,
		Language:         m.Language,
		WordCount:        m.WordCount,
		CharCount:        m.CharCount,
		PageCount:        m.PageCount,
		ParserUsed:       m.ParserUsed,
		ExtractionTimeMS: m.ExtractionTimeMS,
		EmbeddingStatus:  domain.EmbeddingStatus(m.EmbeddingStatus),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func toChunkModel(documentID string, c domain.Chunk) ChunkModel {
	return ChunkModel{
		ChunkID:        c.ChunkID,
		DocumentID:     documentID,
		ChunkIndex:     c.ChunkIndex,
		Content:        c.Content,
		SectionType:    string(c.SectionType),
		CharCount:      c.CharCount,
		TokenCount:     c.TokenCount,
		Embedding:      pgvector.NewVector(c.Embedding),
		EmbeddingModel: c.EmbeddingModel,
		CreatedAt:      time.Now(),
	}
}
