// Package dto holds the wire-level request/response shapes for the HTTP
// surface, kept separate from internal/domain so the API contract can
// evolve independently of the persistence/matching types. Grounded on the
// teacher's ResumeUploadResponse pattern: a small purpose-built struct per
// endpoint rather than serializing domain types directly.
package dto

import (
	"time"

	"resumatch/internal/domain"
)

// Envelope is the {success, data, message} wrapper used for the match,
// gap-analysis, roadmap, list, delete and catalog responses and for every
// error response. The upload, document-status and health bodies are sent
// unwrapped.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

func Fail(message string) Envelope {
	return Envelope{Success: false, Message: message}
}

// UploadMetadata is the nested metadata object in the upload response.
type UploadMetadata struct {
	PageCount        int    `json:"page_count"`
	Language         string `json:"language"`
	ParserUsed       string `json:"parser_used"`
	ExtractionTimeMS int64  `json:"extraction_time_ms"`
}

// UploadResponse is POST /api/v1/upload's body.
type UploadResponse struct {
	FileID      string         `json:"file_id"`
	DocumentID  string         `json:"document_id"`
	Filename    string         `json:"filename"`
	CleanedText string         `json:"cleaned_text"`
	WordCount   int            `json:"word_count"`
	CharCount   int            `json:"char_count"`
	Metadata    UploadMetadata `json:"metadata"`
}

// DocumentStatusResponse is GET /api/v1/analysis/documents/{file_id}'s body.
type DocumentStatusResponse struct {
	DocumentID      string                 `json:"document_id"`
	FileID          string                 `json:"file_id"`
	Filename        string                 `json:"filename"`
	FileType        domain.FileType        `json:"file_type"`
	EmbeddingStatus domain.EmbeddingStatus `json:"embedding_status"`
	ChunkCount      int                    `json:"chunk_count"`
	CreatedAt       time.Time              `json:"created_at"`
}

// DocumentListItem is one entry of the supplemented document-listing
// endpoint's response.
type DocumentListItem struct {
	DocumentID      string                 `json:"document_id"`
	FileID          string                 `json:"file_id"`
	Filename        string                 `json:"filename"`
	FileType        domain.FileType        `json:"file_type"`
	EmbeddingStatus domain.EmbeddingStatus `json:"embedding_status"`
	WordCount       int                    `json:"word_count"`
	CreatedAt       time.Time              `json:"created_at"`
}

// MatchRequest is the shared body shape for /match and /gap-analysis.
type MatchRequest struct {
	ResumeDocumentID string `json:"resume_document_id" validate:"required"`
	JDDocumentID     string `json:"jd_document_id" validate:"required"`
}

// GapAnalysisResponse is POST /api/v1/analysis/gap-analysis's data payload:
// the match result plus the feedback block, per spec.md §6.
type GapAnalysisResponse struct {
	*domain.MatchResult
	Feedback *domain.Feedback `json:"feedback"`
}

// RoadmapRequest is POST /api/v1/roadmap/generate's body.
type RoadmapRequest struct {
	ResumeID    string `json:"resume_id" validate:"required"`
	JDID        string `json:"jd_id" validate:"required"`
	TargetWeeks int    `json:"target_weeks" validate:"omitempty,min=4,max=12"`
}
