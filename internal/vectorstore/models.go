// Package vectorstore persists Documents and Chunks in Postgres with the
// pgvector extension, and exposes the three similarity RPCs the matching
// engine depends on (kNN, pairwise cross-document matching, centroid
// similarity) — standing in for the "stored procedures" spec names, kept as
// single SQL statements in queries.go so a later migration to real Postgres
// functions is a one-file change.
package vectorstore

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// DocumentModel is the GORM mapping for the documents table.
type DocumentModel struct {
	DocumentID       string         `gorm:"type:uuid;primaryKey;column:document_id"`
	FileID           string         `gorm:"type:uuid;uniqueIndex;column:file_id"`
	Filename         string         `gorm:"column:filename"`
	FileType         string         `gorm:"column:file_type;index"`
	RawText          string         `gorm:"column:raw_text"`
	CleanedText      string         `gorm:"column:cleaned_text"`
	ContentHash      string         `gorm:"column:content_hash;index"`
	Language         string         `gorm:"column:language"`
	WordCount        int            `gorm:"column:word_count"`
	CharCount        int            `gorm:"column:char_count"`
	PageCount        int            `gorm:"column:page_count"`
	ParserUsed       string         `gorm:"column:parser_used"`
	ExtractionTimeMS int64          `gorm:"column:extraction_time_ms"`
	EmbeddingStatus  string         `gorm:"column:embedding_status;index"`
	ParserMetadata   datatypes.JSON `gorm:"column:parser_metadata"`
	CreatedAt        time.Time      `gorm:"column:created_at"`
	UpdatedAt        time.Time      `gorm:"column:updated_at"`
}

func (DocumentModel) TableName() string { return "documents" }

// ChunkModel is the GORM mapping for the chunks table. A chunk is eligible
// for matching iff Embedding is non-nil (pgvector.Vector zero value is
// distinguished by EmbeddingModel being empty).
type ChunkModel struct {
	ID             int64           `gorm:"primaryKey;autoIncrement;column:chunk_db_id"`
	ChunkID        string          `gorm:"type:uuid;column:chunk_id;uniqueIndex"`
	DocumentID     string          `gorm:"type:uuid;column:document_id;index;uniqueIndex:idx_doc_chunk_index,priority:1"`
	ChunkIndex     int             `gorm:"column:chunk_index;uniqueIndex:idx_doc_chunk_index,priority:2"`
	Content        string          `gorm:"column:content"`
	SectionType    string          `gorm:"column:section_type;index"`
	CharCount      int             `gorm:"column:char_count"`
	TokenCount     int             `gorm:"column:token_count"`
	Embedding      pgvector.Vector `gorm:"type:vector(1536);column:embedding"`
	EmbeddingModel string          `gorm:"column:embedding_model"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
}

func (ChunkModel) TableName() string { return "chunks" }
