package vectorstore

// Each constant here is one SQL statement backing an RPC named in spec §4.5
// / §6 as a "stored procedure". Keeping them as named constants means a
// later move to real Postgres functions (CREATE FUNCTION match_documents...)
// only touches this file.

const (
	// matchDocumentsSQL is match_documents(query_vec, k, filter_file_type?,
	// filter_file_id?, min_similarity). 1-(embedding <=> $1) is cosine
	// similarity in [0,1] for normalized vectors, following the pgvector
	// idiom this pack's RAG reference uses.
	matchDocumentsSQL = `
		SELECT c.document_id, c.chunk_index, c.content, c.section_type,
		       1 - (c.embedding <=> $1) AS similarity
		FROM chunks c
		JOIN documents d ON d.document_id = c.document_id
		WHERE c.embedding IS NOT NULL
		  AND ($2::text IS NULL OR d.file_type = $2)
		  AND ($3::uuid IS NULL OR d.file_id = $3)
		  AND 1 - (c.embedding <=> $1) >= $4
		ORDER BY c.embedding <=> $1
		LIMIT $5
	`

	// matchDocumentsByFileSQL computes, for every resume chunk, its top_k
	// most similar JD chunks, via a lateral join so each resume chunk gets
	// its own ranked JD neighbors in one round trip.
	matchDocumentsByFileSQL = `
		SELECT rc.chunk_index AS resume_chunk_index,
		       jc.chunk_index AS jd_chunk_index,
		       rc.content AS resume_content,
		       jc.content AS jd_content,
		       jc.section_type AS jd_section_type,
		       1 - (rc.embedding <=> jc.embedding) AS similarity
		FROM chunks rc
		CROSS JOIN LATERAL (
			SELECT jc.chunk_index, jc.content, jc.section_type, jc.embedding
			FROM chunks jc
			WHERE jc.document_id = $2 AND jc.embedding IS NOT NULL
			ORDER BY jc.embedding <=> rc.embedding
			LIMIT $3
		) jc
		WHERE rc.document_id = $1 AND rc.embedding IS NOT NULL
		ORDER BY rc.chunk_index, similarity DESC
	`

	// overallSimilaritySQL computes cosine similarity between the
	// chunk-embedding centroids of two documents. avg(embedding) over a
	// pgvector column returns the centroid directly.
	overallSimilaritySQL = `
		WITH centroid_a AS (
			SELECT AVG(embedding) AS c FROM chunks WHERE document_id = $1 AND embedding IS NOT NULL
		), centroid_b AS (
			SELECT AVG(embedding) AS c FROM chunks WHERE document_id = $2 AND embedding IS NOT NULL
		)
		SELECT CASE
			WHEN centroid_a.c IS NULL OR centroid_b.c IS NULL THEN NULL
			ELSE 1 - (centroid_a.c <=> centroid_b.c)
		END
		FROM centroid_a, centroid_b
	`

	createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS vector`

	createIndexSQL = `
		CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks
		USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)
	`

	addCascadeFKSQL = `
		ALTER TABLE chunks
		DROP CONSTRAINT IF EXISTS fk_chunks_document,
		ADD CONSTRAINT fk_chunks_document
			FOREIGN KEY (document_id) REFERENCES documents(document_id)
			ON DELETE CASCADE
	`
)
