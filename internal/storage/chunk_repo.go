package storage

import (
	"context"
	"fmt"

	"docqa/internal/models"
)

type ChunkRepo struct {
	db *DB
}

func NewChunkRepo(db *DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceChunks deletes all prior chunks for the document and inserts the new
// set in one transaction, so chunk indices are always a contiguous 0..n-1
// sequence from a single chunking run.
func (r *ChunkRepo) ReplaceChunks(ctx context.Context, docID string, texts []string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx replace chunks: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM document_chunks WHERE doc_id=$1`, docID); err != nil {
		return fmt.Errorf("delete prior chunks: %w", err)
	}
	for i, text := range texts {
		_, err := tx.Exec(ctx, `
INSERT INTO document_chunks (doc_id, chunk_index, content)
VALUES ($1, $2, $3)`, docID, i, text)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

func (r *ChunkRepo) ListChunksByDocument(ctx context.Context, docID string) ([]models.DocumentChunk, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT doc_id::text, chunk_index, content, created_at
FROM document_chunks
WHERE doc_id=$1
ORDER BY chunk_index ASC`, docID)
	if err != nil {
		return nil, fmt.Errorf("list chunks by document: %w", err)
	}
	defer rows.Close()

	out := make([]models.DocumentChunk, 0, 64)
	for rows.Next() {
		var c models.DocumentChunk
		if err := rows.Scan(&c.DocID, &c.ChunkIndex, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}
