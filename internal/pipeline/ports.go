package pipeline

import (
	"context"

	"docqa/internal/models"
)

// DocumentStore is the slice of the record store the pipeline needs. The
// pipeline never deletes documents; on ingestion failure its caller removes
// the partial record.
type DocumentStore interface {
	GetDocument(ctx context.Context, docID string) (models.Document, error)
	SaveContent(ctx context.Context, docID, content string) error
	MarkProcessed(ctx context.Context, docID string) error
}

// ChunkStore replaces a document's chunk set wholesale, preserving order.
type ChunkStore interface {
	ReplaceChunks(ctx context.Context, docID string, texts []string) error
}
