package storage

import (
	"context"
	"errors"
	"fmt"

	"docqa/internal/models"

	"github.com/jackc/pgx/v5"
)

var ErrDocumentNotFound = errors.New("document not found")

type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) CreateDocument(ctx context.Context, d models.Document) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO documents (doc_id, title, filename, file_type, processed)
VALUES ($1, $2, $3, $4, FALSE)`,
		d.DocID, d.Title, d.Filename, d.FileType,
	)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (r *DocumentRepo) GetDocument(ctx context.Context, docID string) (models.Document, error) {
	var d models.Document
	err := r.db.Pool.QueryRow(ctx, `
SELECT doc_id::text, title, filename, file_type, COALESCE(content,''), processed, upload_date
FROM documents
WHERE doc_id=$1`, docID).
		Scan(&d.DocID, &d.Title, &d.Filename, &d.FileType, &d.Content, &d.Processed, &d.UploadDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Document{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
		}
		return models.Document{}, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

// ListDocuments returns all documents, newest upload first. Extracted content
// is omitted from listings.
func (r *DocumentRepo) ListDocuments(ctx context.Context) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT doc_id::text, title, filename, file_type, processed, upload_date
FROM documents
ORDER BY upload_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.Document, 0)
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.DocID, &d.Title, &d.Filename, &d.FileType, &d.Processed, &d.UploadDate); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepo) SaveContent(ctx context.Context, docID, content string) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE documents SET content=$2 WHERE doc_id=$1`, docID, content)
	if err != nil {
		return fmt.Errorf("save document content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
	}
	return nil
}

func (r *DocumentRepo) MarkProcessed(ctx context.Context, docID string) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE documents SET processed=TRUE WHERE doc_id=$1`, docID)
	if err != nil {
		return fmt.Errorf("mark document processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
	}
	return nil
}

// DeleteDocument removes the record; chunk rows cascade with it.
func (r *DocumentRepo) DeleteDocument(ctx context.Context, docID string) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM documents WHERE doc_id=$1`, docID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
