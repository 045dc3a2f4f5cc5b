package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
)

const documentColumns = `id, submission_id, doc_type, original_filename, storage_key, size_bytes, mime_type, uploaded_at`

// DocumentRepository handles persistence of uploaded document records.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Upsert registers the document, replacing any prior record for the same
// (submission, doc_type). The unique constraint keeps exactly one current
// row per type even under concurrent uploads; the superseded storage key is
// returned so the caller can delete the old blob after the new one is
// durable. The prior row is read FOR UPDATE inside the same transaction so
// concurrent replacements serialize and each caller sees the key it actually
// superseded.
func (r *DocumentRepository) Upsert(ctx context.Context, doc *models.Document) (previousKey string, err error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("upsert document: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const prior = `SELECT storage_key FROM documents WHERE submission_id = $1 AND doc_type = $2 FOR UPDATE`
	var existingKey string
	switch lookupErr := tx.GetContext(ctx, &existingKey, prior, doc.SubmissionID, doc.DocType); {
	case lookupErr == nil:
		previousKey = existingKey
	case errors.Is(lookupErr, sql.ErrNoRows):
	default:
		return "", fmt.Errorf("upsert document: %w", lookupErr)
	}

	const query = `INSERT INTO documents (id, submission_id, doc_type, original_filename, storage_key, size_bytes, mime_type, uploaded_at)
        VALUES (:id, :submission_id, :doc_type, :original_filename, :storage_key, :size_bytes, :mime_type, :uploaded_at)
        ON CONFLICT (submission_id, doc_type) DO UPDATE
        SET original_filename = EXCLUDED.original_filename,
            storage_key = EXCLUDED.storage_key,
            size_bytes = EXCLUDED.size_bytes,
            mime_type = EXCLUDED.mime_type,
            uploaded_at = EXCLUDED.uploaded_at
        RETURNING id`
	rows, err := sqlx.NamedQueryContext(ctx, tx, query, doc)
	if err != nil {
		return "", fmt.Errorf("upsert document: %w", err)
	}
	if rows.Next() {
		if err := rows.Scan(&doc.ID); err != nil {
			rows.Close()
			return "", fmt.Errorf("upsert document: %w", err)
		}
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("upsert document: %w", err)
	}
	if previousKey == doc.StorageKey {
		previousKey = ""
	}
	return previousKey, nil
}

// FindByID returns a document by its ID.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE id = $1`, documentColumns)
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListBySubmission returns all current documents for a submission.
func (r *DocumentRepository) ListBySubmission(ctx context.Context, submissionID string) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE submission_id = $1 ORDER BY uploaded_at ASC`, documentColumns)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, submissionID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// CountBySubmission returns the number of current documents.
func (r *DocumentRepository) CountBySubmission(ctx context.Context, submissionID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM documents WHERE submission_id = $1`, submissionID); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// DeleteBySubmission removes all document rows for a submission.
func (r *DocumentRepository) DeleteBySubmission(ctx context.Context, submissionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE submission_id = $1`, submissionID); err != nil {
		return fmt.Errorf("delete submission documents: %w", err)
	}
	return nil
}
