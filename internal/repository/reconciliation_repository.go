package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
)

// ReconciliationRepository persists storage reconciliation entries: blobs
// whose lifecycle diverged from their database records. An external sweep
// reads and resolves them.
type ReconciliationRepository struct {
	db *sqlx.DB
}

// NewReconciliationRepository constructs the repository.
func NewReconciliationRepository(db *sqlx.DB) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

// Create records a divergence.
func (r *ReconciliationRepository) Create(ctx context.Context, entry *models.StorageReconciliation) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO storage_reconciliations (id, storage_key, submission_id, reason, detail, created_at, resolved_at)
        VALUES (:id, :storage_key, :submission_id, :reason, :detail, :created_at, :resolved_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create reconciliation entry: %w", err)
	}
	return nil
}

// ListPending returns unresolved entries, oldest first.
func (r *ReconciliationRepository) ListPending(ctx context.Context, limit int) ([]models.StorageReconciliation, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT id, storage_key, submission_id, reason, detail, created_at, resolved_at
        FROM storage_reconciliations WHERE resolved_at IS NULL ORDER BY created_at ASC LIMIT %d`, limit)
	var entries []models.StorageReconciliation
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list pending reconciliations: %w", err)
	}
	return entries, nil
}

// MarkResolved stamps an entry as handled.
func (r *ReconciliationRepository) MarkResolved(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE storage_reconciliations SET resolved_at = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("resolve reconciliation entry: %w", err)
	}
	return nil
}
