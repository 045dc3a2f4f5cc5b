package models

import "time"

// Reconciliation reasons.
const (
	ReconcileOrphanedBlob  = "ORPHANED_BLOB"
	ReconcilePendingDelete = "PENDING_DELETE"
)

// StorageReconciliation records a blob whose lifecycle diverged from its
// database record: either the blob was written but the record write failed,
// or a delete was queued while the store was unreachable. A periodic
// external sweep consumes these entries; this service only writes and lists
// them.
type StorageReconciliation struct {
	ID           string     `db:"id" json:"id"`
	StorageKey   string     `db:"storage_key" json:"storage_key"`
	SubmissionID *string    `db:"submission_id" json:"submission_id,omitempty"`
	Reason       string     `db:"reason" json:"reason"`
	Detail       string     `db:"detail" json:"detail"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt   *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}
