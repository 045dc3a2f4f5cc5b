package models

import "time"

// Document is one uploaded file owned by a submission. At most one current
// document exists per (submission_id, doc_type); re-uploads replace the
// prior blob reference.
type Document struct {
	ID               string    `db:"id" json:"id"`
	SubmissionID     string    `db:"submission_id" json:"submission_id"`
	DocType          string    `db:"doc_type" json:"doc_type"`
	OriginalFilename string    `db:"original_filename" json:"original_filename"`
	StorageKey       string    `db:"storage_key" json:"-"`
	SizeBytes        int64     `db:"size_bytes" json:"size_bytes"`
	MimeType         string    `db:"mime_type" json:"mime_type"`
	UploadedAt       time.Time `db:"uploaded_at" json:"uploaded_at"`
}
