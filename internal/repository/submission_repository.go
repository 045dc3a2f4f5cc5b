package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
)

// ErrStaleVersion signals a lost optimistic-concurrency race on a submission.
var ErrStaleVersion = fmt.Errorf("submission version is stale")

const submissionColumns = `id, student_id, reference, first_name, last_name, department, programme, intake_term, campus, funding_type, nationality, status, version, created_at, updated_at`

// SubmissionRepository handles persistence of submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create persists a new submission record.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	submission.CreatedAt = now
	submission.UpdatedAt = now
	if submission.Status == "" {
		submission.Status = models.SubmissionStatusInProgress
	}
	submission.Version = 1
	const query = `INSERT INTO submissions (id, student_id, reference, first_name, last_name, department, programme, intake_term, campus, funding_type, nationality, status, version, created_at, updated_at)
        VALUES (:id, :student_id, :reference, :first_name, :last_name, :department, :programme, :intake_term, :campus, :funding_type, :nationality, :status, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// FindByID returns a submission by its ID.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE id = $1`, submissionColumns)
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// FindByReference returns a submission by its human-shareable reference.
// Lookup is case-insensitive.
func (r *SubmissionRepository) FindByReference(ctx context.Context, reference string) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE UPPER(reference) = UPPER($1)`, submissionColumns)
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, reference); err != nil {
		return nil, err
	}
	return &submission, nil
}

// FindByStudentID returns the most recent submission for a student.
func (r *SubmissionRepository) FindByStudentID(ctx context.Context, studentID string) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE student_id = $1 ORDER BY created_at DESC LIMIT 1`, submissionColumns)
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, studentID); err != nil {
		return nil, err
	}
	return &submission, nil
}

// ExistsForStudentAndDepartment checks the one-per-(student, department)
// constraint before creation.
func (r *SubmissionRepository) ExistsForStudentAndDepartment(ctx context.Context, studentID string, department models.Department) (bool, error) {
	const query = `SELECT 1 FROM submissions WHERE student_id = $1 AND department = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, department); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check existing submission: %w", err)
	}
	return true, nil
}

// UpdateStatus transitions the submission's status guarded by the expected
// version. Returns ErrStaleVersion when a concurrent writer got there first.
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus, expectedVersion int) error {
	const query = `UPDATE submissions SET status = $2, version = version + 1, updated_at = $3 WHERE id = $1 AND version = $4`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC(), expectedVersion)
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrStaleVersion
	}
	return nil
}

// BumpVersion advances the version after a document mutation so concurrent
// finalize attempts re-read a fresh completeness snapshot.
func (r *SubmissionRepository) BumpVersion(ctx context.Context, id string, expectedVersion int) error {
	const query = `UPDATE submissions SET version = version + 1, updated_at = $2 WHERE id = $1 AND version = $3`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC(), expectedVersion)
	if err != nil {
		return fmt.Errorf("bump submission version: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrStaleVersion
	}
	return nil
}

// Delete removes the submission row. Document rows cascade in the schema;
// blob cleanup is the caller's responsibility before this point.
func (r *SubmissionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns submissions filtered by the provided criteria with document
// counts for the staff register.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error) {
	base := `FROM submissions s`
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("s.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Programme != "" {
		conditions = append(conditions, fmt.Sprintf("s.programme = $%d", len(args)+1))
		args = append(args, filter.Programme)
	}
	if filter.IntakeTerm != "" {
		conditions = append(conditions, fmt.Sprintf("s.intake_term = $%d", len(args)+1))
		args = append(args, filter.IntakeTerm)
	}
	if filter.Campus != "" {
		conditions = append(conditions, fmt.Sprintf("s.campus = $%d", len(args)+1))
		args = append(args, filter.Campus)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("s.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at": "s.created_at",
		"status":     "s.status",
		"reference":  "s.reference",
		"last_name":  "s.last_name",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.%s,
        (SELECT COUNT(*) FROM documents d WHERE d.submission_id = s.id) AS documents_count
        %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		strings.ReplaceAll(submissionColumns, ", ", ", s."), base+clause, orderBy, order, size, offset)

	var submissions []models.SubmissionDetail
	if err := r.db.SelectContext(ctx, &submissions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}
	return submissions, total, nil
}
