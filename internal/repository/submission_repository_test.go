package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var submissionRowColumns = []string{
	"id", "student_id", "reference", "first_name", "last_name", "department",
	"programme", "intake_term", "campus", "funding_type", "nationality",
	"status", "version", "created_at", "updated_at",
}

func submissionRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(submissionRowColumns).
		AddRow("sub-1", "123456", "ADM123456A7K2", "Alicia", "Mohammed", "ADMISSIONS",
			"BSN", "2026SEP", "PORT_OF_SPAIN", "GATE", nil,
			"IN_PROGRESS", 1, now, now)
}

func TestSubmissionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("INSERT INTO submissions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	submission := &models.Submission{
		StudentID:   "123456",
		Reference:   "ADM123456A7K2",
		FirstName:   "Alicia",
		LastName:    "Mohammed",
		Department:  models.DepartmentAdmissions,
		Programme:   "BSN",
		IntakeTerm:  "2026SEP",
		Campus:      "PORT_OF_SPAIN",
		FundingType: "GATE",
	}
	require.NoError(t, repo.Create(context.Background(), submission))
	assert.NotEmpty(t, submission.ID)
	assert.Equal(t, 1, submission.Version)
	assert.Equal(t, models.SubmissionStatusInProgress, submission.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryFindByReference(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE UPPER(reference) = UPPER($1)")).
		WithArgs("adm123456a7k2").
		WillReturnRows(submissionRow())

	submission, err := repo.FindByReference(context.Background(), "adm123456a7k2")
	require.NoError(t, err)
	assert.Equal(t, "ADM123456A7K2", submission.Reference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryUpdateStatusStaleVersion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("UPDATE submissions SET status").
		WithArgs("sub-1", "SUBMITTED", sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "sub-1", models.SubmissionStatusSubmitted, 3)
	assert.ErrorIs(t, err, ErrStaleVersion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("UPDATE submissions SET status").
		WithArgs("sub-1", "SUBMITTED", sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "sub-1", models.SubmissionStatusSubmitted, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	rows := sqlmock.NewRows(append(submissionRowColumns, "documents_count"))
	now := time.Now()
	rows.AddRow("sub-1", "123456", "ADM123456A7K2", "Alicia", "Mohammed", "ADMISSIONS",
		"BSN", "2026SEP", "PORT_OF_SPAIN", "GATE", nil, "SUBMITTED", 2, now, now, 3)

	mock.ExpectQuery("SELECT s.id, s.student_id").
		WithArgs("ADMISSIONS", "SUBMITTED").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM submissions")).
		WithArgs("ADMISSIONS", "SUBMITTED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.SubmissionFilter{
		Department: models.DepartmentAdmissions,
		Status:     models.SubmissionStatusSubmitted,
	})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, 3, list[0].DocumentsCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM submissions WHERE student_id = $1 AND department = $2 LIMIT 1")).
		WithArgs("123456", "ADMISSIONS").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err := repo.ExistsForStudentAndDepartment(context.Background(), "123456", models.DepartmentAdmissions)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
