package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
	appErrors "github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/errors"
)

type statusRepoStub struct {
	subs []*models.Submission
}

func (r *statusRepoStub) FindByReference(ctx context.Context, reference string) (*models.Submission, error) {
	for _, sub := range r.subs {
		if strings.EqualFold(sub.Reference, reference) {
			copy := *sub
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *statusRepoStub) FindByStudentID(ctx context.Context, studentID string) (*models.Submission, error) {
	var latest *models.Submission
	for _, sub := range r.subs {
		if sub.StudentID != studentID {
			continue
		}
		if latest == nil || sub.CreatedAt.After(latest.CreatedAt) {
			latest = sub
		}
	}
	if latest == nil {
		return nil, sql.ErrNoRows
	}
	copy := *latest
	return &copy, nil
}

type statusDocsStub struct {
	docs map[string][]models.Document
}

func (r *statusDocsStub) ListBySubmission(ctx context.Context, submissionID string) ([]models.Document, error) {
	return r.docs[submissionID], nil
}

func statusSubmission(id, studentID, reference string, createdAt time.Time) *models.Submission {
	return &models.Submission{
		ID:          id,
		StudentID:   studentID,
		Reference:   reference,
		Department:  models.DepartmentAdmissions,
		Programme:   "BSN",
		IntakeTerm:  "2026SEP",
		Campus:      "PORT_OF_SPAIN",
		FundingType: "GATE",
		Status:      models.SubmissionStatusInProgress,
		CreatedAt:   createdAt,
	}
}

func TestStatusLookupByReference(t *testing.T) {
	repo := &statusRepoStub{subs: []*models.Submission{
		statusSubmission("sub-1", "123456", "ADM123456A7K2", time.Now()),
	}}
	docs := &statusDocsStub{docs: map[string][]models.Document{
		"sub-1": {{DocType: "birth_certificate"}, {DocType: "extra_evidence"}},
	}}
	resolver := resolverStub{items: []models.ChecklistItem{
		{DocType: "birth_certificate", Required: true},
		{DocType: "transcript", Required: true},
		{DocType: "recommendation_letter", Required: false},
	}}
	svc := NewStatusService(repo, docs, resolver, nil)

	projection, err := svc.LookupByReference(context.Background(), "adm123456a7k2")
	require.NoError(t, err)
	require.Equal(t, "ADM123456A7K2", projection.Reference)
	require.Equal(t, 2, projection.DocumentsCount)
	require.Equal(t, 2, projection.RequiredCount)
	require.Equal(t, 1, projection.SatisfiedRequired)
}

func TestStatusLookupByStudentIDReturnsLatest(t *testing.T) {
	old := statusSubmission("sub-1", "123456", "ADM123456AAAA", time.Now().Add(-48*time.Hour))
	recent := statusSubmission("sub-2", "123456", "REG123456BBBB", time.Now())
	recent.Department = models.DepartmentRegistry
	repo := &statusRepoStub{subs: []*models.Submission{old, recent}}
	docs := &statusDocsStub{docs: map[string][]models.Document{}}
	svc := NewStatusService(repo, docs, resolverStub{}, nil)

	projection, err := svc.LookupByStudentID(context.Background(), "123456")
	require.NoError(t, err)
	require.Equal(t, "REG123456BBBB", projection.Reference)
}

func TestStatusLookupNotFound(t *testing.T) {
	svc := NewStatusService(&statusRepoStub{}, &statusDocsStub{}, resolverStub{}, nil)

	_, err := svc.LookupByReference(context.Background(), "ADM000000XXXX")
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestStatusLookupMissingInput(t *testing.T) {
	svc := NewStatusService(&statusRepoStub{}, &statusDocsStub{}, resolverStub{}, nil)

	_, err := svc.LookupByReference(context.Background(), "   ")
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestStatusLookupDegradesWhenChecklistFails(t *testing.T) {
	repo := &statusRepoStub{subs: []*models.Submission{
		statusSubmission("sub-1", "123456", "ADM123456A7K2", time.Now()),
	}}
	docs := &statusDocsStub{docs: map[string][]models.Document{
		"sub-1": {{DocType: "birth_certificate"}},
	}}
	resolver := resolverStub{err: fmt.Errorf("rules misconfigured")}
	svc := NewStatusService(repo, docs, resolver, nil)

	projection, err := svc.LookupByReference(context.Background(), "ADM123456A7K2")
	require.NoError(t, err)
	require.Equal(t, 1, projection.DocumentsCount)
	require.Zero(t, projection.RequiredCount)
}
