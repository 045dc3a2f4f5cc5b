package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
	appErrors "github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/errors"
)

type statusSubmissionStore interface {
	FindByReference(ctx context.Context, reference string) (*models.Submission, error)
	FindByStudentID(ctx context.Context, studentID string) (*models.Submission, error)
}

type statusDocumentStore interface {
	ListBySubmission(ctx context.Context, submissionID string) ([]models.Document, error)
}

// StatusService is the read-only lookup facade behind the public status page
// and the conversational assistant. It answers by reference or student id and
// only ever exposes the caller's own submission, never rule internals.
type StatusService struct {
	submissions statusSubmissionStore
	documents   statusDocumentStore
	checklist   checklistResolver
	logger      *zap.Logger
}

// NewStatusService constructs the facade.
func NewStatusService(submissions statusSubmissionStore, documents statusDocumentStore, checklist checklistResolver, logger *zap.Logger) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{submissions: submissions, documents: documents, checklist: checklist, logger: logger}
}

// LookupByReference answers a status query for a submission reference.
// References match case-insensitively since students read them back from
// emails and letters.
func (s *StatusService) LookupByReference(ctx context.Context, reference string) (*models.StatusProjection, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reference is required")
	}
	submission, err := s.submissions.FindByReference(ctx, reference)
	if err != nil {
		return nil, s.lookupError(err)
	}
	return s.project(ctx, submission)
}

// LookupByStudentID answers a status query for a student id, returning the
// student's most recent submission.
func (s *StatusService) LookupByStudentID(ctx context.Context, studentID string) (*models.StatusProjection, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	submission, err := s.submissions.FindByStudentID(ctx, studentID)
	if err != nil {
		return nil, s.lookupError(err)
	}
	return s.project(ctx, submission)
}

func (s *StatusService) lookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "no submission found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "status lookup failed")
}

// project folds the checklist and upload state into the public view. A
// checklist resolution failure degrades to counts of zero rather than failing
// the whole lookup; the status page stays useful while rules are repaired.
func (s *StatusService) project(ctx context.Context, submission *models.Submission) (*models.StatusProjection, error) {
	docs, err := s.documents.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "status lookup failed")
	}

	projection := &models.StatusProjection{
		Reference:      submission.Reference,
		Status:         submission.Status,
		Department:     submission.Department,
		DocumentsCount: len(docs),
		CreatedAt:      submission.CreatedAt,
	}

	items, err := s.checklist.Resolve(ctx, submission.ChecklistContext())
	if err != nil {
		s.logger.Warn("checklist resolution failed during status lookup",
			zap.String("reference", submission.Reference), zap.Error(err))
		return projection, nil
	}
	uploaded := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		uploaded[doc.DocType] = struct{}{}
	}
	for _, item := range items {
		if !item.Required {
			continue
		}
		projection.RequiredCount++
		if _, ok := uploaded[item.DocType]; ok {
			projection.SatisfiedRequired++
		}
	}
	return projection, nil
}
