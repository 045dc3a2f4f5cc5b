package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/repository"
	appErrors "github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/errors"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/storage"
)

type submissionStore interface {
	Create(ctx context.Context, submission *models.Submission) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	ExistsForStudentAndDepartment(ctx context.Context, studentID string, department models.Department) (bool, error)
	UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus, expectedVersion int) error
	BumpVersion(ctx context.Context, id string, expectedVersion int) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error)
}

type documentStore interface {
	Upsert(ctx context.Context, doc *models.Document) (previousKey string, err error)
	FindByID(ctx context.Context, id string) (*models.Document, error)
	ListBySubmission(ctx context.Context, submissionID string) ([]models.Document, error)
	DeleteBySubmission(ctx context.Context, submissionID string) error
}

type checklistResolver interface {
	Resolve(ctx context.Context, c models.ChecklistContext) ([]models.ChecklistItem, error)
}

type reconciliationStore interface {
	Create(ctx context.Context, entry *models.StorageReconciliation) error
}

// CreateSubmissionRequest describes submission creation.
type CreateSubmissionRequest struct {
	StudentID   string            `json:"student_id" validate:"required"`
	FirstName   string            `json:"first_name" validate:"required"`
	LastName    string            `json:"last_name" validate:"required"`
	Department  models.Department `json:"department" validate:"required,oneof=ADMISSIONS REGISTRY"`
	Programme   string            `json:"programme" validate:"required"`
	IntakeTerm  string            `json:"intake_term" validate:"required"`
	Campus      string            `json:"campus" validate:"required"`
	FundingType string            `json:"funding_type" validate:"required"`
	Nationality *string           `json:"nationality,omitempty"`
}

// UploadRequest carries upload metadata and the stream.
type UploadRequest struct {
	DocType  string
	Filename string
	Size     int64
	MimeType string
	Content  io.Reader
	Override bool
}

// DocumentDownload bundles the blob stream with its metadata.
type DocumentDownload struct {
	Document *models.Document
	Content  io.ReadCloser
}

// TransitionRequest is the staff payload for a status change.
type TransitionRequest struct {
	Status models.SubmissionStatus `json:"status" validate:"required"`
}

// SubmissionServiceConfig bounds uploads and storage calls.
type SubmissionServiceConfig struct {
	MaxFileSize      int64
	AllowedMIMEs     []string
	StorageOpTimeout time.Duration
}

// SubmissionService owns the submission lifecycle: uploads, completeness,
// finalize and administrative transitions.
type SubmissionService struct {
	repo      submissionStore
	documents documentStore
	checklist checklistResolver
	reconcile reconciliationStore
	store     storage.ObjectStore
	signer    *storage.DownloadSigner
	audit     auditLogger
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	locks     *keyedLocker
	cfg       SubmissionServiceConfig
	mimeSet   map[string]struct{}
}

// NewSubmissionService constructs the service with defaults.
func NewSubmissionService(repo submissionStore, documents documentStore, checklist checklistResolver, reconcile reconciliationStore, store storage.ObjectStore, signer *storage.DownloadSigner, audit auditLogger, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg SubmissionServiceConfig) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if cfg.StorageOpTimeout <= 0 {
		cfg.StorageOpTimeout = 30 * time.Second
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	return &SubmissionService{
		repo:      repo,
		documents: documents,
		checklist: checklist,
		reconcile: reconcile,
		store:     store,
		signer:    signer,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		locks:     newKeyedLocker(),
		cfg:       cfg,
		mimeSet:   mimeSet,
	}
}

// Create opens a new submission in IN_PROGRESS and mints its reference.
func (s *SubmissionService) Create(ctx context.Context, req CreateSubmissionRequest, actor *models.JWTClaims) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	exists, err := s.repo.ExistsForStudentAndDepartment(ctx, req.StudentID, req.Department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate submission")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a submission already exists for this student and department")
	}
	submission := &models.Submission{
		StudentID:   req.StudentID,
		Reference:   generateReference(req.Department, req.StudentID),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Department:  req.Department,
		Programme:   req.Programme,
		IntakeTerm:  req.IntakeTerm,
		Campus:      req.Campus,
		FundingType: req.FundingType,
		Nationality: req.Nationality,
		Status:      models.SubmissionStatusInProgress,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}
	s.auditAction(ctx, models.AuditActionSubmissionCreate, submission.ID, actor, nil, submission)
	return submission, nil
}

// Get loads one submission.
func (s *SubmissionService) Get(ctx context.Context, id string) (*models.Submission, error) {
	return s.load(ctx, id)
}

// List returns submissions with pagination metadata.
func (s *SubmissionService) List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionDetail, *models.Pagination, error) {
	submissions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return submissions, pagination, nil
}

// ResolvedChecklist overlays upload state onto the submission's resolved
// checklist. Recomputed on demand; never persisted.
func (s *SubmissionService) ResolvedChecklist(ctx context.Context, submission *models.Submission) ([]models.ResolvedChecklistItem, error) {
	items, err := s.checklist.Resolve(ctx, submission.ChecklistContext())
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents")
	}
	byType := make(map[string]*models.Document, len(docs))
	for i := range docs {
		byType[docs[i].DocType] = &docs[i]
	}
	resolved := make([]models.ResolvedChecklistItem, 0, len(items))
	for _, item := range items {
		entry := models.ResolvedChecklistItem{ChecklistItem: item}
		if doc, ok := byType[item.DocType]; ok {
			entry.Satisfied = true
			entry.DocumentID = &doc.ID
		}
		resolved = append(resolved, entry)
	}
	return resolved, nil
}

var docTypePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-.]{1,63}$`)

// Upload stores the blob and registers the document record. Extra document
// types beyond the checklist are permitted; only checklist types count
// toward completeness. Replacing a type deletes the prior blob only after
// the new one is durably written.
func (s *SubmissionService) Upload(ctx context.Context, submissionID string, req UploadRequest, actor *models.JWTClaims) (*models.Document, error) {
	docType := strings.ToLower(strings.TrimSpace(req.DocType))
	if !docTypePattern.MatchString(docType) {
		return nil, appErrors.Clone(appErrors.ErrInvalidDocType, "")
	}
	if req.Content == nil || req.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if req.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	if len(s.mimeSet) > 0 && req.MimeType != "" {
		if _, allowed := s.mimeSet[strings.ToLower(req.MimeType)]; !allowed {
			return nil, appErrors.Clone(appErrors.ErrValidation, "mime type not allowed")
		}
	}

	submission, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	override := req.Override && actor != nil && (actor.Role == models.RoleStaff || actor.Role == models.RoleAdmin)
	if submission.Status != models.SubmissionStatusInProgress && !override {
		return nil, appErrors.Clone(appErrors.ErrSubmissionLocked, "submission is locked; documents can no longer be uploaded")
	}

	// Blob write happens outside the submission lock; the record only
	// exists once the store has acknowledged the bytes, so a cancelled
	// request never leaves a record pointing at a missing blob.
	key := storageKey(submission, docType, req.Filename)
	putCtx, cancel := context.WithTimeout(ctx, s.cfg.StorageOpTimeout)
	defer cancel()
	start := time.Now()
	info, err := s.store.Put(putCtx, key, req.Content)
	s.metrics.RecordStorageOperation("put", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	doc, previousKey, status, err := s.registerUpload(ctx, submissionID, docType, req.Filename, info, override)
	if err != nil {
		return nil, err
	}

	if previousKey != "" {
		s.deleteBlob(ctx, previousKey, submissionID)
	}
	if status != models.SubmissionStatusInProgress {
		s.auditAction(ctx, models.AuditActionOverrideUpload, submissionID, actor, nil, doc)
	}
	return doc, nil
}

// registerUpload writes the document record under the submission lock once
// the blob is already durable. The status precondition is re-checked against
// a fresh load so an upload racing a finalize cannot land a document on a
// locked submission. On failure the blob is queued as orphaned.
func (s *SubmissionService) registerUpload(ctx context.Context, submissionID, docType, filename string, info storage.ObjectInfo, override bool) (*models.Document, string, models.SubmissionStatus, error) {
	unlock := s.locks.Lock(submissionID)
	defer unlock()

	current, err := s.load(ctx, submissionID)
	if err != nil {
		s.logOrphan(ctx, info.Key, submissionID, "submission vanished during upload")
		return nil, "", "", err
	}
	if current.Status != models.SubmissionStatusInProgress && !override {
		s.logOrphan(ctx, info.Key, submissionID, "submission locked during upload")
		return nil, "", current.Status, appErrors.Clone(appErrors.ErrSubmissionLocked, "submission is locked; documents can no longer be uploaded")
	}
	doc := &models.Document{
		SubmissionID:     current.ID,
		DocType:          docType,
		OriginalFilename: path.Base(filename),
		StorageKey:       info.Key,
		SizeBytes:        info.Size,
		MimeType:         info.MimeType,
	}
	previousKey, err := s.documents.Upsert(ctx, doc)
	if err != nil {
		s.logOrphan(ctx, info.Key, submissionID, "document record write failed")
		return nil, "", current.Status, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register document")
	}
	if err := s.repo.BumpVersion(ctx, current.ID, current.Version); err != nil && !errors.Is(err, repository.ErrStaleVersion) {
		s.logger.Warn("failed to advance submission version", zap.String("submission_id", current.ID), zap.Error(err))
	}
	return doc, previousKey, current.Status, nil
}

// Download streams a document after verifying it belongs to the submission.
// A document id from another submission yields NotFound, never the file.
func (s *SubmissionService) Download(ctx context.Context, submissionID, documentID string) (*DocumentDownload, error) {
	doc, err := s.loadOwnedDocument(ctx, submissionID, documentID)
	if err != nil {
		return nil, err
	}
	getCtx, cancel := context.WithTimeout(ctx, s.cfg.StorageOpTimeout)
	defer cancel()
	start := time.Now()
	content, err := s.store.Get(getCtx, doc.StorageKey)
	s.metrics.RecordStorageOperation("get", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return &DocumentDownload{Document: doc, Content: content}, nil
}

// SignedDownloadToken mints a short-lived token for a document download.
func (s *SubmissionService) SignedDownloadToken(ctx context.Context, submissionID, documentID string) (string, time.Time, error) {
	doc, err := s.loadOwnedDocument(ctx, submissionID, documentID)
	if err != nil {
		return "", time.Time{}, err
	}
	token, expiresAt, err := s.signer.Generate(doc.ID, doc.StorageKey)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}
	return token, expiresAt, nil
}

// DownloadByToken resolves a signed token and streams the document.
func (s *SubmissionService) DownloadByToken(ctx context.Context, token string) (*DocumentDownload, error) {
	documentID, storageKey, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "invalid or expired download token")
	}
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil || doc.StorageKey != storageKey {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "invalid or expired download token")
	}
	getCtx, cancel := context.WithTimeout(ctx, s.cfg.StorageOpTimeout)
	defer cancel()
	start := time.Now()
	content, getErr := s.store.Get(getCtx, doc.StorageKey)
	s.metrics.RecordStorageOperation("get", getErr, time.Since(start))
	if getErr != nil {
		return nil, getErr
	}
	return &DocumentDownload{Document: doc, Content: content}, nil
}

// Finalize attempts IN_PROGRESS -> SUBMITTED. It fails with a
// ChecklistIncomplete error naming the missing required document types; this
// gate is the central invariant of the system.
func (s *SubmissionService) Finalize(ctx context.Context, submissionID string, actor *models.JWTClaims) (*models.Submission, error) {
	unlock := s.locks.Lock(submissionID)
	defer unlock()

	submission, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if submission.Status != models.SubmissionStatusInProgress {
		return nil, appErrors.Clone(appErrors.ErrSubmissionLocked, "submission has already been finalized")
	}

	resolved, err := s.ResolvedChecklist(ctx, submission)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, item := range resolved {
		if item.Required && !item.Satisfied {
			missing = append(missing, item.DocType)
		}
	}
	if len(missing) > 0 {
		return nil, appErrors.ChecklistIncomplete(missing)
	}

	if err := s.repo.UpdateStatus(ctx, submission.ID, models.SubmissionStatusSubmitted, submission.Version); err != nil {
		if errors.Is(err, repository.ErrStaleVersion) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "submission changed concurrently, retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize submission")
	}
	s.auditAction(ctx, models.AuditActionFinalize, submission.ID, actor,
		map[string]interface{}{"status": submission.Status},
		map[string]interface{}{"status": models.SubmissionStatusSubmitted})

	submission.Status = models.SubmissionStatusSubmitted
	submission.Version++
	return submission, nil
}

// Transition applies a staff-initiated forward status change
// (SUBMITTED -> PROCESSING -> COMPLETED). SUBMITTED itself is only reachable
// through Finalize.
func (s *SubmissionService) Transition(ctx context.Context, submissionID string, req TransitionRequest, actor *models.JWTClaims) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}
	if !req.Status.Valid() || req.Status == models.SubmissionStatusSubmitted || req.Status == models.SubmissionStatusInProgress {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "target status is not staff-transitionable")
	}

	unlock := s.locks.Lock(submissionID)
	defer unlock()

	submission, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if !submission.Status.CanTransitionTo(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot transition from %s to %s", submission.Status, req.Status))
	}
	if err := s.repo.UpdateStatus(ctx, submission.ID, req.Status, submission.Version); err != nil {
		if errors.Is(err, repository.ErrStaleVersion) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "submission changed concurrently, retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}
	s.auditAction(ctx, models.AuditActionStatusChange, submission.ID, actor,
		map[string]interface{}{"status": submission.Status},
		map[string]interface{}{"status": req.Status})

	submission.Status = req.Status
	submission.Version++
	return submission, nil
}

// Reopen is the administrative override returning a submission to
// IN_PROGRESS. It bypasses the forward-only state machine and is always
// audited with the acting user.
func (s *SubmissionService) Reopen(ctx context.Context, submissionID string, actor *models.JWTClaims) (*models.Submission, error) {
	unlock := s.locks.Lock(submissionID)
	defer unlock()

	submission, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if submission.Status == models.SubmissionStatusInProgress {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "submission is already in progress")
	}
	if err := s.repo.UpdateStatus(ctx, submission.ID, models.SubmissionStatusInProgress, submission.Version); err != nil {
		if errors.Is(err, repository.ErrStaleVersion) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "submission changed concurrently, retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reopen submission")
	}
	s.auditAction(ctx, models.AuditActionReopen, submission.ID, actor,
		map[string]interface{}{"status": submission.Status},
		map[string]interface{}{"status": models.SubmissionStatusInProgress})

	submission.Status = models.SubmissionStatusInProgress
	submission.Version++
	return submission, nil
}

// Delete removes a submission with all its documents. Blobs are deleted
// first; any blob the store cannot delete right now is queued for the
// external reconciliation sweep, so no blob is ever left without a cleanup
// record.
func (s *SubmissionService) Delete(ctx context.Context, submissionID string, actor *models.JWTClaims) error {
	unlock := s.locks.Lock(submissionID)
	defer unlock()

	submission, err := s.load(ctx, submissionID)
	if err != nil {
		return err
	}
	docs, err := s.documents.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents")
	}
	for _, doc := range docs {
		s.deleteBlob(ctx, doc.StorageKey, submission.ID)
	}
	if err := s.documents.DeleteBySubmission(ctx, submission.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete documents")
	}
	if err := s.repo.Delete(ctx, submission.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete submission")
	}
	s.auditAction(ctx, models.AuditActionDelete, submission.ID, actor, submission, nil)
	return nil
}

func (s *SubmissionService) load(ctx context.Context, id string) (*models.Submission, error) {
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return submission, nil
}

func (s *SubmissionService) loadOwnedDocument(ctx context.Context, submissionID, documentID string) (*models.Document, error) {
	if _, err := s.load(ctx, submissionID); err != nil {
		return nil, err
	}
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if doc.SubmissionID != submissionID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	return doc, nil
}

func (s *SubmissionService) deleteBlob(ctx context.Context, key, submissionID string) {
	delCtx, cancel := context.WithTimeout(ctx, s.cfg.StorageOpTimeout)
	defer cancel()
	start := time.Now()
	err := s.store.Delete(delCtx, key)
	s.metrics.RecordStorageOperation("delete", err, time.Since(start))
	if err == nil {
		return
	}
	s.logger.Warn("blob delete failed, queueing reconciliation",
		zap.String("storage_key", key), zap.Error(err))
	entry := &models.StorageReconciliation{
		StorageKey:   key,
		SubmissionID: &submissionID,
		Reason:       models.ReconcilePendingDelete,
		Detail:       err.Error(),
	}
	if s.reconcile != nil {
		if recErr := s.reconcile.Create(ctx, entry); recErr != nil {
			s.logger.Error("failed to record pending blob delete",
				zap.String("storage_key", key), zap.Error(recErr))
		}
	}
}

func (s *SubmissionService) logOrphan(ctx context.Context, key, submissionID, detail string) {
	s.logger.Warn("orphaned blob recorded", zap.String("storage_key", key), zap.String("detail", detail))
	if s.reconcile == nil {
		return
	}
	entry := &models.StorageReconciliation{
		StorageKey:   key,
		SubmissionID: &submissionID,
		Reason:       models.ReconcileOrphanedBlob,
		Detail:       detail,
	}
	if err := s.reconcile.Create(ctx, entry); err != nil {
		s.logger.Error("failed to record orphaned blob", zap.String("storage_key", key), zap.Error(err))
	}
}

func (s *SubmissionService) auditAction(ctx context.Context, action, resourceID string, actor *models.JWTClaims, oldValues, newValues interface{}) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{Action: action, Resource: "submission", ResourceID: &resourceID}
	if actor != nil {
		entry.UserID = &actor.UserID
	}
	if oldValues != nil {
		if payload, err := json.Marshal(oldValues); err == nil {
			entry.OldValues = payload
		}
	}
	if newValues != nil {
		if payload, err := json.Marshal(newValues); err == nil {
			entry.NewValues = payload
		}
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func storageKey(submission *models.Submission, docType, filename string) string {
	name := sanitizeFilename(filename)
	return fmt.Sprintf("%s/%s/%s/%s_%s", submission.Department, submission.ID, docType, randomSuffix(8), name)
}

func sanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if cleaned == "" || cleaned == "." {
		cleaned = "upload"
	}
	return cleaned
}

const referenceCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// generateReference mints the human-shareable submission code, e.g.
// ADM123456A789. It is generated once at creation and never changes.
func generateReference(department models.Department, studentID string) string {
	return department.ReferencePrefix() + onlyDigits(studentID) + randomSuffix(4)
}

func onlyDigits(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

func randomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())[:n]
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = referenceCharset[int(b)%len(referenceCharset)]
	}
	return string(out)
}
