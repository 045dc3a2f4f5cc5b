package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/repository"
	appErrors "github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/errors"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/storage"
)

type submissionRepoStub struct {
	mu   sync.Mutex
	subs map[string]*models.Submission
}

func newSubmissionRepoStub() *submissionRepoStub {
	return &submissionRepoStub{subs: make(map[string]*models.Submission)}
}

func (r *submissionRepoStub) Create(ctx context.Context, submission *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if submission.ID == "" {
		submission.ID = fmt.Sprintf("sub-%d", len(r.subs)+1)
	}
	submission.Version = 1
	submission.CreatedAt = time.Now()
	copy := *submission
	r.subs[submission.ID] = &copy
	return nil
}

func (r *submissionRepoStub) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub, ok := r.subs[id]; ok {
		copy := *sub
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *submissionRepoStub) ExistsForStudentAndDepartment(ctx context.Context, studentID string, department models.Department) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		if sub.StudentID == studentID && sub.Department == department {
			return true, nil
		}
	}
	return false, nil
}

func (r *submissionRepoStub) UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if sub.Version != expectedVersion {
		return repository.ErrStaleVersion
	}
	sub.Status = status
	sub.Version++
	return nil
}

func (r *submissionRepoStub) BumpVersion(ctx context.Context, id string, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if sub.Version != expectedVersion {
		return repository.ErrStaleVersion
	}
	sub.Version++
	return nil
}

func (r *submissionRepoStub) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.subs, id)
	return nil
}

func (r *submissionRepoStub) List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	details := make([]models.SubmissionDetail, 0, len(r.subs))
	for _, sub := range r.subs {
		details = append(details, models.SubmissionDetail{Submission: *sub})
	}
	return details, len(details), nil
}

type documentRepoStub struct {
	mu         sync.Mutex
	docs       map[string]*models.Document
	failUpsert bool
	nextID     int
}

func newDocumentRepoStub() *documentRepoStub {
	return &documentRepoStub{docs: make(map[string]*models.Document)}
}

func (r *documentRepoStub) Upsert(ctx context.Context, doc *models.Document) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpsert {
		return "", fmt.Errorf("record write failed")
	}
	key := doc.SubmissionID + "/" + doc.DocType
	previous := ""
	if existing, ok := r.docs[key]; ok {
		doc.ID = existing.ID
		if existing.StorageKey != doc.StorageKey {
			previous = existing.StorageKey
		}
	} else {
		r.nextID++
		doc.ID = fmt.Sprintf("doc-%d", r.nextID)
	}
	doc.UploadedAt = time.Now()
	copy := *doc
	r.docs[key] = &copy
	return previous, nil
}

func (r *documentRepoStub) FindByID(ctx context.Context, id string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.ID == id {
			copy := *doc
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *documentRepoStub) ListBySubmission(ctx context.Context, submissionID string) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]models.Document, 0)
	for _, doc := range r.docs {
		if doc.SubmissionID == submissionID {
			result = append(result, *doc)
		}
	}
	return result, nil
}

func (r *documentRepoStub) DeleteBySubmission(ctx context.Context, submissionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, doc := range r.docs {
		if doc.SubmissionID == submissionID {
			delete(r.docs, key)
		}
	}
	return nil
}

type resolverStub struct {
	items []models.ChecklistItem
	err   error
}

func (s resolverStub) Resolve(ctx context.Context, c models.ChecklistContext) ([]models.ChecklistItem, error) {
	return s.items, s.err
}

type reconcileStub struct {
	mu      sync.Mutex
	entries []models.StorageReconciliation
}

func (s *reconcileStub) Create(ctx context.Context, entry *models.StorageReconciliation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

type lifecycleFixture struct {
	svc       *SubmissionService
	repo      *submissionRepoStub
	docs      *documentRepoStub
	store     *storage.MemoryStore
	reconcile *reconcileStub
	audit     *auditStub
}

func newLifecycleFixture(resolver checklistResolver) *lifecycleFixture {
	repo := newSubmissionRepoStub()
	docs := newDocumentRepoStub()
	store := storage.NewMemoryStore()
	reconcile := &reconcileStub{}
	audit := &auditStub{}
	signer := storage.NewDownloadSigner("test-secret", time.Minute)
	svc := NewSubmissionService(repo, docs, resolver, reconcile, store, signer, audit, nil, nil, nil,
		SubmissionServiceConfig{MaxFileSize: 1 << 20, StorageOpTimeout: time.Second})
	return &lifecycleFixture{svc: svc, repo: repo, docs: docs, store: store, reconcile: reconcile, audit: audit}
}

func (f *lifecycleFixture) seedSubmission(t *testing.T, status models.SubmissionStatus) *models.Submission {
	t.Helper()
	sub, err := f.svc.Create(context.Background(), CreateSubmissionRequest{
		StudentID:   "123456",
		FirstName:   "Alicia",
		LastName:    "Mohammed",
		Department:  models.DepartmentAdmissions,
		Programme:   "BSN",
		IntakeTerm:  "2026SEP",
		Campus:      "PORT_OF_SPAIN",
		FundingType: "GATE",
	}, nil)
	require.NoError(t, err)
	if status != models.SubmissionStatusInProgress {
		f.repo.subs[sub.ID].Status = status
	}
	return sub
}

func uploadReq(docType, content string) UploadRequest {
	return UploadRequest{
		DocType:  docType,
		Filename: docType + ".pdf",
		Size:     int64(len(content)),
		Content:  bytes.NewReader([]byte(content)),
	}
}

func TestCreateSubmissionGeneratesReference(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusInProgress)

	require.True(t, strings.HasPrefix(sub.Reference, "ADM123456"))
	require.Len(t, sub.Reference, len("ADM123456")+4)
	require.Equal(t, models.SubmissionStatusInProgress, sub.Status)
}

func TestCreateSubmissionDuplicateRejected(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	f.seedSubmission(t, models.SubmissionStatusInProgress)

	_, err := f.svc.Create(context.Background(), CreateSubmissionRequest{
		StudentID:   "123456",
		FirstName:   "Alicia",
		LastName:    "Mohammed",
		Department:  models.DepartmentAdmissions,
		Programme:   "BSN",
		IntakeTerm:  "2026SEP",
		Campus:      "PORT_OF_SPAIN",
		FundingType: "GATE",
	}, nil)
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestUploadStoresBlobThenRecord(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusInProgress)

	doc, err := f.svc.Upload(context.Background(), sub.ID, uploadReq("birth_certificate", "hello"), nil)
	require.NoError(t, err)
	require.Equal(t, "birth_certificate", doc.DocType)
	require.True(t, f.store.Has(doc.StorageKey))
	require.Equal(t, 1, f.store.Len())

	// Document record registered and version advanced.
	stored, err := f.repo.FindByID(context.Background(), sub.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.Version)
}

func TestUploadInvalidDocType(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusInProgress)

	_, err := f.svc.Upload(context.Background(), sub.ID, uploadReq("Not A Type!", "x"), nil)
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrInvalidDocType))
	require.Zero(t, f.store.Len())
}

func TestUploadLockedSubmission(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusSubmitted)

	_, err := f.svc.Upload(context.Background(), sub.ID, uploadReq("transcript", "x"), nil)
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrSubmissionLocked))
	require.Zero(t, f.store.Len())
}

// gateReader signals when the first Read begins and blocks it until released,
// holding an upload inside the blob write.
type gateReader struct {
	entered chan struct{}
	release chan struct{}
	data    io.Reader
	once    sync.Once
}

func (g *gateReader) Read(p []byte) (int, error) {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.data.Read(p)
}

func TestUploadRacingFinalizeIsRejected(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusInProgress)

	gate := &gateReader{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		data:    strings.NewReader("x"),
	}
	req := UploadRequest{DocType: "transcript", Filename: "transcript.pdf", Size: 1, Content: gate}

	uploadErr := make(chan error, 1)
	go func() {
		_, err := f.svc.Upload(context.Background(), sub.ID, req, nil)
		uploadErr <- err
	}()

	<-gate.entered
	_, err := f.svc.Finalize(context.Background(), sub.ID, nil)
	require.NoError(t, err)
	close(gate.release)

	err = <-uploadErr
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrSubmissionLocked))

	// No record lands on the now-submitted submission; the already-written
	// blob is queued for the reconciliation sweep.
	docs, listErr := f.docs.ListBySubmission(context.Background(), sub.ID)
	require.NoError(t, listErr)
	require.Empty(t, docs)
	require.Len(t, f.reconcile.entries, 1)
	require.Equal(t, models.ReconcileOrphanedBlob, f.reconcile.entries[0].Reason)
}

func TestConcurrentUploadsSameDocTypeKeepOneRecord(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusInProgress)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, body := range []string{"first", "second"} {
		wg.Add(1)
		go func(content string) {
			defer wg.Done()
			_, err := f.svc.Upload(context.Background(), sub.ID, uploadReq("transcript", content), nil)
			errs <- err
		}(body)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	docs, err := f.docs.ListBySubmission(context.Background(), sub.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.True(t, f.store.Has(docs[0].StorageKey))
	require.Equal(t, 1, f.store.Len())
}

func TestUploadStaffOverrideIsAudited(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusSubmitted)

	staff := &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff}
	req := uploadReq("transcript", "x")
	req.Override = true
	_, err := f.svc.Upload(context.Background(), sub.ID, req, staff)
	require.NoError(t, err)

	require.NotEmpty(t, f.audit.entries)
	last := f.audit.entries[len(f.audit.entries)-1]
	require.Equal(t, models.AuditActionOverrideUpload, last.Action)
	require.Equal(t, "staff-1", *last.UserID)
}

func TestUploadReplaceDeletesPreviousBlob(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusInProgress)

	first, err := f.svc.Upload(context.Background(), sub.ID, uploadReq("transcript", "v1"), nil)
	require.NoError(t, err)
	second, err := f.svc.Upload(context.Background(), sub.ID, uploadReq("transcript", "v2"), nil)
	require.NoError(t, err)

	require.NotEqual(t, first.StorageKey, second.StorageKey)
	require.False(t, f.store.Has(first.StorageKey))
	require.True(t, f.store.Has(second.StorageKey))
	require.Equal(t, 1, f.store.Len())
	// Same record, replaced in place.
	require.Equal(t, first.ID, second.ID)
}

func TestUploadRecordFailureQueuesOrphanedBlob(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusInProgress)
	f.docs.failUpsert = true

	_, err := f.svc.Upload(context.Background(), sub.ID, uploadReq("transcript", "x"), nil)
	require.Error(t, err)
	require.Len(t, f.reconcile.entries, 1)
	require.Equal(t, models.ReconcileOrphanedBlob, f.reconcile.entries[0].Reason)
	require.True(t, f.store.Has(f.reconcile.entries[0].StorageKey))
}

func TestUploadStorageUnavailable(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusInProgress)
	f.store.FailPuts = true

	_, err := f.svc.Upload(context.Background(), sub.ID, uploadReq("transcript", "x"), nil)
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrStorageUnavailable))
	docs, _ := f.docs.ListBySubmission(context.Background(), sub.ID)
	require.Empty(t, docs)
}

func TestFinalizeRejectsMissingRequiredDocuments(t *testing.T) {
	resolver := resolverStub{items: []models.ChecklistItem{
		{DocType: "birth_certificate", Required: true},
		{DocType: "transcript", Required: true},
		{DocType: "recommendation_letter", Required: false},
	}}
	f := newLifecycleFixture(resolver)
	sub := f.seedSubmission(t, models.SubmissionStatusInProgress)

	_, err := f.svc.Upload(context.Background(), sub.ID, uploadReq("birth_certificate", "x"), nil)
	require.NoError(t, err)

	_, err = f.svc.Finalize(context.Background(), sub.ID, nil)
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrChecklistIncomplete))
	require.Contains(t, err.Error(), "transcript")
	require.NotContains(t, err.Error(), "recommendation_letter")

	stored, _ := f.repo.FindByID(context.Background(), sub.ID)
	require.Equal(t, models.SubmissionStatusInProgress, stored.Status)
}

func TestFinalizeSucceedsWhenRequiredSatisfied(t *testing.T) {
	resolver := resolverStub{items: []models.ChecklistItem{
		{DocType: "birth_certificate", Required: true},
		{DocType: "recommendation_letter", Required: false},
	}}
	f := newLifecycleFixture(resolver)
	sub := f.seedSubmission(t, models.SubmissionStatusInProgress)

	_, err := f.svc.Upload(context.Background(), sub.ID, uploadReq("birth_certificate", "x"), nil)
	require.NoError(t, err)

	actor := &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent, StudentID: "123456"}
	result, err := f.svc.Finalize(context.Background(), sub.ID, actor)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, result.Status)

	require.NotEmpty(t, f.audit.entries)
	require.Equal(t, models.AuditActionFinalize, f.audit.entries[len(f.audit.entries)-1].Action)
}

func TestFinalizeAlreadySubmitted(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusSubmitted)

	_, err := f.svc.Finalize(context.Background(), sub.ID, nil)
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrSubmissionLocked))
}

func TestExtraDocumentsDoNotBlockFinalize(t *testing.T) {
	resolver := resolverStub{items: []models.ChecklistItem{
		{DocType: "birth_certificate", Required: true},
	}}
	f := newLifecycleFixture(resolver)
	sub := f.seedSubmission(t, models.SubmissionStatusInProgress)

	_, err := f.svc.Upload(context.Background(), sub.ID, uploadReq("birth_certificate", "x"), nil)
	require.NoError(t, err)
	_, err = f.svc.Upload(context.Background(), sub.ID, uploadReq("extra_evidence", "y"), nil)
	require.NoError(t, err)

	result, err := f.svc.Finalize(context.Background(), sub.ID, nil)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, result.Status)
}

func TestTransitionForward(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusSubmitted)

	staff := &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff}
	result, err := f.svc.Transition(context.Background(), sub.ID, TransitionRequest{Status: models.SubmissionStatusProcessing}, staff)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusProcessing, result.Status)

	result, err = f.svc.Transition(context.Background(), sub.ID, TransitionRequest{Status: models.SubmissionStatusCompleted}, staff)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusCompleted, result.Status)
}

func TestTransitionBackwardRejected(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusCompleted)

	staff := &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff}
	_, err := f.svc.Transition(context.Background(), sub.ID, TransitionRequest{Status: models.SubmissionStatusProcessing}, staff)
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))
}

func TestTransitionCannotReachSubmittedDirectly(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusInProgress)

	staff := &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff}
	_, err := f.svc.Transition(context.Background(), sub.ID, TransitionRequest{Status: models.SubmissionStatusSubmitted}, staff)
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))
}

func TestReopenReturnsToInProgress(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusCompleted)

	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	result, err := f.svc.Reopen(context.Background(), sub.ID, admin)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusInProgress, result.Status)
	require.Equal(t, models.AuditActionReopen, f.audit.entries[len(f.audit.entries)-1].Action)
}

func TestDeleteRemovesBlobsAndRecords(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusInProgress)
	_, err := f.svc.Upload(context.Background(), sub.ID, uploadReq("transcript", "x"), nil)
	require.NoError(t, err)

	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	require.NoError(t, f.svc.Delete(context.Background(), sub.ID, admin))
	require.Zero(t, f.store.Len())
	_, err = f.repo.FindByID(context.Background(), sub.ID)
	require.Error(t, err)
}

func TestDeleteQueuesPendingDeleteWhenStoreDown(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusInProgress)
	_, err := f.svc.Upload(context.Background(), sub.ID, uploadReq("transcript", "x"), nil)
	require.NoError(t, err)

	f.store.FailDeletes = true
	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	require.NoError(t, f.svc.Delete(context.Background(), sub.ID, admin))

	require.Len(t, f.reconcile.entries, 1)
	require.Equal(t, models.ReconcilePendingDelete, f.reconcile.entries[0].Reason)
}

func TestDownloadCrossSubmissionYieldsNotFound(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	first := f.seedSubmission(t, models.SubmissionStatusInProgress)
	doc, err := f.svc.Upload(context.Background(), first.ID, uploadReq("transcript", "x"), nil)
	require.NoError(t, err)

	other, err := f.svc.Create(context.Background(), CreateSubmissionRequest{
		StudentID:   "654321",
		FirstName:   "Kwame",
		LastName:    "Charles",
		Department:  models.DepartmentRegistry,
		Programme:   "BSN",
		IntakeTerm:  "2026SEP",
		Campus:      "SAN_FERNANDO",
		FundingType: "SELF",
	}, nil)
	require.NoError(t, err)

	_, err = f.svc.Download(context.Background(), other.ID, doc.ID)
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestDownloadStreamsBlob(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusInProgress)
	doc, err := f.svc.Upload(context.Background(), sub.ID, uploadReq("transcript", "contents"), nil)
	require.NoError(t, err)

	download, err := f.svc.Download(context.Background(), sub.ID, doc.ID)
	require.NoError(t, err)
	defer download.Content.Close()
	data, err := io.ReadAll(download.Content)
	require.NoError(t, err)
	require.Equal(t, "contents", string(data))
}

func TestSignedDownloadRoundTrip(t *testing.T) {
	f := newLifecycleFixture(resolverStub{})
	sub := f.seedSubmission(t, models.SubmissionStatusInProgress)
	doc, err := f.svc.Upload(context.Background(), sub.ID, uploadReq("transcript", "signed"), nil)
	require.NoError(t, err)

	token, expiresAt, err := f.svc.SignedDownloadToken(context.Background(), sub.ID, doc.ID)
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	download, err := f.svc.DownloadByToken(context.Background(), token)
	require.NoError(t, err)
	defer download.Content.Close()
	data, err := io.ReadAll(download.Content)
	require.NoError(t, err)
	require.Equal(t, "signed", string(data))
}

func TestResolvedChecklistOverlay(t *testing.T) {
	resolver := resolverStub{items: []models.ChecklistItem{
		{DocType: "birth_certificate", Required: true},
		{DocType: "transcript", Required: true},
	}}
	f := newLifecycleFixture(resolver)
	sub := f.seedSubmission(t, models.SubmissionStatusInProgress)

	doc, err := f.svc.Upload(context.Background(), sub.ID, uploadReq("birth_certificate", "x"), nil)
	require.NoError(t, err)

	stored, err := f.svc.Get(context.Background(), sub.ID)
	require.NoError(t, err)
	resolved, err := f.svc.ResolvedChecklist(context.Background(), stored)
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	require.True(t, resolved[0].Satisfied)
	require.Equal(t, doc.ID, *resolved[0].DocumentID)
	require.False(t, resolved[1].Satisfied)
}
