package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/service"
	appErrors "github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/errors"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/response"
)

type submissionService interface {
	Create(ctx context.Context, req service.CreateSubmissionRequest, actor *models.JWTClaims) (*models.Submission, error)
	Get(ctx context.Context, id string) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionDetail, *models.Pagination, error)
	ResolvedChecklist(ctx context.Context, submission *models.Submission) ([]models.ResolvedChecklistItem, error)
	Upload(ctx context.Context, submissionID string, req service.UploadRequest, actor *models.JWTClaims) (*models.Document, error)
	Download(ctx context.Context, submissionID, documentID string) (*service.DocumentDownload, error)
	SignedDownloadToken(ctx context.Context, submissionID, documentID string) (string, time.Time, error)
	DownloadByToken(ctx context.Context, token string) (*service.DocumentDownload, error)
	Finalize(ctx context.Context, submissionID string, actor *models.JWTClaims) (*models.Submission, error)
	Transition(ctx context.Context, submissionID string, req service.TransitionRequest, actor *models.JWTClaims) (*models.Submission, error)
	Reopen(ctx context.Context, submissionID string, actor *models.JWTClaims) (*models.Submission, error)
	Delete(ctx context.Context, submissionID string, actor *models.JWTClaims) error
}

// SubmissionHandler manages submission lifecycle endpoints.
type SubmissionHandler struct {
	service submissionService
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service submissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

// loadAuthorized fetches the submission and enforces that students only ever
// reach their own submission. Staff and admins see everything.
func (h *SubmissionHandler) loadAuthorized(c *gin.Context) (*models.Submission, *models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, nil, false
	}
	submission, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return nil, nil, false
	}
	if claims.Role == models.RoleStudent && submission.StudentID != claims.StudentID {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "submission not found"))
		return nil, nil, false
	}
	return submission, claims, true
}

// Create godoc
// @Summary Create a submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body service.CreateSubmissionRequest true "Submission"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid submission payload"))
		return
	}
	if claims.Role == models.RoleStudent {
		req.StudentID = claims.StudentID
	}
	submission, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// List godoc
// @Summary List submissions
// @Tags Submissions
// @Produce json
// @Param department query string false "Department filter"
// @Param status query string false "Status filter"
// @Param programme query string false "Programme filter"
// @Param intake_term query string false "Intake term filter"
// @Param campus query string false "Campus filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	filter := models.SubmissionFilter{
		Department: models.Department(strings.ToUpper(c.Query("department"))),
		Status:     models.SubmissionStatus(strings.ToUpper(c.Query("status"))),
		Programme:  strings.TrimSpace(c.Query("programme")),
		IntakeTerm: strings.TrimSpace(c.Query("intake_term")),
		Campus:     strings.TrimSpace(c.Query("campus")),
		StudentID:  strings.TrimSpace(c.Query("student_id")),
		SortBy:     c.DefaultQuery("sort_by", "created_at"),
		SortOrder:  c.DefaultQuery("sort_order", "desc"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	submissions, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, pagination)
}

// Get godoc
// @Summary Get a submission
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	submission, _, ok := h.loadAuthorized(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// Checklist godoc
// @Summary Resolved checklist with upload state
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id}/checklist [get]
func (h *SubmissionHandler) Checklist(c *gin.Context) {
	submission, _, ok := h.loadAuthorized(c)
	if !ok {
		return
	}
	items, err := h.service.ResolvedChecklist(c.Request.Context(), submission)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Upload godoc
// @Summary Upload a document
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Submission ID"
// @Param doc_type formData string true "Document type"
// @Param override formData bool false "Staff override for locked submissions"
// @Param file formData file true "Document"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id}/documents [post]
func (h *SubmissionHandler) Upload(c *gin.Context) {
	submission, claims, ok := h.loadAuthorized(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	req := service.UploadRequest{
		DocType:  c.PostForm("doc_type"),
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  src,
		Override: c.PostForm("override") == "true" && claims.Role != models.RoleStudent,
	}
	doc, err := h.service.Upload(c.Request.Context(), submission.ID, req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// Download godoc
// @Summary Download a document
// @Tags Submissions
// @Produce octet-stream
// @Param id path string true "Submission ID"
// @Param docId path string true "Document ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /submissions/{id}/documents/{docId}/download [get]
func (h *SubmissionHandler) Download(c *gin.Context) {
	submission, _, ok := h.loadAuthorized(c)
	if !ok {
		return
	}
	download, err := h.service.Download(c.Request.Context(), submission.ID, c.Param("docId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.Content.Close()
	h.stream(c, download)
}

// DownloadLink godoc
// @Summary Mint a signed download link
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Param docId path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id}/documents/{docId}/download-link [post]
func (h *SubmissionHandler) DownloadLink(c *gin.Context) {
	submission, _, ok := h.loadAuthorized(c)
	if !ok {
		return
	}
	token, expiresAt, err := h.service.SignedDownloadToken(c.Request.Context(), submission.ID, c.Param("docId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt,
	}, nil)
}

// DownloadByToken godoc
// @Summary Download via signed token
// @Tags Submissions
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /downloads [get]
func (h *SubmissionHandler) DownloadByToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	download, err := h.service.DownloadByToken(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.Content.Close()
	h.stream(c, download)
}

func (h *SubmissionHandler) stream(c *gin.Context, download *service.DocumentDownload) {
	doc := download.Document
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.OriginalFilename))
	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, doc.SizeBytes, contentType, download.Content, nil)
}

// Finalize godoc
// @Summary Finalize a submission
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope "Required documents missing"
// @Security BearerAuth
// @Router /submissions/{id}/finalize [post]
func (h *SubmissionHandler) Finalize(c *gin.Context) {
	submission, claims, ok := h.loadAuthorized(c)
	if !ok {
		return
	}
	result, err := h.service.Finalize(c.Request.Context(), submission.ID, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Transition godoc
// @Summary Move a submission forward (staff)
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body service.TransitionRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id}/status [post]
func (h *SubmissionHandler) Transition(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid transition payload"))
		return
	}
	req.Status = models.SubmissionStatus(strings.ToUpper(string(req.Status)))
	result, err := h.service.Transition(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reopen godoc
// @Summary Reopen a submission (admin override)
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id}/reopen [post]
func (h *SubmissionHandler) Reopen(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.service.Reopen(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete a submission and its documents
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 204
// @Security BearerAuth
// @Router /submissions/{id} [delete]
func (h *SubmissionHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
