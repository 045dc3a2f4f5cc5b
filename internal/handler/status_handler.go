package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
	appErrors "github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/errors"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/response"
)

type statusService interface {
	LookupByReference(ctx context.Context, reference string) (*models.StatusProjection, error)
	LookupByStudentID(ctx context.Context, studentID string) (*models.StatusProjection, error)
}

// StatusHandler serves the public status lookup used by the status page and
// the conversational assistant.
type StatusHandler struct {
	service statusService
}

// NewStatusHandler constructs the handler.
func NewStatusHandler(service statusService) *StatusHandler {
	return &StatusHandler{service: service}
}

// Lookup godoc
// @Summary Look up submission status
// @Description Accepts either a submission reference or a student id.
// @Tags Status
// @Produce json
// @Param reference query string false "Submission reference"
// @Param student_id query string false "Student ID"
// @Success 200 {object} response.Envelope
// @Router /status [get]
func (h *StatusHandler) Lookup(c *gin.Context) {
	reference := c.Query("reference")
	studentID := c.Query("student_id")

	var (
		projection *models.StatusProjection
		err        error
	)
	switch {
	case reference != "":
		projection, err = h.service.LookupByReference(c.Request.Context(), reference)
	case studentID != "":
		projection, err = h.service.LookupByStudentID(c.Request.Context(), studentID)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "reference or student_id is required"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, projection, nil)
}
