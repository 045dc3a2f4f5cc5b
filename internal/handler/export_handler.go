package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/service"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/response"
)

type exportService interface {
	SubmissionRegister(ctx context.Context, filter models.SubmissionFilter, format string) (*service.ExportFile, error)
}

// ExportHandler serves register exports for staff.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// SubmissionRegister godoc
// @Summary Export the submission register
// @Tags Exports
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Param department query string false "Department filter"
// @Param status query string false "Status filter"
// @Param intake_term query string false "Intake term filter"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /exports/submissions [get]
func (h *ExportHandler) SubmissionRegister(c *gin.Context) {
	filter := models.SubmissionFilter{
		Department: models.Department(strings.ToUpper(c.Query("department"))),
		Status:     models.SubmissionStatus(strings.ToUpper(c.Query("status"))),
		Programme:  strings.TrimSpace(c.Query("programme")),
		IntakeTerm: strings.TrimSpace(c.Query("intake_term")),
		Campus:     strings.TrimSpace(c.Query("campus")),
	}
	format := c.DefaultQuery("format", "csv")

	file, err := h.service.SubmissionRegister(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(200, file.ContentType, file.Content)
}
