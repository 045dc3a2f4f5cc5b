package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/service"
	appErrors "github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/errors"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/response"
)

type checklistService interface {
	Resolve(ctx context.Context, c models.ChecklistContext) ([]models.ChecklistItem, error)
	ListRules(ctx context.Context, department models.Department, includeInactive bool) ([]models.ChecklistRule, error)
	CreateRule(ctx context.Context, req service.ChecklistRuleRequest, actor *models.JWTClaims) (*models.ChecklistRule, error)
	UpdateRule(ctx context.Context, id string, req service.ChecklistRuleRequest, actor *models.JWTClaims) (*models.ChecklistRule, error)
	DeactivateRule(ctx context.Context, id string, actor *models.JWTClaims) error
}

// ChecklistHandler exposes checklist resolution and rule administration.
type ChecklistHandler struct {
	service checklistService
}

// NewChecklistHandler constructs the handler.
func NewChecklistHandler(service checklistService) *ChecklistHandler {
	return &ChecklistHandler{service: service}
}

// Resolve godoc
// @Summary Resolve the checklist for a context
// @Tags Checklists
// @Produce json
// @Param department query string true "Department"
// @Param programme query string true "Programme"
// @Param intake_term query string true "Intake term"
// @Param campus query string true "Campus"
// @Param funding_type query string false "Funding type"
// @Param nationality query string false "Nationality"
// @Success 200 {object} response.Envelope
// @Router /checklists/resolve [get]
func (h *ChecklistHandler) Resolve(c *gin.Context) {
	ctx := models.ChecklistContext{
		Department:  models.Department(strings.ToUpper(c.Query("department"))),
		Programme:   strings.TrimSpace(c.Query("programme")),
		IntakeTerm:  strings.TrimSpace(c.Query("intake_term")),
		Campus:      strings.TrimSpace(c.Query("campus")),
		FundingType: strings.TrimSpace(c.Query("funding_type")),
		Nationality: strings.TrimSpace(c.Query("nationality")),
	}
	if !ctx.Department.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "department must be ADMISSIONS or REGISTRY"))
		return
	}
	items, err := h.service.Resolve(c.Request.Context(), ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ListRules godoc
// @Summary List checklist rules
// @Tags Checklists
// @Produce json
// @Param department query string false "Department filter"
// @Param include_inactive query bool false "Include deactivated rules"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /checklist-rules [get]
func (h *ChecklistHandler) ListRules(c *gin.Context) {
	department := models.Department(strings.ToUpper(c.Query("department")))
	rules, err := h.service.ListRules(c.Request.Context(), department, c.Query("include_inactive") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// CreateRule godoc
// @Summary Create a checklist rule
// @Tags Checklists
// @Accept json
// @Produce json
// @Param payload body service.ChecklistRuleRequest true "Rule"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /checklist-rules [post]
func (h *ChecklistHandler) CreateRule(c *gin.Context) {
	var req service.ChecklistRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rule payload"))
		return
	}
	rule, err := h.service.CreateRule(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// UpdateRule godoc
// @Summary Update a checklist rule
// @Tags Checklists
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param payload body service.ChecklistRuleRequest true "Rule"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /checklist-rules/{id} [put]
func (h *ChecklistHandler) UpdateRule(c *gin.Context) {
	var req service.ChecklistRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rule payload"))
		return
	}
	rule, err := h.service.UpdateRule(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// DeactivateRule godoc
// @Summary Deactivate a checklist rule
// @Tags Checklists
// @Produce json
// @Param id path string true "Rule ID"
// @Success 204
// @Security BearerAuth
// @Router /checklist-rules/{id} [delete]
func (h *ChecklistHandler) DeactivateRule(c *gin.Context) {
	if err := h.service.DeactivateRule(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
