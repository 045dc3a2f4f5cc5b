package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
	appErrors "github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/errors"
)

type checklistRuleStore interface {
	ListActiveForContext(ctx context.Context, department models.Department, programme, intakeTerm, campus string) ([]models.ChecklistRule, error)
	FindByID(ctx context.Context, id string) (*models.ChecklistRule, error)
	ExistsActiveDuplicate(ctx context.Context, rule *models.ChecklistRule, excludeID string) (bool, error)
	Create(ctx context.Context, rule *models.ChecklistRule) error
	Update(ctx context.Context, rule *models.ChecklistRule) error
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context, department models.Department, includeInactive bool) ([]models.ChecklistRule, error)
}

type auditLogger interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// ChecklistRuleRequest is the admin payload for creating or updating a rule.
type ChecklistRuleRequest struct {
	Department  models.Department `json:"department" validate:"required,oneof=ADMISSIONS REGISTRY"`
	Programme   string            `json:"programme" validate:"required"`
	IntakeTerm  string            `json:"intake_term" validate:"required"`
	Campus      string            `json:"campus" validate:"required"`
	DocType     string            `json:"doc_type" validate:"required"`
	FundingType *string           `json:"funding_type,omitempty"`
	Nationality *string           `json:"nationality,omitempty"`
	Required    bool              `json:"required"`
	SortOrder   int               `json:"sort_order"`
}

// ChecklistService is the rule store facade and checklist resolver.
type ChecklistService struct {
	rules     checklistRuleStore
	cache     *CacheService
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChecklistService constructs ChecklistService.
func NewChecklistService(rules checklistRuleStore, cache *CacheService, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *ChecklistService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChecklistService{rules: rules, cache: cache, audit: audit, validator: validate, logger: logger}
}

// Resolve computes the ordered, deduplicated checklist for a context.
//
// Among active rules matching the four core dimensions exactly, the most
// specific rule wins per doc_type (funding+nationality > funding-only >
// nationality-only > dimension-agnostic). Two surviving rules of equal
// specificity that disagree on required is a configuration error and is
// surfaced, never tie-broken. A context with no matching rules yields an
// empty checklist.
//
// Resolution is pure given the rule set, so results are cached per context
// tuple; every rule edit invalidates the cache. Checklists are never
// snapshotted onto submissions: a rule edit retroactively changes what an
// in-flight submission requires.
func (s *ChecklistService) Resolve(ctx context.Context, c models.ChecklistContext) ([]models.ChecklistItem, error) {
	if !c.Department.Valid() || c.Programme == "" {
		return []models.ChecklistItem{}, nil
	}

	cacheKey := c.CacheKey()
	if s.cache.Enabled() {
		var cached []models.ChecklistItem
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	rules, err := s.rules.ListActiveForContext(ctx, c.Department, c.Programme, c.IntakeTerm, c.Campus)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load checklist rules")
	}

	items, err := resolveRules(rules, c)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, items, 0); err != nil {
			s.logger.Warn("checklist cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return items, nil
}

type candidate struct {
	rule        models.ChecklistRule
	specificity int
	conflicting bool
}

// resolveRules applies precedence and conflict detection over rules already
// filtered to the core dimensions and sorted by seed order.
func resolveRules(rules []models.ChecklistRule, c models.ChecklistContext) ([]models.ChecklistItem, error) {
	winners := make(map[string]*candidate)
	for i := range rules {
		rule := rules[i]
		if !rule.AppliesTo(c) {
			continue
		}
		spec := rule.Specificity()
		current, ok := winners[rule.DocType]
		switch {
		case !ok || spec > current.specificity:
			winners[rule.DocType] = &candidate{rule: rule, specificity: spec}
		case spec == current.specificity:
			if rule.Required != current.rule.Required {
				current.conflicting = true
			}
		}
	}

	items := make([]models.ChecklistItem, 0, len(winners))
	ordered := make([]*candidate, 0, len(winners))
	for _, cand := range winners {
		if cand.conflicting {
			return nil, appErrors.ConflictingRule(cand.rule.DocType)
		}
		ordered = append(ordered, cand)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].rule.SortOrder != ordered[j].rule.SortOrder {
			return ordered[i].rule.SortOrder < ordered[j].rule.SortOrder
		}
		return ordered[i].rule.DocType < ordered[j].rule.DocType
	})
	for _, cand := range ordered {
		items = append(items, models.ChecklistItem{
			DocType:     cand.rule.DocType,
			DisplayName: models.DocTypeDisplayName(cand.rule.DocType),
			Required:    cand.rule.Required,
		})
	}
	return items, nil
}

// ListRules returns the rule matrix for administration.
func (s *ChecklistService) ListRules(ctx context.Context, department models.Department, includeInactive bool) ([]models.ChecklistRule, error) {
	rules, err := s.rules.List(ctx, department, includeInactive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list checklist rules")
	}
	return rules, nil
}

// CreateRule adds a rule to the matrix, enforcing the one-active-rule-per-
// tuple invariant so seeded rules never silently shadow each other.
func (s *ChecklistService) CreateRule(ctx context.Context, req ChecklistRuleRequest, actor *models.JWTClaims) (*models.ChecklistRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}
	rule := &models.ChecklistRule{
		Department:  req.Department,
		Programme:   req.Programme,
		IntakeTerm:  req.IntakeTerm,
		Campus:      req.Campus,
		DocType:     req.DocType,
		FundingType: req.FundingType,
		Nationality: req.Nationality,
		Required:    req.Required,
		Active:      true,
		SortOrder:   req.SortOrder,
	}
	duplicate, err := s.rules.ExistsActiveDuplicate(ctx, rule, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate rule")
	}
	if duplicate {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an active rule already exists for this context and document type")
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rule")
	}
	s.invalidateResolutions(ctx)
	s.auditRuleChange(ctx, models.AuditActionRuleCreate, rule, actor)
	return rule, nil
}

// UpdateRule rewrites an existing rule.
func (s *ChecklistService) UpdateRule(ctx context.Context, id string, req ChecklistRuleRequest, actor *models.JWTClaims) (*models.ChecklistRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}
	rule, err := s.rules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rule")
	}
	rule.Department = req.Department
	rule.Programme = req.Programme
	rule.IntakeTerm = req.IntakeTerm
	rule.Campus = req.Campus
	rule.DocType = req.DocType
	rule.FundingType = req.FundingType
	rule.Nationality = req.Nationality
	rule.Required = req.Required
	rule.SortOrder = req.SortOrder

	if rule.Active {
		duplicate, err := s.rules.ExistsActiveDuplicate(ctx, rule, rule.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate rule")
		}
		if duplicate {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an active rule already exists for this context and document type")
		}
	}
	if err := s.rules.Update(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update rule")
	}
	s.invalidateResolutions(ctx)
	s.auditRuleChange(ctx, models.AuditActionRuleUpdate, rule, actor)
	return rule, nil
}

// DeactivateRule removes a rule from resolution without deleting history.
func (s *ChecklistService) DeactivateRule(ctx context.Context, id string, actor *models.JWTClaims) error {
	if err := s.rules.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate rule")
	}
	s.invalidateResolutions(ctx)
	s.auditRuleChange(ctx, models.AuditActionRuleDeactivate, &models.ChecklistRule{ID: id}, actor)
	return nil
}

func (s *ChecklistService) invalidateResolutions(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "checklist:*"); err != nil {
		s.logger.Warn("checklist cache invalidation failed", zap.Error(err))
	}
}

func (s *ChecklistService) auditRuleChange(ctx context.Context, action string, rule *models.ChecklistRule, actor *models.JWTClaims) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{Action: action, Resource: "checklist_rule", ResourceID: &rule.ID}
	if actor != nil {
		entry.UserID = &actor.UserID
	}
	if payload, err := json.Marshal(rule); err == nil {
		entry.NewValues = payload
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
