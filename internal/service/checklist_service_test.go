package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
	appErrors "github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/errors"
)

type ruleStoreStub struct {
	rules      []models.ChecklistRule
	listCalls  int
	duplicate  bool
	deactivate []string
}

func (s *ruleStoreStub) ListActiveForContext(ctx context.Context, department models.Department, programme, intakeTerm, campus string) ([]models.ChecklistRule, error) {
	s.listCalls++
	matched := make([]models.ChecklistRule, 0, len(s.rules))
	for _, rule := range s.rules {
		if rule.Active && rule.Department == department && rule.Programme == programme &&
			rule.IntakeTerm == intakeTerm && rule.Campus == campus {
			matched = append(matched, rule)
		}
	}
	return matched, nil
}

func (s *ruleStoreStub) FindByID(ctx context.Context, id string) (*models.ChecklistRule, error) {
	for i := range s.rules {
		if s.rules[i].ID == id {
			copy := s.rules[i]
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *ruleStoreStub) ExistsActiveDuplicate(ctx context.Context, rule *models.ChecklistRule, excludeID string) (bool, error) {
	return s.duplicate, nil
}

func (s *ruleStoreStub) Create(ctx context.Context, rule *models.ChecklistRule) error {
	if rule.ID == "" {
		rule.ID = fmt.Sprintf("rule-%d", len(s.rules)+1)
	}
	s.rules = append(s.rules, *rule)
	return nil
}

func (s *ruleStoreStub) Update(ctx context.Context, rule *models.ChecklistRule) error {
	for i := range s.rules {
		if s.rules[i].ID == rule.ID {
			s.rules[i] = *rule
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *ruleStoreStub) Deactivate(ctx context.Context, id string) error {
	s.deactivate = append(s.deactivate, id)
	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules[i].Active = false
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *ruleStoreStub) List(ctx context.Context, department models.Department, includeInactive bool) ([]models.ChecklistRule, error) {
	return s.rules, nil
}

type auditStub struct {
	entries []models.AuditLog
}

func (a *auditStub) Create(ctx context.Context, entry *models.AuditLog) error {
	a.entries = append(a.entries, *entry)
	return nil
}

func strPtr(v string) *string { return &v }

func rule(docType string, required bool, funding, nationality *string, sortOrder int) models.ChecklistRule {
	return models.ChecklistRule{
		ID:          "rule-" + docType,
		Department:  models.DepartmentAdmissions,
		Programme:   "BSN",
		IntakeTerm:  "2026SEP",
		Campus:      "PORT_OF_SPAIN",
		DocType:     docType,
		FundingType: funding,
		Nationality: nationality,
		Required:    required,
		Active:      true,
		SortOrder:   sortOrder,
	}
}

func testContext() models.ChecklistContext {
	return models.ChecklistContext{
		Department:  models.DepartmentAdmissions,
		Programme:   "BSN",
		IntakeTerm:  "2026SEP",
		Campus:      "PORT_OF_SPAIN",
		FundingType: "GATE",
		Nationality: "TT",
	}
}

func TestResolveMostSpecificRuleWins(t *testing.T) {
	store := &ruleStoreStub{rules: []models.ChecklistRule{
		rule("birth_certificate", true, nil, nil, 1),
		rule("gate_approval", false, nil, nil, 2),
	}}
	// Funding-specific rule flips gate_approval to required.
	specific := rule("gate_approval", true, strPtr("GATE"), nil, 2)
	specific.ID = "rule-gate-specific"
	store.rules = append(store.rules, specific)

	svc := NewChecklistService(store, nil, nil, nil, nil)
	items, err := svc.Resolve(context.Background(), testContext())
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "birth_certificate", items[0].DocType)
	require.Equal(t, "gate_approval", items[1].DocType)
	require.True(t, items[1].Required)
}

func TestResolveFundingBeatsNationality(t *testing.T) {
	funding := rule("proof_of_funding", true, strPtr("GATE"), nil, 1)
	funding.ID = "rule-funding"
	national := rule("proof_of_funding", false, nil, strPtr("TT"), 1)
	national.ID = "rule-national"
	store := &ruleStoreStub{rules: []models.ChecklistRule{funding, national}}

	svc := NewChecklistService(store, nil, nil, nil, nil)
	items, err := svc.Resolve(context.Background(), testContext())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, items[0].Required)
}

func TestResolveConflictingRulesSurface(t *testing.T) {
	a := rule("transcript", true, strPtr("GATE"), nil, 1)
	a.ID = "rule-a"
	b := rule("transcript", false, strPtr("GATE"), nil, 1)
	b.ID = "rule-b"
	store := &ruleStoreStub{rules: []models.ChecklistRule{a, b}}

	svc := NewChecklistService(store, nil, nil, nil, nil)
	_, err := svc.Resolve(context.Background(), testContext())
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrConflictingRule))
}

func TestResolveSupersededRuleIsNotAConflict(t *testing.T) {
	// The agnostic rule disagrees with the specific one, but it lost on
	// specificity, so no conflict is raised.
	agnostic := rule("transcript", false, nil, nil, 1)
	agnostic.ID = "rule-agnostic"
	specific := rule("transcript", true, strPtr("GATE"), strPtr("TT"), 1)
	specific.ID = "rule-specific"
	store := &ruleStoreStub{rules: []models.ChecklistRule{agnostic, specific}}

	svc := NewChecklistService(store, nil, nil, nil, nil)
	items, err := svc.Resolve(context.Background(), testContext())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, items[0].Required)
}

func TestResolveNonMatchingOptionalDimensions(t *testing.T) {
	foreign := rule("visa", true, nil, strPtr("US"), 1)
	foreign.ID = "rule-visa"
	store := &ruleStoreStub{rules: []models.ChecklistRule{foreign}}

	svc := NewChecklistService(store, nil, nil, nil, nil)
	items, err := svc.Resolve(context.Background(), testContext())
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestResolveUnknownContextYieldsEmptyChecklist(t *testing.T) {
	store := &ruleStoreStub{}
	svc := NewChecklistService(store, nil, nil, nil, nil)

	ctx := testContext()
	ctx.Programme = "UNKNOWN"
	items, err := svc.Resolve(context.Background(), ctx)
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}

func TestResolveInvalidDepartment(t *testing.T) {
	store := &ruleStoreStub{}
	svc := NewChecklistService(store, nil, nil, nil, nil)

	ctx := testContext()
	ctx.Department = "FINANCE"
	items, err := svc.Resolve(context.Background(), ctx)
	require.NoError(t, err)
	require.Empty(t, items)
	require.Zero(t, store.listCalls)
}

func TestResolveStableOrdering(t *testing.T) {
	store := &ruleStoreStub{rules: []models.ChecklistRule{
		rule("zeta_form", true, nil, nil, 5),
		rule("alpha_form", true, nil, nil, 5),
		rule("first_form", true, nil, nil, 1),
	}}
	svc := NewChecklistService(store, nil, nil, nil, nil)

	items, err := svc.Resolve(context.Background(), testContext())
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "first_form", items[0].DocType)
	require.Equal(t, "alpha_form", items[1].DocType)
	require.Equal(t, "zeta_form", items[2].DocType)
}

func TestResolveSameContextTwiceIsIdentical(t *testing.T) {
	store := &ruleStoreStub{rules: []models.ChecklistRule{
		rule("zeta_form", true, nil, nil, 5),
		rule("alpha_form", false, nil, nil, 5),
		rule("gate_approval", true, strPtr("GATE"), nil, 2),
		rule("birth_certificate", true, nil, nil, 1),
	}}
	svc := NewChecklistService(store, nil, nil, nil, nil)

	first, err := svc.Resolve(context.Background(), testContext())
	require.NoError(t, err)
	second, err := svc.Resolve(context.Background(), testContext())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestCreateRuleRejectsDuplicateTuple(t *testing.T) {
	store := &ruleStoreStub{duplicate: true}
	svc := NewChecklistService(store, nil, nil, nil, nil)

	_, err := svc.CreateRule(context.Background(), ChecklistRuleRequest{
		Department: models.DepartmentAdmissions,
		Programme:  "BSN",
		IntakeTerm: "2026SEP",
		Campus:     "PORT_OF_SPAIN",
		DocType:    "transcript",
		Required:   true,
	}, nil)
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestCreateRuleAudited(t *testing.T) {
	store := &ruleStoreStub{}
	audit := &auditStub{}
	svc := NewChecklistService(store, nil, audit, nil, nil)

	actor := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	created, err := svc.CreateRule(context.Background(), ChecklistRuleRequest{
		Department: models.DepartmentRegistry,
		Programme:  "BSN",
		IntakeTerm: "2026SEP",
		Campus:     "PORT_OF_SPAIN",
		DocType:    "id_card",
		Required:   true,
	}, actor)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Len(t, audit.entries, 1)
	require.Equal(t, models.AuditActionRuleCreate, audit.entries[0].Action)
	require.Equal(t, "admin-1", *audit.entries[0].UserID)
}

func TestDeactivateRuleNotFound(t *testing.T) {
	store := &ruleStoreStub{}
	svc := NewChecklistService(store, nil, nil, nil, nil)

	err := svc.DeactivateRule(context.Background(), "missing", nil)
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
