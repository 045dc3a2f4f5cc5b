package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
)

var ruleRowColumns = []string{
	"id", "department", "programme", "intake_term", "campus", "doc_type",
	"funding_type", "nationality", "required", "active", "sort_order",
	"created_at", "updated_at",
}

func TestChecklistRuleRepositoryListActiveForContext(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChecklistRuleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(ruleRowColumns).
		AddRow("rule-1", "ADMISSIONS", "BSN", "2026SEP", "PORT_OF_SPAIN", "birth_certificate",
			nil, nil, true, true, 1, now, now).
		AddRow("rule-2", "ADMISSIONS", "BSN", "2026SEP", "PORT_OF_SPAIN", "gate_approval",
			"GATE", nil, true, true, 2, now, now)

	mock.ExpectQuery("SELECT id, department, programme").
		WithArgs("ADMISSIONS", "BSN", "2026SEP", "PORT_OF_SPAIN").
		WillReturnRows(rows)

	rules, err := repo.ListActiveForContext(context.Background(), models.DepartmentAdmissions, "BSN", "2026SEP", "PORT_OF_SPAIN")
	require.NoError(t, err)
	assert.Len(t, rules, 2)
	assert.Equal(t, "birth_certificate", rules[0].DocType)
	require.NotNil(t, rules[1].FundingType)
	assert.Equal(t, "GATE", *rules[1].FundingType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistRuleRepositoryExistsActiveDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChecklistRuleRepository(db)

	mock.ExpectQuery("SELECT 1 FROM checklist_rules").
		WithArgs("ADMISSIONS", "BSN", "2026SEP", "PORT_OF_SPAIN", "transcript", nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	rule := &models.ChecklistRule{
		Department: models.DepartmentAdmissions,
		Programme:  "BSN",
		IntakeTerm: "2026SEP",
		Campus:     "PORT_OF_SPAIN",
		DocType:    "transcript",
	}
	exists, err := repo.ExistsActiveDuplicate(context.Background(), rule, "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistRuleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChecklistRuleRepository(db)

	mock.ExpectExec("INSERT INTO checklist_rules").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rule := &models.ChecklistRule{
		Department: models.DepartmentRegistry,
		Programme:  "BSN",
		IntakeTerm: "2026SEP",
		Campus:     "PORT_OF_SPAIN",
		DocType:    "id_card",
		Required:   true,
		Active:     true,
	}
	require.NoError(t, repo.Create(context.Background(), rule))
	assert.NotEmpty(t, rule.ID)
	assert.False(t, rule.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistRuleRepositoryDeactivateNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChecklistRuleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE checklist_rules SET active = FALSE")).
		WithArgs("missing", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Deactivate(context.Background(), "missing")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
