package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
)

// ChecklistRuleRepository handles persistence of the requirement matrix.
type ChecklistRuleRepository struct {
	db *sqlx.DB
}

// NewChecklistRuleRepository constructs the repository.
func NewChecklistRuleRepository(db *sqlx.DB) *ChecklistRuleRepository {
	return &ChecklistRuleRepository{db: db}
}

// ListActiveForContext returns all active rules matching the four core
// dimensions exactly, in seed order. Optional-dimension narrowing happens in
// the resolver, not in SQL.
func (r *ChecklistRuleRepository) ListActiveForContext(ctx context.Context, department models.Department, programme, intakeTerm, campus string) ([]models.ChecklistRule, error) {
	const query = `SELECT id, department, programme, intake_term, campus, doc_type, funding_type, nationality, required, active, sort_order, created_at, updated_at
        FROM checklist_rules
        WHERE active = TRUE AND department = $1 AND programme = $2 AND intake_term = $3 AND campus = $4
        ORDER BY sort_order ASC, doc_type ASC`
	var rules []models.ChecklistRule
	if err := r.db.SelectContext(ctx, &rules, query, department, programme, intakeTerm, campus); err != nil {
		return nil, fmt.Errorf("list checklist rules: %w", err)
	}
	return rules, nil
}

// FindByID returns a rule by its ID.
func (r *ChecklistRuleRepository) FindByID(ctx context.Context, id string) (*models.ChecklistRule, error) {
	const query = `SELECT id, department, programme, intake_term, campus, doc_type, funding_type, nationality, required, active, sort_order, created_at, updated_at
        FROM checklist_rules WHERE id = $1`
	var rule models.ChecklistRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// ExistsActiveDuplicate checks the uniqueness invariant: at most one active
// rule per full dimension tuple. NULL optional dimensions compare as equal.
func (r *ChecklistRuleRepository) ExistsActiveDuplicate(ctx context.Context, rule *models.ChecklistRule, excludeID string) (bool, error) {
	query := `SELECT 1 FROM checklist_rules
        WHERE active = TRUE
          AND department = $1 AND programme = $2 AND intake_term = $3 AND campus = $4 AND doc_type = $5
          AND funding_type IS NOT DISTINCT FROM $6
          AND nationality IS NOT DISTINCT FROM $7`
	args := []interface{}{rule.Department, rule.Programme, rule.IntakeTerm, rule.Campus, rule.DocType, rule.FundingType, rule.Nationality}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check duplicate rule: %w", err)
	}
	return true, nil
}

// Create persists a new checklist rule.
func (r *ChecklistRuleRepository) Create(ctx context.Context, rule *models.ChecklistRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	const query = `INSERT INTO checklist_rules (id, department, programme, intake_term, campus, doc_type, funding_type, nationality, required, active, sort_order, created_at, updated_at)
        VALUES (:id, :department, :programme, :intake_term, :campus, :doc_type, :funding_type, :nationality, :required, :active, :sort_order, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create checklist rule: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a rule.
func (r *ChecklistRuleRepository) Update(ctx context.Context, rule *models.ChecklistRule) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE checklist_rules
        SET department = :department, programme = :programme, intake_term = :intake_term, campus = :campus,
            doc_type = :doc_type, funding_type = :funding_type, nationality = :nationality,
            required = :required, active = :active, sort_order = :sort_order, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("update checklist rule: %w", err)
	}
	return nil
}

// Deactivate soft-disables a rule so it no longer participates in resolution.
func (r *ChecklistRuleRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE checklist_rules SET active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate checklist rule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns rules for administration, filterable by department.
func (r *ChecklistRuleRepository) List(ctx context.Context, department models.Department, includeInactive bool) ([]models.ChecklistRule, error) {
	query := `SELECT id, department, programme, intake_term, campus, doc_type, funding_type, nationality, required, active, sort_order, created_at, updated_at
        FROM checklist_rules`
	var args []interface{}
	where := ""
	if department != "" {
		where = " WHERE department = $1"
		args = append(args, department)
	}
	if !includeInactive {
		if where == "" {
			where = " WHERE active = TRUE"
		} else {
			where += " AND active = TRUE"
		}
	}
	query += where + " ORDER BY department, programme, intake_term, campus, sort_order, doc_type"
	var rules []models.ChecklistRule
	if err := r.db.SelectContext(ctx, &rules, query, args...); err != nil {
		return nil, fmt.Errorf("list checklist rules: %w", err)
	}
	return rules, nil
}
