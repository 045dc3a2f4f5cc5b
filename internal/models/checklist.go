package models

import (
	"fmt"
	"strings"
	"time"
)

// ChecklistRule is one fact in the sparse requirement matrix. The four core
// dimensions (department, programme, intake term, campus) must match a
// context exactly; funding type and nationality narrow applicability when
// set and apply regardless when nil. At most one active rule may exist per
// full dimension tuple.
type ChecklistRule struct {
	ID          string     `db:"id" json:"id"`
	Department  Department `db:"department" json:"department"`
	Programme   string     `db:"programme" json:"programme"`
	IntakeTerm  string     `db:"intake_term" json:"intake_term"`
	Campus      string     `db:"campus" json:"campus"`
	DocType     string     `db:"doc_type" json:"doc_type"`
	FundingType *string    `db:"funding_type" json:"funding_type,omitempty"`
	Nationality *string    `db:"nationality" json:"nationality,omitempty"`
	Required    bool       `db:"required" json:"required"`
	Active      bool       `db:"active" json:"active"`
	SortOrder   int        `db:"sort_order" json:"sort_order"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Specificity scores how narrowly the rule matches: funding+nationality
// beats funding-only, which beats nationality-only, which beats the
// dimension-agnostic rule.
func (r *ChecklistRule) Specificity() int {
	score := 0
	if r.FundingType != nil && *r.FundingType != "" {
		score += 2
	}
	if r.Nationality != nil && *r.Nationality != "" {
		score++
	}
	return score
}

// AppliesTo reports whether the rule's optional dimensions admit the context.
func (r *ChecklistRule) AppliesTo(ctx ChecklistContext) bool {
	if r.FundingType != nil && *r.FundingType != "" && !strings.EqualFold(*r.FundingType, ctx.FundingType) {
		return false
	}
	if r.Nationality != nil && *r.Nationality != "" && !strings.EqualFold(*r.Nationality, ctx.Nationality) {
		return false
	}
	return true
}

// ChecklistContext is the tuple selecting applicable rules for a submission.
type ChecklistContext struct {
	Department  Department `json:"department"`
	Programme   string     `json:"programme"`
	IntakeTerm  string     `json:"intake_term"`
	Campus      string     `json:"campus"`
	FundingType string     `json:"funding_type"`
	Nationality string     `json:"nationality,omitempty"`
}

// CacheKey renders a stable cache key for the context tuple.
func (c ChecklistContext) CacheKey() string {
	return fmt.Sprintf("checklist:%s:%s:%s:%s:%s:%s",
		c.Department, c.Programme, c.IntakeTerm, c.Campus, c.FundingType, c.Nationality)
}

// ChecklistItem is one entry of a resolved checklist.
type ChecklistItem struct {
	DocType     string `json:"doc_type"`
	DisplayName string `json:"display_name"`
	Required    bool   `json:"required"`
}

// ResolvedChecklistItem overlays upload state onto a checklist item for a
// specific submission. Derived on demand, never persisted.
type ResolvedChecklistItem struct {
	ChecklistItem
	Satisfied  bool    `json:"satisfied"`
	DocumentID *string `json:"document_id,omitempty"`
}

// DocTypeDisplayName derives a human label from a doc_type code by replacing
// separators with spaces and title-casing each word.
func DocTypeDisplayName(docType string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(docType)
	words := strings.Fields(cleaned)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
