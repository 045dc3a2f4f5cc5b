package models

import "time"

// Department identifies the workflow a submission belongs to.
type Department string

const (
	DepartmentAdmissions Department = "ADMISSIONS"
	DepartmentRegistry   Department = "REGISTRY"
)

// Valid reports whether the department is one of the two supported workflows.
func (d Department) Valid() bool {
	return d == DepartmentAdmissions || d == DepartmentRegistry
}

// ReferencePrefix returns the prefix used for submission references.
func (d Department) ReferencePrefix() string {
	if d == DepartmentRegistry {
		return "REG"
	}
	return "ADM"
}

// SubmissionStatus represents the lifecycle of a submission.
type SubmissionStatus string

const (
	SubmissionStatusInProgress SubmissionStatus = "IN_PROGRESS"
	SubmissionStatusSubmitted  SubmissionStatus = "SUBMITTED"
	SubmissionStatusProcessing SubmissionStatus = "PROCESSING"
	SubmissionStatusCompleted  SubmissionStatus = "COMPLETED"
)

// forwardTransitions is the one-directional state machine. Reopening a
// submission is an administrative override, audited separately, and is not
// part of the forward flow.
var forwardTransitions = map[SubmissionStatus][]SubmissionStatus{
	SubmissionStatusInProgress: {SubmissionStatusSubmitted},
	SubmissionStatusSubmitted:  {SubmissionStatusProcessing, SubmissionStatusCompleted},
	SubmissionStatusProcessing: {SubmissionStatusCompleted},
	SubmissionStatusCompleted:  {},
}

// CanTransitionTo reports whether next is a legal forward transition.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	for _, allowed := range forwardTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether the status is a known lifecycle state.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusInProgress, SubmissionStatusSubmitted, SubmissionStatusProcessing, SubmissionStatusCompleted:
		return true
	}
	return false
}

// Submission is one (student, department) enrollment attempt. The reference
// is generated once at creation and never changes; it is the external lookup
// key alongside the student id. Version guards concurrent status and
// document mutations.
type Submission struct {
	ID          string           `db:"id" json:"id"`
	StudentID   string           `db:"student_id" json:"student_id"`
	Reference   string           `db:"reference" json:"reference"`
	FirstName   string           `db:"first_name" json:"first_name"`
	LastName    string           `db:"last_name" json:"last_name"`
	Department  Department       `db:"department" json:"department"`
	Programme   string           `db:"programme" json:"programme"`
	IntakeTerm  string           `db:"intake_term" json:"intake_term"`
	Campus      string           `db:"campus" json:"campus"`
	FundingType string           `db:"funding_type" json:"funding_type"`
	Nationality *string          `db:"nationality" json:"nationality,omitempty"`
	Status      SubmissionStatus `db:"status" json:"status"`
	Version     int              `db:"version" json:"-"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// ChecklistContext extracts the rule-matching context for this submission.
func (s *Submission) ChecklistContext() ChecklistContext {
	ctx := ChecklistContext{
		Department:  s.Department,
		Programme:   s.Programme,
		IntakeTerm:  s.IntakeTerm,
		Campus:      s.Campus,
		FundingType: s.FundingType,
	}
	if s.Nationality != nil {
		ctx.Nationality = *s.Nationality
	}
	return ctx
}

// SubmissionDetail enriches Submission with document counts for listings.
type SubmissionDetail struct {
	Submission
	DocumentsCount int `db:"documents_count" json:"documents_count"`
}

// SubmissionFilter provides filters for listing submissions.
type SubmissionFilter struct {
	Department Department
	Status     SubmissionStatus
	Programme  string
	IntakeTerm string
	Campus     string
	StudentID  string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// StatusProjection is the read-only view served to the status page and the
// conversational assistant. It never exposes rule internals or documents
// belonging to another submission.
type StatusProjection struct {
	Reference         string           `json:"reference"`
	Status            SubmissionStatus `json:"status"`
	Department        Department       `json:"department"`
	DocumentsCount    int              `json:"documents_count"`
	RequiredCount     int              `json:"required_count"`
	SatisfiedRequired int              `json:"satisfied_required_count"`
	CreatedAt         time.Time        `json:"created_at"`
}
