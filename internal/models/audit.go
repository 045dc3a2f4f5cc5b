package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionSubmissionCreate = "SUBMISSION_CREATE"
	AuditActionFinalize         = "SUBMISSION_FINALIZE"
	AuditActionStatusChange     = "SUBMISSION_STATUS_CHANGE"
	AuditActionReopen           = "SUBMISSION_REOPEN"
	AuditActionDelete           = "SUBMISSION_DELETE"
	AuditActionOverrideUpload   = "DOCUMENT_OVERRIDE_UPLOAD"
	AuditActionRuleCreate       = "CHECKLIST_RULE_CREATE"
	AuditActionRuleUpdate       = "CHECKLIST_RULE_UPDATE"
	AuditActionRuleDeactivate   = "CHECKLIST_RULE_DEACTIVATE"
)

// AuditLog represents an audit trail record. Every administrative override
// (reopen, forced status change, upload into a locked submission) is
// recorded here with its actor.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
