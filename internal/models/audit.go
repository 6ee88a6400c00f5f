package models

import "time"

// Audit actions recorded for moderation and account changes.
const (
	AuditActionLogin          = "login"
	AuditActionLogout         = "logout"
	AuditActionRoleUpdate     = "role_update"
	AuditActionStatusToggle   = "status_toggle"
	AuditActionArchiveToggle  = "question_archive_toggle"
	AuditActionQuestionDelete = "question_delete"
	AuditActionAnswerDelete   = "answer_delete"
)

// AuditLog records a privileged action against a resource.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"userId,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resourceId,omitempty"`
	NewValues  []byte    `db:"new_values" json:"newValues,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ipAddress"`
	UserAgent  string    `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
