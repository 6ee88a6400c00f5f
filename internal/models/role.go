package models

// Role represents the closed set of account roles.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ValidRole reports whether the raw value names a known role.
func ValidRole(raw string) bool {
	switch Role(raw) {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// Action names a privileged capability checked by route guards and
// ownership rules.
type Action string

const (
	// ActionModerate grants access to the moderation dashboard and its
	// listings.
	ActionModerate Action = "moderate"
	// ActionVerifyAnswers grants the answer verification toggle.
	ActionVerifyAnswers Action = "verify_answers"
	// ActionBypassOwnership lets a principal edit or delete content they do
	// not own.
	ActionBypassOwnership Action = "bypass_ownership"
	// ActionDeleteAnyContent grants the destructive moderation deletes.
	ActionDeleteAnyContent Action = "delete_any_content"
	// ActionViewAuditLogs grants access to the audit trail.
	ActionViewAuditLogs Action = "view_audit_logs"
)

// capabilities is the role -> allowed action table consulted once per
// route instead of scattering role comparisons through handlers.
var capabilities = map[Role]map[Action]struct{}{
	RoleStudent: {},
	RoleTeacher: {
		ActionModerate:        {},
		ActionVerifyAnswers:   {},
		ActionBypassOwnership: {},
	},
	RoleAdmin: {
		ActionModerate:         {},
		ActionVerifyAnswers:    {},
		ActionBypassOwnership:  {},
		ActionDeleteAnyContent: {},
		ActionViewAuditLogs:    {},
	},
}

// Can reports whether the role holds the capability.
func (r Role) Can(action Action) bool {
	allowed, ok := capabilities[r]
	if !ok {
		return false
	}
	_, ok = allowed[action]
	return ok
}

// RolesWith returns every role holding the capability, used to report the
// required set on authorization failures.
func RolesWith(action Action) []string {
	var roles []string
	for _, role := range []Role{RoleStudent, RoleTeacher, RoleAdmin} {
		if role.Can(action) {
			roles = append(roles, string(role))
		}
	}
	return roles
}
