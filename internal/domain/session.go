package domain

// Role determines navigation and available operations
type Role string

const (
	RoleLearner   Role = "LEARNER"
	RoleAuthor    Role = "AUTHOR"
	RoleExecutive Role = "EXECUTIVE"
)

// ParseRole validates a role value received from the backend. Anything
// outside the enum is a recoverable input error, never a session state.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleLearner, RoleAuthor, RoleExecutive:
		return Role(s), nil
	}
	return "", &UnknownRoleError{Role: s}
}

// HomePath maps a role to its landing path. Total over the enum, callers
// must not reimplement this mapping.
func (r Role) HomePath() string {
	switch r {
	case RoleLearner:
		return "/learner"
	case RoleAuthor:
		return "/author"
	case RoleExecutive:
		return "/executive"
	}
	// unreachable for values produced by ParseRole
	return "/"
}

// Session the authenticated identity held for the duration of a login.
// Exists only while authenticated, exclusively owned by the session manager.
type Session struct {
	Token    string
	Role     Role
	Username string
}
