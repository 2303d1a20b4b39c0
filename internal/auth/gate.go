package auth

import "github.com/dukerupert/choreadmin/internal/model"

// SuperuserRole is the only role granted the admin surface by default.
const SuperuserRole = "superuser"

// Session is what the gate needs to know about a caller.
type Session interface {
	model.Securable
	model.Roleable
}

type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case Deny:
		return "deny"
	}
	return "unknown"
}

// Gate decides admin access. There is no per-operation granularity: a
// session holding Role may do everything, anyone else nothing.
type Gate struct {
	Role string
}

func NewGate(role string) *Gate {
	if role == "" {
		role = SuperuserRole
	}
	return &Gate{Role: role}
}

// IsAccessible reports whether s may use the admin surface. Absent,
// unauthenticated and inactive sessions are refused.
func (g *Gate) IsAccessible(s Session) bool {
	if isNil(s) || !s.IsAuthenticated() || !s.IsActive() {
		return false
	}
	return s.HasRole(g.Role)
}

// Decide maps IsAccessible onto the response policy: known-but-unprivileged
// callers are denied, anonymous ones are sent to log in.
func (g *Gate) Decide(s Session) Decision {
	if g.IsAccessible(s) {
		return Allow
	}
	if !isNil(s) && s.IsAuthenticated() {
		return Deny
	}
	return RedirectToLogin
}

func isNil(s Session) bool {
	if s == nil {
		return true
	}
	p, ok := s.(*Principal)
	return ok && p == nil
}
