// Package guard decides whether the current session may open a view.
package guard

import "github.com/stemsi/examtester/internal/model"

// Decision is the outcome of a navigation check.
type Decision int

const (
	// Pending means the session is still loading; render a placeholder
	// and decide nothing yet.
	Pending Decision = iota
	Allow
	RedirectToLogin
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	default:
		return "redirect_to_login"
	}
}

// State is what the guard needs from the session store.
type State struct {
	Loading bool
	Session *model.Session
}

// Decide permits navigation only when a session exists and, if required is
// non-empty, its role matches. "Not logged in" and "wrong role" are the
// same redirect.
func Decide(state State, required model.Role) Decision {
	if state.Loading {
		return Pending
	}
	if state.Session == nil {
		return RedirectToLogin
	}
	if required != "" && state.Session.User.Role != required {
		return RedirectToLogin
	}
	return Allow
}

// HomeFor is the landing page after a successful login.
func HomeFor(role model.Role) string {
	switch role {
	case model.RoleTeacher:
		return PathTeacher
	case model.RoleAdmin:
		return PathAdmin
	default:
		return PathStudent
	}
}
