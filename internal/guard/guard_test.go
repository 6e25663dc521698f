package guard

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/examtester/internal/model"
	"github.com/stretchr/testify/assert"
)

func session(role model.Role) *model.Session {
	return &model.Session{
		User:  model.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: role},
		Token: "tok",
	}
}

func TestDecide_NoSessionAlwaysRedirects(t *testing.T) {
	for _, role := range []model.Role{"", model.RoleStudent, model.RoleTeacher, model.RoleAdmin} {
		assert.Equal(t, RedirectToLogin, Decide(State{}, role), "role %q", role)
	}
}

func TestDecide_LoadingIsPending(t *testing.T) {
	assert.Equal(t, Pending, Decide(State{Loading: true}, model.RoleTeacher))
	assert.Equal(t, Pending, Decide(State{Loading: true, Session: session(model.RoleTeacher)}, model.RoleTeacher))
}

func TestDecide_RoleMismatchRedirects(t *testing.T) {
	assert.Equal(t, RedirectToLogin, Decide(State{Session: session(model.RoleStudent)}, model.RoleTeacher))
	assert.Equal(t, RedirectToLogin, Decide(State{Session: session(model.RoleTeacher)}, model.RoleAdmin))
}

func TestDecide_Allow(t *testing.T) {
	assert.Equal(t, Allow, Decide(State{Session: session(model.RoleStudent)}, model.RoleStudent))
	assert.Equal(t, Allow, Decide(State{Session: session(model.RoleAdmin)}, ""))
}

func TestHomeFor(t *testing.T) {
	assert.Equal(t, PathTeacher, HomeFor(model.RoleTeacher))
	assert.Equal(t, PathAdmin, HomeFor(model.RoleAdmin))
	assert.Equal(t, PathStudent, HomeFor(model.RoleStudent))
}

type staticState State

func (s staticState) GuardState() State { return State(s) }

func TestRouter_Navigate(t *testing.T) {
	r := NewRouter(staticState{Session: session(model.RoleStudent)}, zerolog.Nop())

	res := r.Navigate(PathStudent)
	assert.Equal(t, Allow, res.Decision)
	assert.Equal(t, PathStudent, r.Location())

	res = r.Navigate(PathSubmission)
	assert.Equal(t, Allow, res.Decision)

	res = r.Navigate(PathViewSubmissions)
	assert.Equal(t, RedirectToLogin, res.Decision)
	assert.Equal(t, PathLogin, r.Location())

	res = r.Navigate(PathRoot)
	assert.Equal(t, RedirectToLogin, res.Decision)

	res = r.Navigate("/nowhere")
	assert.Equal(t, PathLogin, res.Path)
}

func TestRouter_PendingKeepsLocation(t *testing.T) {
	r := NewRouter(staticState{Loading: true}, zerolog.Nop())
	res := r.Navigate(PathAdmin)
	assert.Equal(t, Pending, res.Decision)
	assert.Equal(t, PathLogin, r.Location())
}

func TestRouter_LoginIsPublic(t *testing.T) {
	r := NewRouter(staticState{}, zerolog.Nop())
	res := r.Navigate(PathLogin)
	assert.Equal(t, Allow, res.Decision)
}

func TestRouter_RedirectToLogin(t *testing.T) {
	r := NewRouter(staticState{Session: session(model.RoleTeacher)}, zerolog.Nop())
	r.Navigate(PathTeacher)
	r.RedirectToLogin()
	assert.Equal(t, PathLogin, r.Location())
}
