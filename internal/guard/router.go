package guard

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/stemsi/examtester/internal/model"
)

// Route paths.
const (
	PathRoot            = "/"
	PathLogin           = "/login"
	PathTeacher         = "/teacher"
	PathStudent         = "/student"
	PathSubmission      = "/submission"
	PathViewSubmissions = "/view-submissions"
	PathAdmin           = "/admin"
)

// Route maps a path to the role allowed to open it. Public routes have an
// empty Role and Public set.
type Route struct {
	Path   string
	Role   model.Role
	Public bool
}

// Routes is the application's navigation table.
var Routes = []Route{
	{Path: PathLogin, Public: true},
	{Path: PathTeacher, Role: model.RoleTeacher},
	{Path: PathStudent, Role: model.RoleStudent},
	{Path: PathSubmission, Role: model.RoleStudent},
	{Path: PathViewSubmissions, Role: model.RoleTeacher},
	{Path: PathAdmin, Role: model.RoleAdmin},
}

// StateSource exposes the session state the router consults.
type StateSource interface {
	GuardState() State
}

// Resolution is where navigation ended up.
type Resolution struct {
	Decision Decision
	Path     string
}

// Router resolves navigation requests against Routes and remembers the
// current location. It also serves as the process-wide redirect target for
// authentication failures.
type Router struct {
	mu       sync.Mutex
	source   StateSource
	location string
	log      zerolog.Logger
}

// NewRouter creates a Router starting at the login page.
func NewRouter(source StateSource, log zerolog.Logger) *Router {
	return &Router{
		source:   source,
		location: PathLogin,
		log:      log.With().Str("component", "router").Logger(),
	}
}

// Navigate resolves path and moves there unless the decision is Pending.
// Unknown paths and "/" go to the login page.
func (r *Router) Navigate(path string) Resolution {
	route, ok := lookup(path)
	if !ok {
		r.moveTo(PathLogin)
		return Resolution{Decision: RedirectToLogin, Path: PathLogin}
	}
	if route.Public {
		r.moveTo(route.Path)
		return Resolution{Decision: Allow, Path: route.Path}
	}

	d := Decide(r.source.GuardState(), route.Role)
	switch d {
	case Pending:
		return Resolution{Decision: Pending, Path: r.Location()}
	case Allow:
		r.moveTo(route.Path)
		return Resolution{Decision: Allow, Path: route.Path}
	default:
		r.log.Debug().Str("path", path).Msg("Redirecting to login")
		r.moveTo(PathLogin)
		return Resolution{Decision: RedirectToLogin, Path: PathLogin}
	}
}

// RedirectToLogin forces the login page regardless of session state.
func (r *Router) RedirectToLogin() {
	r.log.Info().Msg("Session ended, redirecting to login")
	r.moveTo(PathLogin)
}

// Location returns the current path.
func (r *Router) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.location
}

func (r *Router) moveTo(path string) {
	r.mu.Lock()
	r.location = path
	r.mu.Unlock()
}

func lookup(path string) (Route, bool) {
	for _, rt := range Routes {
		if rt.Path == path {
			return rt, true
		}
	}
	return Route{}, false
}
