package portalsdk

// View paths.
const (
	ViewLogin                = "/login"
	ViewChangePassword       = "/change-password"
	ViewForgotPassword       = "/forgot-password"
	ViewUpdateForgotPassword = "/update-forgot-password"
	ViewDashboard            = "/dashboard"
	ViewGrades               = "/notas"
	ViewPayments             = "/pagos"
	ViewProfile              = "/perfil"
)

// AuthState is the route protection state derived from a Session.
type AuthState int

const (
	StateLoading AuthState = iota
	StateAnonymous
	StateFirstSession
	StateAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case StateLoading:
		return "LOADING"
	case StateAnonymous:
		return "ANONYMOUS"
	case StateFirstSession:
		return "AUTHENTICATED_FIRST_SESSION"
	case StateAuthenticated:
		return "AUTHENTICATED_NORMAL"
	default:
		return "UNKNOWN"
	}
}

// StateOf derives the route protection state. firstSession only matters once
// the session is authenticated.
func StateOf(s Session) AuthState {
	switch {
	case s.Loading:
		return StateLoading
	case !s.IsAuthenticated():
		return StateAnonymous
	case s.FirstSession:
		return StateFirstSession
	default:
		return StateAuthenticated
	}
}

// Route describes a view and how it is protected.
type Route struct {
	Path string

	// Public views are reachable without a session.
	Public bool

	// AllowFirstSession lets the view render while a password change is pending.
	AllowFirstSession bool
}

// DefaultRoutes are the portal's views.
func DefaultRoutes() []Route {
	return []Route{
		{Path: ViewLogin, Public: true},
		{Path: ViewForgotPassword, Public: true},
		{Path: ViewUpdateForgotPassword, Public: true},
		{Path: ViewChangePassword, AllowFirstSession: true},
		{Path: ViewDashboard},
		{Path: ViewGrades},
		{Path: ViewPayments},
		{Path: ViewProfile},
	}
}

// Decision is the outcome of one navigation.
type Decision struct {
	Requested string
	Target    string
	State     AuthState

	// Wait is set while the session is still being restored.
	Wait bool
}

// Redirected reports whether the guard sent the user somewhere else.
func (d Decision) Redirected() bool { return d.Target != d.Requested }

// Guard evaluates route protection on every navigation. It keeps no state of
// its own; the Session is read each time.
type Guard struct {
	routes   map[string]Route
	fallback string
}

// NewGuard builds a Guard over routes. Unknown paths resolve to the dashboard.
func NewGuard(routes ...Route) *Guard {
	if len(routes) == 0 {
		routes = DefaultRoutes()
	}

	g := &Guard{
		routes:   make(map[string]Route, len(routes)),
		fallback: ViewDashboard,
	}
	for _, r := range routes {
		g.routes[r.Path] = r
	}
	return g
}

// Resolve decides where a navigation to path ends up for session s.
func (g *Guard) Resolve(s Session, path string) Decision {
	state := StateOf(s)
	d := Decision{Requested: path, Target: path, State: state}

	route, ok := g.routes[path]
	if !ok {
		d.Target = g.fallback
		route = g.routes[g.fallback]
	}

	switch {
	case state == StateFirstSession:
		if route.Path != ViewLogin && route.Path != ViewChangePassword && !route.AllowFirstSession {
			d.Target = ViewChangePassword
		}
	case route.Public:
		// Signed-in users have no business on the login form.
		if route.Path == ViewLogin && state == StateAuthenticated {
			d.Target = ViewDashboard
		}
	case state == StateLoading:
		d.Wait = true
	case state == StateAnonymous:
		d.Target = ViewLogin
	}

	return d
}

// NextViewAfterLogin returns the view a successful login leads to, based on
// the server-reported first-session flag.
func NextViewAfterLogin(resp *LoginResponse) string {
	if resp != nil && resp.PrimeraSesion {
		return ViewChangePassword
	}
	return ViewDashboard
}
