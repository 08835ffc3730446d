package portalsdk_test

import (
	"testing"

	"github.com/aussiebroadwan/portal/pkg/portalsdk"
	"github.com/stretchr/testify/require"
)

var (
	loading      = portalsdk.Session{Loading: true}
	anonymous    = portalsdk.Session{}
	firstSession = portalsdk.Session{AccessToken: "tok", Username: "2024002", FirstSession: true}
	normal       = portalsdk.Session{AccessToken: "tok", Username: "2024001"}
)

func TestStateOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, portalsdk.StateLoading, portalsdk.StateOf(loading))
	require.Equal(t, portalsdk.StateAnonymous, portalsdk.StateOf(anonymous))
	require.Equal(t, portalsdk.StateFirstSession, portalsdk.StateOf(firstSession))
	require.Equal(t, portalsdk.StateAuthenticated, portalsdk.StateOf(normal))

	// The flag alone does not make a session.
	require.Equal(t, portalsdk.StateAnonymous, portalsdk.StateOf(portalsdk.Session{FirstSession: true}))

	require.Equal(t, "AUTHENTICATED_FIRST_SESSION", portalsdk.StateFirstSession.String())
}

func TestGuard_Resolve(t *testing.T) {
	t.Parallel()

	g := portalsdk.NewGuard()

	tests := []struct {
		name    string
		session portalsdk.Session
		path    string
		want    string
		wait    bool
	}{
		{"loading waits on protected view", loading, portalsdk.ViewGrades, portalsdk.ViewGrades, true},
		{"loading renders login", loading, portalsdk.ViewLogin, portalsdk.ViewLogin, false},
		{"anonymous to login", anonymous, portalsdk.ViewDashboard, portalsdk.ViewLogin, false},
		{"anonymous change password to login", anonymous, portalsdk.ViewChangePassword, portalsdk.ViewLogin, false},
		{"anonymous forgot password", anonymous, portalsdk.ViewForgotPassword, portalsdk.ViewForgotPassword, false},
		{"anonymous reset link", anonymous, portalsdk.ViewUpdateForgotPassword, portalsdk.ViewUpdateForgotPassword, false},
		{"normal dashboard", normal, portalsdk.ViewDashboard, portalsdk.ViewDashboard, false},
		{"normal change password", normal, portalsdk.ViewChangePassword, portalsdk.ViewChangePassword, false},
		{"normal away from login", normal, portalsdk.ViewLogin, portalsdk.ViewDashboard, false},
		{"unknown path", normal, "/nope", portalsdk.ViewDashboard, false},
		{"unknown path anonymous", anonymous, "/nope", portalsdk.ViewLogin, false},
		{"first session change password", firstSession, portalsdk.ViewChangePassword, portalsdk.ViewChangePassword, false},
		{"first session login", firstSession, portalsdk.ViewLogin, portalsdk.ViewLogin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := g.Resolve(tt.session, tt.path)
			require.Equal(t, tt.want, d.Target)
			require.Equal(t, tt.wait, d.Wait)
			require.Equal(t, tt.path, d.Requested)
		})
	}
}

func TestGuard_FirstSessionForcesPasswordChange(t *testing.T) {
	t.Parallel()

	g := portalsdk.NewGuard()
	for _, route := range portalsdk.DefaultRoutes() {
		if route.Path == portalsdk.ViewLogin || route.Path == portalsdk.ViewChangePassword {
			continue
		}
		t.Run(route.Path, func(t *testing.T) {
			d := g.Resolve(firstSession, route.Path)
			require.Equal(t, portalsdk.ViewChangePassword, d.Target)
			require.True(t, d.Redirected())
		})
	}

	require.Equal(t, portalsdk.ViewChangePassword, g.Resolve(firstSession, "/unknown").Target)
}

func TestGuard_AllowFirstSessionRoute(t *testing.T) {
	t.Parallel()

	g := portalsdk.NewGuard(append(portalsdk.DefaultRoutes(),
		portalsdk.Route{Path: "/ayuda", AllowFirstSession: true},
	)...)

	require.Equal(t, "/ayuda", g.Resolve(firstSession, "/ayuda").Target)
	require.Equal(t, portalsdk.ViewLogin, g.Resolve(anonymous, "/ayuda").Target)
}

func TestNextViewAfterLogin(t *testing.T) {
	t.Parallel()

	require.Equal(t, portalsdk.ViewChangePassword, portalsdk.NextViewAfterLogin(&portalsdk.LoginResponse{PrimeraSesion: true}))
	require.Equal(t, portalsdk.ViewDashboard, portalsdk.NextViewAfterLogin(&portalsdk.LoginResponse{}))
	require.Equal(t, portalsdk.ViewDashboard, portalsdk.NextViewAfterLogin(nil))
}
