package portalsdk_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/portal/pkg/portalsdk"
	"github.com/aussiebroadwan/portal/pkg/portalsdk/portalsdktest"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// recordingNavigator tracks forced redirects.
type recordingNavigator struct {
	mu        sync.Mutex
	view      string
	redirects int
}

func (n *recordingNavigator) CurrentView() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.view
}

func (n *recordingNavigator) RedirectToLogin() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects++
	n.view = portalsdk.ViewLogin
}

func (n *recordingNavigator) Redirects() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.redirects
}

type harness struct {
	srv       *portalsdktest.Server
	client    *portalsdk.Client
	nav       *recordingNavigator
	persister *portalsdk.MemoryPersister
}

func newHarness(t *testing.T, opts portalsdk.Options) *harness {
	t.Helper()

	h := &harness{
		srv:       portalsdktest.Start(t),
		nav:       &recordingNavigator{view: portalsdk.ViewDashboard},
		persister: portalsdk.NewMemoryPersister(),
	}
	opts.Navigator = h.nav
	opts.Persister = h.persister

	client, err := portalsdk.NewClient(h.srv.URL, opts)
	require.NoError(t, err)
	require.NoError(t, client.Restore(context.Background()))
	h.client = client
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	_, err := h.client.Login(context.Background(), portalsdktest.StudentUsuario, portalsdktest.StudentPassword)
	require.NoError(t, err)
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "localhost:8080", "/relative", "http://"} {
		_, err := portalsdk.NewClient(raw, portalsdk.Options{})
		require.Error(t, err, "base URL %q", raw)
	}
}

func TestPipeline_AttachesBearer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, portalsdk.Options{})
	h.login(t)

	grades, err := h.client.GetGrades(ctx)
	require.NoError(t, err)
	require.Len(t, grades.Notas, 3)
	require.Zero(t, h.srv.Calls(portalsdk.PathRefresh))
}

func TestPipeline_ExactlyOneRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, portalsdk.Options{})
	h.login(t)

	expired := h.client.Session().AccessToken
	h.srv.ExpireAccessTokens()

	info, err := h.client.GetAcademicInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, portalsdktest.StudentUsuario, info.Alumno)

	require.Equal(t, 1, h.srv.Calls(portalsdk.PathRefresh))
	require.Equal(t, 2, h.srv.Calls(portalsdk.PathAcademicInfo))
	require.Equal(t, "Bearer "+expired, h.srv.LastRefreshAuthorization())

	snap := h.client.Session()
	require.NotEqual(t, expired, snap.AccessToken)
	require.Equal(t, portalsdktest.StudentUsuario, snap.Username)

	state, err := h.persister.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, snap.AccessToken, state.Session.AccessToken)
	require.Zero(t, h.nav.Redirects())
}

func TestPipeline_ForbiddenAlsoRefreshes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, portalsdk.Options{})
	h.login(t)

	h.srv.FailNext(portalsdk.PathPayments, http.StatusForbidden, "Prohibido")

	payments, err := h.client.GetPayments(ctx)
	require.NoError(t, err)
	require.Len(t, payments.Pagos, 2)
	require.Equal(t, 1, h.srv.Calls(portalsdk.PathRefresh))
	require.Equal(t, 2, h.srv.Calls(portalsdk.PathPayments))
}

func TestPipeline_RetriedRequestIsNotRefreshedAgain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, portalsdk.Options{})
	h.login(t)

	h.srv.AlwaysUnauthorized(portalsdk.PathGrades)

	_, err := h.client.GetGrades(ctx)

	var apiErr *portalsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, portalsdk.KindUnauthorized, apiErr.Kind)
	require.NotErrorIs(t, err, portalsdk.ErrSessionExpired)

	require.Equal(t, 1, h.srv.Calls(portalsdk.PathRefresh))
	require.Equal(t, 2, h.srv.Calls(portalsdk.PathGrades))

	// The refresh itself worked, so the session survives.
	require.True(t, h.client.Session().IsAuthenticated())
	require.Zero(t, h.nav.Redirects())
}

func TestPipeline_RefreshFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		script func(*portalsdktest.Server)
	}{
		{"success false", func(s *portalsdktest.Server) { s.RejectRefresh(true) }},
		{"unauthorized", func(s *portalsdktest.Server) { s.FailRefreshStatus(http.StatusUnauthorized) }},
		{"server error", func(s *portalsdktest.Server) { s.FailRefreshStatus(http.StatusInternalServerError) }},
		{"revoked cookie", func(s *portalsdktest.Server) { s.RevokeRefreshTokens() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			h := newHarness(t, portalsdk.Options{})
			h.login(t)

			h.srv.ExpireAccessTokens()
			tt.script(h.srv)

			_, err := h.client.GetGrades(ctx)
			require.ErrorIs(t, err, portalsdk.ErrSessionExpired)

			var apiErr *portalsdk.APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, portalsdk.KindUnauthorized, apiErr.Kind)
			require.Equal(t, "Su sesión ha expirado. Inicie sesión nuevamente.", portalsdk.UserMessage(err, false))

			require.Equal(t, 1, h.srv.Calls(portalsdk.PathGrades), "retry must not be sent")
			require.Equal(t, 1, h.srv.Calls(portalsdk.PathRefresh))

			require.False(t, h.client.Session().IsAuthenticated())
			state, err := h.persister.Load(ctx)
			require.NoError(t, err)
			require.Equal(t, portalsdk.PersistedState{}, state)

			require.Equal(t, 1, h.nav.Redirects())
		})
	}
}

func TestPipeline_NoRedirectWhenAlreadyOnLogin(t *testing.T) {
	t.Parallel()
	h := newHarness(t, portalsdk.Options{})
	h.login(t)
	h.nav.view = portalsdk.ViewLogin

	h.srv.ExpireAccessTokens()
	h.srv.RejectRefresh(true)

	_, err := h.client.GetLinks(context.Background())
	require.ErrorIs(t, err, portalsdk.ErrSessionExpired)
	require.Zero(t, h.nav.Redirects())
	require.False(t, h.client.Session().IsAuthenticated())
}

func TestPipeline_TimeoutDoesNotRefresh(t *testing.T) {
	t.Parallel()
	h := newHarness(t, portalsdk.Options{Timeout: 50 * time.Millisecond})
	h.login(t)

	h.srv.SetDelay(500 * time.Millisecond)

	_, err := h.client.GetNotices(context.Background())

	var apiErr *portalsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, portalsdk.KindTimeout, apiErr.Kind)
	require.Equal(t, "El servidor no responde. Intente más tarde.", apiErr.UserMessage(false))
	require.Zero(t, h.srv.Calls(portalsdk.PathRefresh))
	require.True(t, h.client.Session().IsAuthenticated())
}

func TestPipeline_Connectivity(t *testing.T) {
	t.Parallel()

	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	client, err := portalsdk.NewClient(url, portalsdk.Options{})
	require.NoError(t, err)

	_, err = client.Login(context.Background(), "2024001", "x")

	var apiErr *portalsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, portalsdk.KindConnectivity, apiErr.Kind)
	require.Equal(t, "No se puede conectar al servidor. Intente más tarde.", client.Session().Error)

	client.Dev = true
	require.Contains(t, apiErr.UserMessage(client.Dev), url+portalsdk.PathLogin)
}

func TestPipeline_ErrorTaxonomy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		message string
		kind    portalsdk.ErrorKind
		want    string
	}{
		{"validation", http.StatusBadRequest, "Semestre inválido", portalsdk.KindValidation, "Semestre inválido"},
		{"server", http.StatusInternalServerError, "panic", portalsdk.KindServer, "Error interno del servidor. Intente más tarde."},
		{"rejected", http.StatusOK, "No hay notas registradas", portalsdk.KindRejected, "No hay notas registradas"},
		{"rejected without message", http.StatusOK, "", portalsdk.KindRejected, "Error al obtener notas"},
		{"other status", http.StatusNotFound, "", portalsdk.KindUnknown, "Error al obtener notas"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, portalsdk.Options{})
			h.login(t)
			h.srv.SetFailure(portalsdk.PathGrades, tt.status, tt.message)

			_, err := h.client.GetGrades(context.Background())

			var apiErr *portalsdk.APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tt.kind, apiErr.Kind)
			require.Equal(t, tt.want, apiErr.UserMessage(false))
			require.Zero(t, h.srv.Calls(portalsdk.PathRefresh))
		})
	}
}

func TestPipeline_LoginIsNeverRefreshed(t *testing.T) {
	t.Parallel()
	h := newHarness(t, portalsdk.Options{})

	_, err := h.client.Login(context.Background(), portalsdktest.StudentUsuario, "wrong")

	var apiErr *portalsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, portalsdk.KindInvalidCredentials, apiErr.Kind)
	require.Zero(t, h.srv.Calls(portalsdk.PathRefresh))
	require.Equal(t, 1, h.srv.Calls(portalsdk.PathLogin))
}

func TestPipeline_ConcurrentExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, portalsdk.Options{})
	h.login(t)

	h.srv.ExpireAccessTokens()

	var g errgroup.Group
	for range 5 {
		g.Go(func() error {
			_, err := h.client.GetGrades(ctx)
			return err
		})
	}
	require.NoError(t, g.Wait())

	refreshes := h.srv.Calls(portalsdk.PathRefresh)
	require.GreaterOrEqual(t, refreshes, 1)
	require.LessOrEqual(t, refreshes, 5)
	require.True(t, h.client.Session().IsAuthenticated())
}

func TestClient_Logout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, portalsdk.Options{})
	h.login(t)

	h.client.Logout(ctx)
	require.Equal(t, 1, h.srv.Calls(portalsdk.PathLogout))
	require.False(t, h.client.Session().IsAuthenticated())

	state, err := h.persister.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, state.Cookies)

	// Anonymous logout is local only.
	h.client.Logout(ctx)
	require.Equal(t, 1, h.srv.Calls(portalsdk.PathLogout))
}

func TestClient_LogoutRevokesHeldRefreshCookie(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, portalsdk.Options{})
	h.login(t)

	// Only the refresh cookie survives, as after a lost session file.
	require.NoError(t, h.persister.SaveSession(ctx, portalsdk.StoredSession{}))
	state, err := h.persister.Load(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, state.Cookies)

	restarted, err := portalsdk.NewClient(h.srv.URL, portalsdk.Options{Persister: h.persister, Navigator: h.nav})
	require.NoError(t, err)
	require.NoError(t, restarted.Restore(ctx))
	require.False(t, restarted.Session().IsAuthenticated())

	restarted.Logout(ctx)
	require.GreaterOrEqual(t, h.srv.Calls(portalsdk.PathLogout), 1)
	require.False(t, restarted.Session().IsAuthenticated())

	state, err = h.persister.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, state.Cookies)

	// The cookie was revoked server side.
	h.srv.ExpireAccessTokens()
	_, err = h.client.GetGrades(ctx)
	require.ErrorIs(t, err, portalsdk.ErrSessionExpired)
}

func TestClient_LogoutWithExpiredToken(t *testing.T) {
	t.Parallel()
	h := newHarness(t, portalsdk.Options{})
	h.login(t)

	h.srv.ExpireAccessTokens()
	h.srv.RejectRefresh(true)

	h.client.Logout(context.Background())
	require.False(t, h.client.Session().IsAuthenticated())
}

func TestClient_RestoreAcrossRestarts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, portalsdk.Options{})
	h.login(t)

	// A new process over the same storage picks up the session and the
	// refresh cookie.
	restarted, err := portalsdk.NewClient(h.srv.URL, portalsdk.Options{Persister: h.persister})
	require.NoError(t, err)
	require.True(t, restarted.Session().Loading)
	require.NoError(t, restarted.Restore(ctx))
	require.True(t, restarted.Session().IsAuthenticated())

	h.srv.ExpireAccessTokens()

	_, err = restarted.GetPersonalInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, h.srv.Calls(portalsdk.PathRefresh))
}

func TestClient_ChangePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, portalsdk.Options{})

	resp, err := h.client.Login(ctx, portalsdktest.FirstSessionUsuario, portalsdktest.FirstSessionPassword)
	require.NoError(t, err)
	require.True(t, resp.PrimeraSesion)

	t.Run("server validation", func(t *testing.T) {
		_, err := h.client.ChangePassword(ctx, "123")
		require.Equal(t, "La contraseña debe tener al menos 6 caracteres", portalsdk.UserMessage(err, false))
		require.True(t, h.client.Session().FirstSession)
	})

	t.Run("success", func(t *testing.T) {
		result, err := h.client.ChangePassword(ctx, "nueva-clave")
		require.NoError(t, err)
		require.True(t, result.Success)
		require.False(t, h.client.Session().FirstSession)
		require.False(t, h.srv.FirstSession(portalsdktest.FirstSessionUsuario))
	})

	t.Run("new password logs in", func(t *testing.T) {
		h.client.Logout(ctx)

		resp, err := h.client.Login(ctx, portalsdktest.FirstSessionUsuario, "nueva-clave")
		require.NoError(t, err)
		require.False(t, resp.PrimeraSesion)
	})
}

func TestClient_ForgotPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, portalsdk.Options{})

	t.Run("unknown code answers with server message", func(t *testing.T) {
		result, err := h.client.ForgotPassword(ctx, "9999999")
		require.NoError(t, err)
		require.False(t, result.Success)
		require.Equal(t, "Código de alumno no encontrado", result.Message)
	})

	t.Run("reset flow", func(t *testing.T) {
		result, err := h.client.ForgotPassword(ctx, portalsdktest.StudentUsuario)
		require.NoError(t, err)
		require.True(t, result.Success)

		token := h.srv.ResetToken(portalsdktest.StudentUsuario)
		require.NotEmpty(t, token)

		result, err = h.client.UpdateForgotPassword(ctx, token, "recuperada")
		require.NoError(t, err)
		require.True(t, result.Success)

		_, err = h.client.Login(ctx, portalsdktest.StudentUsuario, "recuperada")
		require.NoError(t, err)
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		result, err := h.client.UpdateForgotPassword(ctx, "bogus", "otra-clave")
		require.NoError(t, err)
		require.False(t, result.Success)
		require.Equal(t, "El enlace es inválido o ha expirado", result.Message)
	})

	t.Run("transport failure is an error", func(t *testing.T) {
		h.srv.SetDelay(200 * time.Millisecond)
		defer h.srv.SetDelay(0)

		ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		_, err := h.client.ForgotPassword(ctx, portalsdktest.StudentUsuario)

		var apiErr *portalsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, portalsdk.KindTimeout, apiErr.Kind)
	})
}
