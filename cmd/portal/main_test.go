package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/portal/internal/views"
	"github.com/aussiebroadwan/portal/pkg/portalsdk/portalsdktest"
)

type invocation struct {
	stdout string
	stderr string
	err    error
}

func runPortal(t *testing.T, apiURL, dataFile string, args ...string) invocation {
	t.Helper()

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--api-url", apiURL, "--data-file", dataFile}, args...))

	err := cmd.ExecuteContext(context.Background())
	return invocation{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestCLI_FirstSessionFlow(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	srv := portalsdktest.Start(t)
	data := filepath.Join(t.TempDir(), "portal.db")

	res := runPortal(t, srv.URL, data, "status")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "ANONYMOUS")

	res = runPortal(t, srv.URL, data, "grades")
	require.ErrorIs(t, res.err, errReported)
	require.Contains(t, res.stderr, "Debe iniciar sesión")

	res = runPortal(t, srv.URL, data, "login", "-u", portalsdktest.FirstSessionUsuario, "-p", portalsdktest.FirstSessionPassword)
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "Sesión iniciada como "+portalsdktest.FirstSessionUsuario)
	require.Contains(t, res.stdout, "portal change-password")

	res = runPortal(t, srv.URL, data, "dashboard")
	require.ErrorIs(t, res.err, errReported)
	require.Contains(t, res.stderr, "Debe cambiar su contraseña")

	res = runPortal(t, srv.URL, data, "change-password", "--new", "nueva123", "--confirm", "otra123")
	require.ErrorIs(t, res.err, errReported)
	require.Contains(t, res.stderr, "Las contraseñas no coinciden")

	res = runPortal(t, srv.URL, data, "change-password", "--new", "nueva123", "--confirm", "nueva123")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, views.PasswordChanged)

	res = runPortal(t, srv.URL, data, "dashboard")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "¡Bienvenid@, José Ramírez!")

	res = runPortal(t, srv.URL, data, "logout")
	require.NoError(t, res.err)

	res = runPortal(t, srv.URL, data, "status", "-o", "json")
	require.NoError(t, res.err)
	var status views.StatusPage
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &status))
	require.Equal(t, "ANONYMOUS", status.State)
}

func TestCLI_PagesAndExpiry(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	srv := portalsdktest.Start(t)
	data := filepath.Join(t.TempDir(), "portal.db")

	res := runPortal(t, srv.URL, data, "login", "-u", portalsdktest.StudentUsuario, "-p", "mala")
	require.ErrorIs(t, res.err, errReported)
	require.Contains(t, res.stderr, "Usuario o contraseña incorrectos")

	res = runPortal(t, srv.URL, data, "login", "-u", portalsdktest.StudentUsuario, "-p", portalsdktest.StudentPassword)
	require.NoError(t, res.err)

	res = runPortal(t, srv.URL, data, "grades", "-s", "2024-1", "-o", "json")
	require.NoError(t, res.err)
	var grades views.GradesPage
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &grades))
	require.Len(t, grades.Rows, 2)

	res = runPortal(t, srv.URL, data, "pagos", "-o", "yaml")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "status: Deuda Pendiente")

	srv.ExpireAccessTokens()
	res = runPortal(t, srv.URL, data, "profile")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "45678912")

	srv.ExpireAccessTokens()
	srv.RejectRefresh(true)
	res = runPortal(t, srv.URL, data, "payments")
	require.ErrorIs(t, res.err, errReported)
	require.Contains(t, res.stderr, "Su sesión ha expirado")

	res = runPortal(t, srv.URL, data, "status")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "ANONYMOUS")
}

func TestCLI_ForgotPassword(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	srv := portalsdktest.Start(t)
	data := filepath.Join(t.TempDir(), "portal.db")

	res := runPortal(t, srv.URL, data, "forgot-password", "--codigo", "123")
	require.ErrorIs(t, res.err, errReported)
	require.Contains(t, res.stderr, "El código debe tener 6 caracteres")

	res = runPortal(t, srv.URL, data, "forgot-password", "--codigo", portalsdktest.StudentUsuario)
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "Se envió un enlace de recuperación a su correo")

	token := srv.ResetToken(portalsdktest.StudentUsuario)
	res = runPortal(t, srv.URL, data, "reset-password", "--token", token, "--new", "nueva123", "--confirm", "nueva123")
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "Contraseña actualizada correctamente")

	res = runPortal(t, srv.URL, data, "login", "-u", portalsdktest.StudentUsuario, "-p", "nueva123")
	require.NoError(t, res.err)
}

func TestCLI_RejectsUnknownOutput(t *testing.T) {
	res := runPortal(t, "http://127.0.0.1:1", filepath.Join(t.TempDir(), "portal.db"), "status", "-o", "xml")
	require.Error(t, res.err)
}
