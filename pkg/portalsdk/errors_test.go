package portalsdk

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindForStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status      int
		credentials bool
		want        ErrorKind
	}{
		{401, true, KindInvalidCredentials},
		{403, true, KindInvalidCredentials},
		{401, false, KindUnauthorized},
		{403, false, KindUnauthorized},
		{400, false, KindValidation},
		{400, true, KindValidation},
		{500, false, KindServer},
		{502, false, KindUnknown},
		{404, false, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d credentials=%v", tt.status, tt.credentials), func(t *testing.T) {
			require.Equal(t, tt.want, kindForStatus(tt.status, tt.credentials))
		})
	}
}

func TestAPIError_UserMessage(t *testing.T) {
	t.Parallel()

	const target = "http://backend/estudiante/notas"

	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{"connectivity", &APIError{Kind: KindConnectivity}, "No se puede conectar al servidor. Intente más tarde."},
		{"timeout", &APIError{Kind: KindTimeout}, "El servidor no responde. Intente más tarde."},
		{"invalid credentials", &APIError{Kind: KindInvalidCredentials, StatusCode: 401, Message: "Credenciales inválidas"}, "Usuario o contraseña incorrectos"},
		{"unauthorized", &APIError{Kind: KindUnauthorized, StatusCode: 401}, "Su sesión ha expirado. Inicie sesión nuevamente."},
		{"validation with message", &APIError{Kind: KindValidation, StatusCode: 400, Message: "Semestre inválido"}, "Semestre inválido"},
		{"validation with fallback", &APIError{Kind: KindValidation, StatusCode: 400, Fallback: "Error al obtener notas"}, "Error al obtener notas"},
		{"validation bare", &APIError{Kind: KindValidation, StatusCode: 400}, "Datos inválidos"},
		{"server hides detail", &APIError{Kind: KindServer, StatusCode: 500, Message: "nil pointer"}, "Error interno del servidor. Intente más tarde."},
		{"rejected with message", &APIError{Kind: KindRejected, StatusCode: 200, Message: "Sin datos"}, "Sin datos"},
		{"rejected with fallback", &APIError{Kind: KindRejected, StatusCode: 200, Fallback: "Error al obtener pagos"}, "Error al obtener pagos"},
		{"other status", &APIError{Kind: KindUnknown, StatusCode: 404, Message: "No existe"}, "No existe"},
		{"decode", &APIError{Kind: KindDecode, Fallback: "Error al obtener avisos"}, "Error al obtener avisos"},
		{"decode bare", &APIError{Kind: KindDecode}, "Error de conexión. Intente más tarde."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.err.URL = target
			require.Equal(t, tt.want, tt.err.UserMessage(false))
		})
	}
}

func TestAPIError_UserMessageDev(t *testing.T) {
	t.Parallel()

	const target = "http://backend/auth/login"

	for _, kind := range []ErrorKind{KindConnectivity, KindTimeout, KindValidation, KindServer, KindDecode} {
		t.Run(string(kind), func(t *testing.T) {
			msg := (&APIError{Kind: kind, StatusCode: 400, URL: target}).UserMessage(true)
			require.Contains(t, msg, target)
		})
	}

	t.Run("credentials never leak detail", func(t *testing.T) {
		msg := (&APIError{Kind: KindInvalidCredentials, StatusCode: 401, URL: target}).UserMessage(true)
		require.Equal(t, "Usuario o contraseña incorrectos", msg)
	})
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	require.Empty(t, UserMessage(nil, false))
	require.Equal(t, "Debe iniciar sesión.", UserMessage(ErrNotAuthenticated, false))
	require.Equal(t, "Error de conexión. Intente más tarde.", UserMessage(errors.New("x"), false))
	require.Equal(t, "x", UserMessage(errors.New("x"), true))

	wrapped := fmt.Errorf("%w: %w", ErrSessionExpired, &APIError{Kind: KindUnauthorized, StatusCode: 401})
	require.Equal(t, "Su sesión ha expirado. Inicie sesión nuevamente.", UserMessage(wrapped, false))
}

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	t.Run("envelope message", func(t *testing.T) {
		e := parseErrorResponse(400, []byte(`{"success":false,"message":"Falta el código"}`), "u", false)
		require.Equal(t, KindValidation, e.Kind)
		require.Equal(t, 400, e.StatusCode)
		require.Equal(t, "Falta el código", e.Message)
	})

	t.Run("non json body", func(t *testing.T) {
		e := parseErrorResponse(502, []byte(`<html>Bad Gateway</html>`), "u", false)
		require.Equal(t, KindUnknown, e.Kind)
		require.Empty(t, e.Message)
	})
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestTransportError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"wrapped deadline", fmt.Errorf("rate limit: %w", context.DeadlineExceeded), KindTimeout},
		{"net timeout", &url.Error{Op: "Get", URL: "u", Err: timeoutErr{}}, KindTimeout},
		{"refused", &url.Error{Op: "Get", URL: "u", Err: errors.New("connection refused")}, KindConnectivity},
		{"canceled", context.Canceled, KindConnectivity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := transportError(tt.err, "u")
			require.Equal(t, tt.want, e.Kind)
			require.Zero(t, e.StatusCode)
			require.ErrorIs(t, e, tt.err)
		})
	}
}
