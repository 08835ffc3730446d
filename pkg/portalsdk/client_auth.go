package portalsdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// login posts credentials. A 401/403 here means bad credentials and is never
// refreshed.
func (c *Client) login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	cl, err := newCall(http.MethodPost, PathLogin, req)
	if err != nil {
		return nil, err
	}
	cl.credentials = true
	cl.fallback = "Error en el login"

	if c.Dev {
		c.logger.Debug("attempting login", "usuario", req.Usuario, "url", c.url(PathLogin, nil))
	}

	data, err := execute[LoginResponse](ctx, c, cl)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) logout(ctx context.Context) error {
	cl, err := newCall(http.MethodPost, PathLogout, nil)
	if err != nil {
		return err
	}
	cl.refreshable = true

	resp, err := c.do(ctx, cl)
	if err != nil {
		return err
	}
	_, err = readEnvelope(resp, cl, c.url(cl.path, nil))
	return err
}

func (c *Client) updatePassword(ctx context.Context, newPassword string) (*MessageResult, error) {
	cl, err := newCall(http.MethodPut, PathUpdatePassword, UpdatePasswordRequest{NuevaContrasenia: newPassword})
	if err != nil {
		return nil, err
	}
	cl.refreshable = true
	cl.fallback = "Error al cambiar contraseña"

	return executeMessage(ctx, c, cl)
}

// ForgotPassword asks the backend to send a reset link for the student code.
// When the backend answers with an error the envelope is returned as an
// unsuccessful MessageResult so its exact message can be shown; only
// transport failures are returned as errors.
func (c *Client) ForgotPassword(ctx context.Context, codigo string) (*MessageResult, error) {
	cl, err := newCall(http.MethodPost, PathForgotPassword, ForgotPasswordRequest{Codigo: codigo})
	if err != nil {
		return nil, err
	}
	cl.fallback = "Error al enviar código"

	return answeredAsResult(executeMessage(ctx, c, cl))
}

// UpdateForgotPassword sets a new password using the token from a reset link.
// Errors are reported like ForgotPassword.
func (c *Client) UpdateForgotPassword(ctx context.Context, token, newPassword string) (*MessageResult, error) {
	cl, err := newCall(http.MethodPut, PathUpdateForgotPassword, UpdatePasswordRequest{NuevaContrasenia: newPassword})
	if err != nil {
		return nil, err
	}
	cl.query = url.Values{"token": {token}}
	cl.fallback = "Error al actualizar contraseña"

	return answeredAsResult(executeMessage(ctx, c, cl))
}

// answeredAsResult turns a server-answered failure into an unsuccessful result.
func answeredAsResult(result *MessageResult, err error) (*MessageResult, error) {
	if err == nil {
		return result, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
		return &MessageResult{Success: false, Message: apiErr.messageOr(apiErr.Fallback)}, nil
	}
	return nil, err
}
