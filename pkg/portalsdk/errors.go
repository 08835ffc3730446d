package portalsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// ============================================================================
// Error Kinds
// ============================================================================

// ErrorKind classifies a failed call into the categories surfaced to the user.
type ErrorKind string

const (
	KindConnectivity       ErrorKind = "connectivity"
	KindTimeout            ErrorKind = "timeout"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindUnauthorized       ErrorKind = "unauthorized"
	KindValidation         ErrorKind = "validation"
	KindServer             ErrorKind = "server"
	KindRejected           ErrorKind = "rejected" // 2xx with success=false
	KindDecode             ErrorKind = "decode"
	KindUnknown            ErrorKind = "unknown"
)

var (
	// ErrNotAuthenticated is returned by operations that need a session when none exists.
	ErrNotAuthenticated = errors.New("portalsdk: not authenticated")

	// ErrSessionExpired wraps the original authorization failure when the one-shot
	// refresh could not recover the session. The session has been cleared.
	ErrSessionExpired = errors.New("portalsdk: session expired")

	// ErrRefreshRejected is returned by the refresh call when the backend did not
	// mint a new access token.
	ErrRefreshRejected = errors.New("portalsdk: refresh rejected")
)

// ============================================================================
// APIError
// ============================================================================

// APIError is the single error type produced for failed backend calls.
type APIError struct {
	Kind ErrorKind

	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int

	// Message is the server-provided message, if any.
	Message string

	// URL is the target of the failed call, only shown in development builds.
	URL string

	// Fallback is the call-site message used when the server sent none.
	Fallback string

	// Err is the underlying transport or decoding error, if any.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (HTTP %d)", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

// Unwrap returns the underlying transport or decoding error.
func (e *APIError) Unwrap() error { return e.Err }

// UserMessage renders the error the way a form shows it. Development builds
// include the target URL and server detail for diagnosis.
func (e *APIError) UserMessage(dev bool) string {
	switch e.Kind {
	case KindConnectivity:
		if dev {
			return fmt.Sprintf("No se puede conectar al servidor backend.\n\nURL: %s\n\n"+
				"Verifique que:\n- El backend esté ejecutándose\n- La URL sea correcta\n"+
				"- No haya problemas de red o firewall", e.URL)
		}
		return "No se puede conectar al servidor. Intente más tarde."

	case KindTimeout:
		if dev {
			return fmt.Sprintf("Tiempo de espera agotado al conectar con el backend.\n\nURL: %s\n\n"+
				"El servidor está tardando demasiado en responder.", e.URL)
		}
		return "El servidor no responde. Intente más tarde."

	case KindInvalidCredentials:
		return "Usuario o contraseña incorrectos"

	case KindUnauthorized:
		return "Su sesión ha expirado. Inicie sesión nuevamente."

	case KindValidation:
		if dev {
			return fmt.Sprintf("Solicitud inválida.\n\nURL: %s\n\nMensaje: %s",
				e.URL, e.messageOr("Datos enviados incorrectos"))
		}
		return e.messageOr(e.fallbackOr("Datos inválidos"))

	case KindServer:
		if dev {
			return fmt.Sprintf("Error interno del servidor.\n\nURL: %s\n\nMensaje: %s",
				e.URL, e.messageOr("Error en el backend"))
		}
		return "Error interno del servidor. Intente más tarde."

	case KindRejected:
		return e.messageOr(e.fallbackOr("Error del servidor"))

	case KindUnknown:
		if e.StatusCode != 0 {
			if dev {
				return fmt.Sprintf("Error del servidor (%d).\n\nURL: %s\n\nMensaje: %s",
					e.StatusCode, e.URL, e.messageOr(http.StatusText(e.StatusCode)))
			}
			return e.messageOr(e.fallbackOr("Error del servidor"))
		}
	}

	if dev {
		detail := e.Message
		if detail == "" && e.Err != nil {
			detail = e.Err.Error()
		}
		return fmt.Sprintf("Error desconocido.\n\nURL: %s\n\nMensaje: %s", e.URL, detail)
	}
	return e.fallbackOr("Error de conexión. Intente más tarde.")
}

func (e *APIError) messageOr(def string) string {
	if e.Message != "" {
		return e.Message
	}
	return def
}

func (e *APIError) fallbackOr(def string) string {
	if e.Fallback != "" {
		return e.Fallback
	}
	return def
}

// UserMessage renders any error returned by the SDK for display. Errors that
// are not *APIError fall back to a generic message.
func UserMessage(err error, dev bool) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage(dev)
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return "Debe iniciar sesión."
	}
	if dev {
		return err.Error()
	}
	return "Error de conexión. Intente más tarde."
}

// IsAuthFailure reports whether status is an authorization failure (401 or 403).
func IsAuthFailure(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// kindForStatus maps a non-2xx status to an ErrorKind. credentials selects
// the login interpretation of 401/403.
func kindForStatus(status int, credentials bool) ErrorKind {
	switch {
	case IsAuthFailure(status) && credentials:
		return KindInvalidCredentials
	case IsAuthFailure(status):
		return KindUnauthorized
	case status == http.StatusBadRequest:
		return KindValidation
	case status == http.StatusInternalServerError:
		return KindServer
	default:
		return KindUnknown
	}
}

// parseErrorResponse builds an *APIError from a non-2xx response body.
func parseErrorResponse(status int, body []byte, target string, credentials bool) *APIError {
	apiErr := &APIError{
		Kind:       kindForStatus(status, credentials),
		StatusCode: status,
		URL:        target,
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Message = env.Message
	}

	return apiErr
}

// transportError classifies an error returned by http.Client.Do.
func transportError(err error, target string) *APIError {
	kind := KindConnectivity

	var netErr net.Error
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case errors.As(err, &urlErr) && urlErr.Timeout():
		kind = KindTimeout
	}

	return &APIError{Kind: kind, URL: target, Err: err}
}
