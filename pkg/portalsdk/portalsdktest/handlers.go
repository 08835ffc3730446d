package portalsdktest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aussiebroadwan/portal/pkg/cryptox"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

const refreshTTL = 7 * 24 * time.Hour

type ctxKey struct{}

func (b *Backend) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(b.script)

	r.Route("/auth", func(rr chi.Router) {
		rr.Post("/login", b.handleLogin)
		rr.Post("/refresh", b.handleRefresh)
		rr.Post("/forgot-password", b.handleForgotPassword)
		rr.Put("/update-forgot-password", b.handleUpdateForgotPassword)

		rr.With(b.authenticate).Post("/logout", b.handleLogout)
		rr.With(b.authenticate).Put("/update-password", b.handleUpdatePassword)
	})

	r.Group(func(rr chi.Router) {
		rr.Use(b.authenticate)

		rr.Get(portalsdk.PathAcademicInfo, b.handleAcademicInfo)
		rr.Get(portalsdk.PathPersonalInfo, b.handlePersonalInfo)
		rr.Get(portalsdk.PathGrades, b.handleGrades)
		rr.Get(portalsdk.PathPayments, b.handlePayments)
		rr.Get(portalsdk.PathNotices, b.handleNotices)
		rr.Get(portalsdk.PathLinks, b.handleLinks)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, false, "Recurso no encontrado")
	})

	return r
}

// ============================================================================
// Middleware
// ============================================================================

// script counts calls and applies injected delays and failures.
func (b *Backend) script(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[r.URL.Path]++
		delay := b.delay
		f, failing := b.failures[r.URL.Path]
		if failing && f.once {
			delete(b.failures, r.URL.Path)
		}
		b.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		if failing {
			writeMessage(w, f.status, false, f.message)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authenticate requires a current access token and puts the account in the
// request context.
func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := b.tokens.Verify(httpx.BearerToken(r))

		b.mu.Lock()
		var acct *account
		if err == nil && claims.Generation == b.generation && !b.alwaysUnauthorized[r.URL.Path] {
			acct = b.accounts[claims.Usuario]
		}
		b.mu.Unlock()

		if acct == nil {
			writeMessage(w, http.StatusUnauthorized, false, "Token inválido o expirado")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, acct)))
	})
}

func accountFrom(ctx context.Context) *account {
	a, _ := ctx.Value(ctxKey{}).(*account)
	return a
}

// ============================================================================
// Auth handlers
// ============================================================================

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req portalsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Solicitud inválida")
		return
	}
	if req.Usuario == "" || req.Contrasenia == "" {
		writeMessage(w, http.StatusBadRequest, false, "Usuario y contraseña son requeridos")
		return
	}

	b.mu.Lock()
	acct := b.accounts[req.Usuario]
	b.mu.Unlock()

	if acct == nil || cryptox.VerifyPassword(req.Contrasenia, acct.hash) != nil {
		writeMessage(w, http.StatusUnauthorized, false, "Credenciales inválidas")
		return
	}

	access, err := b.IssueAccessToken(acct.Usuario)
	if err != nil {
		b.internalError(w, r, err)
		return
	}

	refresh, err := cryptox.GenerateToken(cryptox.TokenSize)
	if err != nil {
		b.internalError(w, r, err)
		return
	}

	b.mu.Lock()
	b.refreshTokens[cryptox.FingerprintToken(refresh)] = acct.Usuario
	first := acct.FirstSession
	b.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     portalsdk.RefreshCookieName,
		Value:    refresh,
		Path:     "/auth",
		MaxAge:   int(refreshTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	writeData(w, http.StatusOK, portalsdk.LoginResponse{
		AccessToken:   access,
		Usuario:       acct.Usuario,
		PrimeraSesion: first,
	})
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.lastRefreshAuth = r.Header.Get("Authorization")
	status := b.refreshStatus
	reject := b.rejectRefresh
	b.mu.Unlock()

	switch {
	case status != 0:
		writeMessage(w, status, false, "Refresh token inválido")
		return
	case reject:
		writeMessage(w, http.StatusOK, false, "Refresh token inválido")
		return
	}

	cookie, err := r.Cookie(portalsdk.RefreshCookieName)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, false, "Refresh token no encontrado")
		return
	}

	b.mu.Lock()
	usuario, ok := b.refreshTokens[cryptox.FingerprintToken(cookie.Value)]
	b.mu.Unlock()
	if !ok {
		writeMessage(w, http.StatusUnauthorized, false, "Refresh token inválido")
		return
	}

	access, err := b.IssueAccessToken(usuario)
	if err != nil {
		b.internalError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, portalsdk.RefreshResponse{AccessToken: access, Username: usuario})
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(portalsdk.RefreshCookieName); err == nil {
		b.mu.Lock()
		delete(b.refreshTokens, cryptox.FingerprintToken(cookie.Value))
		b.mu.Unlock()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     portalsdk.RefreshCookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeMessage(w, http.StatusOK, true, "Sesión cerrada")
}

func (b *Backend) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r.Context())

	var req portalsdk.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Solicitud inválida")
		return
	}
	if !b.setPassword(w, r, acct, req.NuevaContrasenia) {
		return
	}

	writeMessage(w, http.StatusOK, true, "Contraseña actualizada correctamente")
}

func (b *Backend) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req portalsdk.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Codigo == "" {
		writeMessage(w, http.StatusBadRequest, false, "El código es requerido")
		return
	}

	b.mu.Lock()
	_, ok := b.accounts[req.Codigo]
	b.mu.Unlock()
	if !ok {
		writeMessage(w, http.StatusNotFound, false, "Código de alumno no encontrado")
		return
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize)
	if err != nil {
		b.internalError(w, r, err)
		return
	}

	b.mu.Lock()
	b.resetTokens[cryptox.FingerprintToken(token)] = req.Codigo
	b.lastReset[req.Codigo] = token
	b.mu.Unlock()

	writeMessage(w, http.StatusOK, true, "Se envió un enlace de recuperación a su correo")
}

func (b *Backend) handleUpdateForgotPassword(w http.ResponseWriter, r *http.Request) {
	fp := cryptox.FingerprintToken(r.URL.Query().Get("token"))

	b.mu.Lock()
	usuario, ok := b.resetTokens[fp]
	acct := b.accounts[usuario]
	b.mu.Unlock()
	if !ok || acct == nil {
		writeMessage(w, http.StatusBadRequest, false, "El enlace es inválido o ha expirado")
		return
	}

	var req portalsdk.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Solicitud inválida")
		return
	}
	if !b.setPassword(w, r, acct, req.NuevaContrasenia) {
		return
	}

	b.mu.Lock()
	delete(b.resetTokens, fp)
	delete(b.lastReset, usuario)
	b.mu.Unlock()

	writeMessage(w, http.StatusOK, true, "Contraseña actualizada correctamente")
}

// setPassword validates and stores a new password, clearing the first-session
// flag. It writes the error response itself and reports whether it succeeded.
func (b *Backend) setPassword(w http.ResponseWriter, r *http.Request, acct *account, password string) bool {
	if len(password) < 6 {
		writeMessage(w, http.StatusBadRequest, false, "La contraseña debe tener al menos 6 caracteres")
		return false
	}

	hash, err := cryptox.HashPassword(password, cryptox.FastParams)
	if err != nil {
		b.internalError(w, r, err)
		return false
	}

	b.mu.Lock()
	acct.hash = hash
	acct.FirstSession = false
	b.mu.Unlock()
	return true
}

// ============================================================================
// Student handlers
// ============================================================================

func (b *Backend) handleAcademicInfo(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, accountFrom(r.Context()).Academic)
}

func (b *Backend) handlePersonalInfo(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, accountFrom(r.Context()).Personal)
}

func (b *Backend) handleGrades(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, accountFrom(r.Context()).Grades)
}

func (b *Backend) handlePayments(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, accountFrom(r.Context()).Payments)
}

func (b *Backend) handleNotices(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	notices := b.notices
	b.mu.Unlock()
	writeData(w, http.StatusOK, notices)
}

func (b *Backend) handleLinks(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	links := b.links
	b.mu.Unlock()
	writeData(w, http.StatusOK, links)
}

// ============================================================================
// Envelope helpers
// ============================================================================

func writeData(w http.ResponseWriter, code int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Error interno")
		return
	}
	httpx.WriteJSON(w, code, portalsdk.Envelope{Success: true, Data: raw})
}

func writeMessage(w http.ResponseWriter, code int, success bool, message string) {
	httpx.WriteJSON(w, code, portalsdk.Envelope{Success: success, Message: message})
}

func (b *Backend) internalError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	b.logger.ErrorContext(r.Context(), "handler failed", "path", r.URL.Path, "error", err)
	writeMessage(w, http.StatusInternalServerError, false, "Error interno")
}
