// Package portalsdktest provides an in-process portal backend for tests and
// local development. It speaks the same envelope protocol as the real
// backend, issues short-lived HS256 access tokens and keeps the refresh
// credential in an httpOnly cookie. Hooks let a test script expiry, refresh
// rejection, latency and arbitrary failures.
package portalsdktest

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aussiebroadwan/portal/pkg/cryptox"
	"github.com/aussiebroadwan/portal/pkg/jwtx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
	"github.com/aussiebroadwan/portal/pkg/slogx"
)

const issuer = "portal-backend"

// Student is a fixture account.
type Student struct {
	Usuario      string
	Password     string
	FirstSession bool

	Academic portalsdk.AcademicInfo
	Personal portalsdk.PersonalInfo
	Grades   portalsdk.GradesReport
	Payments portalsdk.PaymentsReport
}

type account struct {
	Student
	hash string
}

type failure struct {
	status  int
	message string
	once    bool
}

// Config tunes a Backend. Zero values pick test-friendly defaults.
type Config struct {
	// Secret signs access tokens. Default: a random 32-byte secret.
	Secret []byte

	// AccessTTL is the access token lifetime. Default: jwtx.DefaultAccessTokenTTL.
	AccessTTL time.Duration

	// Hash selects the password cost. Default: cryptox.FastParams.
	Hash *cryptox.Params

	Logger *slog.Logger
}

// Backend is the fake portal backend.
type Backend struct {
	tokens    *jwtx.HS256
	accessTTL time.Duration
	logger    *slog.Logger
	router    chi.Router

	mu                 sync.Mutex
	accounts           map[string]*account
	refreshTokens      map[string]string // fingerprint -> usuario
	resetTokens        map[string]string // fingerprint -> usuario
	lastReset          map[string]string // usuario -> raw reset token
	generation         int64
	calls              map[string]int
	failures           map[string]failure
	alwaysUnauthorized map[string]bool
	rejectRefresh      bool
	refreshStatus      int
	delay              time.Duration
	lastRefreshAuth    string
	notices            []portalsdk.Notice
	links              []portalsdk.Link
}

// NewBackend builds a Backend seeded with students. With no students the
// default fixtures are used.
func NewBackend(cfg Config, students ...Student) (*Backend, error) {
	secret := cfg.Secret
	if len(secret) == 0 {
		secret = []byte(cryptox.MustGenerateToken(cryptox.TokenSize))
	}
	tokens, err := jwtx.NewHS256(secret, issuer)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	params := cryptox.FastParams
	if cfg.Hash != nil {
		params = *cfg.Hash
	}
	ttl := cfg.AccessTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}

	if len(students) == 0 {
		students = DefaultStudents()
	}

	b := &Backend{
		tokens:             tokens,
		accessTTL:          ttl,
		logger:             logger,
		accounts:           make(map[string]*account, len(students)),
		refreshTokens:      make(map[string]string),
		resetTokens:        make(map[string]string),
		lastReset:          make(map[string]string),
		calls:              make(map[string]int),
		failures:           make(map[string]failure),
		alwaysUnauthorized: make(map[string]bool),
		notices:            DefaultNotices(),
		links:              DefaultLinks(),
	}

	for _, s := range students {
		hash, err := cryptox.HashPassword(s.Password, params)
		if err != nil {
			return nil, fmt.Errorf("failed to hash fixture password: %w", err)
		}
		b.accounts[s.Usuario] = &account{Student: s, hash: hash}
	}

	b.router = b.routes()
	return b, nil
}

// Handler returns the backend's HTTP handler.
func (b *Backend) Handler() http.Handler { return b.router }

// Server is a Backend listening on a loopback httptest server.
type Server struct {
	*Backend
	URL string

	srv *httptest.Server
}

// Start serves a Backend for the duration of t. With no students the default
// fixtures are used.
func Start(t testing.TB, students ...Student) *Server {
	t.Helper()

	b, err := NewBackend(Config{}, students...)
	if err != nil {
		t.Fatalf("portalsdktest: %v", err)
	}

	srv := httptest.NewServer(slogx.HTTPMiddleware(b.logger)(b.Handler()))
	t.Cleanup(srv.Close)

	return &Server{Backend: b, URL: srv.URL, srv: srv}
}

// Close shuts the listener down. Start already registers it as a cleanup.
func (s *Server) Close() { s.srv.Close() }

// ============================================================================
// Scripting hooks
// ============================================================================

// ExpireAccessTokens invalidates every access token issued so far. Refresh
// cookies stay valid.
func (b *Backend) ExpireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generation++
}

// RevokeRefreshTokens forgets every refresh cookie issued so far.
func (b *Backend) RevokeRefreshTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.refreshTokens)
}

// RejectRefresh makes /auth/refresh answer 200 with success=false.
func (b *Backend) RejectRefresh(reject bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectRefresh = reject
}

// FailRefreshStatus makes /auth/refresh answer status. Zero restores normal
// behavior.
func (b *Backend) FailRefreshStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshStatus = status
}

// SetFailure makes every request to path answer status with message.
func (b *Backend) SetFailure(path string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[path] = failure{status: status, message: message}
}

// FailNext makes only the next request to path answer status with message.
func (b *Backend) FailNext(path string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[path] = failure{status: status, message: message, once: true}
}

// ClearFailure removes a failure set for path.
func (b *Backend) ClearFailure(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, path)
}

// AlwaysUnauthorized makes path answer 401 even with a valid token.
func (b *Backend) AlwaysUnauthorized(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alwaysUnauthorized[path] = true
}

// SetDelay holds every response for d.
func (b *Backend) SetDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
}

// Calls returns how many requests reached path.
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

// LastRefreshAuthorization returns the Authorization header of the last
// refresh request.
func (b *Backend) LastRefreshAuthorization() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastRefreshAuth
}

// ResetToken returns the last password reset token mailed to usuario.
func (b *Backend) ResetToken(usuario string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastReset[usuario]
}

// IssueAccessToken mints a valid access token for usuario.
func (b *Backend) IssueAccessToken(usuario string) (string, error) {
	b.mu.Lock()
	gen := b.generation
	b.mu.Unlock()

	return b.tokens.Sign(jwtx.NewAccessClaims(usuario, issuer, gen, b.accessTTL, time.Now()))
}

// FirstSession reports the server-side first-session flag of usuario.
func (b *Backend) FirstSession(usuario string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a, ok := b.accounts[usuario]; ok {
		return a.FirstSession
	}
	return false
}
