package portalsdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Session is a read-only view of the authentication state.
type Session struct {
	AccessToken  string
	Username     string
	FirstSession bool

	// Loading is true only until Restore has run.
	Loading bool

	// Error is the last authentication failure message.
	Error string
}

// IsAuthenticated reports whether both the access token and username are present.
func (s Session) IsAuthenticated() bool {
	return s.AccessToken != "" && s.Username != ""
}

// authAPI is the part of the backend the SessionStore talks to.
type authAPI interface {
	login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	logout(ctx context.Context) error
	updatePassword(ctx context.Context, newPassword string) (*MessageResult, error)
}

// SessionStore is the single source of truth for authentication state. All
// mutations go through its methods so every change reaches the Persister.
type SessionStore struct {
	api       authAPI
	persister Persister
	logger    *slog.Logger
	dev       bool

	// onClear runs after the session is cleared (e.g. to drop cookies).
	onClear func()

	// holdsCredential reports whether a refresh cookie is still held.
	holdsCredential func() bool

	mu           sync.RWMutex
	accessToken  string
	username     string
	firstSession bool
	loading      bool
	lastError    string
	userData     []byte
}

func newSessionStore(api authAPI, p Persister, logger *slog.Logger, dev bool) *SessionStore {
	return &SessionStore{
		api:       api,
		persister: p,
		logger:    logger,
		dev:       dev,
		loading:   true,
	}
}

// Snapshot returns a copy of the current state.
func (s *SessionStore) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Session{
		AccessToken:  s.accessToken,
		Username:     s.username,
		FirstSession: s.firstSession,
		Loading:      s.loading,
		Error:        s.lastError,
	}
}

// AccessToken returns the current access token, empty when anonymous.
func (s *SessionStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// UserData returns the cached user data blob.
func (s *SessionStore) UserData() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.userData)
}

// Restore loads persisted state. A session is restored only when both the
// token and the username were persisted. Loading is false afterwards, even
// when the Persister fails. No network call is made.
func (s *SessionStore) Restore(ctx context.Context) (PersistedState, error) {
	state, err := s.persister.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.logger.Warn("failed to restore session", "error", err)
		return PersistedState{}, fmt.Errorf("failed to restore session: %w", err)
	}

	stored := state.Session
	if stored.AccessToken == "" || stored.Username == "" {
		return state, nil
	}

	s.accessToken = stored.AccessToken
	s.username = stored.Username
	s.firstSession = stored.FirstSession
	s.userData = slices.Clone(state.UserData)

	return state, nil
}

// Login authenticates against the backend. On success the session is persisted
// before it becomes visible in memory, and the server payload is returned so
// the caller can decide the next view. On failure Error is set and the prior
// session is left untouched. Login never retries.
func (s *SessionStore) Login(ctx context.Context, usuario, contrasenia string) (*LoginResponse, error) {
	s.ClearError()

	resp, err := s.api.login(ctx, LoginRequest{Usuario: usuario, Contrasenia: contrasenia})
	if err == nil && (resp.AccessToken == "" || resp.Usuario == "") {
		err = &APIError{Kind: KindDecode, Err: errors.New("login response is missing accessToken or usuario")}
	}
	if err != nil {
		s.setError(UserMessage(err, s.dev))
		return nil, err
	}

	stored := StoredSession{
		AccessToken:  resp.AccessToken,
		Username:     resp.Usuario,
		FirstSession: resp.PrimeraSesion,
	}
	if err := s.persister.SaveSession(ctx, stored); err != nil {
		s.setError("No se pudo guardar la sesión.")
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.accessToken = stored.AccessToken
	s.username = stored.Username
	s.firstSession = stored.FirstSession
	s.lastError = ""
	s.mu.Unlock()

	s.logger.Info("login succeeded", "username", stored.Username, "first_session", stored.FirstSession)
	return resp, nil
}

// Logout tells the backend on a best-effort basis and then clears every
// persisted and in-memory field, whatever the backend answered. The backend
// is skipped only when there is neither an access token nor a refresh cookie
// to revoke.
func (s *SessionStore) Logout(ctx context.Context) {
	if s.AccessToken() != "" || (s.holdsCredential != nil && s.holdsCredential()) {
		if err := s.api.logout(ctx); err != nil {
			s.logger.Warn("logout request failed", "error", err)
		}
	}
	s.clear(ctx)
}

// ChangePassword updates the password. On success the first-session flag is
// cleared and persisted before returning.
func (s *SessionStore) ChangePassword(ctx context.Context, newPassword string) (*MessageResult, error) {
	snap := s.Snapshot()
	if !snap.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	result, err := s.api.updatePassword(ctx, newPassword)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.firstSession = false
	stored := StoredSession{
		AccessToken:  s.accessToken,
		Username:     s.username,
		FirstSession: false,
	}
	s.mu.Unlock()

	// The session may have been cleared while the request was in flight.
	if stored.AccessToken == "" {
		return result, nil
	}
	if err := s.persister.SaveSession(ctx, stored); err != nil {
		s.logger.Warn("failed to persist first-session change", "error", err)
	}

	return result, nil
}

// ClearError clears the last authentication error.
func (s *SessionStore) ClearError() {
	s.setError("")
}

// SetUserData caches the user data blob alongside the session.
func (s *SessionStore) SetUserData(ctx context.Context, data []byte) error {
	if err := s.persister.SaveUserData(ctx, data); err != nil {
		return fmt.Errorf("failed to persist user data: %w", err)
	}

	s.mu.Lock()
	s.userData = slices.Clone(data)
	s.mu.Unlock()
	return nil
}

// updateToken stores a refreshed access token. The username is only replaced
// when the backend returned one; a token nobody can be named for is rejected.
func (s *SessionStore) updateToken(ctx context.Context, token, username string) error {
	s.mu.Lock()
	if username == "" {
		username = s.username
	}
	stored := StoredSession{
		AccessToken:  token,
		Username:     username,
		FirstSession: s.firstSession,
	}
	s.mu.Unlock()

	if stored.Username == "" {
		return fmt.Errorf("%w: response carried no username", ErrRefreshRejected)
	}

	if err := s.persister.SaveSession(ctx, stored); err != nil {
		return fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	s.mu.Lock()
	s.accessToken = stored.AccessToken
	s.username = stored.Username
	s.mu.Unlock()
	return nil
}

// clear resets the session to empty, persisted state first.
func (s *SessionStore) clear(ctx context.Context) {
	if err := s.persister.Clear(ctx); err != nil {
		s.logger.Error("failed to clear persisted session", "error", err)
	}

	s.mu.Lock()
	s.accessToken = ""
	s.username = ""
	s.firstSession = false
	s.lastError = ""
	s.userData = nil
	s.loading = false
	s.mu.Unlock()

	if s.onClear != nil {
		s.onClear()
	}
}

func (s *SessionStore) setError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}
