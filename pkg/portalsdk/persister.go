package portalsdk

import (
	"cmp"
	"context"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"slices"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// StoredSession is the durable part of a Session.
type StoredSession struct {
	AccessToken  string
	Username     string
	FirstSession bool
}

// StoredCookie is a cookie kept across restarts (the refresh credential).
type StoredCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Expires  time.Time `json:"expires,omitzero"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"httpOnly,omitempty"`
}

// PersistedState is everything a Persister holds.
type PersistedState struct {
	Session  StoredSession
	UserData []byte
	Cookies  []StoredCookie
}

// Persister is durable client-side storage. Each Save call must be atomic
// with respect to Load, and Clear must remove every key in one step.
type Persister interface {
	Load(ctx context.Context) (PersistedState, error)
	SaveSession(ctx context.Context, s StoredSession) error
	SaveUserData(ctx context.Context, data []byte) error
	SaveCookies(ctx context.Context, cookies []StoredCookie) error
	Clear(ctx context.Context) error
}

// ============================================================================
// MemoryPersister
// ============================================================================

// MemoryPersister keeps state in memory. It is useful for tests and for
// clients that must not touch disk.
type MemoryPersister struct {
	mu    sync.Mutex
	state PersistedState
}

// NewMemoryPersister returns an empty MemoryPersister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (m *MemoryPersister) Load(ctx context.Context) (PersistedState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return PersistedState{
		Session:  m.state.Session,
		UserData: slices.Clone(m.state.UserData),
		Cookies:  slices.Clone(m.state.Cookies),
	}, nil
}

func (m *MemoryPersister) SaveSession(ctx context.Context, s StoredSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Session = s
	return nil
}

func (m *MemoryPersister) SaveUserData(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.UserData = slices.Clone(data)
	return nil
}

func (m *MemoryPersister) SaveCookies(ctx context.Context, cookies []StoredCookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Cookies = slices.Clone(cookies)
	return nil
}

func (m *MemoryPersister) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = PersistedState{}
	return nil
}

// ============================================================================
// Persistent cookie jar
// ============================================================================

// persistentJar is an http.CookieJar that mirrors cookies set by the backend
// into the Persister so the refresh credential survives restarts.
type persistentJar struct {
	base      *url.URL
	persister Persister
	logger    *slog.Logger

	mu      sync.Mutex
	jar     *cookiejar.Jar
	cookies map[string]StoredCookie // name|path -> cookie
}

func newPersistentJar(base *url.URL, p Persister, logger *slog.Logger) (*persistentJar, error) {
	jar, err := newCookieJar()
	if err != nil {
		return nil, err
	}

	return &persistentJar{
		base:      base,
		persister: p,
		logger:    logger,
		jar:       jar,
		cookies:   make(map[string]StoredCookie),
	}, nil
}

func newCookieJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// SetCookies implements http.CookieJar.
func (j *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	j.jar.SetCookies(u, cookies)

	if u.Hostname() != j.base.Hostname() {
		j.mu.Unlock()
		return
	}

	now := time.Now()
	for _, c := range cookies {
		stored := StoredCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		if stored.Path == "" || stored.Path[0] != '/' {
			stored.Path = defaultCookiePath(u.Path)
		}
		if c.MaxAge > 0 {
			stored.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}

		key := stored.Name + "|" + stored.Path
		if c.MaxAge < 0 || (!stored.Expires.IsZero() && !stored.Expires.After(now)) {
			delete(j.cookies, key)
			continue
		}
		j.cookies[key] = stored
	}
	snapshot := j.snapshotLocked()
	j.mu.Unlock()

	if err := j.persister.SaveCookies(context.Background(), snapshot); err != nil {
		j.logger.Warn("failed to persist cookies", "error", err)
	}
}

// Cookies implements http.CookieJar.
func (j *persistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// load replaces the jar's contents with previously persisted cookies.
func (j *persistentJar) load(stored []StoredCookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	for _, s := range stored {
		if !s.Expires.IsZero() && !s.Expires.After(now) {
			continue
		}
		j.cookies[s.Name+"|"+s.Path] = s
		j.jar.SetCookies(j.base, []*http.Cookie{{
			Name:     s.Name,
			Value:    s.Value,
			Path:     s.Path,
			Expires:  s.Expires,
			Secure:   s.Secure,
			HttpOnly: s.HttpOnly,
		}})
	}
}

// hasCookies reports whether any backend cookie is held.
func (j *persistentJar) hasCookies() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cookies) > 0
}

// reset drops every cookie. The persisted copy is cleared by the caller.
func (j *persistentJar) reset() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if jar, err := newCookieJar(); err == nil {
		j.jar = jar
	}
	clear(j.cookies)
}

func (j *persistentJar) snapshotLocked() []StoredCookie {
	out := make([]StoredCookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b StoredCookie) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Path, b.Path))
	})
	return out
}

// defaultCookiePath implements the RFC 6265 default-path algorithm.
func defaultCookiePath(requestPath string) string {
	if requestPath == "" || requestPath[0] != '/' {
		return "/"
	}
	dir := path.Dir(requestPath)
	if dir == "." {
		return "/"
	}
	return dir
}
