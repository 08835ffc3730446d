package portalsdk

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every backend call.
const DefaultTimeout = 10 * time.Second

// Navigator lets the pipeline send the user back to the login view when a
// session cannot be recovered.
type Navigator interface {
	// CurrentView returns the path of the view currently shown.
	CurrentView() string

	// RedirectToLogin moves the user to the login view.
	RedirectToLogin()
}

type nopNavigator struct{}

func (nopNavigator) CurrentView() string { return "" }
func (nopNavigator) RedirectToLogin()    {}

// Options configure a Client. Zero values pick sensible defaults.
type Options struct {
	// HTTPClient is copied; its Jar is replaced by the persistent cookie jar.
	HTTPClient *http.Client

	// Timeout is used when HTTPClient is nil. Default: DefaultTimeout.
	Timeout time.Duration

	// Persister is the durable storage. Default: an in-memory persister.
	Persister Persister

	// Navigator receives forced redirects to the login view.
	Navigator Navigator

	Logger *slog.Logger

	// Dev enables development diagnostics in user-facing messages.
	Dev bool
}

// Client is the student portal client. It owns the SessionStore and routes
// every backend call through the authenticated request pipeline. Build one
// and share it by reference.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Dev        bool

	logger *slog.Logger
	store  *SessionStore
	nav    Navigator
	jar    *persistentJar
}

// NewClient creates a Client for the backend at baseURL. Call Restore once
// before use to load any persisted session.
func NewClient(baseURL string, opts Options) (*Client, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	persister := opts.Persister
	if persister == nil {
		persister = NewMemoryPersister()
	}
	nav := opts.Navigator
	if nav == nil {
		nav = nopNavigator{}
	}

	var httpClient http.Client
	if opts.HTTPClient != nil {
		httpClient = *opts.HTTPClient
	} else {
		httpClient.Timeout = opts.Timeout
		if httpClient.Timeout <= 0 {
			httpClient.Timeout = DefaultTimeout
		}
	}

	jar, err := newPersistentJar(base, persister, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	httpClient.Jar = jar

	c := &Client{
		BaseURL:    baseURL,
		HTTPClient: &httpClient,
		Dev:        opts.Dev,
		logger:     logger,
		nav:        nav,
		jar:        jar,
	}
	c.store = newSessionStore(c, persister, logger, opts.Dev)
	c.store.onClear = jar.reset
	c.store.holdsCredential = jar.hasCookies

	return c, nil
}

// Store returns the SessionStore.
func (c *Client) Store() *SessionStore { return c.store }

// Session returns a snapshot of the current session.
func (c *Client) Session() Session { return c.store.Snapshot() }

// Restore loads the persisted session and refresh credential. It never
// touches the network.
func (c *Client) Restore(ctx context.Context) error {
	state, err := c.store.Restore(ctx)
	if err != nil {
		return err
	}
	c.jar.load(state.Cookies)
	return nil
}

// Login delegates to SessionStore.Login.
func (c *Client) Login(ctx context.Context, usuario, contrasenia string) (*LoginResponse, error) {
	return c.store.Login(ctx, usuario, contrasenia)
}

// Logout delegates to SessionStore.Logout.
func (c *Client) Logout(ctx context.Context) {
	c.store.Logout(ctx)
}

// ChangePassword delegates to SessionStore.ChangePassword.
func (c *Client) ChangePassword(ctx context.Context, newPassword string) (*MessageResult, error) {
	return c.store.ChangePassword(ctx, newPassword)
}

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string, query url.Values) string {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
