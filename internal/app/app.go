package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/portal/internal/format"
	"github.com/aussiebroadwan/portal/internal/storage/sqlite"
	"github.com/aussiebroadwan/portal/internal/views"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
	"github.com/aussiebroadwan/portal/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application holds the one portal client shared by every command.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store  *sqlite.Store // nil when the session lives in memory
	client *portalsdk.Client
	guard  *portalsdk.Guard
	nav    *Navigator
	pages  *views.Pages
}

// New builds the client and restores any persisted session. Nothing is
// sent to the backend.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "portal",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  cfg.LogOutput,
		}),
		guard: portalsdk.NewGuard(),
	}
	app.nav = NewNavigator(app.logger)

	persister, err := app.initStorage()
	if err != nil {
		return nil, err
	}

	if err := app.initClient(persister); err != nil {
		_ = app.Close()
		return nil, err
	}

	if err := app.client.Restore(ctx); err != nil {
		// The session starts anonymous; the command can still run.
		app.logger.Warn("failed to restore session", "error", err)
	}

	app.pages = views.NewPages(app.client, app.logger)
	return app, nil
}

func (app *Application) initStorage() (portalsdk.Persister, error) {
	if app.cfg.DataFile == "" {
		app.logger.Debug("keeping session in memory")
		return portalsdk.NewMemoryPersister(), nil
	}

	store, err := sqlite.Open(app.cfg.DataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	app.store = store
	app.logger.Debug("session store opened", "path", app.cfg.DataFile)
	return store, nil
}

func (app *Application) initClient(persister portalsdk.Persister) error {
	httpClient := &http.Client{
		Timeout: app.cfg.RequestTimeout,
		Transport: httpx.Chain(http.DefaultTransport,
			slogx.Transport(app.logger),
			httpx.RateLimit(app.cfg.Limit()),
		),
	}

	client, err := portalsdk.NewClient(app.cfg.APIURL, portalsdk.Options{
		HTTPClient: httpClient,
		Persister:  persister,
		Navigator:  app.nav,
		Logger:     app.logger,
		Dev:        app.cfg.Dev(),
	})
	if err != nil {
		return fmt.Errorf("failed to create portal client: %w", err)
	}
	app.client = client
	return nil
}

// Navigate runs the route guard for path and shows the resulting view.
func (app *Application) Navigate(path string) portalsdk.Decision {
	d := app.guard.Resolve(app.client.Session(), path)
	app.nav.Show(d.Target)

	if d.Redirected() {
		app.logger.Debug("navigation redirected", "requested", d.Requested, "target", d.Target, "state", d.State.String())
	}
	return d
}

// Message renders err for the student.
func (app *Application) Message(err error) string {
	var formErrs format.Errors
	if errors.As(err, &formErrs) {
		return err.Error()
	}
	return portalsdk.UserMessage(err, app.cfg.Dev())
}

func (app *Application) Config() Config { return app.cfg }
func (app *Application) Logger() *slog.Logger { return app.logger }
func (app *Application) Client() *portalsdk.Client { return app.client }
func (app *Application) Pages() *views.Pages { return app.pages }
func (app *Application) Navigator() *Navigator { return app.nav }
func (app *Application) Session() portalsdk.Session { return app.client.Session() }

// Close releases the session store.
func (app *Application) Close() error {
	if app.store == nil {
		return nil
	}
	if err := app.store.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
		return err
	}
	return nil
}
