package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aussiebroadwan/portal/pkg/portalsdk/portalsdktest"
	"github.com/aussiebroadwan/portal/pkg/slogx"
)

// MockServer serves the in-process backend with the fixture students.
type MockServer struct {
	cfg     Config
	logger  *slog.Logger
	backend *portalsdktest.Backend
	server  *http.Server
}

// NewMockServer builds the backend. accessTTL overrides the access token
// lifetime when positive, to watch refreshes happen.
func NewMockServer(cfg Config, accessTTL time.Duration) (*MockServer, error) {
	logger := slogx.New(slogx.Config{
		Service: "portal-mock",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  cfg.LogOutput,
	})

	backend, err := portalsdktest.NewBackend(portalsdktest.Config{
		AccessTTL: accessTTL,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build mock backend: %w", err)
	}

	return &MockServer{
		cfg:     cfg,
		logger:  logger,
		backend: backend,
		server: &http.Server{
			Addr:              cfg.MockAddr,
			Handler:           slogx.HTTPMiddleware(logger)(backend.Handler()),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Backend exposes the scripting hooks.
func (m *MockServer) Backend() *portalsdktest.Backend { return m.backend }

// Serve serves on l until ctx is done, then shuts down gracefully.
func (m *MockServer) Serve(ctx context.Context, l net.Listener) error {
	m.logger.Info("mock backend starting", "addr", l.Addr().String(), "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- m.server.Serve(l)
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return m.Shutdown()
	}
}

// Run listens on the configured address until ctx is done.
func (m *MockServer) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", m.server.Addr, err)
	}
	return m.Serve(ctx, l)
}

// Shutdown gives in-flight requests the grace period to finish.
func (m *MockServer) Shutdown() error {
	m.logger.Info("shutting down mock backend...")

	grace := m.cfg.ShutdownGracePeriod
	if grace <= 0 {
		grace = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := m.server.Shutdown(ctx); err != nil {
		m.logger.Error("graceful server shutdown failed", "error", err)
		if err := m.server.Close(); err != nil {
			m.logger.Error("error closing server", "error", err)
		}
		return err
	}

	m.logger.Info("mock backend stopped")
	return nil
}
