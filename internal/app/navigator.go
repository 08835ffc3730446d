package app

import (
	"log/slog"
	"sync"

	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

// Navigator tracks the view a command is showing. The SDK moves it to the
// login view when a session cannot be recovered.
type Navigator struct {
	logger *slog.Logger

	mu         sync.Mutex
	view       string
	redirected bool
}

// NewNavigator starts on the login view.
func NewNavigator(logger *slog.Logger) *Navigator {
	return &Navigator{logger: logger, view: portalsdk.ViewLogin}
}

func (n *Navigator) CurrentView() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.view
}

func (n *Navigator) RedirectToLogin() {
	n.mu.Lock()
	from := n.view
	n.view = portalsdk.ViewLogin
	n.redirected = true
	n.mu.Unlock()

	n.logger.Info("session expired, redirecting to login", "from", from)
}

// Show records the view being rendered.
func (n *Navigator) Show(view string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.view = view
	n.redirected = false
}

// Redirected reports whether the SDK forced a redirect since the last Show.
func (n *Navigator) Redirected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.redirected
}
