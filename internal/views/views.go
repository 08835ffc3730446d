// Package views holds the portal's pages. Each page is a plain function over
// the client SDK that returns the data to show; rendering is separate.
package views

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

// StudentAPI is the read side of the client used by the pages.
type StudentAPI interface {
	GetAcademicInfo(ctx context.Context) (*portalsdk.AcademicInfo, error)
	GetPersonalInfo(ctx context.Context) (*portalsdk.PersonalInfo, error)
	GetGrades(ctx context.Context) (*portalsdk.GradesReport, error)
	GetPayments(ctx context.Context) (*portalsdk.PaymentsReport, error)
	GetNotices(ctx context.Context) ([]portalsdk.Notice, error)
	GetLinks(ctx context.Context) ([]portalsdk.Link, error)
}

// AuthAPI is the authentication side of the client used by the forms.
type AuthAPI interface {
	Session() portalsdk.Session
	Login(ctx context.Context, usuario, contrasenia string) (*portalsdk.LoginResponse, error)
	Logout(ctx context.Context)
	ChangePassword(ctx context.Context, newPassword string) (*portalsdk.MessageResult, error)
	ForgotPassword(ctx context.Context, codigo string) (*portalsdk.MessageResult, error)
	UpdateForgotPassword(ctx context.Context, token, newPassword string) (*portalsdk.MessageResult, error)
}

// UserCache keeps the last profile fetched so it can be shown offline.
type UserCache interface {
	UserData() []byte
	SetUserData(ctx context.Context, data []byte) error
}

var (
	_ StudentAPI = (*portalsdk.Client)(nil)
	_ AuthAPI    = (*portalsdk.Client)(nil)
	_ UserCache  = (*portalsdk.SessionStore)(nil)
)

// Pages loads the student pages.
type Pages struct {
	API    StudentAPI
	Cache  UserCache
	Logger *slog.Logger

	// Dev adds diagnostics to error messages.
	Dev bool
}

// NewPages builds Pages over a client.
func NewPages(c *portalsdk.Client, logger *slog.Logger) *Pages {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pages{
		API:    c,
		Cache:  c.Store(),
		Logger: logger,
		Dev:    c.Dev,
	}
}

func (p *Pages) message(err error) string {
	return portalsdk.UserMessage(err, p.Dev)
}

func (p *Pages) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// Section is one independently loaded part of a page. Error is set instead
// of Data when the part failed.
type Section[T any] struct {
	Data  T      `json:"data,omitempty" yaml:"data,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the section loaded.
func (s Section[T]) OK() bool { return s.Error == "" }

func load[T any](ctx context.Context, p *Pages, name string, fetch func(context.Context) (T, error)) Section[T] {
	data, err := fetch(ctx)
	if err != nil {
		p.logger().Warn("section failed to load", "section", name, "error", err)
		return Section[T]{Error: p.message(err)}
	}
	return Section[T]{Data: data}
}
