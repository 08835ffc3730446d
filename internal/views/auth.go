package views

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/portal/internal/format"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

// PasswordChanged is shown on the dashboard after a successful change.
const PasswordChanged = "Contraseña actualizada exitosamente."

// Outcome tells the caller where to go after a form was submitted.
type Outcome struct {
	Next    string `json:"next" yaml:"next"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// LoginForm is the login page input.
type LoginForm struct {
	Usuario     string
	Contrasenia string
}

// Validate checks the form before any request is made.
func (f LoginForm) Validate() format.Errors {
	errs := format.Errors{}
	if strings.TrimSpace(f.Usuario) == "" {
		errs.Add("usuario", format.MsgUsuarioRequired)
	}
	if f.Contrasenia == "" {
		errs.Add("contrasenia", format.MsgPasswordRequired)
	}
	return errs
}

// Login submits the login form. The next view depends on whether the
// backend reports a first session.
func Login(ctx context.Context, api AuthAPI, f LoginForm) (*Outcome, error) {
	if errs := f.Validate(); !errs.Valid() {
		return nil, errs
	}

	resp, err := api.Login(ctx, strings.TrimSpace(f.Usuario), f.Contrasenia)
	if err != nil {
		return nil, err
	}
	return &Outcome{Next: portalsdk.NextViewAfterLogin(resp)}, nil
}

// ChangePasswordForm is the change-password page input.
type ChangePasswordForm struct {
	Nueva        string
	Confirmacion string
}

// Validate checks the form before any request is made.
func (f ChangePasswordForm) Validate() format.Errors {
	errs := format.Errors{}
	errs.Add("nuevaContrasenia", newPassword(f.Nueva))
	errs.Add("confirmarContrasenia", format.Confirmation(f.Nueva, f.Confirmacion))
	return errs
}

// ChangePassword submits the change-password form and sends the student to
// the dashboard.
func ChangePassword(ctx context.Context, api AuthAPI, f ChangePasswordForm) (*Outcome, error) {
	if errs := f.Validate(); !errs.Valid() {
		return nil, errs
	}

	if _, err := api.ChangePassword(ctx, f.Nueva); err != nil {
		return nil, err
	}
	return &Outcome{Next: portalsdk.ViewDashboard, Message: PasswordChanged}, nil
}

// CancelPasswordChange leaves the forced change by logging out.
func CancelPasswordChange(ctx context.Context, api AuthAPI) *Outcome {
	api.Logout(ctx)
	return &Outcome{Next: portalsdk.ViewLogin}
}

// ForgotPasswordForm is the forgot-password page input.
type ForgotPasswordForm struct {
	Codigo string
}

// Validate checks the student code.
func (f ForgotPasswordForm) Validate() format.Errors {
	errs := format.Errors{}
	codigo := strings.TrimSpace(f.Codigo)
	switch {
	case codigo == "":
		errs.Add("codigo", format.MsgCodigoRequired)
	case len([]rune(codigo)) != format.CodigoLength:
		errs.Add("codigo", format.MsgCodigoLength)
	}
	return errs
}

// ForgotPassword asks for a reset link. The backend's answer is returned
// as is; the student stays on the page either way.
func ForgotPassword(ctx context.Context, api AuthAPI, f ForgotPasswordForm) (*portalsdk.MessageResult, error) {
	if errs := f.Validate(); !errs.Valid() {
		return nil, errs
	}
	return api.ForgotPassword(ctx, strings.TrimSpace(f.Codigo))
}

// ResetPasswordForm is the input of the page reached from a reset link.
type ResetPasswordForm struct {
	Token        string
	Nueva        string
	Confirmacion string
}

// Validate checks the token and the new password.
func (f ResetPasswordForm) Validate() format.Errors {
	errs := format.Errors{}
	if strings.TrimSpace(f.Token) == "" {
		errs.Add("token", format.MsgResetTokenMissing)
	}
	errs.Add("nuevaContrasenia", newPassword(f.Nueva))
	errs.Add("confirmarContrasenia", format.Confirmation(f.Nueva, f.Confirmacion))
	return errs
}

// ResetPassword sets a new password from a reset link. On success the
// student goes to the login page.
func ResetPassword(ctx context.Context, api AuthAPI, f ResetPasswordForm) (*portalsdk.MessageResult, *Outcome, error) {
	if errs := f.Validate(); !errs.Valid() {
		return nil, nil, errs
	}

	result, err := api.UpdateForgotPassword(ctx, strings.TrimSpace(f.Token), f.Nueva)
	if err != nil {
		return nil, nil, err
	}
	if !result.Success {
		return result, &Outcome{Next: portalsdk.ViewUpdateForgotPassword}, nil
	}
	return result, &Outcome{Next: portalsdk.ViewLogin, Message: result.Message}, nil
}

func newPassword(pw string) string {
	switch {
	case pw == "":
		return format.MsgNewPasswordRequired
	case len([]rune(pw)) < format.MinPasswordLength:
		return format.MsgPasswordTooShort
	}
	return ""
}
