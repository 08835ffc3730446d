package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/portal/internal/app"
	"github.com/aussiebroadwan/portal/internal/views"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

func newLoginCmd(c *cli) *cobra.Command {
	var (
		form          views.LoginForm
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with your student code",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passwordStdin {
				pw, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				form.Contrasenia = pw
			}

			return c.withApp(cmd, func(a *app.Application) error {
				if err := c.enter(cmd, a, portalsdk.ViewLogin); err != nil {
					return err
				}

				out, err := views.Login(cmd.Context(), a.Client(), form)
				if err != nil {
					return c.report(cmd, a, err)
				}
				a.Navigate(out.Next)

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Sesión iniciada como %s.\n", a.Session().Username)
				if out.Next == portalsdk.ViewChangePassword {
					fmt.Fprintln(w, "Es su primera sesión: debe cambiar su contraseña con `portal change-password`.")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&form.Usuario, "usuario", "u", "", "student code")
	cmd.Flags().StringVarP(&form.Contrasenia, "password", "p", "", "password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.Application) error {
				a.Client().Logout(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada.")
				return nil
			})
		},
	}
}

func newChangePasswordCmd(c *cli) *cobra.Command {
	var (
		form   views.ChangePasswordForm
		cancel bool
	)

	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.Application) error {
				if err := c.enter(cmd, a, portalsdk.ViewChangePassword); err != nil {
					return err
				}

				if cancel {
					views.CancelPasswordChange(cmd.Context(), a.Client())
					a.Navigate(portalsdk.ViewLogin)
					fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada.")
					return nil
				}

				out, err := views.ChangePassword(cmd.Context(), a.Client(), form)
				if err != nil {
					return c.report(cmd, a, err)
				}
				a.Navigate(out.Next)
				return c.render(cmd.OutOrStdout(), out)
			})
		},
	}

	cmd.Flags().StringVar(&form.Nueva, "new", "", "new password")
	cmd.Flags().StringVar(&form.Confirmacion, "confirm", "", "new password again")
	cmd.Flags().BoolVar(&cancel, "cancel", false, "give up and sign out")
	return cmd
}

func newForgotPasswordCmd(c *cli) *cobra.Command {
	var form views.ForgotPasswordForm

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset link",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.Application) error {
				if err := c.enter(cmd, a, portalsdk.ViewForgotPassword); err != nil {
					return err
				}

				result, err := views.ForgotPassword(cmd.Context(), a.Client(), form)
				if err != nil {
					return c.report(cmd, a, err)
				}
				return c.answer(cmd, result)
			})
		},
	}

	cmd.Flags().StringVar(&form.Codigo, "codigo", "", "student code")
	return cmd
}

func newResetPasswordCmd(c *cli) *cobra.Command {
	var form views.ResetPasswordForm

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password from a reset link",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.Application) error {
				if err := c.enter(cmd, a, portalsdk.ViewUpdateForgotPassword); err != nil {
					return err
				}

				result, out, err := views.ResetPassword(cmd.Context(), a.Client(), form)
				if err != nil {
					return c.report(cmd, a, err)
				}
				a.Navigate(out.Next)
				return c.answer(cmd, result)
			})
		},
	}

	cmd.Flags().StringVar(&form.Token, "token", "", "token from the reset link")
	cmd.Flags().StringVar(&form.Nueva, "new", "", "new password")
	cmd.Flags().StringVar(&form.Confirmacion, "confirm", "", "new password again")
	return cmd
}

// answer shows a backend answer; an unsuccessful one fails the command.
func (c *cli) answer(cmd *cobra.Command, result *portalsdk.MessageResult) error {
	if !result.Success {
		c.fail(cmd, result.Message)
		return errReported
	}
	return c.render(cmd.OutOrStdout(), result)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
