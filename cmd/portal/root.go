package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/portal/internal/app"
	"github.com/aussiebroadwan/portal/internal/views"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

// errReported means the message was already shown to the student.
var errReported = errors.New("reported")

// cli carries state shared by the subcommands of one invocation.
type cli struct {
	cfg    app.Config
	output string
	format views.Format

	apiURL   string
	env      string
	dataFile string
	logLevel string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "portal",
		Short:         "Student portal client",
		Version:       app.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.apiURL, "api-url", "", "backend base URL (overrides PORTAL_API_URL)")
	flags.StringVar(&c.env, "env", "", "environment: dev or prod (overrides PORTAL_ENV)")
	flags.StringVar(&c.dataFile, "data-file", "", "session database file (overrides PORTAL_DATA_FILE)")
	flags.StringVar(&c.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	flags.StringVarP(&c.output, "output", "o", "table", "output format: table, json or yaml")

	root.AddCommand(
		newLoginCmd(c),
		newLogoutCmd(c),
		newChangePasswordCmd(c),
		newForgotPasswordCmd(c),
		newResetPasswordCmd(c),
		newDashboardCmd(c),
		newGradesCmd(c),
		newPaymentsCmd(c),
		newProfileCmd(c),
		newStatusCmd(c),
		newMockCmd(c),
	)
	return root
}

// load reads the configuration and applies flag overrides.
func (c *cli) load(cmd *cobra.Command) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = c.apiURL
	}
	if flags.Changed("env") {
		cfg.Env = c.env
	}
	if flags.Changed("data-file") {
		cfg.DataFile = c.dataFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	f, err := views.ParseFormat(c.output)
	if err != nil {
		return err
	}

	c.cfg = cfg
	c.format = f
	return nil
}

// open builds the application for one command.
func (c *cli) open(cmd *cobra.Command) (*app.Application, error) {
	return app.New(cmd.Context(), c.cfg)
}

// withApp opens the application, runs fn and closes it.
func (c *cli) withApp(cmd *cobra.Command, fn func(a *app.Application) error) error {
	a, err := c.open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// enter runs the route guard for view. When the guard sends the student
// elsewhere the reason is printed and errReported returned.
func (c *cli) enter(cmd *cobra.Command, a *app.Application, view string) error {
	d := a.Navigate(view)
	if !d.Redirected() {
		return nil
	}

	switch d.Target {
	case portalsdk.ViewLogin:
		c.fail(cmd, "Debe iniciar sesión. Use `portal login`.")
	case portalsdk.ViewChangePassword:
		c.fail(cmd, "Debe cambiar su contraseña antes de continuar. Use `portal change-password`.")
	case portalsdk.ViewDashboard:
		c.fail(cmd, fmt.Sprintf("Ya inició sesión como %s.", a.Session().Username))
	default:
		c.fail(cmd, fmt.Sprintf("Vista no disponible: %s", d.Target))
	}
	return errReported
}

// report prints err for the student and returns errReported.
func (c *cli) report(cmd *cobra.Command, a *app.Application, err error) error {
	if a.Navigator().Redirected() {
		c.fail(cmd, "Su sesión ha expirado. Inicie sesión nuevamente con `portal login`.")
		return errReported
	}
	c.fail(cmd, a.Message(err))
	return errReported
}

func (c *cli) fail(cmd *cobra.Command, msg string) {
	fmt.Fprintln(cmd.ErrOrStderr(), msg)
}

func (c *cli) render(w io.Writer, v any) error {
	return views.Render(w, c.format, v)
}
