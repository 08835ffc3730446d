package main

import (
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/portal/internal/app"
	"github.com/aussiebroadwan/portal/internal/views"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

// pageCmd builds a command that shows one protected view.
func pageCmd(c *cli, use, short, view string, load func(cmd *cobra.Command, a *app.Application) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.Application) error {
				if err := c.enter(cmd, a, view); err != nil {
					return err
				}

				page, err := load(cmd, a)
				if err != nil {
					return c.report(cmd, a, err)
				}
				return c.render(cmd.OutOrStdout(), page)
			})
		},
	}
}

func newDashboardCmd(c *cli) *cobra.Command {
	return pageCmd(c, "dashboard", "Show academic info, notices and links", portalsdk.ViewDashboard,
		func(cmd *cobra.Command, a *app.Application) (any, error) {
			page := a.Pages().Dashboard(cmd.Context(), a.Session().Username)
			if a.Navigator().Redirected() {
				return nil, portalsdk.ErrSessionExpired
			}
			return page, nil
		})
}

func newGradesCmd(c *cli) *cobra.Command {
	var semester string

	cmd := pageCmd(c, "grades", "Show grades for a semester", portalsdk.ViewGrades,
		func(cmd *cobra.Command, a *app.Application) (any, error) {
			return a.Pages().Grades(cmd.Context(), semester)
		})
	cmd.Aliases = []string{"notas"}
	cmd.Flags().StringVarP(&semester, "semester", "s", "", "semester to show (default: latest)")
	return cmd
}

func newPaymentsCmd(c *cli) *cobra.Command {
	cmd := pageCmd(c, "payments", "Show payments and program totals", portalsdk.ViewPayments,
		func(cmd *cobra.Command, a *app.Application) (any, error) {
			return a.Pages().Payments(cmd.Context())
		})
	cmd.Aliases = []string{"pagos"}
	return cmd
}

func newProfileCmd(c *cli) *cobra.Command {
	cmd := pageCmd(c, "profile", "Show personal information", portalsdk.ViewProfile,
		func(cmd *cobra.Command, a *app.Application) (any, error) {
			return a.Pages().Profile(cmd.Context())
		})
	cmd.Aliases = []string{"perfil"}
	return cmd
}

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.Application) error {
				return c.render(cmd.OutOrStdout(), views.NewStatusPage(a.Session()))
			})
		},
	}
}
