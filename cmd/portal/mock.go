package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/portal/internal/app"
)

func newMockCmd(c *cli) *cobra.Command {
	var (
		addr      string
		accessTTL time.Duration
	)

	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Serve a local backend with fixture students",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			if cmd.Flags().Changed("addr") {
				cfg.MockAddr = addr
			}

			m, err := app.NewMockServer(cfg, accessTTL)
			if err != nil {
				return err
			}
			return m.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides PORTAL_MOCK_ADDR)")
	cmd.Flags().DurationVar(&accessTTL, "access-ttl", 0, "access token lifetime (default 15m)")
	return cmd
}
