package main

import (
	"github.com/spf13/cobra"

	appLog "vacplan/internal/log"
	"vacplan/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string

	c := &cobra.Command{
		Use:     "serve",
		Short:   "Serve plans, holidays and metrics over HTTP",
		Example: "vacplan serve --listen 0.0.0.0:8080",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI --listen overrides config file listen if provided.
			if listen != "" {
				a.cfg.Listen = listen
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			appLog.Info("vacplan starting", "version", version, "listen", a.cfg.Listen, "refresh", a.cfg.RefreshCron)
			err := web.StartServer(ctx, a.cfg, buildSource(a.cfg))
			appLog.Info("vacplan exiting")
			return err
		},
	}

	c.Flags().StringVarP(&listen, "listen", "l", "", "HTTP listen address (overrides config if set)")
	return c
}
