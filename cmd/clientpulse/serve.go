package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"clientpulse/internal/app"
	"clientpulse/internal/infrastructure"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web service",
		Long:  `Serves the upload form, the HTML report, the JSON and export API, health probes and Prometheus metrics.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				opts.cfg.Server.Port = port
			}

			logger, err := infrastructure.InitializeLogger(opts.cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() {
				if err := infrastructure.CloseLogFile(); err != nil {
					logger.Warn("failed to close log file", slog.String("error", err.Error()))
				}
			}()

			application, err := app.NewApplication(opts.cfg, logger)
			if err != nil {
				logger.Error("Failed to create application", slog.String("error", err.Error()))
				return err
			}
			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}
