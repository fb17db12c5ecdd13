package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"KhiphopPipeline/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline on the configured cron schedule until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, func(a *app.Application, logger *slog.Logger) error {
			err := a.Serve(ctx)
			logger.Info("serve stopped")
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
