package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"KhiphopPipeline/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once and print the run summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.Application, _ *slog.Logger) error {
			summary, err := a.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: fetched=%d new=%d staged=%d skipped=%d\n",
				summary.RunID, summary.Fetched, summary.NewCount, summary.Staged, summary.Skipped)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
