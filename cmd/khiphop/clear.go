package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"KhiphopPipeline/internal/app"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every processed id and drop all staged records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			return errors.New("refusing to clear without --yes")
		}
		return withApp(cmd.Context(), func(a *app.Application, logger *slog.Logger) error {
			if err := a.Clear(cmd.Context()); err != nil {
				return err
			}
			logger.Info("store cleared")
			fmt.Fprintln(cmd.OutOrStdout(), "cleared processed ids and staged records")
			return nil
		})
	},
}

func init() {
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "confirm the wipe")
	rootCmd.AddCommand(clearCmd)
}
