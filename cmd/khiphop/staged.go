package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"KhiphopPipeline/internal/app"
)

var stagedJSON bool

var stagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "List records waiting to be published",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.Application, _ *slog.Logger) error {
			records, err := a.Staged(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if stagedJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			if len(records) == 0 {
				fmt.Fprintln(out, "nothing staged")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCATEGORY\tSTAGED\tTITLE")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Item.ID, r.Item.Category, r.StagedAt.Format("2006-01-02 15:04"), r.Item.Title)
			}
			return tw.Flush()
		})
	},
}

func init() {
	stagedCmd.Flags().BoolVar(&stagedJSON, "json", false, "print full records as JSON")
	rootCmd.AddCommand(stagedCmd)
}
