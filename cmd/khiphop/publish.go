package main

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"KhiphopPipeline/internal/app"
	"KhiphopPipeline/internal/domain"
)

var (
	publishAll   bool
	publishLive  bool
	publishDraft bool
)

var publishCmd = &cobra.Command{
	Use:   "publish [ids...]",
	Short: "Create WordPress posts for staged records",
	Long: `Creates a WordPress post for each given staged id, or for every staged record
with --all. Successfully posted records leave the staging store; failures stay
staged so they can be retried.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !publishAll {
			return errors.New("pass staged ids or --all")
		}
		if len(args) > 0 && publishAll {
			return errors.New("ids and --all are mutually exclusive")
		}

		var status domain.PostStatus
		switch {
		case publishLive && publishDraft:
			return errors.New("--live and --draft are mutually exclusive")
		case publishLive:
			status = domain.PostPublish
		case publishDraft:
			status = domain.PostDraft
		}

		return withApp(cmd.Context(), func(a *app.Application, _ *slog.Logger) error {
			report, err := a.Publish(cmd.Context(), args, status)
			out := cmd.OutOrStdout()
			for _, post := range report.Published {
				fmt.Fprintf(out, "published %s -> post %d (%s) %s\n", post.ItemID, post.PostID, post.Status, post.Link)
			}

			failed := make([]string, 0, len(report.Failed))
			for id := range report.Failed {
				failed = append(failed, id)
			}
			sort.Strings(failed)
			for _, id := range failed {
				fmt.Fprintf(out, "failed %s: %v\n", id, report.Failed[id])
			}

			if err != nil {
				return err
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d of %d records failed", len(failed), len(failed)+len(report.Published))
			}
			return nil
		})
	},
}

func init() {
	publishCmd.Flags().BoolVar(&publishAll, "all", false, "publish every staged record")
	publishCmd.Flags().BoolVar(&publishLive, "live", false, "create posts with status publish")
	publishCmd.Flags().BoolVar(&publishDraft, "draft", false, "create posts as drafts")
	rootCmd.AddCommand(publishCmd)
}
