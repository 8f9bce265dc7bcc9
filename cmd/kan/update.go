package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/lewisfm/CKAN/collab"
)

var updateSkipETags bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh cached repository metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, a *app) error {
			return runUpdate(ctx, a)
		})
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateSkipETags, "skip-etags", false, "force a redownload even if ETags suggest nothing changed")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(ctx context.Context, a *app) error {
	downloader := collab.NewHTTPDownloader()
	result, err := a.pipeline.Update(ctx, a.repos, a.game, updateSkipETags, downloader, a.user, a.cfg.UserAgent)
	if err != nil {
		return err
	}
	a.user.RaiseMessage("update finished: " + result.String())
	return nil
}
