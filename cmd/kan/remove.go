package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lewisfm/CKAN/kan"
)

var removeCmd = &cobra.Command{
	Use:   "remove <identifier>...",
	Short: "Drop mods from the locally tracked installed set",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, a *app) error {
			return runRemove(a, args)
		})
	},
}

func init() { rootCmd.AddCommand(removeCmd) }

func runRemove(a *app, identifiers []string) error {
	installed, err := a.loadInstalled()
	if err != nil {
		return err
	}

	remove := make(map[string]bool, len(identifiers))
	for _, id := range identifiers {
		remove[id] = true
	}

	var kept []*kan.Release
	for _, r := range installed {
		if remove[r.Identifier] {
			delete(remove, r.Identifier)
			continue
		}
		kept = append(kept, r)
	}
	for id := range remove {
		return fmt.Errorf("%s is not installed", id)
	}

	if err := a.saveInstalled(kept); err != nil {
		return err
	}
	for _, id := range identifiers {
		a.user.RaiseMessage("removed " + id)
	}
	return nil
}
