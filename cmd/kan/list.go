package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the locally tracked installed mods",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, a *app) error {
			return runList(a)
		})
	},
}

func init() { rootCmd.AddCommand(listCmd) }

func runList(a *app) error {
	installed, err := a.loadInstalled()
	if err != nil {
		return err
	}
	if len(installed) == 0 {
		fmt.Println("no mods installed")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
	fmt.Fprintln(w, "IDENTIFIER\tVERSION")
	for _, r := range installed {
		fmt.Fprintf(w, "%s\t%s\n", r.Identifier, r.Version)
	}
	return w.Flush()
}
