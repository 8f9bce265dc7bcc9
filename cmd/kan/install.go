package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lewisfm/CKAN/gamever"
	"github.com/lewisfm/CKAN/kan"
	"github.com/lewisfm/CKAN/kanerr"
	"github.com/lewisfm/CKAN/registry"
	"github.com/lewisfm/CKAN/resolver"
)

var (
	installWithRecommends     bool
	installWithSuggests       bool
	installWithAllSuggests    bool
	installWithSupports       bool
	installStabilityTolerance string
)

var installCmd = &cobra.Command{
	Use:   "install <identifier>[=version]...",
	Short: "Resolve and record a new set of installed mods",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, a *app) error {
			return runInstall(ctx, a, args)
		})
	},
}

func init() {
	installCmd.Flags().BoolVar(&installWithRecommends, "with-recommends", true, "expand recommends")
	installCmd.Flags().BoolVar(&installWithSuggests, "with-suggests", false, "expand suggests")
	installCmd.Flags().BoolVar(&installWithAllSuggests, "with-all-suggests", false, "also expand transitive suggests")
	installCmd.Flags().BoolVar(&installWithSupports, "with-supports", false, "collect supports back-references")
	installCmd.Flags().StringVar(&installStabilityTolerance, "stability-tolerance", "stable", "stable|testing|development")
	rootCmd.AddCommand(installCmd)
}

func runInstall(ctx context.Context, a *app, args []string) error {
	installed, err := a.loadInstalled()
	if err != nil {
		return err
	}
	q := a.querier(installed)

	tolerance := stabilityFromFlag(installStabilityTolerance)
	var requests []*kan.Release
	for _, arg := range args {
		identifier, wantVersion, _ := strings.Cut(arg, "=")
		r, err := pickRelease(q, identifier, wantVersion, tolerance)
		if err != nil {
			return err
		}
		requests = append(requests, r)
	}

	input := resolver.Input{
		UserRequests:    requests,
		Installed:       installed,
		Facts:           q.Facts(),
		VersionCriteria: gamever.Criteria{},
		Options: resolver.Options{
			WithRecommends:     installWithRecommends,
			WithSuggests:       installWithSuggests,
			WithAllSuggests:    installWithAllSuggests,
			WithSupports:       installWithSupports,
			StabilityTolerance: tolerance,
		},
	}

	result, err := resolver.Resolve(q, input)
	if err != nil {
		return installError(result, err)
	}

	if err := a.saveInstalled(result.ModList()); err != nil {
		return err
	}

	for _, r := range result.ModList() {
		a.user.RaiseMessage(fmt.Sprintf("installed %s %s", r.Identifier, r.Version))
	}
	return nil
}

func pickRelease(q *registry.Querier, identifier, wantVersion string, tolerance kan.Stability) (*kan.Release, error) {
	if wantVersion != "" {
		for _, r := range q.AllReleases(identifier) {
			if r.Version.String() == wantVersion {
				return r, nil
			}
		}
		return nil, fmt.Errorf("no release %s=%s found", identifier, wantVersion)
	}
	r, ok := q.LatestAvailable(identifier, gamever.Criteria{}, tolerance)
	if !ok {
		return nil, fmt.Errorf("no release of %s found", identifier)
	}
	return r, nil
}

// installError maps a resolver error to the exit code spec.md §6
// documents (2=unsatisfied, 3=conflicts), rendering traces/conflict
// pairs to stderr along the way.
func installError(result *resolver.Result, err error) error {
	var unmet *kanerr.UnmetDependenciesError
	var conflicts *kanerr.ConflictsError

	switch e := err.(type) {
	case *kanerr.UnmetDependenciesError:
		unmet = e
	case *kanerr.ConflictsError:
		conflicts = e
	}

	if conflicts != nil {
		for _, p := range conflicts.Pairs {
			fmt.Printf("conflict: %s <-> %s (%s)\n", p.Release, p.Other, p.DescriptorOf)
		}
		return &codedError{code: exitConflicts, err: err}
	}
	if unmet != nil {
		for _, trace := range result.Unsatisfied() {
			fmt.Print(trace.Render())
		}
		return &codedError{code: exitUnsatisfied, err: err}
	}
	return err
}
