package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pterm/pterm"

	"github.com/lewisfm/CKAN/collab"
	"github.com/lewisfm/CKAN/gamever"
	"github.com/lewisfm/CKAN/kan"
	"github.com/lewisfm/CKAN/kanconfig"
	"github.com/lewisfm/CKAN/registry"
	"github.com/lewisfm/CKAN/relationship"
	"github.com/lewisfm/CKAN/version"
)

// app bundles the pieces every subcommand needs: configuration, the
// metadata pipeline, the configured repository list, and the game
// collaborator. Built once per invocation in run().
type app struct {
	cfg      kanconfig.Config
	pipeline *registry.Pipeline
	repos    []kan.Repository
	game     collab.Game
	user     collab.User
}

// run loads configuration, prepopulates the pipeline from whatever is
// already cached on disk, and invokes fn. It never touches the
// network on its own; subcommands that need fresh data call
// a.pipeline.Update explicitly (the update subcommand).
func run(fn func(ctx context.Context, a *app) error) error {
	cfg, err := kanconfig.Load(configPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	repos := make([]kan.Repository, 0, len(cfg.Repositories))
	for _, e := range cfg.Repositories {
		repos = append(repos, kan.Repository{Name: e.Name, URI: e.URI, Priority: e.Priority})
	}
	if len(repos) == 0 {
		repos = append(repos, kan.Repository{Name: "default", URI: cfg.DefaultRepositoryURL, Priority: 0})
	}

	pipeline := registry.NewPipeline(cfg.CacheDir)
	if err := pipeline.Prepopulate(repos, func(percent int) {
		if percent == 0 || percent == 100 {
			return
		}
	}); err != nil {
		return fmt.Errorf("loading cached repositories: %w", err)
	}

	a := &app{
		cfg:      cfg,
		pipeline: pipeline,
		repos:    repos,
		game:     &staticGame{cfg: cfg},
		user:     &ptermUser{},
	}

	return fn(context.Background(), a)
}

// staticGame is the reference collab.Game implementation the CLI
// uses: its interesting fields come straight from kanconfig, and it
// keeps no build-version map of its own (a real game client would
// query its own launcher/build-id files; that is exactly the
// front-end machinery spec.md §1 excludes from the core).
type staticGame struct {
	cfg      kanconfig.Config
	versions []gamever.Version
}

func (g *staticGame) RepositoryListURL() string    { return g.cfg.RepositoryListURL }
func (g *staticGame) DefaultRepositoryURL() string { return g.cfg.DefaultRepositoryURL }
func (g *staticGame) ShortName() string            { return g.cfg.GameShortName }

// RefreshVersions is a no-op that always returns nil: this CLI has no
// installed game to introspect, so it carries no build-version map of
// its own. A real front-end would read the game's installed build ID
// here.
func (g *staticGame) RefreshVersions(ctx context.Context, userAgent string) error {
	return nil
}

func (g *staticGame) ParseGameVersion(s string) (gamever.Version, error) {
	return gamever.Parse(s)
}

// ptermUser renders the collab.User collaborator interface through
// pterm, the same progress/status library the pack's mod updater uses
// for presentational output.
type ptermUser struct{}

func (ptermUser) RaiseMessage(text string)           { pterm.Info.Println(text) }
func (ptermUser) RaiseProgress(text string, pct int) { pterm.Debug.Printf("%s: %d%%\n", text, pct) }
func (ptermUser) RaiseError(text string)             { pterm.Error.Println(text) }

// installedEntry is one release recorded in installed.json: just
// enough to reconstruct a *kan.Release for resolver.Input.Installed
// without needing the full repository catalog it originally came
// from (an installed release is satisfied from its own recorded
// identifier/version/provides, not re-fetched).
type installedEntry struct {
	Identifier string   `json:"identifier"`
	Version    string   `json:"version"`
	Provides   []string `json:"provides,omitempty"`
}

func installedPath(cfg kanconfig.Config) string {
	return filepath.Join(cfg.CacheDir, "installed.json")
}

// loadInstalled reads the locally tracked installed-release set. A
// missing file means nothing is installed yet, not an error.
func (a *app) loadInstalled() ([]*kan.Release, error) {
	raw, err := os.ReadFile(installedPath(a.cfg))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading installed state: %w", err)
	}
	var entries []installedEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parsing installed state: %w", err)
	}

	out := make([]*kan.Release, 0, len(entries))
	for _, e := range entries {
		v, err := version.Parse(e.Version)
		if err != nil {
			return nil, fmt.Errorf("installed state: %s: %w", e.Identifier, err)
		}
		out = append(out, &kan.Release{Identifier: e.Identifier, Version: v, Provides: e.Provides})
	}
	return out, nil
}

// saveInstalled persists releases as the new installed-release set,
// replacing whatever was recorded before.
func (a *app) saveInstalled(releases []*kan.Release) error {
	entries := make([]installedEntry, len(releases))
	for i, r := range releases {
		entries[i] = installedEntry{Identifier: r.Identifier, Version: r.Version.String(), Provides: r.Provides}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Identifier < entries[j].Identifier })

	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling installed state: %w", err)
	}
	if err := os.WriteFile(installedPath(a.cfg), raw, 0o644); err != nil {
		return fmt.Errorf("persisting installed state: %w", err)
	}
	return nil
}

// querier builds a registry.Querier over the pipeline, the configured
// repos, and the currently tracked installed releases. DLL/DLC facts
// are empty: discovering them means walking the game's plugin
// directory and querying its store client, both explicitly out of
// scope (spec.md §1's "game-directory I/O").
func (a *app) querier(installed []*kan.Release) *registry.Querier {
	byIdentifier := make(map[string]*kan.Release, len(installed))
	for _, r := range installed {
		byIdentifier[r.Identifier] = r
	}
	return registry.NewQuerier(a.pipeline, a.repos, byIdentifier, relationship.Facts{})
}

func stabilityFromFlag(s string) kan.Stability {
	switch s {
	case "testing":
		return kan.Testing
	case "development":
		return kan.Development
	default:
		return kan.Stable
	}
}
