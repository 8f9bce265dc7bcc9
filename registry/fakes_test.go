package registry

import (
	"context"

	"github.com/lewisfm/CKAN/collab"
	"github.com/lewisfm/CKAN/gamever"
)

type fakeGame struct {
	refreshErr error
	refreshed  bool
}

func (g *fakeGame) RepositoryListURL() string     { return "https://example.com/repos.json" }
func (g *fakeGame) DefaultRepositoryURL() string   { return "https://example.com/default.json" }
func (g *fakeGame) ShortName() string              { return "TestGame" }
func (g *fakeGame) RefreshVersions(ctx context.Context, userAgent string) error {
	g.refreshed = true
	return g.refreshErr
}
func (g *fakeGame) ParseGameVersion(s string) (gamever.Version, error) { return gamever.Parse(s) }

// fakeDownloader resolves each target from a canned per-URL response
// table instead of making real network calls.
type fakeDownloader struct {
	responses map[string]collab.DownloadResult
}

func (d *fakeDownloader) DownloadAndWait(ctx context.Context, targets []collab.DownloadTarget, onComplete func(collab.DownloadResult)) error {
	for _, target := range targets {
		url := target.URLs[0]
		res, ok := d.responses[url]
		if !ok {
			res = collab.DownloadResult{Target: target}
		} else {
			res.Target = target
		}
		onComplete(res)
	}
	return nil
}
