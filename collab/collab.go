/*
Package collab defines the collaborator interfaces the core consumes
and never implements on its own behalf: the game front-end, the
downloader, and the user-facing presentation sink. Production code
outside this module supplies real implementations; a reference
HTTPDownloader is provided here and used by the reference CLI (the
pipeline's own tests use in-package fakes instead).
*/
package collab

import (
	"context"

	"github.com/lewisfm/CKAN/gamever"
)

// Game is the front-end's view of the game this package manager
// targets: KSP, Factorio, or similar.
type Game interface {
	// RepositoryListURL is where the default list of repositories is
	// fetched from.
	RepositoryListURL() string
	// DefaultRepositoryURL is used when no repository list is
	// configured yet.
	DefaultRepositoryURL() string
	// ShortName identifies the game for cache-directory naming and
	// user agent construction.
	ShortName() string
	// RefreshVersions asks the game for its current build-version map,
	// used to resolve "latest compatible" queries. userAgent is
	// threaded through so the call can be attributed if it makes a
	// network request of its own.
	RefreshVersions(ctx context.Context, userAgent string) error
	// ParseGameVersion parses a game-specific version string into a
	// gamever.Version.
	ParseGameVersion(s string) (gamever.Version, error)
}

// DownloadTarget describes one file the Downloader is asked to fetch.
type DownloadTarget struct {
	Repo string
	URLs []string
	Size int64
	ETag string
}

// DownloadResult is delivered to the completion callback once a
// target finishes, fails, or is skipped because the server reported
// no changes.
type DownloadResult struct {
	Target DownloadTarget
	Err    error
	ETag   string
	SHA256 string
	Body   []byte
}

// Downloader performs the actual network fetches on the pipeline's
// behalf. DownloadAndWait blocks until every target has completed,
// failed, or been cancelled, invoking onComplete once per target as
// results arrive.
type Downloader interface {
	DownloadAndWait(ctx context.Context, targets []DownloadTarget, onComplete func(DownloadResult)) error
}

// User is the purely presentational sink: text messages, progress, and
// errors, with no return value and no semantic effect on the core.
type User interface {
	RaiseMessage(text string)
	RaiseProgress(text string, percent int)
	RaiseError(text string)
}

// NopUser discards everything raised to it. Useful in tests and as a
// safe zero value.
type NopUser struct{}

func (NopUser) RaiseMessage(string)         {}
func (NopUser) RaiseProgress(string, int)   {}
func (NopUser) RaiseError(string)           {}
