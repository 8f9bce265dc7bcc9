package registry

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lewisfm/CKAN/collab"
	"github.com/lewisfm/CKAN/internal/atomicfile"
	"github.com/lewisfm/CKAN/kan"
	"github.com/lewisfm/CKAN/kanerr"
)

// UpdateResult is the outcome of a successful Pipeline.Update call.
type UpdateResult int

const (
	// Updated means at least one repository's index was refreshed.
	Updated UpdateResult = iota
	// NoChanges means every configured repository was already fresh;
	// zero download requests were issued.
	NoChanges
	// OutdatedClient means the update succeeded, but at least one
	// loaded index uses a metadata spec this reader doesn't fully
	// understand.
	OutdatedClient
)

func (r UpdateResult) String() string {
	switch r {
	case Updated:
		return "updated"
	case NoChanges:
		return "no changes"
	case OutdatedClient:
		return "outdated client"
	default:
		return "unknown"
	}
}

// Freshness thresholds (spec.md §4.3). These are informational: the
// update routine itself relies on ETag comparison, not age, to decide
// what to refetch.
const (
	TimeTillStale     = 3 * 24 * time.Hour
	TimeTillVeryStale = 14 * 24 * time.Hour
)

// Pipeline owns the on-disk cache directory and the in-memory index
// assembled from it. Prepopulate loads what's already on disk; Update
// fetches what's missing or stale and swaps it in.
type Pipeline struct {
	cacheDir string
	index    map[string]*kan.RepositoryIndex // keyed by repository name
	etags    *ETagStore
	events   *Publisher
}

// NewPipeline returns a Pipeline rooted at cacheDir, loading any
// existing etags.json (an unreadable or absent one starts empty, per
// spec.md §9 open question 3).
func NewPipeline(cacheDir string) *Pipeline {
	return &Pipeline{
		cacheDir: cacheDir,
		index:    make(map[string]*kan.RepositoryIndex),
		etags:    LoadETagStore(filepath.Join(cacheDir, "etags.json")),
		events:   NewPublisher(),
	}
}

// Events returns the publisher subscribers register with to receive
// the "updated" event.
func (p *Pipeline) Events() *Publisher { return p.events }

// Index returns the currently loaded index for a repository, if any.
func (p *Pipeline) Index(name string) (*kan.RepositoryIndex, bool) {
	idx, ok := p.index[name]
	return idx, ok
}

func cacheFileName(repo kan.Repository) string {
	sum := sha1.Sum([]byte(repo.URI))
	hexSum := hex.EncodeToString(sum[:])[:16]
	return fmt.Sprintf("%s-%s.json", hexSum, repo.Name)
}

func (p *Pipeline) cachePath(repo kan.Repository) string {
	return filepath.Join(p.cacheDir, cacheFileName(repo))
}

// Prepopulate loads every repository whose cache file exists on disk
// but isn't yet loaded in memory, reporting 0..100 progress weighted
// by file size.
func (p *Pipeline) Prepopulate(repos []kan.Repository, progress func(percent int)) error {
	type pending struct {
		repo kan.Repository
		size int64
	}
	var toLoad []pending
	var total int64

	for _, repo := range repos {
		if _, loaded := p.index[repo.Name]; loaded {
			continue
		}
		info, err := os.Stat(p.cachePath(repo))
		if err != nil {
			continue
		}
		toLoad = append(toLoad, pending{repo: repo, size: info.Size()})
		total += info.Size()
	}

	if progress != nil {
		progress(0)
	}
	var done int64
	for _, pl := range toLoad {
		raw, err := os.ReadFile(p.cachePath(pl.repo))
		if err != nil {
			return fmt.Errorf("registry: prepopulate %s: %w", pl.repo.Name, err)
		}
		idx, err := parseRepositoryIndex(pl.repo, raw)
		if err != nil {
			return err
		}
		p.index[pl.repo.Name] = idx

		done += pl.size
		if progress != nil && total > 0 {
			progress(int(done * 100 / total))
		}
	}
	if progress != nil {
		progress(100)
	}
	return nil
}

// isLocal reports whether uri is a file:// URI.
func isLocal(uri string) bool { return strings.HasPrefix(uri, "file://") }

// staleLocally reports whether repo needs a download attempt without
// any network round trip: no recorded ETag, or no cache file on disk.
// Repositories that pass this check (etag + file both present) are
// treated as fresh and are not contacted at all: no HEAD request and
// no conditional GET is issued for them, so a change on the server is
// not detected while both the ETag and the cache file are present.
// This is what gives Update its zero-network-request behavior on a
// fully fresh cache (spec.md §8 scenario S7). A conditional GET
// (If-None-Match with the recorded ETag) is only sent for repos that
// are selected for download.
func (p *Pipeline) staleLocally(repo kan.Repository) bool {
	if _, ok := p.etags.Get(repo.URI); !ok {
		return true
	}
	if _, err := os.Stat(p.cachePath(repo)); err != nil {
		return true
	}
	return false
}

// Update refreshes whichever configured repositories need it: file://
// repositories always, skipETags forces all of them, and everything
// else only if locally stale (see staleLocally); a repository with a
// recorded ETag and a cache file is not checked against the server.
func (p *Pipeline) Update(
	ctx context.Context,
	repos []kan.Repository,
	game collab.Game,
	skipETags bool,
	downloader collab.Downloader,
	user collab.User,
	userAgent string,
) (UpdateResult, error) {
	if user == nil {
		user = collab.NopUser{}
	}

	if err := game.RefreshVersions(ctx, userAgent); err != nil {
		return 0, fmt.Errorf("registry: refreshing game versions: %w", err)
	}

	toUpdate := p.selectToUpdate(repos, skipETags)
	if len(toUpdate) == 0 {
		now := time.Now()
		for _, repo := range repos {
			os.Chtimes(p.cachePath(repo), now, now)
		}
		user.RaiseMessage("no repository changes")
		return NoChanges, nil
	}

	results, failures := p.downloadAll(ctx, toUpdate, repos, downloader, user)
	if len(failures) > 0 {
		p.etags.Reload()
		return 0, &kanerr.DownloadErrors{Failures: failures}
	}

	anyUnsupported := false
	for _, repo := range toUpdate {
		res, ok := results[repo.Name]
		if !ok || res.skipped {
			continue
		}
		idx, err := parseRepositoryIndex(repo, res.body)
		if err != nil {
			p.etags.Reload()
			return 0, &kanerr.DownloadErrors{Failures: []kanerr.DownloadFailure{{
				Target: kanerr.DownloadTarget{Repo: repo.Name, URL: repo.URI},
				Cause:  err,
			}}}
		}
		if err := atomicfile.Write(p.cachePath(repo), res.body, 0o644); err != nil {
			p.etags.Reload()
			return 0, fmt.Errorf("registry: persisting %s: %w", repo.Name, err)
		}
		p.index[repo.Name] = idx
		if idx.UnsupportedSpec {
			anyUnsupported = true
		}
	}

	if err := p.etags.Persist(); err != nil {
		return 0, err
	}

	p.events.Publish(toUpdate)

	if anyUnsupported {
		return OutdatedClient, nil
	}
	return Updated, nil
}

// selectToUpdate picks the distinct-by-URL repos that need a download
// attempt. Mirror repositories (IsMirror) are never selected
// independently: they are only ever tried as a fallback URL for the
// primary they mirror, attached in downloadAll.
func (p *Pipeline) selectToUpdate(repos []kan.Repository, skipETags bool) []kan.Repository {
	seen := make(map[string]bool)
	var out []kan.Repository
	for _, repo := range repos {
		if repo.IsMirror {
			continue
		}
		if seen[repo.URI] {
			continue
		}
		if isLocal(repo.URI) || skipETags || p.staleLocally(repo) {
			seen[repo.URI] = true
			out = append(out, repo)
		}
	}
	return out
}

// mirrorsOf returns the URIs of every repository in repos that
// mirrors primary.Name, in Repository.Less order.
func mirrorsOf(repos []kan.Repository, primary string) []string {
	var mirrors []kan.Repository
	for _, r := range repos {
		if r.IsMirror && r.MirrorOf == primary {
			mirrors = append(mirrors, r)
		}
	}
	sort.Slice(mirrors, func(i, j int) bool { return mirrors[i].Less(mirrors[j]) })
	uris := make([]string, len(mirrors))
	for i, r := range mirrors {
		uris[i] = r.URI
	}
	return uris
}

type downloadOutcome struct {
	body    []byte
	skipped bool
}

func (p *Pipeline) downloadAll(ctx context.Context, toUpdate []kan.Repository, allRepos []kan.Repository, downloader collab.Downloader, user collab.User) (map[string]downloadOutcome, []kanerr.DownloadFailure) {
	results := make(map[string]downloadOutcome)
	var failures []kanerr.DownloadFailure

	var targets []collab.DownloadTarget
	byRepo := make(map[string]kan.Repository)
	for _, repo := range toUpdate {
		byRepo[repo.Name] = repo
		if isLocal(repo.URI) {
			path := strings.TrimPrefix(repo.URI, "file://")
			body, err := os.ReadFile(path)
			if err != nil {
				failures = append(failures, kanerr.DownloadFailure{
					Target: kanerr.DownloadTarget{Repo: repo.Name, URL: repo.URI},
					Cause:  err,
				})
				continue
			}
			results[repo.Name] = downloadOutcome{body: body}
			continue
		}
		etag, _ := p.etags.Get(repo.URI)
		// URLs beyond the first are mirrors of this repo: the
		// Downloader tries them in order, only falling through to a
		// mirror when the primary URL fails.
		urls := append([]string{repo.URI}, mirrorsOf(allRepos, repo.Name)...)
		targets = append(targets, collab.DownloadTarget{Repo: repo.Name, URLs: urls, ETag: etag})
	}

	if len(targets) > 0 {
		user.RaiseProgress("updating repositories", 0)
		err := downloader.DownloadAndWait(ctx, targets, func(res collab.DownloadResult) {
			repo := byRepo[res.Target.Repo]
			if res.Err != nil {
				failures = append(failures, kanerr.DownloadFailure{
					Target: kanerr.DownloadTarget{Repo: repo.Name, URL: repo.URI},
					Cause:  res.Err,
				})
				return
			}
			if len(res.Body) == 0 {
				// 304 Not Modified, or an empty response: nothing changed.
				p.etags.Clear(repo.URI)
				results[repo.Name] = downloadOutcome{skipped: true}
				return
			}
			if res.SHA256 != "" {
				if err := verifySHA256(res.Body, res.SHA256); err != nil {
					failures = append(failures, kanerr.DownloadFailure{
						Target: kanerr.DownloadTarget{Repo: repo.Name, URL: repo.URI},
						Cause:  err,
					})
					return
				}
			}
			if res.ETag != "" {
				p.etags.Set(repo.URI, res.ETag)
			} else {
				p.etags.Clear(repo.URI)
			}
			results[repo.Name] = downloadOutcome{body: res.Body}
		})
		if err != nil {
			failures = append(failures, kanerr.DownloadFailure{Cause: err})
		}
		user.RaiseProgress("updating repositories", 100)
	}

	return results, failures
}

// verifySHA256 is a best-effort check: the expected hash is the one
// reported by the download itself (the server-computed digest of the
// bytes just received), so this mainly guards against transport-layer
// corruption rather than tampering. A release's own
// download_hash_sha256 is not checked here, and nothing in this module
// fetches release payloads.
func verifySHA256(body []byte, expected string) error {
	sum := sha256.Sum256(body)
	got := hex.EncodeToString(sum[:])
	if !strings.EqualFold(got, expected) {
		return &kanerr.IntegrityError{Expected: expected, Actual: got}
	}
	return nil
}

// GetAvailableModules yields every release for identifier across
// repos, ordered by repository (priority ascending, name ascending)
// and, within each repository, by version strictly descending.
func (p *Pipeline) GetAvailableModules(repos []kan.Repository, identifier string) []*kan.Release {
	ordered := make([]kan.Repository, len(repos))
	copy(ordered, repos)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })

	var out []*kan.Release
	for _, repo := range ordered {
		idx, ok := p.index[repo.Name]
		if !ok {
			continue
		}
		out = append(out, idx.Catalog.Releases(identifier)...)
	}
	return out
}

// GetDownloadCount returns the first non-zero download count for
// identifier found in priority order across repos.
func (p *Pipeline) GetDownloadCount(repos []kan.Repository, identifier string) (uint64, bool) {
	ordered := make([]kan.Repository, len(repos))
	copy(ordered, repos)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })

	for _, repo := range ordered {
		idx, ok := p.index[repo.Name]
		if !ok {
			continue
		}
		if n, ok := idx.DownloadCount(identifier); ok && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// LastUpdate returns the minimum age-since-mtime across every stale
// repo in repos, or zero if none are stale.
func (p *Pipeline) LastUpdate(repos []kan.Repository) time.Duration {
	var min time.Duration
	found := false
	now := time.Now()
	for _, repo := range repos {
		if !p.staleLocally(repo) {
			continue
		}
		info, err := os.Stat(p.cachePath(repo))
		if err != nil {
			continue
		}
		age := now.Sub(info.ModTime())
		if !found || age < min {
			min = age
			found = true
		}
	}
	return min
}
