package registry

import (
	"sort"

	"github.com/lewisfm/CKAN/gamever"
	"github.com/lewisfm/CKAN/kan"
	"github.com/lewisfm/CKAN/relationship"
)

// Querier is a read-only façade composing the metadata pipeline with
// the locally observed installed releases, DLLs, and DLC facts. It
// never mutates the pipeline.
type Querier struct {
	pipeline  *Pipeline
	repos     []kan.Repository
	installed map[string]*kan.Release
	facts     relationship.Facts
}

// NewQuerier builds a Querier over pipeline, scoped to repos, with the
// given installed releases (keyed by identifier) and DLL/DLC facts.
func NewQuerier(pipeline *Pipeline, repos []kan.Repository, installed map[string]*kan.Release, facts relationship.Facts) *Querier {
	return &Querier{pipeline: pipeline, repos: repos, installed: installed, facts: facts}
}

// AllReleases returns every release for identifier across the
// configured repos, in (repo priority asc, name asc) then
// version-descending order.
func (q *Querier) AllReleases(identifier string) []*kan.Release {
	return q.pipeline.GetAvailableModules(q.repos, identifier)
}

// LatestAvailable returns the first release for identifier, in
// AllReleases order, that is compatible with crit and whose stability
// doesn't exceed tolerance: the newest such release of the
// highest-priority repository that has one, not necessarily the newest
// across all repositories.
func (q *Querier) LatestAvailable(identifier string, crit gamever.Criteria, tolerance kan.Stability) (*kan.Release, bool) {
	for _, r := range q.AllReleases(identifier) {
		if r.Stability.Exceeds(tolerance) {
			continue
		}
		if !r.CompatibleWith(crit) {
			continue
		}
		return r, true
	}
	return nil, false
}

// Installed returns the currently installed release for identifier,
// if any.
func (q *Querier) Installed(identifier string) (*kan.Release, bool) {
	r, ok := q.installed[identifier]
	return r, ok
}

// ProvidedBy returns every release across the configured repos whose
// Provides includes identifier, newest-first within each repo.
func (q *Querier) ProvidedBy(identifier string) []*kan.Release {
	var out []*kan.Release
	ordered := make([]kan.Repository, len(q.repos))
	copy(ordered, q.repos)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })
	for _, repo := range ordered {
		idx, ok := q.pipeline.Index(repo.Name)
		if !ok {
			continue
		}
		out = append(out, idx.Catalog.ProvidedBy(identifier)...)
	}
	return out
}

// Downloads returns the published download count for identifier, if
// known.
func (q *Querier) Downloads(identifier string) (uint64, bool) {
	return q.pipeline.GetDownloadCount(q.repos, identifier)
}

// Facts returns the DLL/DLC facts this querier was constructed with,
// for collaborators (e.g. the resolver and sanity checker) that need
// them alongside catalog lookups.
func (q *Querier) Facts() relationship.Facts { return q.facts }
