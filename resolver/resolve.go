package resolver

import (
	"sort"

	"github.com/lewisfm/CKAN/gamever"
	"github.com/lewisfm/CKAN/kan"
	"github.com/lewisfm/CKAN/kanerr"
	"github.com/lewisfm/CKAN/relationship"
	"github.com/lewisfm/CKAN/sanity"
)

// Registry is the read-only catalog view the resolver needs: every
// release published for an identifier, every release providing it,
// and its published download count. registry.Querier satisfies this.
type Registry interface {
	AllReleases(identifier string) []*kan.Release
	ProvidedBy(identifier string) []*kan.Release
	Downloads(identifier string) (uint64, bool)
}

// Input bundles one resolve() call's arguments.
type Input struct {
	UserRequests    []*kan.Release
	UserRemovals    []*kan.Release
	Installed       []*kan.Release
	Facts           relationship.Facts
	VersionCriteria gamever.Criteria
	Options         Options
}

// RecommendationInfo is the value recorded per recommended identifier:
// whether it should default to checked in a UI, and which already-
// chosen releases recommended it.
type RecommendationInfo struct {
	ShouldDefaultCheck bool
	Sources            []string
}

// Result is everything a resolve() call produces.
type Result struct {
	modList           []*kan.Release
	conflictList      map[*kan.Release]string
	unsatisfiedTraces []Trace
	recommendations   map[string]*RecommendationInfo
	suggestions       map[string][]string
	supporters        map[string]map[string]bool
}

// ModList returns the flat, deduplicated set of chosen releases in
// topological order (dependency before dependent, ties broken by
// identifier for releases with no ordering constraint between them).
func (r *Result) ModList() []*kan.Release { return r.modList }

// ConflictList maps every release participating in an unresolved
// conflict to a human-readable reason.
func (r *Result) ConflictList() map[*kan.Release]string { return r.conflictList }

// Unsatisfied returns one trace per unsatisfiable dependency chain.
func (r *Result) Unsatisfied() []Trace { return r.unsatisfiedTraces }

// Recommendations maps a recommended identifier to whether it should
// default-check in a UI and which releases recommended it.
func (r *Result) Recommendations() map[string]*RecommendationInfo { return r.recommendations }

// Suggestions maps a suggested identifier to the releases that
// suggested it.
func (r *Result) Suggestions() map[string][]string { return r.suggestions }

// Supporters maps an identifier to the set of releases that declared
// support for it.
func (r *Result) Supporters() map[string]map[string]bool { return r.supporters }

// run holds the mutable working state of one Resolve call.
type run struct {
	registry  Registry
	installed []*kan.Release
	facts     relationship.Facts
	criteria  gamever.Criteria
	options   Options

	chosen  map[string]*kan.Release // identifier -> chosen release
	order   []*kan.Release
	seen    map[kan.Key]bool
	pending map[kan.Key][]*ResolvedRelationship // cycle breaker: tentative depends list while still resolving

	// before records, for every release pulled in to satisfy another's
	// depends clause, that it must precede the dependent in ModList.
	// Keyed on the dependency's key, valued on the set of dependents it
	// must precede.
	before map[kan.Key]map[kan.Key]bool

	recommendations map[string]*RecommendationInfo
	suggestions     map[string][]string
	supporters      map[string]map[string]bool

	roots []*ResolvedRelationship // top-level ResolvedRelationships for user requests, for trace collection
}

// Resolve runs the full algorithm described in the relationship
// resolver component: it expands every user request's depends tree,
// recording conflicts, recommendations, suggestions, and supporters
// along the way, then checks the resulting plan for consistency.
func Resolve(reg Registry, input Input) (*Result, error) {
	rv := &run{
		registry:        reg,
		installed:       input.Installed,
		facts:           input.Facts,
		criteria:        input.VersionCriteria,
		options:         input.Options,
		chosen:          make(map[string]*kan.Release),
		seen:            make(map[kan.Key]bool),
		pending:         make(map[kan.Key][]*ResolvedRelationship),
		before:          make(map[kan.Key]map[kan.Key]bool),
		recommendations: make(map[string]*RecommendationInfo),
		suggestions:     make(map[string][]string),
		supporters:      make(map[string]map[string]bool),
	}

	cache := NewRelationshipCache()
	for _, req := range input.UserRequests {
		rv.choose(req)
		deps := rv.resolveRelease(req, SelectionReason{Kind: UserRequested}, false, rv.options, cache)
		rv.appendOrder(req)
		rv.roots = append(rv.roots, &ResolvedRelationship{
			Kind:       ByNew,
			Source:     nil,
			Descriptor: relationship.Single(req.Identifier, relationship.VersionBound{Kind: relationship.Any}),
			Reason:     SelectionReason{Kind: UserRequested},
			Providers:  map[*kan.Release][]*ResolvedRelationship{req: deps},
		})
	}

	result := &Result{
		modList:         rv.canonicalModList(),
		recommendations: rv.recommendations,
		suggestions:     rv.suggestions,
		supporters:      rv.supporters,
	}

	var traces []Trace
	for _, root := range rv.roots {
		collectTraces(root, nil, &traces)
	}
	result.unsatisfiedTraces = traces

	population := make([]*kan.Release, 0, len(rv.order)+len(rv.installed))
	population = append(population, rv.order...)
	for _, inst := range rv.installed {
		if _, ok := rv.chosen[inst.Identifier]; !ok {
			population = append(population, inst)
		}
	}
	// During traversal conflicts only steer which provider is chosen
	// (conflictsWithChosen); this one pass over the finished plan is the
	// sole source of the conflicts that get reported.
	unmet, conflicts := sanity.Check(population, rv.facts)

	conflictList := make(map[*kan.Release]string)
	var conflictPairs []kanerr.ConflictPair
	for _, c := range conflicts {
		conflictList[c.Release] = "conflicts with " + c.Other.Identifier
		conflictPairs = append(conflictPairs, kanerr.ConflictPair{
			Release:      c.Release.Identifier,
			Other:        c.Other.Identifier,
			DescriptorOf: c.Descriptor.String(),
		})
	}
	result.conflictList = conflictList

	if (len(conflicts) > 0 || len(unmet) > 0 || len(traces) > 0) && !rv.options.ProceedWithInconsistencies {
		if len(conflictPairs) > 0 {
			return result, &kanerr.ConflictsError{Pairs: conflictPairs}
		}
		return result, &kanerr.UnmetDependenciesError{Traces: renderTraces(traces)}
	}

	return result, nil
}

func renderTraces(traces []Trace) [][]string {
	out := make([][]string, len(traces))
	for i, t := range traces {
		lines := make([]string, len(t))
		for j, rr := range t {
			lines[j] = rr.Kind.String() + ": " + rr.Descriptor.String()
		}
		out[i] = lines
	}
	return out
}

// choose marks r as part of the working installation set, appending
// it to the topological order the first time it's chosen.
func (rv *run) choose(r *kan.Release) {
	rv.chosen[r.Identifier] = r
	for _, p := range r.Provides {
		if _, ok := rv.chosen[p]; !ok {
			rv.chosen[p] = r
		}
	}
}

func (rv *run) appendOrder(r *kan.Release) {
	key := kan.KeyOf(r)
	if rv.seen[key] {
		return
	}
	rv.seen[key] = true
	rv.order = append(rv.order, r)
}

// resolveRelease expands r's depends (memoizing per release to break
// cycles), then, unless suppressed, expands its recommends/suggests as
// enabled by opts, and records its supports whenever WithSupports is
// set (suppression does not affect supports). Conflicts are not
// handled here. It returns the ResolvedRelationship
// list produced by r's own depends, the value stored against r in a
// ByNew.Providers map.
func (rv *run) resolveRelease(r *kan.Release, reason SelectionReason, suppressRecommendations bool, opts Options, cache *RelationshipCache) []*ResolvedRelationship {
	key := kan.KeyOf(r)
	if deps, ok := rv.pending[key]; ok {
		return deps
	}
	rv.pending[key] = nil // tentative: breaks cycles on re-entry

	var out []*ResolvedRelationship
	for _, d := range r.Depends {
		rr := rv.resolveDescriptor(r, d, SelectionReason{Kind: Depends, Parent: r}, opts, cache)
		out = append(out, rr)
	}
	rv.pending[key] = out

	if !suppressRecommendations {
		if opts.WithRecommends {
			for _, d := range r.Recommends {
				rv.expandRecommendation(r, d, opts, cache)
			}
		}
		if opts.WithSuggests {
			for _, d := range r.Suggests {
				rv.expandSuggestion(r, d, opts, cache)
			}
		}
	}
	if opts.WithSupports {
		for _, d := range r.Supports {
			rv.recordSupport(r, d)
		}
	}

	return out
}

func (rv *run) expandRecommendation(source *kan.Release, d relationship.Descriptor, opts Options, cache *RelationshipCache) {
	rv.resolveDescriptor(source, d, SelectionReason{Kind: Recommendation, Parent: source}, opts.reducedForRecommendation(), cache)
	for _, id := range descriptorIdentifiers(d) {
		info, ok := rv.recommendations[id]
		if !ok {
			info = &RecommendationInfo{ShouldDefaultCheck: true}
			rv.recommendations[id] = info
		}
		info.Sources = appendUnique(info.Sources, source.Identifier)
	}
}

func (rv *run) expandSuggestion(source *kan.Release, d relationship.Descriptor, opts Options, cache *RelationshipCache) {
	rv.resolveDescriptor(source, d, SelectionReason{Kind: Suggestion, Parent: source}, opts.reducedForSuggestion(), cache)
	for _, id := range descriptorIdentifiers(d) {
		rv.suggestions[id] = appendUnique(rv.suggestions[id], source.Identifier)
	}
}

func (rv *run) recordSupport(source *kan.Release, d relationship.Descriptor) {
	for _, id := range descriptorIdentifiers(d) {
		set, ok := rv.supporters[id]
		if !ok {
			set = make(map[string]bool)
			rv.supporters[id] = set
		}
		set[source.Identifier] = true
	}
}

func descriptorIdentifiers(d relationship.Descriptor) []string {
	if d.Kind == relationship.KindAnyOf {
		var out []string
		for _, alt := range d.Alternatives {
			out = append(out, descriptorIdentifiers(alt)...)
		}
		return out
	}
	return []string{d.Identifier}
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

// resolveDescriptor evaluates d against installed releases, DLC facts,
// the already-chosen set, DLL facts, and finally fresh providers, in
// that priority order, memoizing the result per descriptor so the
// same clause is never re-expanded twice along one branch.
func (rv *run) resolveDescriptor(source *kan.Release, d relationship.Descriptor, reason SelectionReason, opts Options, cache *RelationshipCache) *ResolvedRelationship {
	if rr, ok := cache.Get(d); ok {
		return rr
	}

	var rr *ResolvedRelationship
	switch d.Kind {
	case relationship.KindAnyOf:
		rr = rv.resolveAnyOf(source, d, reason, opts, cache)
	default:
		rr = rv.resolveSingle(source, d, reason, opts, cache)
	}
	cache.Put(d, rr)
	return rr
}

func (rv *run) resolveAnyOf(source *kan.Release, d relationship.Descriptor, reason SelectionReason, opts Options, cache *RelationshipCache) *ResolvedRelationship {
	for _, alt := range d.Alternatives {
		rr := rv.resolveDescriptor(source, alt, reason, opts, cache)
		if !rr.Unsatisfied() {
			return rr
		}
	}
	return &ResolvedRelationship{
		Kind: ByNew, Source: source, Descriptor: d, Reason: reason,
		Providers: map[*kan.Release][]*ResolvedRelationship{},
	}
}

func (rv *run) resolveSingle(source *kan.Release, d relationship.Descriptor, reason SelectionReason, opts Options, cache *RelationshipCache) *ResolvedRelationship {
	identifier, bound := d.Identifier, d.Bound

	for _, inst := range rv.installed {
		if inst.Satisfies(identifier, bound) {
			return &ResolvedRelationship{Kind: ByInstalled, Source: source, Descriptor: d, Reason: reason, InstalledRelease: inst}
		}
	}
	if fact, ok := rv.facts.DLCFor(identifier); ok && bound.Contains(fact.Version) {
		return &ResolvedRelationship{Kind: ByDLC, Source: source, Descriptor: d, Reason: reason}
	}
	if chosen, ok := rv.chosen[identifier]; ok && chosen.Satisfies(identifier, bound) {
		rv.addEdge(chosen, source)
		return &ResolvedRelationship{Kind: ByInstalling, Source: source, Descriptor: d, Reason: reason, BeingInstalledRelease: chosen}
	}
	if bound.Kind == relationship.Any && rv.facts.HasDLL(identifier) {
		return &ResolvedRelationship{Kind: ByDLL, Source: source, Descriptor: d, Reason: reason}
	}

	providers := rv.gatherProviders(identifier, bound)
	resolved := make(map[*kan.Release][]*ResolvedRelationship)

	var branchCache *RelationshipCache
	if len(providers) > 1 {
		branchCache = cache.Clone()
	} else {
		branchCache = cache
	}

	// Every provider tried is recorded in resolved with its own
	// recursive resolution, whether or not it panned out: per spec.md
	// §4.6 step 1 (and scenario S6), a trace needs to walk down through
	// an attempted-but-failing provider to the real unsatisfiable leaf
	// beneath it, not just find the clause itself pruned to an empty
	// dead end. A candidate that conflicts with an already-chosen
	// release is only skipped in favor of a later, conflict-free
	// candidate; if every candidate conflicts, the best one is still
	// accepted so the final consistency pass can surface the conflict
	// properly instead of this clause silently reading as unsatisfiable.
	// A candidate whose own depends don't resolve is never
	// force-accepted this way: that would defeat an any_of clause's
	// ability to fall through to the next alternative.
	var fallback *kan.Release
	settled := false

	for _, p := range providers {
		conflicted := rv.conflictsWithChosen(p)
		rv.choose(p)
		deps := rv.resolveRelease(p, reason, d.SuppressRecommendations, opts, branchCache)
		unsatisfied := hasUnsatisfied(deps) && !opts.ProceedWithInconsistencies
		resolved[p] = deps

		if !conflicted && !unsatisfied {
			rv.appendOrder(p)
			rv.addEdge(p, source)
			settled = true
			break
		}

		rv.unchoose(p)
		if len(providers) > 1 {
			branchCache = cache.Clone()
		}
		if conflicted && !unsatisfied && fallback == nil {
			fallback = p
		}
	}

	if !settled && fallback != nil {
		rv.choose(fallback)
		rv.appendOrder(fallback)
		rv.addEdge(fallback, source)
	}

	return &ResolvedRelationship{Kind: ByNew, Source: source, Descriptor: d, Reason: reason, Providers: resolved}
}

// addEdge records that before must precede after in ModList's
// topological order. A nil source (never passed by resolveSingle, but
// defensive) or a self-edge is ignored.
func (rv *run) addEdge(before, after *kan.Release) {
	if before == nil || after == nil {
		return
	}
	bKey, aKey := kan.KeyOf(before), kan.KeyOf(after)
	if bKey == aKey {
		return
	}
	set, ok := rv.before[bKey]
	if !ok {
		set = make(map[kan.Key]bool)
		rv.before[bKey] = set
	}
	set[aKey] = true
}

// canonicalModList returns rv.order as a deterministic topological
// sort over the dependency edges recorded during resolution: every
// dependency precedes its dependent, and releases with no ordering
// constraint between them are emitted in identifier order, per
// spec.md §4.6's tie-break rule. Kahn's algorithm, repeatedly peeling
// off the lowest-identifier release with no unsatisfied predecessor
// left, gives exactly that.
func (rv *run) canonicalModList() []*kan.Release {
	byKey := make(map[kan.Key]*kan.Release, len(rv.order))
	indegree := make(map[kan.Key]int, len(rv.order))
	for _, r := range rv.order {
		byKey[kan.KeyOf(r)] = r
		indegree[kan.KeyOf(r)] = 0
	}
	for before, afters := range rv.before {
		if _, ok := byKey[before]; !ok {
			continue
		}
		for after := range afters {
			if _, ok := byKey[after]; ok {
				indegree[after]++
			}
		}
	}

	var ready []kan.Key
	for k, d := range indegree {
		if d == 0 {
			ready = append(ready, k)
		}
	}

	out := make([]*kan.Release, 0, len(rv.order))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			return byKey[ready[i]].Identifier < byKey[ready[j]].Identifier
		})
		next := ready[0]
		ready = ready[1:]
		out = append(out, byKey[next])
		for after := range rv.before[next] {
			indegree[after]--
			if indegree[after] == 0 {
				ready = append(ready, after)
			}
		}
	}

	// A genuine cycle (never expected given the pending-cache cycle
	// breaker in resolveRelease) would otherwise silently drop
	// releases; fall back to appending whatever's left in identifier
	// order rather than losing them.
	if len(out) < len(rv.order) {
		seen := make(map[kan.Key]bool, len(out))
		for _, r := range out {
			seen[kan.KeyOf(r)] = true
		}
		var remaining []*kan.Release
		for _, r := range rv.order {
			if !seen[kan.KeyOf(r)] {
				remaining = append(remaining, r)
			}
		}
		sort.Slice(remaining, func(i, j int) bool { return remaining[i].Identifier < remaining[j].Identifier })
		out = append(out, remaining...)
	}

	return out
}

func hasUnsatisfied(deps []*ResolvedRelationship) bool {
	for _, d := range deps {
		if d.Unsatisfied() {
			return true
		}
	}
	return false
}

func (rv *run) unchoose(r *kan.Release) {
	if rv.chosen[r.Identifier] == r {
		delete(rv.chosen, r.Identifier)
	}
	for _, p := range r.Provides {
		if rv.chosen[p] == r {
			delete(rv.chosen, p)
		}
	}
}

// conflictsWithChosen reports whether selecting p would conflict with
// an already-chosen or installed release: either p's own conflicts
// clause matches one of them, or one of their conflicts clauses
// matches p.
func (rv *run) conflictsWithChosen(p *kan.Release) bool {
	var population []relationship.Candidate
	for _, r := range rv.chosen {
		if r.Identifier != p.Identifier {
			population = append(population, r)
		}
	}
	for _, r := range rv.installed {
		population = append(population, r)
	}

	for _, d := range p.Conflicts {
		if _, ok := relationship.MatchAny(d, population, rv.facts); ok {
			return true
		}
	}
	for _, r := range rv.chosen {
		if r.Identifier == p.Identifier {
			continue
		}
		for _, d := range r.Conflicts {
			if relationship.Satisfied(d, []relationship.Candidate{p}, relationship.Facts{}) {
				return true
			}
		}
	}
	return false
}

func (rv *run) gatherProviders(identifier string, bound relationship.VersionBound) []*kan.Release {
	seen := make(map[kan.Key]bool)
	type candidate struct {
		release *kan.Release
		exact   bool
	}
	var list []candidate

	add := func(r *kan.Release, exact bool) {
		key := kan.KeyOf(r)
		if seen[key] {
			return
		}
		if !r.Satisfies(identifier, bound) {
			return
		}
		if !rv.options.AllowIncompatible && !r.CompatibleWith(rv.criteria) {
			return
		}
		if r.Stability.Exceeds(rv.options.StabilityTolerance) {
			return
		}
		seen[key] = true
		list = append(list, candidate{release: r, exact: exact})
	}

	for _, r := range rv.registry.AllReleases(identifier) {
		add(r, true)
	}
	for _, r := range rv.registry.ProvidedBy(identifier) {
		add(r, false)
	}

	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.exact != b.exact {
			return a.exact
		}
		if cmp := a.release.Version.Compare(b.release.Version); cmp != 0 {
			return cmp > 0
		}
		da, _ := rv.registry.Downloads(a.release.Identifier)
		db, _ := rv.registry.Downloads(b.release.Identifier)
		return da > db
	})

	out := make([]*kan.Release, len(list))
	for i, c := range list {
		out[i] = c.release
	}
	return out
}
