package relationship

import "github.com/lewisfm/CKAN/version"

// Candidate is anything a Descriptor can be matched against: a release
// in the resolver's working set, a catalog entry, etc. Kept minimal so
// this package never needs to import the release model.
type Candidate interface {
	// CandidateIdentifier is the module identifier this candidate is
	// published under.
	CandidateIdentifier() string
	// CandidateProvides lists additional identifiers this candidate
	// claims to provide, in addition to its own.
	CandidateProvides() []string
	// CandidateVersion is the candidate's release version.
	CandidateVersion() version.Version
}

// DLCFact records a DLC the game reports as installed, with its
// version (DLC, unlike DLLs, carries a meaningful version that a
// descriptor's VersionBound can be checked against).
type DLCFact struct {
	Identifier string
	Version    version.Version
}

// Facts bundles the non-release context a descriptor is evaluated
// against: installed DLLs (identifier-only, no version) and DLC
// (identifier + version).
type Facts struct {
	DLLs []string
	DLC  []DLCFact
}

// HasDLL reports whether identifier is among the installed DLLs.
func (f Facts) HasDLL(identifier string) bool {
	for _, d := range f.DLLs {
		if d == identifier {
			return true
		}
	}
	return false
}

// DLCFor returns the DLC fact for identifier, if any.
func (f Facts) DLCFor(identifier string) (DLCFact, bool) {
	for _, d := range f.DLC {
		if d.Identifier == identifier {
			return d, true
		}
	}
	return DLCFact{}, false
}

// Match is the outcome of a successful descriptor evaluation.
type Match struct {
	// Candidate is the matched release, or nil if the match was
	// satisfied by a DLL or DLC fact instead.
	Candidate Candidate
	// ByDLL is set when the match was satisfied by an installed DLL
	// rather than a release or DLC.
	ByDLL bool
	// ByDLC is set when the match was satisfied by a DLC fact.
	ByDLC bool
	// Identifier is the identifier that actually satisfied the clause
	// (the candidate's own identifier or one of its Provides entries).
	Identifier string
}

func candidateMatches(identifier string, bound VersionBound, c Candidate) (Match, bool) {
	v := c.CandidateVersion()
	if c.CandidateIdentifier() == identifier && bound.Contains(v) {
		return Match{Candidate: c, Identifier: identifier}, true
	}
	for _, p := range c.CandidateProvides() {
		if p == identifier && bound.Contains(v) {
			return Match{Candidate: c, Identifier: identifier}, true
		}
	}
	return Match{}, false
}

// matchSingle evaluates a Single descriptor against the candidate
// population and facts. A DLL only satisfies a bound-free ("any
// version") descriptor, since DLLs carry no version; a DLC satisfies a
// descriptor exactly like a release would, checked against its known
// version.
func matchSingle(identifier string, bound VersionBound, candidates []Candidate, facts Facts) (Match, bool) {
	for _, c := range candidates {
		if m, ok := candidateMatches(identifier, bound, c); ok {
			return m, true
		}
	}
	if d, ok := facts.DLCFor(identifier); ok && bound.Contains(d.Version) {
		return Match{ByDLC: true, Identifier: identifier}, true
	}
	if bound.Kind == Any && facts.HasDLL(identifier) {
		return Match{ByDLL: true, Identifier: identifier}, true
	}
	return Match{}, false
}

// MatchAny evaluates a descriptor against a population of candidates
// (releases already selected or available) plus DLL/DLC facts, and
// returns the first satisfying match. For an AnyOf descriptor,
// alternatives are tried strictly in declared order and the first
// match wins; no attempt is made to find a "better" later alternative
// once an earlier one is satisfied.
func MatchAny(d Descriptor, candidates []Candidate, facts Facts) (Match, bool) {
	switch d.Kind {
	case KindSingle:
		return matchSingle(d.Identifier, d.Bound, candidates, facts)
	case KindAnyOf:
		for _, alt := range d.Alternatives {
			if m, ok := MatchAny(alt, candidates, facts); ok {
				return m, true
			}
		}
		return Match{}, false
	default:
		return Match{}, false
	}
}

// Satisfied is a convenience wrapper over MatchAny that discards the
// match detail, used by the sanity checker where only yes/no matters.
func Satisfied(d Descriptor, candidates []Candidate, facts Facts) bool {
	_, ok := MatchAny(d, candidates, facts)
	return ok
}
