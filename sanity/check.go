/*
Package sanity implements the stateless consistency check: given a set
of chosen releases plus the DLL/DLC facts observed on disk, report
every unmet dependency and every conflict between releases in the set.
*/
package sanity

import (
	"fmt"

	"github.com/lewisfm/CKAN/kan"
	"github.com/lewisfm/CKAN/kanerr"
	"github.com/lewisfm/CKAN/relationship"
)

// UnmetDepend pairs a release with one of its unsatisfied depends
// clauses.
type UnmetDepend struct {
	Release    *kan.Release
	Descriptor relationship.Descriptor
}

// Conflict is a triple: a release, the conflicts clause it declared,
// and the other release in the working set that satisfies it.
type Conflict struct {
	Release    *kan.Release
	Descriptor relationship.Descriptor
	Other      *kan.Release
}

func candidates(modules []*kan.Release) []relationship.Candidate {
	out := make([]relationship.Candidate, len(modules))
	for i, m := range modules {
		out[i] = m
	}
	return out
}

// Check evaluates modules against themselves and the given facts,
// returning every unmet depends clause and every conflict with another
// release in modules. Self-conflict (a release's conflicts clause
// matching its own identifier) is ignored, since a release can never
// conflict with itself. A conflicts clause that is matched only by a
// DLL or DLC fact is not reported.
func Check(modules []*kan.Release, facts relationship.Facts) ([]UnmetDepend, []Conflict) {
	pop := candidates(modules)

	var unmet []UnmetDepend
	for _, r := range modules {
		for _, d := range r.Depends {
			if !relationship.Satisfied(d, pop, facts) {
				unmet = append(unmet, UnmetDepend{Release: r, Descriptor: d})
			}
		}
	}

	var conflicts []Conflict
	for _, r := range modules {
		others := make([]relationship.Candidate, 0, len(modules))
		for _, m := range modules {
			if m.Identifier != r.Identifier {
				others = append(others, m)
			}
		}
		for _, d := range r.Conflicts {
			m, ok := relationship.MatchAny(d, others, facts)
			if !ok || m.Candidate == nil {
				continue
			}
			other, ok := m.Candidate.(*kan.Release)
			if !ok || other.Identifier == r.Identifier {
				continue
			}
			conflicts = append(conflicts, Conflict{Release: r, Descriptor: d, Other: other})
		}
	}

	return unmet, conflicts
}

// IsConsistent reports whether modules (plus facts) has no unmet
// depends and no conflicts.
func IsConsistent(modules []*kan.Release, facts relationship.Facts) bool {
	unmet, conflicts := Check(modules, facts)
	return len(unmet) == 0 && len(conflicts) == 0
}

// EnforceConsistency returns a *kanerr.InconsistentError if Check finds
// any unmet depends or conflicts, nil otherwise.
func EnforceConsistency(modules []*kan.Release, facts relationship.Facts) error {
	unmet, conflicts := Check(modules, facts)
	if len(unmet) == 0 && len(conflicts) == 0 {
		return nil
	}

	kind := kanerr.Unmet
	if len(unmet) == 0 {
		kind = kanerr.Conflict
	}
	return &kanerr.InconsistentError{
		Kind:    kind,
		Details: fmt.Sprintf("%d unmet, %d conflicting", len(unmet), len(conflicts)),
	}
}
