package resolver

import (
	"testing"

	"github.com/lewisfm/CKAN/kan"
	"github.com/lewisfm/CKAN/kanerr"
	"github.com/lewisfm/CKAN/relationship"
	"github.com/lewisfm/CKAN/version"
)

// fakeRegistry is a minimal in-memory Registry used by these tests in
// place of a real registry.Pipeline/Querier.
type fakeRegistry struct {
	byIdentifier map[string][]*kan.Release
	downloads    map[string]uint64
}

func newFakeRegistry(releases ...*kan.Release) *fakeRegistry {
	reg := &fakeRegistry{byIdentifier: make(map[string][]*kan.Release), downloads: make(map[string]uint64)}
	for _, r := range releases {
		reg.byIdentifier[r.Identifier] = append(reg.byIdentifier[r.Identifier], r)
	}
	return reg
}

func (f *fakeRegistry) AllReleases(identifier string) []*kan.Release {
	return f.byIdentifier[identifier]
}

func (f *fakeRegistry) ProvidedBy(identifier string) []*kan.Release {
	var out []*kan.Release
	for _, list := range f.byIdentifier {
		for _, r := range list {
			for _, p := range r.Provides {
				if p == identifier {
					out = append(out, r)
				}
			}
		}
	}
	return out
}

func (f *fakeRegistry) Downloads(identifier string) (uint64, bool) {
	c, ok := f.downloads[identifier]
	return c, ok
}

func rel(id, ver string) *kan.Release {
	return &kan.Release{Identifier: id, Version: version.MustParse(ver)}
}

func depends(r *kan.Release, descs ...relationship.Descriptor) *kan.Release {
	r.Depends = append(r.Depends, descs...)
	return r
}

func conflicts(r *kan.Release, descs ...relationship.Descriptor) *kan.Release {
	r.Conflicts = append(r.Conflicts, descs...)
	return r
}

func anyBound(identifier string) relationship.Descriptor {
	return relationship.Single(identifier, relationship.VersionBound{Kind: relationship.Any})
}

// TestResolveTrivialInstall covers S1: a single dependency-free release
// requested directly resolves to just that release.
func TestResolveTrivialInstall(t *testing.T) {
	a := rel("A", "1.0")
	reg := newFakeRegistry(a)

	result, err := Resolve(reg, Input{UserRequests: []*kan.Release{a}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(result.ModList()) != 1 || result.ModList()[0] != a {
		t.Fatalf("expected ModList = [A], got %+v", result.ModList())
	}
}

// TestResolveLinearDependChain covers S2: A depends on B depends on C,
// and the plan orders dependencies before dependents.
func TestResolveLinearDependChain(t *testing.T) {
	c := rel("C", "3")
	b := depends(rel("B", "2"), anyBound("C"))
	a := depends(rel("A", "1"), anyBound("B"))
	reg := newFakeRegistry(a, b, c)

	result, err := Resolve(reg, Input{UserRequests: []*kan.Release{a}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	modList := result.ModList()
	if len(modList) != 3 {
		t.Fatalf("expected 3 releases, got %+v", modList)
	}
	want := []*kan.Release{c, b, a}
	for i, r := range want {
		if modList[i] != r {
			t.Errorf("position %d: want %s, got %s", i, r.Identifier, modList[i].Identifier)
		}
	}
}

// TestResolveProvidesSatisfiesDepend covers S3: B, requested directly,
// provides X, so A's depend on X is satisfied by B without pulling in
// any other provider of X.
func TestResolveProvidesSatisfiesDepend(t *testing.T) {
	b := rel("B", "1")
	b.Provides = []string{"X"}
	a := depends(rel("A", "1"), anyBound("X"))
	reg := newFakeRegistry(a, b)

	result, err := Resolve(reg, Input{UserRequests: []*kan.Release{a, b}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	modList := result.ModList()
	if len(modList) != 2 {
		t.Fatalf("expected ModList = [B, A] (2 releases), got %+v", modList)
	}
	found := make(map[string]bool)
	for _, r := range modList {
		found[r.Identifier] = true
	}
	if !found["A"] || !found["B"] {
		t.Errorf("expected both A and B in ModList, got %+v", modList)
	}
}

// TestResolveAnyOfSkipsUnsatisfiableAlternative covers S4: A depends on
// any_of(B, C); B depends on a nonexistent release and so can never be
// chosen, so the resolver falls through to C.
func TestResolveAnyOfSkipsUnsatisfiableAlternative(t *testing.T) {
	bv1 := depends(rel("B", "1"), anyBound("Z"))
	cv1 := rel("C", "1")
	a := depends(rel("A", "1"), relationship.AnyOf(anyBound("B"), anyBound("C")))
	reg := newFakeRegistry(a, bv1, cv1)

	result, err := Resolve(reg, Input{UserRequests: []*kan.Release{a}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	modList := result.ModList()
	var gotB, gotC bool
	for _, r := range modList {
		if r == bv1 {
			gotB = true
		}
		if r == cv1 {
			gotC = true
		}
	}
	if gotB {
		t.Errorf("expected B not to be chosen, got ModList %+v", modList)
	}
	if !gotC {
		t.Errorf("expected C to be chosen, got ModList %+v", modList)
	}
}

// TestResolveConflictFails covers S5: A conflicts with X; B depends on
// X, and X is the only available provider, so the plan must fail with
// a conflicts error rather than silently dropping A or X.
func TestResolveConflictFails(t *testing.T) {
	x := rel("X", "1")
	a := conflicts(rel("A", "1"), anyBound("X"))
	b := depends(rel("B", "1"), anyBound("X"))
	reg := newFakeRegistry(a, b, x)

	_, err := Resolve(reg, Input{UserRequests: []*kan.Release{a, b}})
	if err == nil {
		t.Fatalf("expected a conflicts error, got nil")
	}
	confErr, ok := err.(*kanerr.ConflictsError)
	if !ok {
		t.Fatalf("expected *kanerr.ConflictsError, got %T: %v", err, err)
	}
	if len(confErr.Pairs) != 1 {
		t.Fatalf("expected exactly one conflicting pair, got %+v", confErr.Pairs)
	}
}

// TestResolveUnsatisfiedProducesTrace covers S6: a depend with no
// available provider produces a rendered trace explaining the gap.
func TestResolveUnsatisfiedProducesTrace(t *testing.T) {
	a := depends(rel("A", "1"), anyBound("Missing"))
	reg := newFakeRegistry(a)

	_, err := Resolve(reg, Input{UserRequests: []*kan.Release{a}})
	if err == nil {
		t.Fatalf("expected an unmet dependencies error, got nil")
	}
	unmetErr, isUnmet := err.(*kanerr.UnmetDependenciesError)
	if !isUnmet {
		t.Fatalf("expected *kanerr.UnmetDependenciesError, got %T: %v", err, err)
	}
	if len(unmetErr.Traces) != 1 {
		t.Fatalf("expected exactly one trace, got %+v", unmetErr.Traces)
	}
}

// TestResolveUnsatisfiedTraceReachesDeeperMissingDepend covers S6's
// two-level chain exactly: A depends on B, B depends on C, and no C
// exists. The A->B clause has a real candidate (B v1) that itself
// can't be installed, so the trace must walk through B v1 down to the
// B->C leaf rather than reporting A->B as a dead end with no providers
// at all.
func TestResolveUnsatisfiedTraceReachesDeeperMissingDepend(t *testing.T) {
	bv1 := depends(rel("B", "1"), anyBound("C"))
	a := depends(rel("A", "1"), anyBound("B"))
	reg := newFakeRegistry(a, bv1)

	result, err := Resolve(reg, Input{UserRequests: []*kan.Release{a}})
	if err == nil {
		t.Fatalf("expected an unmet dependencies error, got nil")
	}
	unmetErr, isUnmet := err.(*kanerr.UnmetDependenciesError)
	if !isUnmet {
		t.Fatalf("expected *kanerr.UnmetDependenciesError, got %T: %v", err, err)
	}
	if len(unmetErr.Traces) != 1 {
		t.Fatalf("expected exactly one trace, got %+v", unmetErr.Traces)
	}

	traces := result.Unsatisfied()
	if len(traces) != 1 {
		t.Fatalf("expected exactly one resolver trace, got %+v", traces)
	}
	trace := traces[0]

	var sawB, sawCLeaf bool
	for _, rr := range trace {
		if rr.Kind != ByNew {
			continue
		}
		if providers, ok := rr.Providers[bv1]; ok {
			sawB = true
			if len(providers) != 1 || providers[0].Descriptor.Identifier != "C" {
				t.Errorf("expected A->B's providers entry for B v1 to hold the B->C relationship, got %+v", providers)
			}
		}
		if rr.Source == bv1 && rr.Descriptor.Identifier == "C" && len(rr.Providers) == 0 {
			sawCLeaf = true
		}
	}
	if !sawB {
		t.Errorf("expected the trace to retain B v1 as a tried provider for A->B, got %+v", trace)
	}
	if !sawCLeaf {
		t.Errorf("expected the trace to reach the B->C empty-providers leaf, got %+v", trace)
	}
}

// TestResolveProceedWithInconsistencies verifies that enabling
// ProceedWithInconsistencies turns a would-be fatal unmet depend into a
// recorded-but-successful plan.
func TestResolveProceedWithInconsistencies(t *testing.T) {
	a := depends(rel("A", "1"), anyBound("Missing"))
	reg := newFakeRegistry(a)

	result, err := Resolve(reg, Input{
		UserRequests: []*kan.Release{a},
		Options:      Options{ProceedWithInconsistencies: true},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(result.Unsatisfied()) != 1 {
		t.Fatalf("expected the unsatisfied trace to still be recorded, got %+v", result.Unsatisfied())
	}
}

// TestResolveRespectsStabilityTolerance checks that an over-tolerance
// candidate is skipped in favor of a tolerated one.
func TestResolveRespectsStabilityTolerance(t *testing.T) {
	dev := rel("B", "2")
	dev.Stability = kan.Development
	stable := rel("B", "1")
	stable.Stability = kan.Stable
	a := depends(rel("A", "1"), anyBound("B"))
	reg := newFakeRegistry(a, dev, stable)

	result, err := Resolve(reg, Input{
		UserRequests: []*kan.Release{a},
		Options:      Options{StabilityTolerance: kan.Stable},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	var gotStable, gotDev bool
	for _, r := range result.ModList() {
		if r == stable {
			gotStable = true
		}
		if r == dev {
			gotDev = true
		}
	}
	if !gotStable || gotDev {
		t.Errorf("expected stable B to be chosen over development B, got %+v", result.ModList())
	}
}
