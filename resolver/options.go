package resolver

import "github.com/lewisfm/CKAN/kan"

// Options configures one resolve() call. The zero value resolves
// depends and conflicts only, with stable tolerance and no
// inconsistency leniency, matching the conservative default a caller
// gets by not opting into anything.
type Options struct {
	// WithRecommends expands recommends clauses.
	WithRecommends bool
	// WithSuggests expands suggests clauses.
	WithSuggests bool
	// WithAllSuggests also expands transitive suggests (a suggestion
	// of a suggestion); ignored unless WithSuggests is also set.
	WithAllSuggests bool
	// WithSupports collects supports back-references without pulling
	// their targets into the plan.
	WithSupports bool
	// ProceedWithInconsistencies records unmet depends and conflicts
	// instead of failing the whole resolve call.
	ProceedWithInconsistencies bool
	// StabilityTolerance bounds which releases are considered as
	// providers.
	StabilityTolerance kan.Stability
	// GetRecommenders is carried on Options but Resolve does not read
	// it: setting it does not change the result, and there is no
	// separate conflict-precheck mode.
	GetRecommenders bool
	// AllowIncompatible lets a caller explicitly accept a release
	// whose declared game-version compatibility doesn't cover the
	// active criteria, independent of StabilityTolerance. Default
	// false; an escape hatch for manual overrides, it does not change
	// default provider-selection semantics.
	AllowIncompatible bool
}

// reducedForRecommendation and reducedForSuggestion return the option
// set used when recursing into a recommendation or suggestion:
// recommendations of recommendations are never followed, and
// suggestions of a recommendation are dropped unless WithAllSuggests
// is set.
func (o Options) reducedForRecommendation() Options {
	out := o
	out.WithRecommends = false
	out.WithSuggests = out.WithSuggests && out.WithAllSuggests
	return out
}

func (o Options) reducedForSuggestion() Options {
	out := o
	out.WithRecommends = false
	out.WithSuggests = out.WithAllSuggests
	return out
}
