/*
Package relationship implements RelationshipDescriptor evaluation:
depends/conflicts/recommends/suggests/supports clauses and their
matching against a population of releases, DLLs, and DLC facts.
*/
package relationship

import (
	"fmt"

	"github.com/lewisfm/CKAN/version"
)

// BoundKind tags the shape of a VersionBound.
type BoundKind int

const (
	// Any matches every version.
	Any BoundKind = iota
	// Exact matches a single version.
	Exact
	// RangeBound matches an interval, independently inclusive/exclusive
	// on each end; a nil Min or Max is unbounded on that side.
	RangeBound
)

// VersionBound restricts which versions of an identifier satisfy a
// Single descriptor.
type VersionBound struct {
	Kind BoundKind

	// Exact is used when Kind == Exact.
	ExactVersion version.Version

	// Min/Max/MinInclusive/MaxInclusive are used when Kind == RangeBound.
	Min          *version.Version
	Max          *version.Version
	MinInclusive bool
	MaxInclusive bool
}

// Contains reports whether v satisfies the bound.
func (b VersionBound) Contains(v version.Version) bool {
	switch b.Kind {
	case Any:
		return true
	case Exact:
		return v.Equal(b.ExactVersion)
	case RangeBound:
		if b.Min != nil {
			c := v.Compare(*b.Min)
			if c < 0 || (c == 0 && !b.MinInclusive) {
				return false
			}
		}
		if b.Max != nil {
			c := v.Compare(*b.Max)
			if c > 0 || (c == 0 && !b.MaxInclusive) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Descriptor is a relationship clause: either a single identifier +
// version bound, or an any_of alternation of sub-descriptors tried in
// order.
//
// Descriptor is a tagged variant over (Single, AnyOf); exactly one of
// the corresponding field groups is populated, selected by Kind.
type Descriptor struct {
	Kind DescriptorKind

	// Single fields (Kind == KindSingle).
	Identifier string
	Bound      VersionBound

	// AnyOf fields (Kind == KindAnyOf).
	Alternatives []Descriptor

	// SuppressRecommendations, if set, hides recommendations/suggestions
	// of releases chosen to satisfy this descriptor.
	SuppressRecommendations bool
}

// DescriptorKind tags which variant of Descriptor is populated.
type DescriptorKind int

const (
	KindSingle DescriptorKind = iota
	KindAnyOf
)

// Single builds a Single descriptor.
func Single(identifier string, bound VersionBound) Descriptor {
	return Descriptor{Kind: KindSingle, Identifier: identifier, Bound: bound}
}

// AnyOf builds an AnyOf descriptor over the given alternatives, tried
// in order.
func AnyOf(alts ...Descriptor) Descriptor {
	return Descriptor{Kind: KindAnyOf, Alternatives: alts}
}

// WithSuppressRecommendations returns a copy of d with the suppress
// flag set.
func (d Descriptor) WithSuppressRecommendations() Descriptor {
	d.SuppressRecommendations = true
	return d
}

func (d Descriptor) String() string {
	switch d.Kind {
	case KindSingle:
		return fmt.Sprintf("%s%s", d.Identifier, boundString(d.Bound))
	case KindAnyOf:
		s := "any of ("
		for i, alt := range d.Alternatives {
			if i > 0 {
				s += ", "
			}
			s += alt.String()
		}
		return s + ")"
	default:
		return "<invalid descriptor>"
	}
}

func boundString(b VersionBound) string {
	switch b.Kind {
	case Any:
		return ""
	case Exact:
		return " = " + b.ExactVersion.String()
	case RangeBound:
		s := ""
		if b.Min != nil {
			op := ">"
			if b.MinInclusive {
				op = ">="
			}
			s += " " + op + " " + b.Min.String()
		}
		if b.Max != nil {
			op := "<"
			if b.MaxInclusive {
				op = "<="
			}
			s += " " + op + " " + b.Max.String()
		}
		return s
	default:
		return ""
	}
}
