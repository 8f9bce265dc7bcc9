package relationship

import (
	"encoding/json"
	"fmt"

	"github.com/lewisfm/CKAN/version"
)

// wireBound is the on-disk shape of a VersionBound.
type wireBound struct {
	Kind         string `json:"kind,omitempty"`
	Version      string `json:"version,omitempty"`
	Min          string `json:"min,omitempty"`
	Max          string `json:"max,omitempty"`
	MinInclusive bool   `json:"min_inclusive,omitempty"`
	MaxInclusive bool   `json:"max_inclusive,omitempty"`
}

func (b VersionBound) toWire() wireBound {
	switch b.Kind {
	case Exact:
		return wireBound{Kind: "exact", Version: b.ExactVersion.String()}
	case RangeBound:
		w := wireBound{Kind: "range", MinInclusive: b.MinInclusive, MaxInclusive: b.MaxInclusive}
		if b.Min != nil {
			w.Min = b.Min.String()
		}
		if b.Max != nil {
			w.Max = b.Max.String()
		}
		return w
	default:
		return wireBound{Kind: "any"}
	}
}

func boundFromWire(w wireBound) (VersionBound, error) {
	switch w.Kind {
	case "", "any":
		return VersionBound{Kind: Any}, nil
	case "exact":
		v, err := version.Parse(w.Version)
		if err != nil {
			return VersionBound{}, fmt.Errorf("relationship: exact bound: %w", err)
		}
		return VersionBound{Kind: Exact, ExactVersion: v}, nil
	case "range":
		b := VersionBound{Kind: RangeBound, MinInclusive: w.MinInclusive, MaxInclusive: w.MaxInclusive}
		if w.Min != "" {
			v, err := version.Parse(w.Min)
			if err != nil {
				return VersionBound{}, fmt.Errorf("relationship: range min: %w", err)
			}
			b.Min = &v
		}
		if w.Max != "" {
			v, err := version.Parse(w.Max)
			if err != nil {
				return VersionBound{}, fmt.Errorf("relationship: range max: %w", err)
			}
			b.Max = &v
		}
		return b, nil
	default:
		return VersionBound{}, fmt.Errorf("relationship: unknown version bound kind %q", w.Kind)
	}
}

// wireDescriptor is the on-disk shape of a Descriptor: either a single
// identifier/bound pair, or an any_of alternation. A descriptor record
// with a non-empty AnyOf is treated as an AnyOf regardless of whether
// Identifier is also set.
type wireDescriptor struct {
	Identifier              string           `json:"identifier,omitempty"`
	VersionBound            *wireBound       `json:"version_bound,omitempty"`
	AnyOf                   []wireDescriptor `json:"any_of,omitempty"`
	SuppressRecommendations bool             `json:"suppress_recommendations,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.toWire())
}

func (d Descriptor) toWire() wireDescriptor {
	w := wireDescriptor{SuppressRecommendations: d.SuppressRecommendations}
	switch d.Kind {
	case KindAnyOf:
		w.AnyOf = make([]wireDescriptor, len(d.Alternatives))
		for i, alt := range d.Alternatives {
			w.AnyOf[i] = alt.toWire()
		}
	default:
		w.Identifier = d.Identifier
		bound := d.Bound.toWire()
		w.VersionBound = &bound
	}
	return w
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var w wireDescriptor
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := descriptorFromWire(w)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func descriptorFromWire(w wireDescriptor) (Descriptor, error) {
	if len(w.AnyOf) > 0 {
		alts := make([]Descriptor, len(w.AnyOf))
		for i, wa := range w.AnyOf {
			alt, err := descriptorFromWire(wa)
			if err != nil {
				return Descriptor{}, err
			}
			alts[i] = alt
		}
		return Descriptor{Kind: KindAnyOf, Alternatives: alts, SuppressRecommendations: w.SuppressRecommendations}, nil
	}

	bound := VersionBound{Kind: Any}
	if w.VersionBound != nil {
		b, err := boundFromWire(*w.VersionBound)
		if err != nil {
			return Descriptor{}, err
		}
		bound = b
	}
	return Descriptor{
		Kind:                    KindSingle,
		Identifier:              w.Identifier,
		Bound:                   bound,
		SuppressRecommendations: w.SuppressRecommendations,
	}, nil
}
