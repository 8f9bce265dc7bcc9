package gamever

// Range is a game-version compatibility range with independent
// inclusivity flags on each bound. A nil Min or Max bound means the
// range is unbounded on that side.
type Range struct {
	Min          *Version
	Max          *Version
	MinInclusive bool
	MaxInclusive bool
}

// Exact returns a Range matching only v.
func Exact(v Version) Range {
	return Range{Min: &v, Max: &v, MinInclusive: true, MaxInclusive: true}
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v Version) bool {
	if r.Min != nil {
		c := v.Compare(*r.Min)
		if c < 0 || (c == 0 && !r.MinInclusive) {
			return false
		}
	}
	if r.Max != nil {
		c := v.Compare(*r.Max)
		if c > 0 || (c == 0 && !r.MaxInclusive) {
			return false
		}
	}
	return true
}

// Intersect returns the intersection of r and o, and whether that
// intersection is non-empty. An empty intersection means the two
// ranges are incompatible.
func (r Range) Intersect(o Range) (Range, bool) {
	out := Range{Min: r.Min, MinInclusive: r.MinInclusive, Max: r.Max, MaxInclusive: r.MaxInclusive}

	if o.Min != nil && (out.Min == nil || o.Min.Compare(*out.Min) > 0) {
		out.Min, out.MinInclusive = o.Min, o.MinInclusive
	} else if o.Min != nil && out.Min != nil && o.Min.Compare(*out.Min) == 0 {
		out.MinInclusive = out.MinInclusive && o.MinInclusive
	}

	if o.Max != nil && (out.Max == nil || o.Max.Compare(*out.Max) < 0) {
		out.Max, out.MaxInclusive = o.Max, o.MaxInclusive
	} else if o.Max != nil && out.Max != nil && o.Max.Compare(*out.Max) == 0 {
		out.MaxInclusive = out.MaxInclusive && o.MaxInclusive
	}

	if out.Min != nil && out.Max != nil {
		c := out.Min.Compare(*out.Max)
		if c > 0 || (c == 0 && !(out.MinInclusive && out.MaxInclusive)) {
			return Range{}, false
		}
	}
	return out, true
}

// Criteria is a set of concrete game versions a release is checked
// for compatibility against (e.g. the versions the user's currently
// installed game build, and any compatible builds it declares).
type Criteria struct {
	Versions []Version
}

// NewCriteria builds a Criteria from a list of concrete versions.
func NewCriteria(vs ...Version) Criteria {
	return Criteria{Versions: vs}
}

// CompatibleWith reports whether every version in the criteria lies in
// at least one of the given ranges (spec.md §4.1: "a release is
// compatible with a GameVersionCriteria iff each criterion lies in at
// least one of the release's compatibility ranges").
func (c Criteria) CompatibleWith(ranges []Range) bool {
	if len(c.Versions) == 0 {
		return true
	}
	for _, v := range c.Versions {
		ok := false
		for _, r := range ranges {
			if r.Contains(v) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
