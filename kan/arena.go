package kan

// ReleaseRef is a generational handle to a Release held by a
// ReleaseArena: a (generation, slot) pair. It replaces the weak-
// reference style numeric IDs a GUI needs to refer to a release
// without holding a pointer to it; a stale ref (from a generation that
// has since been reset) fails lookup instead of resolving to the
// wrong release.
type ReleaseRef struct {
	generation uint32
	slot       uint32
}

// IsZero reports whether ref is the zero value (never registered).
func (ref ReleaseRef) IsZero() bool { return ref == ReleaseRef{} }

// ReleaseArena assigns and resolves ReleaseRef handles for releases
// exposed to a GUI. LookupOrRegister is a hashmap-keyed operation:
// this intentionally replaces the original implementation's O(n)
// linear equality scan on miss with a map keyed on the release's Key,
// which is the only change — generation/slot semantics are otherwise
// unchanged.
type ReleaseArena struct {
	generation uint32
	slots      []*Release
	byKey      map[Key]uint32
}

// NewReleaseArena returns an empty arena at generation 1. Generation 0
// is reserved so the zero ReleaseRef never resolves.
func NewReleaseArena() *ReleaseArena {
	return &ReleaseArena{
		generation: 1,
		byKey:      make(map[Key]uint32),
	}
}

// LookupOrRegister returns the existing ref for r if one was already
// registered in the current generation, or assigns and returns a new
// one.
func (a *ReleaseArena) LookupOrRegister(r *Release) ReleaseRef {
	key := KeyOf(r)
	if slot, ok := a.byKey[key]; ok {
		return ReleaseRef{generation: a.generation, slot: slot}
	}
	slot := uint32(len(a.slots))
	a.slots = append(a.slots, r)
	a.byKey[key] = slot
	return ReleaseRef{generation: a.generation, slot: slot}
}

// Resolve returns the release a ref points to, or (nil, false) if the
// ref is stale (from a prior generation) or otherwise invalid.
func (a *ReleaseArena) Resolve(ref ReleaseRef) (*Release, bool) {
	if ref.generation != a.generation {
		return nil, false
	}
	if int(ref.slot) >= len(a.slots) {
		return nil, false
	}
	return a.slots[ref.slot], true
}

// Reset discards all registered releases and advances the generation,
// invalidating every previously issued ReleaseRef. Called whenever a
// RepositoryIndex swap changes the set of releases a GUI might be
// holding refs to.
func (a *ReleaseArena) Reset() {
	a.generation++
	a.slots = nil
	a.byKey = make(map[Key]uint32)
}
