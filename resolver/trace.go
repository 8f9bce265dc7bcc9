package resolver

import (
	"fmt"
	"strings"
)

const (
	successChar = "✓" // ✓
	failChar    = "✗" // ✗
)

// Trace is a path of ResolvedRelationships from a user request down to
// an unsatisfiable ByNew leaf, the primary explanation surfaced to a
// caller asking "why could this not be installed".
type Trace []*ResolvedRelationship

// Render formats the trace as an indented, glyph-prefixed tree for
// human consumption (a terse CLI rendering, not meant for machine
// parsing).
func (t Trace) Render() string {
	var b strings.Builder
	for depth, rr := range t {
		prefix := strings.Repeat("  ", depth)
		glyph := successChar
		if rr.Unsatisfied() {
			glyph = failChar
		}
		source := "user"
		if rr.Source != nil {
			source = rr.Source.Identifier
		}
		fmt.Fprintf(&b, "%s%s %s -> %s\n", prefix, glyph, source, rr.Descriptor.String())
	}
	return b.String()
}

// collectTraces walks rr's Providers tree, appending one Trace per
// path that bottoms out at an unsatisfiable leaf. It only descends
// into a ByNew node that is itself Unsatisfied: a node some provider
// resolved successfully needs no explaining, even though its Providers
// map may still list other candidates that were tried and rejected
// along the way.
func collectTraces(rr *ResolvedRelationship, path Trace, out *[]Trace) {
	path = append(path, rr)
	if rr.Kind != ByNew || !rr.Unsatisfied() {
		return
	}
	if len(rr.Providers) == 0 {
		cp := make(Trace, len(path))
		copy(cp, path)
		*out = append(*out, cp)
		return
	}
	for _, children := range rr.Providers {
		for _, child := range children {
			collectTraces(child, path, out)
		}
	}
}
