/*
Package kan holds the core data model: releases, the per-repository
module catalog, the repository index, and the repository reference
graph. Releases are immutable once constructed; the pipeline and
resolver build new values rather than mutating them in place. The
container types (ModuleCatalog, ReleaseArena, ReferenceGraph) are
filled in place through their methods.
*/
package kan

import (
	"github.com/lewisfm/CKAN/gamever"
	"github.com/lewisfm/CKAN/relationship"
	"github.com/lewisfm/CKAN/version"
)

// Kind distinguishes the three release shapes a repository can publish.
type Kind int

const (
	// Package is an ordinary installable mod.
	Package Kind = iota
	// Metapackage has no payload of its own; it exists purely to
	// bundle a set of dependencies under one identifier.
	Metapackage
	// DLC describes a first-party add-on. Releases of this kind are
	// never downloaded by the pipeline; they exist so a DLC can be
	// depended upon like any other release.
	DLC
)

func (k Kind) String() string {
	switch k {
	case Package:
		return "package"
	case Metapackage:
		return "metapackage"
	case DLC:
		return "dlc"
	default:
		return "unknown"
	}
}

// Stability is the pre-release tier a release is published at.
// Querier callers filter by a maximum tolerated Stability.
type Stability int

const (
	Stable Stability = iota
	Testing
	Development
)

func (s Stability) String() string {
	switch s {
	case Stable:
		return "stable"
	case Testing:
		return "testing"
	case Development:
		return "development"
	default:
		return "unknown"
	}
}

// Exceeds reports whether s is a looser tolerance than max, i.e.
// whether a release published at s should be excluded when the caller
// only tolerates up to max.
func (s Stability) Exceeds(max Stability) bool { return s > max }

// Release is the atomic unit of the catalog: one installable version
// of one mod. Releases are created by deserialization and never
// mutated afterward; ownership belongs to whichever RepositoryIndex
// last installed them.
type Release struct {
	Identifier string
	Version    version.Version

	GameVersionCompatibility []gamever.Range

	Depends     []relationship.Descriptor
	Recommends  []relationship.Descriptor
	Suggests    []relationship.Descriptor
	Conflicts   []relationship.Descriptor
	Supports    []relationship.Descriptor
	ReplacedBy  []relationship.Descriptor
	Provides    []string

	DownloadURL        string
	DownloadHashSHA256 string
	DownloadSize       uint64

	Kind      Kind
	Stability Stability

	// Presentation fields: carried but never semantically interpreted
	// by this package.
	Name     string
	Abstract string
	License  string
	Author   string
}

// CandidateIdentifier implements relationship.Candidate.
func (r *Release) CandidateIdentifier() string { return r.Identifier }

// CandidateProvides implements relationship.Candidate.
func (r *Release) CandidateProvides() []string { return r.Provides }

// CandidateVersion implements relationship.Candidate.
func (r *Release) CandidateVersion() version.Version { return r.Version }

// CompatibleWith reports whether r supports every version in crit.
func (r *Release) CompatibleWith(crit gamever.Criteria) bool {
	return crit.CompatibleWith(r.GameVersionCompatibility)
}

// Satisfies reports whether r's identifier or provides list includes
// identifier and r's version lies within bound.
func (r *Release) Satisfies(identifier string, bound relationship.VersionBound) bool {
	if r.Identifier == identifier && bound.Contains(r.Version) {
		return true
	}
	for _, p := range r.Provides {
		if p == identifier && bound.Contains(r.Version) {
			return true
		}
	}
	return false
}

// Key uniquely identifies a release within its repository: identifier
// plus the exact version string it was published under.
type Key struct {
	Identifier string
	Version    string
}

// KeyOf returns r's catalog key.
func KeyOf(r *Release) Key {
	return Key{Identifier: r.Identifier, Version: r.Version.String()}
}
