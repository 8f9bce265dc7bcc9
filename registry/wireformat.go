package registry

import (
	"encoding/json"
	"fmt"

	"github.com/lewisfm/CKAN/gamever"
	"github.com/lewisfm/CKAN/kan"
	"github.com/lewisfm/CKAN/relationship"
	"github.com/lewisfm/CKAN/version"
)

// This file defines the JSON wire format for a repository metadata
// file: the top-level document persisted to <cache>/<hash>-<name>.json
// and fetched from each configured repository's URI. Per-release
// fields this reader doesn't recognize are simply dropped when a
// wireRelease is decoded into a kan.Release; round-trip fidelity for
// the document as a whole is instead preserved at the file level,
// since Pipeline.Update persists the raw downloaded bytes verbatim
// (internal/atomicfile.Write) rather than re-serializing parsed
// content, matching spec.md §6's "unknown fields... ignored
// semantically".

const maxSupportedSpecVersion = 1

type wireGameVersionRange struct {
	Min          string `json:"min,omitempty"`
	Max          string `json:"max,omitempty"`
	MinInclusive bool   `json:"min_inclusive,omitempty"`
	MaxInclusive bool   `json:"max_inclusive,omitempty"`
}

type wireRelease struct {
	SpecVersion int    `json:"spec_version"`
	Identifier  string `json:"identifier"`
	Version     string `json:"version"`

	GameVersionCompatibility []wireGameVersionRange `json:"game_version_compatibility,omitempty"`

	Depends    []relationship.Descriptor `json:"depends,omitempty"`
	Recommends []relationship.Descriptor `json:"recommends,omitempty"`
	Suggests   []relationship.Descriptor `json:"suggests,omitempty"`
	Conflicts  []relationship.Descriptor `json:"conflicts,omitempty"`
	Supports   []relationship.Descriptor `json:"supports,omitempty"`
	ReplacedBy []relationship.Descriptor `json:"replaced_by,omitempty"`
	Provides   []string                  `json:"provides,omitempty"`

	DownloadURL        string `json:"download_url,omitempty"`
	DownloadHashSHA256 string `json:"download_hash_sha256,omitempty"`
	DownloadSize       uint64 `json:"download_size,omitempty"`

	Kind      string `json:"kind,omitempty"`
	Stability string `json:"stability,omitempty"`

	Name     string `json:"name,omitempty"`
	Abstract string `json:"abstract,omitempty"`
	License  string `json:"license,omitempty"`
	Author   string `json:"author,omitempty"`
}

type wireRepositoryIndex struct {
	Releases              []wireRelease     `json:"releases"`
	DownloadCounts        map[string]uint64 `json:"download_counts,omitempty"`
	References            []string          `json:"references,omitempty"`
	SupportedGameVersions []string          `json:"supported_game_versions,omitempty"`
}

func kindFromWire(s string) kan.Kind {
	switch s {
	case "metapackage":
		return kan.Metapackage
	case "dlc":
		return kan.DLC
	default:
		return kan.Package
	}
}

func stabilityFromWire(s string) kan.Stability {
	switch s {
	case "testing":
		return kan.Testing
	case "development":
		return kan.Development
	default:
		return kan.Stable
	}
}

func rangeFromWire(w wireGameVersionRange) (gamever.Range, error) {
	r := gamever.Range{MinInclusive: w.MinInclusive, MaxInclusive: w.MaxInclusive}
	if w.Min != "" {
		v, err := gamever.Parse(w.Min)
		if err != nil {
			return gamever.Range{}, err
		}
		r.Min = &v
	}
	if w.Max != "" {
		v, err := gamever.Parse(w.Max)
		if err != nil {
			return gamever.Range{}, err
		}
		r.Max = &v
	}
	return r, nil
}

// parseRepositoryIndex decodes raw into a RepositoryIndex for repo.
// A release whose spec_version exceeds what this reader understands is
// skipped from the catalog but sets UnsupportedSpec, matching spec.md
// §4.3/§7's UnsupportedSpec handling (the index is still accepted).
func parseRepositoryIndex(repo kan.Repository, raw []byte) (*kan.RepositoryIndex, error) {
	var doc wireRepositoryIndex
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("registry: parsing repository %s: %w", repo.Name, err)
	}

	idx := kan.NewRepositoryIndex(repo)
	idx.DownloadCounts = doc.DownloadCounts
	if idx.DownloadCounts == nil {
		idx.DownloadCounts = make(map[string]uint64)
	}
	idx.References = doc.References
	idx.SupportedGameVersions = doc.SupportedGameVersions

	for _, wr := range doc.Releases {
		if wr.SpecVersion > maxSupportedSpecVersion {
			idx.UnsupportedSpec = true
			continue
		}
		r, err := releaseFromWire(wr)
		if err != nil {
			return nil, fmt.Errorf("registry: parsing repository %s: %w", repo.Name, err)
		}
		idx.Catalog.Put(r)
	}
	return idx, nil
}

func releaseFromWire(wr wireRelease) (*kan.Release, error) {
	v, err := version.Parse(wr.Version)
	if err != nil {
		return nil, fmt.Errorf("release %s: %w", wr.Identifier, err)
	}

	compat := make([]gamever.Range, 0, len(wr.GameVersionCompatibility))
	for _, wg := range wr.GameVersionCompatibility {
		r, err := rangeFromWire(wg)
		if err != nil {
			return nil, fmt.Errorf("release %s: game version range: %w", wr.Identifier, err)
		}
		compat = append(compat, r)
	}

	return &kan.Release{
		Identifier:               wr.Identifier,
		Version:                  v,
		GameVersionCompatibility: compat,
		Depends:                  wr.Depends,
		Recommends:               wr.Recommends,
		Suggests:                 wr.Suggests,
		Conflicts:                wr.Conflicts,
		Supports:                 wr.Supports,
		ReplacedBy:               wr.ReplacedBy,
		Provides:                 wr.Provides,
		DownloadURL:              wr.DownloadURL,
		DownloadHashSHA256:       wr.DownloadHashSHA256,
		DownloadSize:             wr.DownloadSize,
		Kind:                     kindFromWire(wr.Kind),
		Stability:                stabilityFromWire(wr.Stability),
		Name:                     wr.Name,
		Abstract:                 wr.Abstract,
		License:                  wr.License,
		Author:                   wr.Author,
	}, nil
}
