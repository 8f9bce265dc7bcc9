package registry

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/lewisfm/CKAN/kan"
)

// This file parses the repository list document fetched from
// game.RepositoryListURL (spec.md §6): a JSON object naming the
// repositories a fresh install should configure. x_mirror and
// x_comment are the two CKAN-native extension fields original_source/
// carries that spec.md's distillation didn't call out explicitly;
// both are supplemented here since neither is excluded by a Non-goal.

type wireRepositoryEntry struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	Priority int32  `json:"priority"`
	XMirror  bool   `json:"x_mirror,omitempty"`
	XComment string `json:"x_comment,omitempty"`
}

type wireRepositoryList struct {
	Repositories []wireRepositoryEntry `json:"repositories"`
}

// ParseRepositoryList decodes the repository list document fetched
// from a game's RepositoryListURL into Repository values. A mirror
// entry (x_mirror) is resolved against the nearest preceding
// non-mirror entry in the same document, which is taken as the
// primary it mirrors; a mirror with no preceding primary is an error,
// since it would never be tried by Pipeline.Update's mirror fallback.
func ParseRepositoryList(raw []byte) ([]kan.Repository, error) {
	var doc wireRepositoryList
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("registry: parsing repository list: %w", err)
	}

	out := make([]kan.Repository, 0, len(doc.Repositories))
	lastPrimary := ""
	for _, e := range doc.Repositories {
		repo := kan.Repository{
			Name:     e.Name,
			URI:      e.URI,
			Priority: e.Priority,
			IsMirror: e.XMirror,
			XComment: e.XComment,
		}
		if e.XMirror {
			if lastPrimary == "" {
				return nil, fmt.Errorf("registry: repository list: mirror %q has no preceding primary repository", e.Name)
			}
			repo.MirrorOf = lastPrimary
		} else {
			lastPrimary = e.Name
		}
		out = append(out, repo)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out, nil
}
