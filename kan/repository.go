package kan

// Repository is the metadata describing one configured source of mod
// releases: a name, a fetch URI, and a priority used to order results
// from get_available_modules and friends (lower priority value wins,
// ties broken by name ascending).
type Repository struct {
	Name     string
	URI      string
	Priority int32

	// IsMirror marks a repository that is only tried when its primary
	// sibling (MirrorOf) fails to update, rather than updated
	// independently.
	IsMirror bool
	MirrorOf string

	// XComment is free-form text carried from the repository list
	// entry for UI display; uninterpreted by the core.
	XComment string
}

// Less implements the repository ordering: lower Priority first, ties
// broken by Name ascending.
func (r Repository) Less(o Repository) bool {
	if r.Priority != o.Priority {
		return r.Priority < o.Priority
	}
	return r.Name < o.Name
}

// RepositoryIndex is the parsed, in-memory form of one repository's
// metadata file: its module catalog plus the side information the
// fetch pipeline and querier need.
type RepositoryIndex struct {
	Repository Repository
	Catalog    *ModuleCatalog

	// DownloadCounts maps identifier -> aggregate download count, as
	// published by the repository (not computed locally).
	DownloadCounts map[string]uint64

	// References records other repositories this one endorses (see
	// the repository reference graph).
	References []string

	// SupportedGameVersions is an informational hint published by the
	// repository about which game versions it targets; it does not
	// gate resolution, which instead checks each release's own
	// GameVersionCompatibility.
	SupportedGameVersions []string

	// UnsupportedSpec is set when any release in this index uses a
	// metadata spec version newer than this reader understands. The
	// index is still accepted, but Pipeline.Update reports
	// OutdatedClient.
	UnsupportedSpec bool
}

// NewRepositoryIndex returns an empty index for repo.
func NewRepositoryIndex(repo Repository) *RepositoryIndex {
	return &RepositoryIndex{
		Repository:     repo,
		Catalog:        NewModuleCatalog(),
		DownloadCounts: make(map[string]uint64),
	}
}

// DownloadCount returns the published download count for identifier,
// if known.
func (idx *RepositoryIndex) DownloadCount(identifier string) (uint64, bool) {
	n, ok := idx.DownloadCounts[identifier]
	return n, ok
}

// ReferenceGraph accumulates CreateRepoReference edges across all
// configured repositories: repository name -> names of repositories it
// references. It does not affect resolution; it exists purely so a UI
// can surface "this repo is endorsed by ...".
type ReferenceGraph struct {
	edges map[string]map[string]bool
}

// NewReferenceGraph returns an empty reference graph.
func NewReferenceGraph() *ReferenceGraph {
	return &ReferenceGraph{edges: make(map[string]map[string]bool)}
}

// CreateRepoReference records that referrer references ref.
func (g *ReferenceGraph) CreateRepoReference(referrer, ref string) {
	set, ok := g.edges[referrer]
	if !ok {
		set = make(map[string]bool)
		g.edges[referrer] = set
	}
	set[ref] = true
}

// ReferencesOf returns every repository name referrer references, in
// no particular order.
func (g *ReferenceGraph) ReferencesOf(referrer string) []string {
	set, ok := g.edges[referrer]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for ref := range set {
		out = append(out, ref)
	}
	return out
}
