package kan

import "sort"

// ModuleCatalog maps identifier -> version string -> Release within a
// single repository.
type ModuleCatalog struct {
	modules map[string]map[string]*Release
}

// NewModuleCatalog returns an empty catalog.
func NewModuleCatalog() *ModuleCatalog {
	return &ModuleCatalog{modules: make(map[string]map[string]*Release)}
}

// Put installs r into the catalog, replacing any existing release
// with the same identifier and version string.
func (c *ModuleCatalog) Put(r *Release) {
	versions, ok := c.modules[r.Identifier]
	if !ok {
		versions = make(map[string]*Release)
		c.modules[r.Identifier] = versions
	}
	versions[r.Version.String()] = r
}

// Get returns the release for identifier at the given version string,
// if present.
func (c *ModuleCatalog) Get(identifier, versionString string) (*Release, bool) {
	versions, ok := c.modules[identifier]
	if !ok {
		return nil, false
	}
	r, ok := versions[versionString]
	return r, ok
}

// Releases returns every release published under identifier, sorted
// strictly newest-first (spec invariant: get_available_modules
// returns releases in strictly decreasing version order).
func (c *ModuleCatalog) Releases(identifier string) []*Release {
	versions, ok := c.modules[identifier]
	if !ok {
		return nil
	}
	out := make([]*Release, 0, len(versions))
	for _, r := range versions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Version.Compare(out[j].Version) > 0
	})
	return out
}

// Identifiers returns every identifier with at least one published
// release, in ascending order.
func (c *ModuleCatalog) Identifiers() []string {
	out := make([]string, 0, len(c.modules))
	for id := range c.modules {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// All returns every release in the catalog, in no particular order.
func (c *ModuleCatalog) All() []*Release {
	var out []*Release
	for _, versions := range c.modules {
		for _, r := range versions {
			out = append(out, r)
		}
	}
	return out
}

// ProvidedBy returns every release across the catalog whose Provides
// list includes identifier, sorted newest-first.
func (c *ModuleCatalog) ProvidedBy(identifier string) []*Release {
	var out []*Release
	for _, versions := range c.modules {
		for _, r := range versions {
			for _, p := range r.Provides {
				if p == identifier {
					out = append(out, r)
					break
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Version.Compare(out[j].Version) > 0
	})
	return out
}
