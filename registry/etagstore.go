package registry

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/lewisfm/CKAN/internal/atomicfile"
)

// ETagStore is the persisted URL -> ETag map. It is read once at
// startup, mutated only during an Update call, and persisted
// transactionally at the end of a successful update.
type ETagStore struct {
	path  string
	etags map[string]string
}

// LoadETagStore reads path (a JSON object of url -> etag) and returns
// a store seeded with its contents. A missing file, or one that fails
// to parse, is not fatal: per spec, "unreadable etags.json" starts
// fresh with a logged warning rather than aborting.
func LoadETagStore(path string) *ETagStore {
	s := &ETagStore{path: path, etags: make(map[string]string)}
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("kan: warning: reading %s: %v; starting with an empty etag store", path, err)
		}
		return s
	}
	if len(raw) == 0 {
		return s
	}
	if err := json.Unmarshal(raw, &s.etags); err != nil {
		log.Printf("kan: warning: parsing %s: %v; starting with an empty etag store", path, err)
		s.etags = make(map[string]string)
	}
	return s
}

// Get returns the recorded ETag for url, if any.
func (s *ETagStore) Get(url string) (string, bool) {
	etag, ok := s.etags[url]
	return etag, ok
}

// Set records etag for url.
func (s *ETagStore) Set(url, etag string) {
	s.etags[url] = etag
}

// Clear removes any recorded ETag for url (the download came back with
// an empty body, as on a 304, or the server sent no ETag header).
func (s *ETagStore) Clear(url string) {
	delete(s.etags, url)
}

// Persist writes the store to disk transactionally (temp file, fsync,
// rename), matching spec invariant 1: on successful update, the
// on-disk file exactly matches the in-memory map at return time.
func (s *ETagStore) Persist() error {
	raw, err := json.MarshalIndent(s.etags, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: marshaling etag store: %w", err)
	}
	if err := atomicfile.Write(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("registry: persisting etag store: %w", err)
	}
	return nil
}

// Reload discards in-memory changes and re-reads the store from disk,
// the rollback primitive Update uses when a download or parse fails
// partway through: any ETags recorded or cleared during the failed
// update are discarded, restoring the pre-call disk state.
func (s *ETagStore) Reload() {
	fresh := LoadETagStore(s.path)
	s.etags = fresh.etags
}

// Snapshot returns a copy of the current url -> etag map, primarily
// for tests that want to assert on-disk/in-memory equality.
func (s *ETagStore) Snapshot() map[string]string {
	out := make(map[string]string, len(s.etags))
	for k, v := range s.etags {
		out[k] = v
	}
	return out
}
