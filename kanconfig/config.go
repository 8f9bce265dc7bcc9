/*
Package kanconfig carries the knobs the core needs to run outside of a
test: cache directory, configured repositories, default stability
tolerance, user agent, and the metadata freshness thresholds. It is
loaded the way factorio-mod-updater loads its own JSON settings files:
read the raw bytes, json.Unmarshal into a struct, and fall back to
documented defaults when the file is absent.
*/
package kanconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// RepositoryEntry is one configured repository as it appears in the
// config file.
type RepositoryEntry struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	Priority int32  `json:"priority"`
}

// Config is the core's ambient configuration surface.
type Config struct {
	// CacheDir holds the per-repository cache files and etags.json.
	CacheDir string `json:"cache_dir"`

	// Repositories lists the configured metadata sources.
	Repositories []RepositoryEntry `json:"repositories"`

	// StabilityToleranceDefault is the default maximum pre-release
	// tier a query will accept absent an explicit override: one of
	// "stable", "testing", "development".
	StabilityToleranceDefault string `json:"stability_tolerance_default"`

	// UserAgent is sent with every HTTP request the pipeline makes.
	UserAgent string `json:"user_agent"`

	// GameShortName identifies the target game for cache-directory
	// naming and user agent construction (collab.Game.ShortName).
	GameShortName string `json:"game_short_name"`

	// RepositoryListURL and DefaultRepositoryURL back
	// collab.Game.RepositoryListURL/DefaultRepositoryURL for a CLI
	// that hasn't configured any repositories of its own yet.
	RepositoryListURL    string `json:"repository_list_url"`
	DefaultRepositoryURL string `json:"default_repository_url"`

	// TimeTillStale and TimeTillVeryStale are informational freshness
	// thresholds (spec §4.3): the update routine itself uses ETag
	// comparison, not age, but collaborators use these to decide when
	// to nag the user to run an update.
	TimeTillStale     time.Duration `json:"-"`
	TimeTillVeryStale time.Duration `json:"-"`
}

// defaults returns a Config populated with the documented defaults,
// used both as the zero-file fallback and as the base that a loaded
// file's fields are merged over.
func defaults() Config {
	return Config{
		CacheDir:                  defaultCacheDir(),
		StabilityToleranceDefault: "stable",
		UserAgent:                 "kan/1.0 (+https://github.com/lewisfm/CKAN)",
		GameShortName:             "KSP",
		RepositoryListURL:         "https://raw.githubusercontent.com/KSP-CKAN/CKAN-meta/master/repositories.json",
		DefaultRepositoryURL:      "https://github.com/KSP-CKAN/CKAN-meta/archive/master.tar.gz",
		TimeTillStale:             3 * 24 * time.Hour,
		TimeTillVeryStale:         14 * 24 * time.Hour,
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".kan-cache"
	}
	return dir + "/kan"
}

// Load reads path and merges it over the documented defaults. A
// missing file is not an error: Load returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := defaults()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("kanconfig: reading %s: %w", path, err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("kanconfig: parsing %s: %w", path, err)
	}
	return cfg, nil
}
