/*
Package gamever represents concrete game versions, compatibility ranges
over them, and the criteria a release is checked against.
*/
package gamever

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is a concrete game build version, such as "1.12.5".
//
// Game versions in this domain are semver-shaped (major.minor.patch),
// unlike mod release versions (package version), so this wraps
// Masterminds/semver/v3 rather than reimplementing segment comparison.
type Version struct {
	raw string
	sv  *semver.Version
}

// Parse parses a concrete game version string.
func Parse(s string) (Version, error) {
	sv, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("game version %q: %w", s, err)
	}
	return Version{raw: s, sv: sv}, nil
}

// MustParse parses s and panics on error. Intended for tests and literals.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string { return v.raw }

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool { return v.sv == nil }

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than o.
func (v Version) Compare(o Version) int { return v.sv.Compare(o.sv) }

// Less reports whether v sorts strictly before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Major returns the major component, used to collapse a concrete
// version down to a "branch" when a release only declares major.minor
// compatibility.
func (v Version) Major() uint64 { return v.sv.Major() }

// Minor returns the minor component.
func (v Version) Minor() uint64 { return v.sv.Minor() }
