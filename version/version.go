/*
Package version implements mod release version parsing and comparison.

Versions are of the form "[epoch:]upstream[-release]", compared
lexicographically on the (epoch, upstream, release) tuple using a
Debian-style segment comparison: runs of digits compare numerically,
runs of non-digits compare by codepoint with '~' sorting before the
empty string, and the empty string sorting before any other character.
A missing release component sorts before any present one.
*/
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed, orderable mod release version.
type Version struct {
	Epoch      int
	Upstream   string
	Release    string
	HasRelease bool

	// raw holds the original input string. String() does not read it;
	// it rebuilds the canonical form from the fields above.
	raw string
}

// Parse parses a version string of the form "[epoch:]upstream[-release]".
// The epoch, if present, must be a non-negative integer followed by ':'.
// The release, if present, is introduced by the last '-' in the string.
func Parse(s string) (Version, error) {
	v := Version{raw: s}
	rest := s

	if i := strings.IndexByte(rest, ':'); i >= 0 {
		epochStr := rest[:i]
		e, err := strconv.Atoi(epochStr)
		if err != nil || e < 0 {
			return Version{}, fmt.Errorf("version %q: invalid epoch %q", s, epochStr)
		}
		v.Epoch = e
		rest = rest[i+1:]
	}

	if i := strings.LastIndexByte(rest, '-'); i >= 0 {
		v.Upstream = rest[:i]
		v.Release = rest[i+1:]
		v.HasRelease = true
	} else {
		v.Upstream = rest
	}

	if v.Upstream == "" {
		return Version{}, fmt.Errorf("version %q: empty upstream component", s)
	}
	return v, nil
}

// MustParse parses s and panics on error. Intended for tests and literals.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the version in canonical "[epoch:]upstream[-release]" form.
func (v Version) String() string {
	var b strings.Builder
	if v.Epoch != 0 {
		fmt.Fprintf(&b, "%d:", v.Epoch)
	}
	b.WriteString(v.Upstream)
	if v.HasRelease {
		b.WriteByte('-')
		b.WriteString(v.Release)
	}
	return b.String()
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater
// than o, ordering first by epoch, then upstream, then release with a
// missing release sorting before any present one.
func (v Version) Compare(o Version) int {
	if v.Epoch != o.Epoch {
		if v.Epoch < o.Epoch {
			return -1
		}
		return 1
	}
	if c := compareSegments(v.Upstream, o.Upstream); c != 0 {
		return c
	}
	if !v.HasRelease && !o.HasRelease {
		return 0
	}
	if !v.HasRelease {
		return -1
	}
	if !o.HasRelease {
		return 1
	}
	return compareSegments(v.Release, o.Release)
}

// Less reports whether v sorts strictly before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Equal reports whether v and o compare equal.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// compareSegments implements the Debian-style digit/non-digit run
// comparison between two version component strings.
func compareSegments(a, b string) int {
	for len(a) > 0 || len(b) > 0 {
		// Peel off a non-digit run from each and compare it first.
		na, ra := splitNonDigits(a)
		nb, rb := splitNonDigits(b)
		if c := compareNonDigitRuns(na, nb); c != 0 {
			return c
		}
		a, b = ra, rb

		// Then peel off a digit run from each and compare numerically.
		da, ra := splitDigits(a)
		db, rb := splitDigits(b)
		if c := compareNumericRuns(da, db); c != 0 {
			return c
		}
		a, b = ra, rb

		if na == "" && da == "" && nb == "" && db == "" {
			break
		}
	}
	return 0
}

func splitNonDigits(s string) (run, rest string) {
	i := 0
	for i < len(s) && !isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func splitDigits(s string) (run, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// compareNonDigitRuns compares two non-digit runs codepoint by codepoint,
// treating '~' as sorting before the empty string, and the empty string
// as sorting before any other character.
func compareNonDigitRuns(a, b string) int {
	for i := 0; ; i++ {
		var ca, cb byte
		aOK, bOK := i < len(a), i < len(b)
		if aOK {
			ca = a[i]
		}
		if bOK {
			cb = b[i]
		}
		if !aOK && !bOK {
			return 0
		}
		oa, ob := charOrder(ca, aOK), charOrder(cb, bOK)
		if oa != ob {
			if oa < ob {
				return -1
			}
			return 1
		}
		if aOK && bOK && ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
}

// charOrder assigns a sortable rank to a byte under Debian ordering
// rules: '~' is lowest, then "absent" (end of string), then all other
// bytes by codepoint.
func charOrder(c byte, present bool) int {
	if !present {
		return 1
	}
	if c == '~' {
		return 0
	}
	return 2000 + int(c)
}

func compareNumericRuns(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
