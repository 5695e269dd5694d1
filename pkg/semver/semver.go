// Package semver implements a small semantic version type tolerant of
// loosely formatted release tags (optional leading 'v', build metadata).
// The CLI's update fallback uses it to rank GitHub release tags that the
// stricter parser in the self-update library rejects.
package semver

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a semantic version: core triple plus optional pre-release
// identifiers and build metadata.
type Version struct {
	Major int
	Minor int
	Patch int
	Pre   []string
	Build string
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if len(v.Pre) > 0 {
		s += "-" + strings.Join(v.Pre, ".")
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

// Parse parses a semantic version string, allowing an optional leading 'v'.
func Parse(s string) (Version, error) {
	orig := s
	if len(s) > 0 && (s[0] == 'v' || s[0] == 'V') {
		s = s[1:]
	}
	var v Version
	if idx := strings.IndexByte(s, '+'); idx >= 0 {
		v.Build = s[idx+1:]
		s = s[:idx]
	}
	if idx := strings.IndexByte(s, '-'); idx >= 0 {
		v.Pre = strings.Split(s[idx+1:], ".")
		s = s[:idx]
	}
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid semver (need major.minor.patch): %s", orig)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid semver component %q in %s", p, orig)
		}
		nums[i] = n
	}
	v.Major, v.Minor, v.Patch = nums[0], nums[1], nums[2]
	return v, nil
}

// Compare returns -1, 0 or 1 ordering v against o by semver precedence.
// Build metadata is ignored.
func (v Version) Compare(o Version) int {
	if c := compareInt(v.Major, o.Major); c != 0 {
		return c
	}
	if c := compareInt(v.Minor, o.Minor); c != 0 {
		return c
	}
	if c := compareInt(v.Patch, o.Patch); c != 0 {
		return c
	}
	return comparePre(v.Pre, o.Pre)
}

// GT reports whether v has higher precedence than o.
func (v Version) GT(o Version) bool {
	return v.Compare(o) > 0
}

// Equals reports whether v and o are equal for update purposes. Build
// metadata is ignored.
func (v Version) Equals(o Version) bool {
	return v.Compare(o) == 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// comparePre orders pre-release identifier lists. A release (no pre-release)
// has higher precedence than any pre-release.
func comparePre(a, b []string) int {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	if len(a) == 0 {
		return 1
	}
	if len(b) == 0 {
		return -1
	}
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := comparePreID(a[i], b[i]); c != 0 {
			return c
		}
	}
	// all shared identifiers equal; the longer list wins
	return compareInt(len(a), len(b))
}

// comparePreID orders two pre-release identifiers: numeric identifiers
// compare numerically and rank below alphanumeric ones.
func comparePreID(a, b string) int {
	an, aerr := strconv.Atoi(a)
	bn, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return compareInt(an, bn)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
