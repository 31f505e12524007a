package health

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"pub-health/manifest"
)

var versionStripper = strings.NewReplacer(
	" ", "", "^", "", "~", "", ">", "", "=", "", "<", "", `"`, "", "'", "",
)

// IsOutdated reports whether latest is strictly newer than current when both
// are compared as MAJOR.MINOR.PATCH integer tuples. Pre-release and build
// suffixes are ignored, so versions that differ only there compare equal.
func IsOutdated(current, latest string) bool {
	if current == "" || latest == "" {
		return false
	}
	switch current {
	case manifest.VersionAny, manifest.VersionPath, manifest.VersionGit:
		return false
	}

	c := versionTuple(current)
	l := versionTuple(latest)
	for i := range c {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

func versionTuple(v string) [3]int {
	var tuple [3]int
	parts := strings.Split(versionStripper.Replace(v), ".")
	for i := 0; i < len(tuple) && i < len(parts); i++ {
		tuple[i] = leadingInt(parts[i])
	}
	return tuple
}

// leadingInt parses the leading decimal digits of s, 0 if there are none.
func leadingInt(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// UpdateKind names the most significant component that changed between
// current and latest: "major", "minor" or "patch". It is empty when the
// dependency is not outdated or either version is not valid semver.
func UpdateKind(current, latest string) string {
	if !IsOutdated(current, latest) {
		return ""
	}
	cv, err := semver.NewVersion(versionStripper.Replace(current))
	if err != nil {
		return ""
	}
	lv, err := semver.NewVersion(latest)
	if err != nil {
		return ""
	}

	switch {
	case lv.Major() > cv.Major():
		return "major"
	case lv.Minor() > cv.Minor():
		return "minor"
	default:
		return "patch"
	}
}
