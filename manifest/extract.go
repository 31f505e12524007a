package manifest

import (
	"regexp"
	"strings"
)

type section int

const (
	sectionNone section = iota
	sectionDependencies
	sectionDevDependencies
)

const (
	namePattern    = `([a-z_][a-z0-9_]*)\s*:\s*`
	versionPattern = `(?:\^|~|>=|<=|>|<)?\s*(\d+\.\d+\.\d+[0-9a-z.+\-]*)`
)

var (
	pinnedRE = regexp.MustCompile(`(?i)^` + namePattern + versionPattern + `(?:\s.*)?$`)
	quotedRE = regexp.MustCompile(`(?i)^` + namePattern + `["']\s*` + versionPattern + `[^"']*["'](?:\s.*)?$`)
	anyRE    = regexp.MustCompile(`(?i)^` + namePattern + `any\s*(?:#.*)?$`)
	bareRE   = regexp.MustCompile(`(?i)^` + namePattern + `(?:#.*)?$`)
)

var sourceKeys = []string{VersionPath, VersionGit, VersionSDK}

// platformPackages ship with the SDK and are never looked up in the registry.
var platformPackages = map[string]bool{
	"flutter":               true,
	"flutter_test":          true,
	"flutter_localizations": true,
	"flutter_driver":        true,
	"flutter_web_plugins":   true,
	"integration_test":      true,
	"sky_engine":            true,
}

// Extract returns the registry dependencies declared in the dependencies and
// dev_dependencies sections of a manifest.
//
// A name declared more than once keeps the version of its last declaration
// and the position of its first one. Declarations whose version cannot be
// resolved from the key line or the line right after it are dropped.
func Extract(text string) []Dependency {
	return ExtractLines(Scan(text))
}

func ExtractLines(lines []Line) []Dependency {
	var (
		found       []Dependency
		state       = sectionNone
		entryIndent = -1
	)

	for i, l := range lines {
		if l.Skip() {
			continue
		}
		if l.Indent == 0 {
			state = nextSection(l)
			entryIndent = -1
			continue
		}
		if state == sectionNone {
			continue
		}
		if entryIndent < 0 {
			entryIndent = l.Indent
		}
		if l.Indent != entryIndent {
			// nested under a previous key; only reachable through lookahead
			continue
		}

		if dep, ok := matchEntry(lines, i); ok {
			found = append(found, dep)
		}
	}

	return dedupe(filterPlatform(found))
}

// nextSection computes the section state after a zero-indent line.
func nextSection(l Line) section {
	name, ok := l.Header()
	if !ok {
		return sectionNone
	}
	switch name {
	case "dependencies":
		return sectionDependencies
	case "dev_dependencies":
		return sectionDevDependencies
	default:
		return sectionNone
	}
}

func matchEntry(lines []Line, i int) (Dependency, bool) {
	text := lines[i].Trimmed

	if m := pinnedRE.FindStringSubmatch(text); m != nil {
		return Dependency{Name: m[1], VersionExpression: m[2]}, true
	}
	if m := quotedRE.FindStringSubmatch(text); m != nil {
		return Dependency{Name: m[1], VersionExpression: m[2]}, true
	}
	if m := anyRE.FindStringSubmatch(text); m != nil {
		return Dependency{Name: m[1], VersionExpression: VersionAny}, true
	}
	if m := bareRE.FindStringSubmatch(text); m != nil {
		if i+1 >= len(lines) {
			return Dependency{}, false
		}
		next := lines[i+1].Trimmed
		for _, key := range sourceKeys {
			if strings.HasPrefix(next, key+":") {
				return Dependency{Name: m[1], VersionExpression: key}, true
			}
		}
	}
	return Dependency{}, false
}

func filterPlatform(deps []Dependency) []Dependency {
	kept := deps[:0]
	for _, d := range deps {
		if d.VersionExpression == VersionSDK || platformPackages[strings.ToLower(d.Name)] {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

func dedupe(deps []Dependency) []Dependency {
	pos := make(map[string]int, len(deps))
	result := make([]Dependency, 0, len(deps))
	for _, d := range deps {
		key := strings.ToLower(d.Name)
		if idx, ok := pos[key]; ok {
			result[idx] = d
			continue
		}
		pos[key] = len(result)
		result = append(result, d)
	}
	return result
}

