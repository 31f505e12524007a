package manifest

// Sentinel version expressions for dependencies that are not resolved
// through the registry.
const (
	VersionAny  = "any"
	VersionPath = "path"
	VersionGit  = "git"
	VersionSDK  = "sdk"
)

type Dependency struct {
	Name              string `json:"name"`
	VersionExpression string `json:"version"`
}

// Line is one physical line of a manifest.
type Line struct {
	Index   int // 1-based
	Raw     string
	Trimmed string
	Indent  int
}

// Skip reports whether the line carries no data (blank or comment).
func (l Line) Skip() bool {
	return l.Trimmed == "" || l.Trimmed[0] == '#'
}

// Header returns the section name if the line opens a top-level section.
func (l Line) Header() (string, bool) {
	if l.Indent != 0 || l.Skip() || l.Trimmed[len(l.Trimmed)-1] != ':' {
		return "", false
	}
	return l.Trimmed[:len(l.Trimmed)-1], true
}
