package health

import "time"

const (
	TagDeprecated   = "is:deprecated"
	TagDiscontinued = "is:discontinued"
)

// Metadata is what the registry knows about a package.
type Metadata struct {
	LatestVersion string   `json:"latest_version,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

func (m Metadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type Record struct {
	Name           string `json:"name"`
	CurrentVersion string `json:"current_version"`
	LatestVersion  string `json:"latest_version,omitempty"`
	IsDeprecated   bool   `json:"is_deprecated"`
	IsDiscontinued bool   `json:"is_discontinued"`
	IsOutdated     bool   `json:"is_outdated"`
	UpdateKind     string `json:"update_kind,omitempty"`
}

// Flagged reports whether any health flag is set.
func (r Record) Flagged() bool {
	return r.IsDeprecated || r.IsDiscontinued || r.IsOutdated
}

type Status string

const (
	StatusReady    Status = "ready"
	StatusEmpty    Status = "empty"
	StatusNotFound Status = "not_found"
)

type Report struct {
	Status       Status    `json:"status"`
	GeneratedAt  time.Time `json:"generated_at"`
	Dependencies []Record  `json:"dependencies"`
}
