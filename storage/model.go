package storage

import "time"

type DependencyHealth struct {
	Name           string `json:"name"`
	CurrentVersion string `json:"current_version"`
	LatestVersion  string `json:"latest_version,omitempty"`
	IsDeprecated   bool   `json:"is_deprecated"`
	IsDiscontinued bool   `json:"is_discontinued"`
	IsOutdated     bool   `json:"is_outdated"`
	UpdateKind     string `json:"update_kind,omitempty"`
}

type Snapshot struct {
	Status       string             `json:"status"`
	GeneratedAt  time.Time          `json:"generated_at"`
	Dependencies []DependencyHealth `json:"dependencies"`
}
