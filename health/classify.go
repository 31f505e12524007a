package health

import (
	"pub-health/manifest"
)

// Lookup pairs a declared dependency with the registry metadata fetched for
// it. Metadata is nil when the fetch failed.
type Lookup struct {
	Dependency manifest.Dependency
	Metadata   *Metadata
}

// Classify builds the health record of a single dependency. Without metadata
// the record has no latest version and every flag is false.
func Classify(dep manifest.Dependency, meta *Metadata) Record {
	rec := Record{
		Name:           dep.Name,
		CurrentVersion: dep.VersionExpression,
	}
	if meta == nil {
		return rec
	}

	rec.LatestVersion = meta.LatestVersion
	rec.IsDiscontinued = meta.HasTag(TagDiscontinued)
	rec.IsDeprecated = meta.HasTag(TagDeprecated)
	rec.IsOutdated = meta.LatestVersion != "" && IsOutdated(dep.VersionExpression, meta.LatestVersion)
	if rec.IsOutdated {
		rec.UpdateKind = UpdateKind(dep.VersionExpression, meta.LatestVersion)
	}
	return rec
}
