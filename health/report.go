package health

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// BuildReport classifies every lookup and orders the records so the riskiest
// dependencies come first. The result does not depend on the order of
// lookups.
func BuildReport(lookups []Lookup) Report {
	if len(lookups) == 0 {
		return Report{Status: StatusEmpty, Dependencies: []Record{}}
	}

	records := make([]Record, 0, len(lookups))
	for _, l := range lookups {
		records = append(records, Classify(l.Dependency, l.Metadata))
	}
	SortRecords(records)

	return Report{Status: StatusReady, Dependencies: records}
}

func NotFoundReport() Report {
	return Report{Status: StatusNotFound, Dependencies: []Record{}}
}

// SortRecords orders records by discontinued, deprecated, outdated (flagged
// first) and then by name.
func SortRecords(records []Record) {
	c := collate.New(language.Und)
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.IsDiscontinued != b.IsDiscontinued {
			return a.IsDiscontinued
		}
		if a.IsDeprecated != b.IsDeprecated {
			return a.IsDeprecated
		}
		if a.IsOutdated != b.IsOutdated {
			return a.IsOutdated
		}
		if cmp := c.CompareString(a.Name, b.Name); cmp != 0 {
			return cmp < 0
		}
		return a.Name < b.Name
	})
}
