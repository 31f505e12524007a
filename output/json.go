package output

import (
	"encoding/json"

	"pub-health/health"
)

// GenerateJSONReport converts a report to indented JSON.
func GenerateJSONReport(report health.Report) ([]byte, error) {
	if report.Dependencies == nil {
		report.Dependencies = []health.Record{}
	}
	return json.MarshalIndent(report, "", "  ")
}
