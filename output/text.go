package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"pub-health/health"
	"pub-health/manifest"
)

const notFoundMessage = "No pubspec.yaml found in the project directory."
const emptyMessage = "No dependencies declared."

// PrintTextReport writes the report as an aligned table, flagged
// dependencies first.
func PrintTextReport(out io.Writer, report health.Report) error {
	switch report.Status {
	case health.StatusNotFound:
		_, err := fmt.Fprintln(out, notFoundMessage)
		return err
	case health.StatusEmpty:
		_, err := fmt.Fprintln(out, emptyMessage)
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "NAME\tCURRENT\tLATEST\tUPDATE\tSTATUS")
	fmt.Fprintln(w, "----\t-------\t------\t------\t------")

	for _, r := range report.Dependencies {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Name,
			r.CurrentVersion,
			orDash(r.LatestVersion),
			orDash(r.UpdateKind),
			statusLabel(r),
		)
	}

	return w.Flush()
}

// PrintDeclared writes the extractor output, one dependency per line.
func PrintDeclared(out io.Writer, deps []manifest.Dependency) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION")
	for _, d := range deps {
		fmt.Fprintf(w, "%s\t%s\n", d.Name, d.VersionExpression)
	}
	return w.Flush()
}

func statusLabel(r health.Record) string {
	switch {
	case r.IsDiscontinued:
		return "discontinued"
	case r.IsDeprecated:
		return "deprecated"
	case r.IsOutdated:
		return "outdated"
	case r.LatestVersion == "":
		return "unknown"
	default:
		return "ok"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
