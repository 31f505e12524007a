package cmd

import (
	"context"
	"fmt"

	"pub-health/config"
	"pub-health/data"
	"pub-health/health"
	"pub-health/output"

	"github.com/spf13/cobra"
)

var (
	checkPath string
	format    string
	strict    bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the project's dependencies once and print the report",
	Long: `Extract the dependencies declared in pubspec.yaml, look each one up on
pub.dev and print the report, flagged dependencies first.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkPath, "path", "p", "", "Path to project directory (overrides config)")
	checkCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	checkCmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when any dependency is flagged")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q", format)
	}

	logger := newLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	dir := cfg.ProjectDir
	if checkPath != "" {
		dir = checkPath
	}

	dm := &data.DataManager{
		Source:        newSource(dir),
		API:           newClient(cfg),
		Log:           logger,
		MaxConcurrent: cfg.Registry.MaxConcurrent,
	}

	report, err := dm.GenerateReport(context.Background())
	if err != nil {
		return err
	}

	if format == "json" {
		out, err := output.GenerateJSONReport(report)
		if err != nil {
			return fmt.Errorf("failed to marshal report to JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	} else if err := output.PrintTextReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if strict {
		if n := countFlagged(report); n > 0 {
			return fmt.Errorf("%d flagged dependencies", n)
		}
	}
	return nil
}

func countFlagged(report health.Report) int {
	n := 0
	for _, r := range report.Dependencies {
		if r.Flagged() {
			n++
		}
	}
	return n
}
