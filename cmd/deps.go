package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"pub-health/config"
	"pub-health/data"
	"pub-health/output"

	"github.com/spf13/cobra"
)

var (
	depsPath   string
	depsFormat string
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "List the dependencies declared in pubspec.yaml without contacting pub.dev",
	RunE:  runDeps,
}

func init() {
	depsCmd.Flags().StringVarP(&depsPath, "path", "p", "", "Path to project directory (overrides config)")
	depsCmd.Flags().StringVarP(&depsFormat, "format", "f", "text", "Output format: text or json")
	rootCmd.AddCommand(depsCmd)
}

func runDeps(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	dir := cfg.ProjectDir
	if depsPath != "" {
		dir = depsPath
	}

	dm := &data.DataManager{
		Source: newSource(dir),
		Log:    newLogger(),
	}

	deps, err := dm.Declared(context.Background())
	if err != nil {
		return err
	}

	switch depsFormat {
	case "json":
		out, err := json.MarshalIndent(deps, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal dependencies to JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	case "text":
		return output.PrintDeclared(cmd.OutOrStdout(), deps)
	default:
		return fmt.Errorf("unsupported format %q", depsFormat)
	}
}
