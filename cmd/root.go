package cmd

import (
	"net/http"
	"os"

	"pub-health/config"
	"pub-health/pubdev"
	"pub-health/source"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "pub-health",
	Short: "Reports the health of a Dart/Flutter project's pub dependencies",
	Long: `pub-health reads a project's pubspec.yaml, looks up every declared
dependency on pub.dev and reports which ones are discontinued, deprecated
or behind the latest published version.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default "+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		ForceColors:     true,
		DisableQuote:    true,
		PadLevelText:    true,
	})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func newClient(cfg *config.Config) *pubdev.PubDevClient {
	return &pubdev.PubDevClient{
		BaseURL:    cfg.Registry.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.Registry.Timeout},
	}
}

func newSource(dir string) *source.FileSource {
	return &source.FileSource{
		Dir:      dir,
		FileName: config.ManifestFileName,
	}
}
