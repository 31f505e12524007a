package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BaseURL              = "https://pub.dev"
	DefaultMaxConcurrent = 10
	DefaultTimeout       = 10 * time.Second

	ManifestFileName = "pubspec.yaml"
	FileName         = ".pub-health.yaml"

	DefaultSQLitePath    = "./data/app.db"
	DefaultPort          = "8080"
	DefaultWatchSchedule = "@every 30s"
	DailyRefreshSchedule = "0 0 * * *"
)

type Registry struct {
	BaseURL       string        `yaml:"baseURL"`
	MaxConcurrent int           `yaml:"maxConcurrent"`
	Timeout       time.Duration `yaml:"timeout"`
}

type Watch struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

type Config struct {
	ProjectDir     string   `yaml:"projectDir"`
	SQLitePath     string   `yaml:"sqlitePath"`
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	DailyRefresh   bool     `yaml:"dailyRefresh"`
	Registry       Registry `yaml:"registry"`
	Watch          Watch    `yaml:"watch"`
}

func Default() *Config {
	return &Config{
		ProjectDir:     ".",
		SQLitePath:     DefaultSQLitePath,
		Port:           DefaultPort,
		AllowedOrigins: []string{"http://localhost:5173"},
		Registry: Registry{
			BaseURL:       BaseURL,
			MaxConcurrent: DefaultMaxConcurrent,
			Timeout:       DefaultTimeout,
		},
		Watch: Watch{
			Enabled:  true,
			Schedule: DefaultWatchSchedule,
		},
	}
}

// Load reads the YAML file at path on top of the defaults and then applies
// environment overrides. A missing file is not an error. An empty path means
// FileName in the working directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = FileName
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("error reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.SQLitePath = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("PUB_BASE_URL"); v != "" {
		c.Registry.BaseURL = v
	}
	if v := os.Getenv("PROJECT_DIR"); v != "" {
		c.ProjectDir = v
	}
	if v := os.Getenv("WATCH_SCHEDULE"); v != "" {
		c.Watch.Schedule = v
	}
	if os.Getenv("WITH_DAILY_DATA_REFRESH") == "true" {
		c.DailyRefresh = true
	}
}

// zero values left by a partial file fall back to the defaults
func (c *Config) normalize() {
	if c.Registry.BaseURL == "" {
		c.Registry.BaseURL = BaseURL
	}
	if c.Registry.MaxConcurrent <= 0 {
		c.Registry.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.Registry.Timeout <= 0 {
		c.Registry.Timeout = DefaultTimeout
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = DefaultWatchSchedule
	}
	if c.ProjectDir == "" {
		c.ProjectDir = "."
	}
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.SQLitePath == "" {
		c.SQLitePath = DefaultSQLitePath
	}
}
