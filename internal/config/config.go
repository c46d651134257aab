// Package config loads the classdoc YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/classdoc/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	Title  string   `yaml:"title"`
	Input  string   `yaml:"input"`
	Readme string   `yaml:"readme,omitempty"`
	Extras []string `yaml:"extras,omitempty"`
	// Templates is a directory of *.tmpl files that replace the embedded
	// page templates of the same name.
	Templates string        `yaml:"templates,omitempty"`
	Output    OutputConfig  `yaml:"output"`
	Source    SourceConfig  `yaml:"source,omitempty"`
	Docset    DocsetConfig  `yaml:"docset,omitempty"`
	Verify    VerifyConfig  `yaml:"verify,omitempty"`
	Metrics   MetricsConfig `yaml:"metrics,omitempty"`
	Logging   LoggingConfig `yaml:"logging,omitempty"`
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
}

// SourceConfig points at the git work tree of the documented code.
type SourceConfig struct {
	Repository string `yaml:"repository,omitempty"`
}

// DocsetConfig controls the SQLite search index.
type DocsetConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Filename string `yaml:"filename,omitempty"`
}

// VerifyConfig controls link verification after a build.
type VerifyConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Load loads configuration from the specified file. Variables from .env and
// .env.local are loaded first and ${VAR} references in the file are expanded.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewError(errors.CategoryNotFound, "configuration file not found").
				Fatal().
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to load configuration").
			Fatal().
			WithContext("path", configPath).
			Build()
	}
	return cfg, nil
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init creates a new configuration file with the default settings.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	cfg := Default()
	cfg.Extras = []string{"CHANGELOG.md"}
	cfg.Docset.Enabled = true
	cfg.Verify.Enabled = true

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
