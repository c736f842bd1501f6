package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Check   CheckConfig   `mapstructure:"check"`
	Collect CollectConfig `mapstructure:"collect"`

	// Checker is decoded from the raw configuration file; see LoadCheckerConfig.
	Checker CheckerConfig `mapstructure:"-"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CheckConfig holds settings of the check command.
type CheckConfig struct {
	Jobs     int  `mapstructure:"jobs"`
	AllFiles bool `mapstructure:"all_files"`
}

// CollectConfig holds settings of the collect command.
type CollectConfig struct {
	OutputDir      string `mapstructure:"output_dir"`
	DataFile       string `mapstructure:"data_file"`
	DuplicatesFile string `mapstructure:"duplicates_file"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("check.jobs", 4)
	v.SetDefault("check.all_files", false)

	v.SetDefault("collect.output_dir", ".")
	v.SetDefault("collect.data_file", "tests_data.json")
	v.SetDefault("collect.duplicates_file", "duplicates.log")
}

// New creates a new Config instance from Viper. The checker schema is read
// from the configuration file viper used, if any.
func New(v *viper.Viper) (*Config, error) {
	var config Config

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if path := v.ConfigFileUsed(); path != "" {
		checker, err := LoadCheckerConfig(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		config.Checker = checker
	}

	return &config, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error: %q", c.Log.Level)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("log.format must be json or text: %q", c.Log.Format)
	}

	if c.Check.Jobs < 1 {
		return errors.New("check.jobs must be at least 1")
	}

	if c.Collect.DataFile == "" {
		return errors.New("collect.data_file is required")
	}

	if c.Collect.DuplicatesFile == "" {
		return errors.New("collect.duplicates_file is required")
	}

	return nil
}
