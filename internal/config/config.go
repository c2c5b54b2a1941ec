package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultDefaultEnvironment = "DEFAULT"
	defaultDelimiter          = ","
	defaultLogLevel           = "info"
)

// Environment variables consulted by Load.
const (
	EnvSettingsFile       = "ENVSETTINGS_SETTINGS_FILE"
	EnvEnvironment        = "ENVSETTINGS_ENVIRONMENT"
	EnvDefaultEnvironment = "ENVSETTINGS_DEFAULT_ENVIRONMENT"
	EnvEnvFile            = "ENVSETTINGS_ENV_FILE"
	EnvDelimiter          = "ENVSETTINGS_DELIMITER"
	EnvDryRun             = "ENVSETTINGS_DRY_RUN"
	EnvLogLevel           = "ENVSETTINGS_LOG_LEVEL"
)

var validate = validator.New()

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	SettingsFile       string `yaml:"settings_file" validate:"required"`
	Environment        string `yaml:"environment" validate:"required"`
	DefaultEnvironment string `yaml:"default_environment" validate:"required"`
	EnvFile            string `yaml:"env_file"`
	Delimiter          string `yaml:"delimiter" validate:"required"`
	DryRun             bool   `yaml:"dry_run"`
	LogLevel           string `yaml:"log_level" validate:"required,oneof=debug info warn error"`
}

// yamlConfig represents the YAML configuration file structure. DryRun is a
// pointer so an absent key does not reset an earlier source.
type yamlConfig struct {
	SettingsFile       string `yaml:"settings_file"`
	Environment        string `yaml:"environment"`
	DefaultEnvironment string `yaml:"default_environment"`
	EnvFile            string `yaml:"env_file"`
	Delimiter          string `yaml:"delimiter"`
	DryRun             *bool  `yaml:"dry_run"`
	LogLevel           string `yaml:"log_level"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile         string
	SettingsFile       *string
	Environment        *string
	DefaultEnvironment *string
	EnvFile            *string
	Delimiter          *string
	DryRun             *bool
	LogLevel           *string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Apply environment variables (lowest explicit source)
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	// Load from YAML file if specified
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// DelimiterRune returns the CSV field delimiter.
func (c Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		DefaultEnvironment: defaultDefaultEnvironment,
		Delimiter:          defaultDelimiter,
		LogLevel:           defaultLogLevel,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	setIfNotEmpty(&cfg.SettingsFile, yamlCfg.SettingsFile)
	setIfNotEmpty(&cfg.Environment, yamlCfg.Environment)
	setIfNotEmpty(&cfg.DefaultEnvironment, yamlCfg.DefaultEnvironment)
	setIfNotEmpty(&cfg.EnvFile, yamlCfg.EnvFile)
	setIfNotEmpty(&cfg.Delimiter, yamlCfg.Delimiter)
	setIfNotEmpty(&cfg.LogLevel, yamlCfg.LogLevel)

	if yamlCfg.DryRun != nil {
		cfg.DryRun = *yamlCfg.DryRun
	}
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	setIfNotEmpty(&cfg.SettingsFile, strings.TrimSpace(os.Getenv(EnvSettingsFile)))
	setIfNotEmpty(&cfg.Environment, strings.TrimSpace(os.Getenv(EnvEnvironment)))
	setIfNotEmpty(&cfg.DefaultEnvironment, strings.TrimSpace(os.Getenv(EnvDefaultEnvironment)))
	setIfNotEmpty(&cfg.EnvFile, strings.TrimSpace(os.Getenv(EnvEnvFile)))
	setIfNotEmpty(&cfg.Delimiter, os.Getenv(EnvDelimiter))
	setIfNotEmpty(&cfg.LogLevel, strings.TrimSpace(os.Getenv(EnvLogLevel)))

	if raw := strings.TrimSpace(os.Getenv(EnvDryRun)); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvDryRun, err)
		}
		cfg.DryRun = value
	}
	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	setIfNotNil(&cfg.SettingsFile, overrides.SettingsFile)
	setIfNotNil(&cfg.Environment, overrides.Environment)
	setIfNotNil(&cfg.DefaultEnvironment, overrides.DefaultEnvironment)
	setIfNotNil(&cfg.EnvFile, overrides.EnvFile)
	setIfNotNil(&cfg.Delimiter, overrides.Delimiter)
	setIfNotNil(&cfg.LogLevel, overrides.LogLevel)

	if overrides.DryRun != nil {
		cfg.DryRun = *overrides.DryRun
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if utf8.RuneCountInString(cfg.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", cfg.Delimiter)
	}
	if r := cfg.DelimiterRune(); r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return fmt.Errorf("delimiter %q is not allowed", cfg.Delimiter)
	}
	return nil
}

func setIfNotEmpty(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setIfNotNil(dst *string, value *string) {
	if value != nil && *value != "" {
		*dst = *value
	}
}
