package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/ninebox-weightage/pkg/blob"
	"github.com/jakechorley/ninebox-weightage/pkg/core/budget"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Source drivers
const (
	SourceYAML   = "yaml"
	SourceSheets = "sheets"
)

// StorageConfig selects where templates are persisted
type StorageConfig struct {
	Driver      string `yaml:"driver" validate:"required,oneof=memory sqlite postgres"`
	SQLitePath  string `yaml:"sqlitePath,omitempty" validate:"required_if=Driver sqlite"`
	PostgresDSN string `yaml:"postgresDSN,omitempty" validate:"required_if=Driver postgres"`
}

// SourcesConfig selects where department weightages and OKR templates are read from
type SourcesConfig struct {
	Driver        string `yaml:"driver" validate:"required,oneof=yaml sheets"`
	CatalogPath   string `yaml:"catalogPath,omitempty" validate:"required_if=Driver yaml"`
	SpreadsheetID string `yaml:"spreadsheetID,omitempty" validate:"required_if=Driver sheets"`
}

// ExportConfig selects where exported summaries are archived. An empty driver disables export.
type ExportConfig struct {
	Driver string         `yaml:"driver,omitempty" validate:"omitempty,oneof=fs s3"`
	Dir    string         `yaml:"dir,omitempty" validate:"required_if=Driver fs"`
	S3     *blob.S3Config `yaml:"s3,omitempty" validate:"required_if=Driver s3"`
}

// Config represents the application configuration
type Config struct {
	Storage         StorageConfig `yaml:"storage"`
	Sources         SourcesConfig `yaml:"sources"`
	Rules           budget.Rules  `yaml:"rules,omitempty"`
	Export          ExportConfig  `yaml:"export,omitempty"`
	MetricsTextfile string        `yaml:"metricsTextfile,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from ninebox_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for an environment.
// For example, env="test" will look for "ninebox_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageMemory
	}
	if cfg.Sources.Driver == "" {
		cfg.Sources.Driver = SourceYAML
	}
}

// Validate validates the configuration struct
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// findConfigFile returns ninebox_config.yaml, or ninebox_config.<env>.yaml when env is set
func findConfigFile(env string) (string, error) {
	name := "ninebox_config.yaml"
	if env != "" {
		name = "ninebox_config." + env + ".yaml"
	}
	return findFile(name)
}

// findFile looks for name in the current directory, then the user's home directory
func findFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
