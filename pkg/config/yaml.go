package config

import (
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/sdejongh/ftpsync/pkg/storage"
)

// LocalConfigName is looked up in the working directory before the user config
const LocalConfigName = ".ftpconfig"

// LoadFromFile loads configuration from a YAML (or JSON) file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, storage.NewError(storage.KindConfiguration, "load", path, errors.Errorf("failed to read config file: %w", err))
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, storage.NewError(storage.KindConfiguration, "load", path, errors.Errorf("failed to parse config file: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("invalid configuration in %s: %w", path, err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a YAML file
func SaveToFile(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return errors.Errorf("invalid configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Errorf("failed to marshal config: %w", err)
	}

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Errorf("failed to create directory: %w", err)
	}

	// The file holds passwords
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".config", "ftpsync", "config.yaml"), nil
}

// ResolvePath returns the file Load would read: explicit when set, then
// ./.ftpconfig, then the default path. It returns "" when none exists.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	if fileExists(LocalConfigName) {
		return LocalConfigName, nil
	}

	path, err := DefaultConfigPath()
	if err != nil {
		return "", err
	}
	if fileExists(path) {
		return path, nil
	}

	return "", nil
}

// Load reads the configuration following the lookup order of ResolvePath.
// When no file exists, the default configuration is returned.
func Load(explicit string) (*Config, string, error) {
	path, err := ResolvePath(explicit)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return Default(), "", nil
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// LoadDefault attempts to load configuration from the default locations
// If no file exists, returns the default configuration
func LoadDefault() (*Config, error) {
	cfg, _, err := Load("")
	return cfg, err
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
