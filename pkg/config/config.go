package config

import (
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sdejongh/ftpsync/pkg/models"
	"github.com/sdejongh/ftpsync/pkg/storage"
)

// Reserved top-level keys. Every other key names a connection profile.
const (
	KeyDeployments = "deployments"
	KeyLogging     = "logging"
	KeyOutput      = "output"
)

const maskedPassword = "********"

// Config represents the application configuration
type Config struct {
	Profiles    map[string]Profile
	Deployments map[string]Deployment
	Logging     LoggingConfig
	Output      OutputConfig
}

// Profile holds the connection parameters of one remote server
type Profile struct {
	Host       string        `yaml:"host"`
	User       string        `yaml:"user"`
	Password   string        `yaml:"password"`
	Port       int           `yaml:"port,omitempty"`
	Secure     bool          `yaml:"secure,omitempty"`
	KnownHosts string        `yaml:"known_hosts,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
}

// Deployment is a named one-way upload preset
type Deployment struct {
	Profile     string   `yaml:"profile"`
	Local       string   `yaml:"local"`
	Remote      string   `yaml:"remote"`
	Exclude     []string `yaml:"exclude,omitempty"`
	Description string   `yaml:"description,omitempty"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human" or "json"
	Progress bool   `yaml:"progress"` // Show progress bars
	Quiet    bool   `yaml:"quiet"`    // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Format     string `yaml:"format"` // "json" or "text"
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	File       string `yaml:"file"`   // Log file path (empty = stderr)
	MaxSize    int64  `yaml:"max_size,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Profiles:    map[string]Profile{},
		Deployments: map[string]Deployment{},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
			Quiet:    false,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Format:  "text",
			Level:   "info",
			File:    "",
		},
	}
}

// Example returns the default configuration with one sample profile and
// deployment, as written by "config init"
func Example() *Config {
	cfg := Default()
	cfg.Profiles["production"] = Profile{
		Host:     "sftp://example.com",
		User:     "deploy",
		Password: "changeme",
		Port:     22,
	}
	cfg.Deployments["site"] = Deployment{
		Profile:     "production",
		Local:       "./public",
		Remote:      "/var/www/html",
		Exclude:     []string{"*.log", "uploads/"},
		Description: "Publish the static site",
	}
	return cfg
}

// ConnParams converts the profile into storage connection parameters
func (p Profile) ConnParams() storage.ConnParams {
	return storage.ConnParams{
		Host:       p.Host,
		User:       p.User,
		Password:   p.Password,
		Port:       p.Port,
		Secure:     p.Secure,
		KnownHosts: p.KnownHosts,
		Timeout:    p.Timeout,
	}
}

// Masked returns a copy of the profile with the password hidden
func (p Profile) Masked() Profile {
	if p.Password != "" {
		p.Password = maskedPassword
	}
	return p
}

// Profile looks up a connection profile by name
func (c *Config) Profile(name string) (Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, storage.NewError(storage.KindNotFound, "profile", name, fmt.Errorf("profile '%s' is not defined", name))
	}
	return p, nil
}

// Deployment looks up a deployment by name
func (c *Config) Deployment(name string) (Deployment, error) {
	d, ok := c.Deployments[name]
	if !ok {
		return Deployment{}, storage.NewError(storage.KindNotFound, "deployment", name, fmt.Errorf("deployment '%s' is not defined", name))
	}
	return d, nil
}

// ProfileNames returns the profile names in sorted order
func (c *Config) ProfileNames() []string {
	return sortedKeys(c.Profiles)
}

// DeploymentNames returns the deployment names in sorted order
func (c *Config) DeploymentNames() []string {
	return sortedKeys(c.Deployments)
}

// Redacted returns a copy of the configuration safe for display
func (c *Config) Redacted() *Config {
	out := *c
	out.Profiles = make(map[string]Profile, len(c.Profiles))
	for name, p := range c.Profiles {
		out.Profiles[name] = p.Masked()
	}
	return &out
}

// Validate checks if the configuration is valid. Deployment references to
// undefined profiles are reported when the deployment is run.
func (c *Config) Validate() error {
	for _, name := range c.ProfileNames() {
		p := c.Profiles[name]
		field := "profiles." + name
		if p.Host == "" {
			return invalid(field+".host", "is required")
		}
		if p.Port < 0 || p.Port > 65535 {
			return invalid(field+".port", "must be between 0 and 65535")
		}
		if p.Timeout < 0 {
			return invalid(field+".timeout", "must not be negative")
		}
	}

	for _, name := range c.DeploymentNames() {
		d := c.Deployments[name]
		field := KeyDeployments + "." + name
		if d.Profile == "" {
			return invalid(field+".profile", "is required")
		}
		if d.Local == "" {
			return invalid(field+".local", "is required")
		}
		if d.Remote == "" {
			return invalid(field+".remote", "is required")
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return invalid("output.format", "must be 'human' or 'json'")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return invalid("logging.format", "must be 'json' or 'text'")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return invalid("logging.level", "must be 'debug', 'info', 'warn', or 'error'")
	}

	return nil
}

func invalid(field, message string) error {
	return storage.NewError(storage.KindConfiguration, "validate", "", &models.ValidationError{
		Field:   field,
		Message: message,
	})
}

// UnmarshalYAML decodes the flat layout where profiles sit next to the
// reserved keys. Values already set on c are kept unless overridden.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: configuration must be a mapping", value.Line)
	}
	if c.Profiles == nil {
		c.Profiles = map[string]Profile{}
	}
	if c.Deployments == nil {
		c.Deployments = map[string]Deployment{}
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		key, node := value.Content[i].Value, value.Content[i+1]

		var err error
		switch key {
		case KeyDeployments:
			deployments := map[string]Deployment{}
			err = node.Decode(&deployments)
			for name, d := range deployments {
				c.Deployments[name] = d
			}
		case KeyLogging:
			err = node.Decode(&c.Logging)
		case KeyOutput:
			err = node.Decode(&c.Output)
		default:
			var p Profile
			err = node.Decode(&p)
			c.Profiles[key] = p
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	return nil
}

// MarshalYAML writes profiles at the top level next to the reserved keys
func (c *Config) MarshalYAML() (interface{}, error) {
	out := make(map[string]interface{}, len(c.Profiles)+3)
	for name, p := range c.Profiles {
		out[name] = p
	}
	out[KeyDeployments] = c.Deployments
	out[KeyLogging] = c.Logging
	out[KeyOutput] = c.Output
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
