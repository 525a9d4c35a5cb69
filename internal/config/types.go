// Package config loads LeapCheck configuration from defaults, leapcheck.yaml,
// LEAPCHECK_* environment variables and command-line flags.
package config

import (
	"maps"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Config holds all runtime configuration.
type Config struct {
	Environment     string                      `koanf:"environment"`
	Workers         int                         `koanf:"workers"`
	StrictExpansion bool                        `koanf:"strict_expansion"`
	LogLevel        string                      `koanf:"log_level"`
	LogFormat       string                      `koanf:"log_format"`
	JournalPath     string                      `koanf:"journal_path"`
	MetricsFile     string                      `koanf:"metrics_file"`
	Connections     map[string]ConnectionConfig `koanf:"connections"`
	Environments    map[string]EnvConfig        `koanf:"environments"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
	// FileUsed is the config file that was loaded, if any.
	FileUsed string `koanf:"-"`
}

// ConnectionConfig describes one named data source.
type ConnectionConfig struct {
	Type     string            `koanf:"type"`
	Path     string            `koanf:"path"`
	Database string            `koanf:"database"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Schema   string            `koanf:"schema"`
	Options  map[string]string `koanf:"options"`
	Params   map[string]any    `koanf:"params"`
}

// EnvConfig holds environment-specific overrides.
type EnvConfig struct {
	Workers     int                         `koanf:"workers"`
	Connections map[string]ConnectionConfig `koanf:"connections"`
}

// Default configuration values.
const (
	ConfigFileName    = "leapcheck.yaml"
	ConfigFileNameAlt = "leapcheck.yml"
	DefaultEnv        = "dev"
	DefaultWorkers    = 1
	DefaultJournal    = ".leapcheck/journal.db"
	DefaultLogLevel   = "warn"
	DefaultLogFormat  = "text"
)

// AdapterConfig converts the connection into the adapter's config type.
func (c ConnectionConfig) AdapterConfig() core.AdapterConfig {
	return core.AdapterConfig{
		Type:     c.Type,
		Path:     c.Path,
		Host:     c.Host,
		Port:     c.Port,
		Database: c.Database,
		Username: c.User,
		Password: c.Password,
		Schema:   c.Schema,
		Options:  maps.Clone(c.Options),
		Params:   maps.Clone(c.Params),
	}
}

// MergeConnection merges two connection configs, with override taking precedence.
func MergeConnection(base, override ConnectionConfig) ConnectionConfig {
	merged := base
	merged.Options = make(map[string]string, len(base.Options)+len(override.Options))
	maps.Copy(merged.Options, base.Options)
	maps.Copy(merged.Options, override.Options)
	merged.Params = make(map[string]any, len(base.Params)+len(override.Params))
	maps.Copy(merged.Params, base.Params)
	maps.Copy(merged.Params, override.Params)

	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Path != "" {
		merged.Path = override.Path
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}
	return merged
}

// AdapterConfigs returns every connection as an adapter config, keyed by name.
func (c *Config) AdapterConfigs() map[string]core.AdapterConfig {
	out := make(map[string]core.AdapterConfig, len(c.Connections))
	for name, conn := range c.Connections {
		out[name] = conn.AdapterConfig()
	}
	return out
}
