package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/adapter"
)

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (want text or json)", c.LogFormat)
	}

	for _, name := range c.ConnectionNames() {
		conn := c.Connections[name]
		if conn.Type == "" {
			return fmt.Errorf("connections.%s: type is required", name)
		}
		if !adapter.IsRegistered(conn.Type) {
			return fmt.Errorf("connections.%s: %w", name, &adapter.UnknownAdapterError{
				Type:      conn.Type,
				Available: adapter.ListAdapters(),
			})
		}
	}
	return nil
}

// ConnectionNames returns the configured connection names, sorted.
func (c *Config) ConnectionNames() []string {
	names := make([]string, 0, len(c.Connections))
	for name := range c.Connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
