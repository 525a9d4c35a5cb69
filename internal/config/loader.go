package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// flagKeys maps flag names whose config key is not the snake_case flag name.
var flagKeys = map[string]string{
	"env":     "environment",
	"strict":  "strict_expansion",
	"journal": "journal_path",
}

// pathFlags are flags holding paths; their values resolve against the CWD.
var pathFlags = map[string]string{
	"journal":      "journal_path",
	"metrics-file": "metrics_file",
}

// findConfigFile returns the config file in dir, or "".
func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// FindProjectRoot searches upward from startDir for a leapcheck config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for range maxUpwardSearchLevels {
		if findConfigFile(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// cfgFile may be empty, in which case leapcheck.yaml is searched for upward
// from the working directory. Only flags that were explicitly set apply.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	projectRoot := cwd
	if cfgFile != "" {
		abs, err := filepath.Abs(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
		cfgFile = abs
		projectRoot = filepath.Dir(abs)
	} else if root := FindProjectRoot(cwd); root != "" {
		projectRoot = root
		cfgFile = findConfigFile(root)
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"environment":      DefaultEnv,
		"workers":          DefaultWorkers,
		"strict_expansion": false,
		"log_level":        DefaultLogLevel,
		"log_format":       DefaultLogFormat,
		"journal_path":     DefaultJournal,
		"metrics_file":     "",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment variables: LEAPCHECK_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider("LEAPCHECK_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "LEAPCHECK_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	flagPaths := map[string]string{}
	if flags != nil {
		for name, key := range pathFlags {
			if f := flags.Lookup(name); f != nil && f.Changed && f.Value.String() != "" {
				if abs, err := filepath.Abs(f.Value.String()); err == nil {
					flagPaths[key] = abs
				}
			}
		}

		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.FileUsed = cfgFile

	cfg.applyEnvironment()

	for key, abs := range flagPaths {
		switch key {
		case "journal_path":
			cfg.JournalPath = abs
		case "metrics_file":
			cfg.MetricsFile = abs
		}
	}
	if _, ok := flagPaths["journal_path"]; !ok {
		cfg.JournalPath = resolvePathRelativeTo(cfg.JournalPath, projectRoot)
	}
	if _, ok := flagPaths["metrics_file"]; !ok {
		cfg.MetricsFile = resolvePathRelativeTo(cfg.MetricsFile, projectRoot)
	}

	for name, c := range cfg.Connections {
		c.Path = expandEnvVars(c.Path)
		if c.Path != ":memory:" {
			c.Path = resolvePathRelativeTo(c.Path, projectRoot)
		}
		c.Host = expandEnvVars(c.Host)
		c.User = expandEnvVars(c.User)
		c.Password = expandEnvVars(c.Password)
		c.Database = expandEnvVars(c.Database)
		cfg.Connections[name] = c
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvironment merges the selected environment's overrides.
func (c *Config) applyEnvironment() {
	envCfg, ok := c.Environments[c.Environment]
	if !ok {
		return
	}
	if envCfg.Workers > 0 {
		c.Workers = envCfg.Workers
	}
	if c.Connections == nil && len(envCfg.Connections) > 0 {
		c.Connections = make(map[string]ConnectionConfig)
	}
	for name, override := range envCfg.Connections {
		c.Connections[name] = MergeConnection(c.Connections[name], override)
	}
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}
