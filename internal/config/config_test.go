package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapcheck/pkg/adapter"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/leapcheck/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapcheck/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapcheck/pkg/adapters/sqlite"
)

const sampleConfig = `
environment: dev
workers: 2
connections:
  warehouse:
    type: postgres
    host: localhost
    database: dw
    user: checker
    password: ${LEAPCHECK_TEST_PG_PASSWORD}
    options:
      sslmode: disable
  local:
    type: sqlite
    path: data/local.db
environments:
  prod:
    workers: 8
    connections:
      warehouse:
        host: prod-db.internal
        options:
          sslmode: require
`

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("env", "", "")
	fs.Int("workers", 0, "")
	fs.Bool("strict", false, "")
	fs.String("journal", "", "")
	fs.String("metrics-file", "", "")
	fs.String("log-level", "", "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultEnv, cfg.Environment)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.False(t, cfg.StrictExpansion)
	assert.Equal(t, filepath.Join(dir, DefaultJournal), cfg.JournalPath)
	assert.Empty(t, cfg.FileUsed)
	assert.Empty(t, cfg.Connections)
}

func TestLoad_FileAndEnvExpansion(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, sampleConfig)
	t.Setenv("LEAPCHECK_TEST_PG_PASSWORD", "s3cret")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.FileUsed)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, []string{"local", "warehouse"}, cfg.ConnectionNames())

	wh := cfg.Connections["warehouse"]
	assert.Equal(t, "s3cret", wh.Password)
	assert.Equal(t, "localhost", wh.Host)

	local := cfg.Connections["local"]
	assert.Equal(t, filepath.Join(dir, "data/local.db"), local.Path, "paths resolve against the config directory")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, sampleConfig)

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--env", "prod"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, 8, cfg.Workers)

	wh := cfg.Connections["warehouse"]
	assert.Equal(t, "prod-db.internal", wh.Host)
	assert.Equal(t, "dw", wh.Database, "unset override fields keep the base value")
	assert.Equal(t, "require", wh.Options["sslmode"])
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, sampleConfig)

	t.Setenv("LEAPCHECK_WORKERS", "4")
	t.Setenv("LEAPCHECK_LOG_LEVEL", "debug")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Workers, "env beats file")
	assert.Equal(t, "debug", cfg.LogLevel)

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--workers", "6", "--strict", "--journal", "j.db"}))

	cfg, err = Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Workers, "flag beats env")
	assert.True(t, cfg.StrictExpansion)

	cwd, _ := os.Getwd()
	assert.Equal(t, filepath.Join(cwd, "j.db"), cfg.JournalPath, "flag paths resolve against the working directory")
}

func TestLoad_UpwardSearch(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "workers: 3\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, root, cfg.ProjectRoot)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{
			name:      "unknown adapter type",
			content:   "connections:\n  x:\n    type: oracle\n",
			errSubstr: "unknown adapter type",
		},
		{
			name:      "missing type",
			content:   "connections:\n  x:\n    path: a.db\n",
			errSubstr: "connections.x: type is required",
		},
		{
			name:      "zero workers",
			content:   "workers: 0\n",
			errSubstr: "workers must be at least 1",
		},
		{
			name:      "bad log level",
			content:   "log_level: loud\n",
			errSubstr: "unknown log_level",
		},
		{
			name:      "bad log format",
			content:   "log_format: xml\n",
			errSubstr: "unknown log_format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := Load(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoad_UnknownAdapterIsTyped(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "connections:\n  x:\n    type: oracle\n")
	_, err := Load(path, nil)

	var unknown *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "oracle", unknown.Type)
}

func TestMergeConnection(t *testing.T) {
	base := ConnectionConfig{
		Type:     "postgres",
		Host:     "localhost",
		Port:     5432,
		Database: "dw",
		Options:  map[string]string{"sslmode": "disable", "connect_timeout": "5"},
	}
	merged := MergeConnection(base, ConnectionConfig{Port: 6432, Options: map[string]string{"sslmode": "require"}})

	assert.Equal(t, "localhost", merged.Host)
	assert.Equal(t, 6432, merged.Port)
	assert.Equal(t, map[string]string{"sslmode": "require", "connect_timeout": "5"}, merged.Options)
	assert.Equal(t, "disable", base.Options["sslmode"], "base must not be modified")
}

func TestAdapterConfig(t *testing.T) {
	c := ConnectionConfig{Type: "postgres", User: "u", Password: "p", Schema: "dw"}
	ac := c.AdapterConfig()
	assert.Equal(t, "postgres", ac.Type)
	assert.Equal(t, "u", ac.Username)
	assert.Equal(t, "dw", ac.Schema)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: "info", LogFormat: "json"}
	logger := cfg.NewLogger(&buf)
	logger.Debug("hidden")
	logger.Info("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
	assert.NotNil(t, GetLogger(context.Background()))
}

func TestConfigContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	cfg := &Config{Environment: "prod"}
	got, ok := FromContext(WithConfig(context.Background(), cfg))
	assert.True(t, ok)
	assert.Same(t, cfg, got)
}

func TestAdapterConfigs(t *testing.T) {
	cfg := &Config{Connections: map[string]ConnectionConfig{
		"a": {Type: "sqlite", Path: "a.db"},
		"b": {Type: "duckdb"},
	}}
	got := cfg.AdapterConfigs()
	assert.Len(t, got, 2)
	assert.Equal(t, "a.db", got["a"].Path)
	assert.Equal(t, "duckdb", got["b"].Type)
}
