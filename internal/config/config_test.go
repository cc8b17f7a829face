package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "sweep_results", cfg.Dataset.Table)
	assert.Equal(t, 200_000, cfg.Limits.MaxRecords)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plateau.yaml")
	content := `
server:
  port: 9999
  rate_limit: 10
dataset:
  file: /data/sweep.json
limits:
  max_records: 50000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "/data/sweep.json", cfg.Dataset.File)
	assert.Equal(t, 50000, cfg.Limits.MaxRecords)
	// untouched values keep their defaults
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PLATEAU_HTTP_PORT", "7070")
	t.Setenv("PLATEAU_SWEEP_FILE", "/tmp/sweep.json")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/tmp/sweep.json", cfg.Dataset.File)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "port",
		},
		{
			name: "file and dsn are exclusive",
			mutate: func(c *Config) {
				c.Dataset.File = "/data/sweep.json"
				c.Dataset.PostgresDSN = "postgres://localhost/sweeps"
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "dsn requires table",
			mutate: func(c *Config) {
				c.Dataset.PostgresDSN = "postgres://localhost/sweeps"
				c.Dataset.Table = ""
			},
			wantErr: "table",
		},
		{
			name:    "negative record limit",
			mutate:  func(c *Config) { c.Limits.MaxRecords = -1 },
			wantErr: "max_records",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadBadFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)
}
