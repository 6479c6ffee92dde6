package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_Validate(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"zero audit buffer", func(c *Config) { c.Audit.BufferSize = 0 }},
		{"unknown exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }},
		{"sample rate above one", func(c *Config) { c.Tracing.SampleRate = 1.5 }},
		{"negative cache ttl", func(c *Config) { c.Cache.TTLSeconds = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestWriteDefaultConfig_CreatesFileOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(written), "db_path:")

	// A second call must not clobber user edits.
	require.NoError(t, os.WriteFile(path, []byte("db_path: custom.db\n"), 0o644))
	require.NoError(t, WriteDefaultConfig(path))
	kept, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "db_path: custom.db\n", string(kept))
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: /tmp/ledger.db\ndebug: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ledger.db", cfg.DBPath)
	assert.True(t, cfg.Debug)
	assert.Equal(t, Defaults().Audit.BufferSize, cfg.Audit.BufferSize, "unset sections keep defaults")
}

func TestLoad_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: \"\"\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
