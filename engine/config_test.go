package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig.Validate())
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero capacity", func(c *Config) { c.MaxMemoryItems = 0 }},
		{"negative decay", func(c *Config) { c.DecayRate = -0.5 }},
		{"degenerate ceiling", func(c *Config) { c.ImportanceCeiling = 1 }},
		{"negative interval", func(c *Config) { c.SummaryInterval = -1 }},
		{"floor above one", func(c *Config) { c.RelevanceFloor = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	content := []byte("decay_rate: 0.05\nmax_memory_items: 50\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.05, cfg.DecayRate)
	assert.Equal(t, 50, cfg.MaxMemoryItems)
	// Unset keys keep their defaults.
	assert.Equal(t, DefaultConfig.SummaryInterval, cfg.SummaryInterval)
	assert.Equal(t, DefaultConfig.ImportanceThreshold, cfg.ImportanceThreshold)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_memory_items: 0\n"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
