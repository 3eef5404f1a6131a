package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, time.Minute, cfg.ThrottleWindow)
	assert.Equal(t, 10, cfg.ThrottleLimit)
	assert.Equal(t, 200.0, cfg.DeviationThresholdMeters)
}

func TestLoadMissingFileIsOptional(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9090\"\nthrottleLimit: 5\ncacheTtl: 5m\n"), 0o600))

	t.Setenv("THROTTLE_LIMIT", "20")
	t.Setenv("DEVIATION_THRESHOLD_METERS", "150")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	// Environment beats file.
	assert.Equal(t, 20, cfg.ThrottleLimit)
	assert.Equal(t, 150.0, cfg.DeviationThresholdMeters)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not: closed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
