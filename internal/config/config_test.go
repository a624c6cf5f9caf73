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
	assert.Equal(t, "/backend-data/tmp", cfg.ScratchDir)
	assert.Equal(t, time.Duration(0), cfg.InferenceTimeout)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("CDAPI_SCRATCH_DIR", "/scratch")
	t.Setenv("CDAPI_INFERENCE_TIMEOUT", "90s")
	t.Setenv("CDAPI_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/scratch", cfg.ScratchDir)
	assert.Equal(t, 90*time.Second, cfg.InferenceTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("geoserver_workspace: floods\nport: \"9090\"\n"), 0o600))
	t.Setenv("CDAPI_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "floods", cfg.GeoserverWorkspace)
	assert.Equal(t, "7070", cfg.Port, "environment wins over the file")
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("CDAPI_INFERENCE_TIMEOUT", "soon")
	_, err := Load("")
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
