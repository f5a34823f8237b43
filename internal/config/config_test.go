package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.Server.BaseURL)
	assert.Equal(t, []string{".log"}, cfg.Shipper.Extensions)
	assert.Equal(t, 30*time.Second, cfg.ServerTimeout())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  base_url: https://logs.example.com
  timeout: 5s
shipper:
  watch_dir: /var/log/app
  project_name: billing
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://logs.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.ServerTimeout())
	assert.Equal(t, "/var/log/app", cfg.Shipper.WatchDir)
	assert.Equal(t, "billing", cfg.Shipper.ProjectName)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep defaults.
	assert.Equal(t, []string{".log"}, cfg.Shipper.Extensions)
}

func TestLoad_RejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n :bad"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestServerTimeout_FallsBackOnGarbage(t *testing.T) {
	cfg := Default()
	cfg.Server.Timeout = "soon"
	assert.Equal(t, 30*time.Second, cfg.ServerTimeout())
}
