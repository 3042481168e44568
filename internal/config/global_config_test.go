package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultGlobalConfig(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultMonitorCheckIntervalSeconds, cfg.MonitorConfig.CheckIntervalSeconds)
	assert.Equal(t, DefaultMonitorHTTPTimeoutSeconds, cfg.MonitorConfig.HTTPTimeoutSeconds)
	assert.Equal(t, DefaultArtifactOutputDir, cfg.ArtifactConfig.OutputDir)
	assert.Equal(t, DefaultStorageParquetBasePath, cfg.StorageConfig.ParquetBasePath)
	assert.Equal(t, "console", cfg.LogConfig.LogFormat)
	assert.False(t, cfg.RasterizerConfig.Enabled)
}

func TestLoadGlobalConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
monitor_config:
  monitor_urls:
    - https://rasp.example.edu/spo.pdf
    - https://rasp.example.edu/npo.pdf
  check_interval_seconds: 30
  http_timeout_seconds: 5
artifact_config:
  output_dir: downloads
log_config:
  log_level: debug
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadGlobalConfig(configPath)
	require.NoError(t, err)

	assert.Len(t, cfg.MonitorConfig.MonitorURLs, 2)
	assert.Equal(t, 30, cfg.MonitorConfig.CheckIntervalSeconds)
	assert.Equal(t, 5, cfg.MonitorConfig.HTTPTimeoutSeconds)
	assert.Equal(t, "downloads", cfg.ArtifactConfig.OutputDir)
	assert.Equal(t, "debug", cfg.LogConfig.LogLevel)

	// Sections absent from the file keep their defaults.
	assert.Equal(t, DefaultStorageParquetBasePath, cfg.StorageConfig.ParquetBasePath)
	assert.Equal(t, DefaultMonitorMaxConcurrentChecks, cfg.MonitorConfig.MaxConcurrentChecks)
}

func TestLoadGlobalConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	content := `{"monitor_config": {"check_interval_seconds": 120}}`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadGlobalConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.MonitorConfig.CheckIntervalSeconds)
}

func TestLoadGlobalConfig_MissingFile(t *testing.T) {
	_, err := LoadGlobalConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	existingDir := t.TempDir()

	cfg := NewDefaultGlobalConfig()
	cfg.ArtifactConfig.OutputDir = existingDir
	cfg.MonitorConfig.MonitorURLs = []string{"https://rasp.example.edu/spo.pdf"}
	assert.NoError(t, ValidateConfig(cfg))

	cfg.MonitorConfig.MonitorURLs = []string{"not a url at all"}
	assert.Error(t, ValidateConfig(cfg))

	cfg = NewDefaultGlobalConfig()
	cfg.ArtifactConfig.OutputDir = existingDir
	cfg.MonitorConfig.CheckIntervalSeconds = -1
	assert.Error(t, ValidateConfig(cfg))

	cfg = NewDefaultGlobalConfig()
	cfg.ArtifactConfig.OutputDir = existingDir
	cfg.LogConfig.LogLevel = "verbose"
	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfig_ArtifactOutputDir(t *testing.T) {
	existingDir := t.TempDir()

	cfg := NewDefaultGlobalConfig()
	cfg.ArtifactConfig.OutputDir = filepath.Join(existingDir, "does-not-exist")
	assert.Error(t, ValidateConfig(cfg))

	// A regular file is not an acceptable output directory either.
	blocker := filepath.Join(existingDir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	cfg.ArtifactConfig.OutputDir = blocker
	assert.Error(t, ValidateConfig(cfg))

	cfg.ArtifactConfig.OutputDir = existingDir
	assert.NoError(t, ValidateConfig(cfg))
}

func TestMonitorConfigDurations(t *testing.T) {
	mc := NewDefaultMonitorConfig()
	assert.Equal(t, mc.CheckInterval().Seconds(), float64(DefaultMonitorCheckIntervalSeconds))

	mc.CheckIntervalSeconds = 0
	assert.Equal(t, mc.CheckInterval().Seconds(), float64(DefaultMonitorCheckIntervalSeconds))

	mc.HTTPTimeoutSeconds = 3
	assert.Equal(t, 3.0, mc.HTTPTimeout().Seconds())
}
