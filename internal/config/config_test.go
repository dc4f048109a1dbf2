package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./wardround", cfg.Paths.Root)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "remote", cfg.Vision.Mode)
	assert.Equal(t, "http://localhost:1234/v1", cfg.Vision.BaseURL)
	assert.Equal(t, "local-card-reader", cfg.Vision.Model)
	assert.Equal(t, 120, cfg.Vision.TimeoutSecs)
	assert.Equal(t, 3, cfg.Vision.MaxAttempts)
	assert.Equal(t, "remote", cfg.Clinical.Mode)
	assert.Equal(t, "local-ward-planner", cfg.Clinical.Model)
	assert.InDelta(t, 0.75, cfg.Planner.MinOverallConfidence, 0.001)
	assert.InDelta(t, 0.6, cfg.Planner.MinRegionConfidence, 0.001)
	assert.Equal(t, []string{"patient_header", "issues", "tasks"}, cfg.Planner.CriticalRegions)
	assert.Equal(t, 15, cfg.Watch.IntervalSecs)
	assert.True(t, cfg.Watch.Notify)
	assert.Equal(t, "General", cfg.Rounds.DefaultWard)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 5858, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
paths:
  root: /srv/wardround
store:
  driver: jsonfile
vision:
  mode: fixture
  fixtures_dir: /srv/fixtures/vision
planner:
  min_overall_confidence: 0.9
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/wardround", cfg.Paths.Root)
	assert.Equal(t, "jsonfile", cfg.Store.Driver)
	assert.Equal(t, "fixture", cfg.Vision.Mode)
	assert.Equal(t, "/srv/fixtures/vision", cfg.Vision.FixturesDir)
	assert.InDelta(t, 0.9, cfg.Planner.MinOverallConfidence, 0.001)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 15, cfg.Watch.IntervalSecs)
	assert.Equal(t, 5858, cfg.Server.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: jsonfile
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("WARDROUND_STORE_DRIVER", "sqlite")
	t.Setenv("WARDROUND_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("WARDROUND_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with the defaults the pipeline modes need.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Paths.Root = "./wardround"
	cfg.Store.Driver = "sqlite"
	cfg.Vision.BaseURL = "http://localhost:1234/v1"
	cfg.Clinical.BaseURL = "http://localhost:1234/v1"
	cfg.Planner.MinOverallConfidence = 0.75
	cfg.Planner.MinRegionConfidence = 0.6
	cfg.Watch.IntervalSecs = 15
	cfg.Server.Port = 5858
	return cfg
}

func TestValidateServe_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateWatch_InvalidInterval(t *testing.T) {
	cfg := validDefaults()
	cfg.Watch.IntervalSecs = 0

	err := cfg.Validate("watch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "watch.interval_secs")

	// A one-shot import does not poll, so the interval is not checked.
	assert.NoError(t, cfg.Validate("import"))
}

func TestValidateConfidenceThresholds(t *testing.T) {
	cfg := validDefaults()

	cfg.Planner.MinOverallConfidence = -0.1
	err := cfg.Validate("import")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "min_overall_confidence")

	cfg.Planner.MinOverallConfidence = 1.1
	err = cfg.Validate("import")
	assert.Error(t, err)

	cfg.Planner.MinOverallConfidence = 0.75
	cfg.Planner.MinRegionConfidence = 2.0
	err = cfg.Validate("import")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "min_region_confidence")
}

func TestValidateModelModes(t *testing.T) {
	cfg := validDefaults()
	cfg.Vision.Mode = "fixture"

	err := cfg.Validate("import")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "vision.fixtures_dir is required")

	cfg.Vision.FixturesDir = "/srv/fixtures"
	assert.NoError(t, cfg.Validate("import"))

	cfg.Clinical.Mode = "oracle"
	err = cfg.Validate("import")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "clinical.mode")

	cfg.Clinical.Mode = "remote"
	cfg.Clinical.BaseURL = ""
	err = cfg.Validate("import")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "clinical.base_url is required")
}

func TestValidateStoreDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "oracle"

	err := cfg.Validate("admin")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
