package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/energyd/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Load parses os.Args, so tests pin it to a bare invocation.
func setArgs(t *testing.T, args ...string) {
	t.Helper()
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = append([]string{"energyd"}, args...)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "energyd.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return configPath
}

func TestLoad(t *testing.T) {
	setArgs(t)

	configPath := writeConfig(t, `
gpiochip = "gpiochip1"
gpiopin = 23
glitch = 30000
minwindow = 10
maxwindow = 600
flushinterval = 120
maxbatch = 1000
database = "/path/to/energy.db"
log_level = "debug"
`)
	t.Setenv("ENERGYD_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "gpiochip1", cfg.GPIOChip, "Expected GPIOChip gpiochip1")
	assert.Equal(t, 23, cfg.GPIOPin, "Expected GPIOPin 23")
	assert.Equal(t, 30000, cfg.Glitch, "Expected Glitch 30000")
	assert.Equal(t, 10, cfg.MinWindow, "Expected MinWindow 10")
	assert.Equal(t, 600, cfg.MaxWindow, "Expected MaxWindow 600")
	assert.Equal(t, 120, cfg.FlushInterval, "Expected FlushInterval 120")
	assert.Equal(t, 1000, cfg.MaxBatch, "Expected MaxBatch 1000")
	assert.Equal(t, "/path/to/energy.db", cfg.Database, "Expected Database /path/to/energy.db")
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel debug")
}

func TestLoadDefaults(t *testing.T) {
	setArgs(t)
	t.Setenv("ENERGYD_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, "gpiochip0", cfg.GPIOChip, "Expected default GPIOChip gpiochip0")
	assert.Equal(t, 18, cfg.GPIOPin, "Expected default GPIOPin 18")
	assert.Equal(t, 50000, cfg.Glitch, "Expected default Glitch 50000")
	assert.Equal(t, 5, cfg.MinWindow, "Expected default MinWindow 5")
	assert.Equal(t, 300, cfg.MaxWindow, "Expected default MaxWindow 300")
	assert.Equal(t, 60, cfg.FlushInterval, "Expected default FlushInterval 60")
	assert.Equal(t, 5000, cfg.MaxBatch, "Expected default MaxBatch 5000")
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel, "Expected default LogLevel info")
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	setArgs(t)

	configPath := writeConfig(t, `
This is not a valid TOML file
`)
	t.Setenv("ENERGYD_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestInvalidLogLevel(t *testing.T) {
	setArgs(t)

	configPath := writeConfig(t, `
log_level = "invalid"
`)
	t.Setenv("ENERGYD_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_log_level")
}

func TestLogLevelFlag(t *testing.T) {
	setArgs(t, "--log-level", "debug")
	t.Setenv("ENERGYD_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	setArgs(t, "--gpiopin", "24", "--flushinterval", "30")

	configPath := writeConfig(t, `
gpiopin = 23
flushinterval = 120
`)
	t.Setenv("ENERGYD_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.GPIOPin, "Expected flag to override config file")
	assert.Equal(t, 30, cfg.FlushInterval, "Expected flag to override config file")
}

func TestInvalidValues(t *testing.T) {
	for name, content := range map[string]string{
		"negative glitch":    "glitch = -1",
		"negative minwindow": "minwindow = -5",
		"zero flushinterval": "flushinterval = 0",
		"zero maxbatch":      "maxbatch = 0",
		"empty database":     `database = ""`,
	} {
		t.Run(name, func(t *testing.T) {
			setArgs(t)
			t.Setenv("ENERGYD_CONFIG", writeConfig(t, content))

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
