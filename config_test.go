package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDaemonConfigDefaults(t *testing.T) {
	cfg, err := LoadDaemonConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDaemonConfig(), cfg)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoadDaemonConfigFile(t *testing.T) {
	path := writeConfigFile(t, `
spi: none
port: 9090
led_count: 40
timezone: UTC
color_correction: false
`)

	cfg, err := LoadDaemonConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.SPIDevice)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 40, cfg.LEDCount)
	assert.Equal(t, 60, cfg.FPS, "unset keys keep their default")
	assert.Equal(t, "settings.db", cfg.DBPath)
	assert.False(t, cfg.ColorCorrection)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadDaemonConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero leds", "led_count: 0\n"},
		{"negative fps", "fps: -1\n"},
		{"fps too high", "fps: 5000\n"},
		{"unknown timezone", "timezone: Mars/Olympus_Mons\n"},
		{"bad yaml", "led_count: [1, 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDaemonConfig(writeConfigFile(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadDaemonConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
