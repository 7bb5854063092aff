package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// DaemonConfig holds the settings of the daemon itself. Clock settings live in
// the settings database instead.
type DaemonConfig struct {
	SPIDevice       string `yaml:"spi"`
	Port            int    `yaml:"port"`
	LEDCount        int    `yaml:"led_count"`
	FPS             int    `yaml:"fps"`
	DBPath          string `yaml:"db"`
	Timezone        string `yaml:"timezone"`
	ColorCorrection bool   `yaml:"color_correction"`
	Debug           bool   `yaml:"debug"`
}

// DefaultDaemonConfig returns the settings used when no file is given.
func DefaultDaemonConfig() DaemonConfig {
	return DaemonConfig{
		SPIDevice:       "/dev/spidev1.0",
		Port:            8080,
		LEDCount:        60,
		FPS:             60,
		DBPath:          "settings.db",
		Timezone:        "Local",
		ColorCorrection: true,
	}
}

// LoadDaemonConfig reads a YAML file over the defaults.
func LoadDaemonConfig(filename string) (DaemonConfig, error) {
	cfg := DefaultDaemonConfig()
	if filename == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("无法读取配置文件 %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("无法解析配置文件 %s: %w", filename, err)
	}
	return cfg, cfg.validate()
}

func (c DaemonConfig) validate() error {
	if c.LEDCount <= 0 {
		return fmt.Errorf("led_count 必须大于 0, 实际 %d", c.LEDCount)
	}
	if c.FPS <= 0 || c.FPS > 1000 {
		return fmt.Errorf("fps 超出范围 (1-1000): %d", c.FPS)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone.
func (c DaemonConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("无效时区 %q: %w", c.Timezone, err)
	}
	return loc, nil
}
