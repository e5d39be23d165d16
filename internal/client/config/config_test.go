package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerURL)
	assert.Equal(t, "gophnotes.db", c.DatabasePath)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_DefaultsWithoutArgs(t *testing.T) {
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerURL)
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"server_url":      "http://json.example:8080",
		"request_timeout": "30s",
	})

	cfg, err := LoadConfig([]string{"-c", path, "-a", "https://flag.example"})
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example", cfg.ServerURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"not a url", func(c *Config) { c.ServerURL = "127.0.0.1:8080" }},
		{"grpc scheme", func(c *Config) { c.ServerURL = "grpc://host" }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"zero interval", func(c *Config) { c.OnlineCheckInterval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.modify(&c)
			assert.Error(t, c.Validate())
		})
	}
}
