package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoad_Defaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/boardflow.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "log", cfg.Notifier.Mode)
	assert.Equal(t, 5*time.Minute, cfg.Workflow.CacheTTL)
}

func TestLoad_File(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
database:
  path: /tmp/test.db
notifier:
  mode: webhook
  webhook_url: http://hooks.local/boardflow
workflow:
  cache_ttl: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, "webhook", cfg.Notifier.Mode)
	assert.Equal(t, "http://hooks.local/boardflow", cfg.Notifier.WebhookURL)
	assert.Equal(t, 30*time.Second, cfg.Workflow.CacheTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	resetViper(t)
	t.Setenv("BOARDFLOW_PORT", "7070")
	t.Setenv("BOARDFLOW_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"missing db path", func(c *Config) { c.Database.Path = "" }, true},
		{"unknown notifier mode", func(c *Config) { c.Notifier.Mode = "carrier-pigeon" }, true},
		{"webhook without url", func(c *Config) { c.Notifier.Mode = "webhook" }, true},
		{"webhook with url", func(c *Config) {
			c.Notifier.Mode = "webhook"
			c.Notifier.WebhookURL = "http://hooks.local"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server:   ServerConfig{Port: 8080},
				Database: DatabaseConfig{Path: "data/test.db"},
				Notifier: NotifierConfig{Mode: "log"},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
