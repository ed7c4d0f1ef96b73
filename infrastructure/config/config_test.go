package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, BackendFile, cfg.StorageBackend)
	assert.Equal(t, time.Second, cfg.AutoSaveDelay)
	assert.Equal(t, 5*time.Minute, cfg.ConfirmationTTL)
	assert.False(t, cfg.IsLambda)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neuromap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage_backend: sqlite
sqlite_path: /tmp/maps.db
autosave_delay: 250ms
export_width: 1920
log_level: debug
`), 0o600))

	t.Setenv(ConfigFileEnv, path)
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("CONFIRMATION_TTL", "90000")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.Equal(t, "/tmp/maps.db", cfg.SQLitePath)
	assert.Equal(t, 250*time.Millisecond, cfg.AutoSaveDelay)
	assert.Equal(t, 1920, cfg.ExportWidth)
	assert.Equal(t, 800, cfg.ExportHeight, "unset keys keep their defaults")
	assert.Equal(t, "warn", cfg.LogLevel, "environment wins over the file")
	assert.Equal(t, 90*time.Second, cfg.ConfirmationTTL, "integers are milliseconds")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.StorageBackend = "redis" }, "unknown STORAGE_BACKEND"},
		{"sqlite without path", func(c *Config) { c.StorageBackend = BackendSQLite; c.SQLitePath = "" }, "SQLITE_PATH"},
		{"dynamodb without table", func(c *Config) { c.StorageBackend = BackendDynamoDB; c.DynamoDBTable = "" }, "DYNAMODB_TABLE"},
		{"memory in production", func(c *Config) { c.StorageBackend = BackendMemory; c.Environment = "production" }, "production"},
		{"zero delay", func(c *Config) { c.AutoSaveDelay = 0 }, "AUTOSAVE_DELAY"},
		{"bad threshold", func(c *Config) { c.BreakerFailureThreshold = 1.5 }, "BREAKER_FAILURE_THRESHOLD"},
		{"empty canvas", func(c *Config) { c.CanvasWidth = 0 }, "CANVAS_WIDTH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
