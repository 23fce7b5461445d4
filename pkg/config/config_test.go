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
	for _, k := range []string{"BACKEND_URL", "DASHBOARD_POLL_INTERVAL", "MONGO_URI", "MONGO_HOST", "RABBITMQ_URL", "RABBITMQ_HOST", "MINIO_ENDPOINT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8000", cfg.BackendURL)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Empty(t, cfg.MongoURI)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.Equal(t, "complaints", cfg.Exchange)
}

func TestLoadTrimsBackendURL(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://ai.local:9000/")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://ai.local:9000", cfg.BackendURL)
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORTAL_PORT=9999\nDASHBOARD_POLL_INTERVAL=2s\n"), 0o600))

	t.Setenv("PORTAL_PORT", "7000")
	t.Setenv("DASHBOARD_POLL_INTERVAL", "")
	os.Unsetenv("DASHBOARD_POLL_INTERVAL")
	t.Cleanup(func() { os.Unsetenv("DASHBOARD_POLL_INTERVAL") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.PortalPort)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad scheme", func(c *Config) { c.BackendURL = "ftp://x" }, true},
		{"zero poll", func(c *Config) { c.PollInterval = 0 }, true},
		{"blank secret", func(c *Config) { c.JWTSecret = "  " }, true},
		{"minio without creds", func(c *Config) { c.MinioEndpoint = "minio:9000" }, true},
		{"short seed password", func(c *Config) { c.SeedAdminEmail = "admin@civisense.gov.in"; c.SeedAdminPass = "short" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				BackendURL:   "http://localhost:8000",
				PollInterval: time.Second,
				JWTSecret:    "secret",
				SessionTTL:   time.Hour,
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

func TestBuildRabbitMQURL(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("RABBITMQ_HOST", "mq")
	t.Setenv("RABBITMQ_USER", "")
	t.Setenv("RABBITMQ_PASS", "")
	t.Setenv("RABBITMQ_PORT", "")

	assert.Equal(t, "amqp://guest:guest@mq:5672/", buildRabbitMQURL())
}
