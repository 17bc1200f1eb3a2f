package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deppfellow/guardrail-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("BOILERPLATE_PRIMARY__ENV", "test")
	t.Setenv("BOILERPLATE_DATABASE__HOST", "localhost")
	t.Setenv("BOILERPLATE_DATABASE__PORT", "5432")
	t.Setenv("BOILERPLATE_DATABASE__USER", "postgres")
	t.Setenv("BOILERPLATE_DATABASE__PASSWORD", "postgres")
	t.Setenv("BOILERPLATE_DATABASE__NAME", "guardrail")
	t.Setenv("BOILERPLATE_REDIS__ADDRESS", "localhost:6379")
	t.Setenv("BOILERPLATE_AUTH__SECRET_KEY", "sk_test_123")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "2M", cfg.Server.BodyLimit)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.False(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, 3*time.Minute, cfg.Server.RateLimit.ExpiresIn)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	require.NotNil(t, cfg.Observability)
	assert.Equal(t, "guardrail-api", cfg.Observability.ServiceName)
	assert.Equal(t, "test", cfg.Observability.Environment)
	assert.Equal(t, "guardrail", cfg.Observability.MetricsNamespace())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BOILERPLATE_SERVER__PORT", "9000")
	t.Setenv("BOILERPLATE_SERVER__RATE_LIMIT__ENABLED", "true")
	t.Setenv("BOILERPLATE_SERVER__RATE_LIMIT__BURST", "5")
	t.Setenv("BOILERPLATE_DATABASE__AUTO_MIGRATE", "true")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, 5, cfg.Server.RateLimit.Burst)
	assert.True(t, cfg.Database.AutoMigrate)
}

func TestLoadConfig_File(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "7000"
integration:
  resend_api_key: re_test
  email_from: todos@example.com
`), 0o600))
	t.Setenv(config.ConfigFileEnv, path)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "re_test", cfg.Integration.ResendAPIKey)
	assert.Equal(t, "todos@example.com", cfg.Integration.EmailFrom)
}

func TestLoadConfig_EnvWinsOverFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"7000\"\n"), 0o600))
	t.Setenv(config.ConfigFileEnv, path)
	t.Setenv("BOILERPLATE_SERVER__PORT", "7100")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "7100", cfg.Server.Port)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BOILERPLATE_AUTH__SECRET_KEY", "")

	_, err := config.LoadConfig()
	assert.ErrorContains(t, err, "config validation failed")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(config.ConfigFileEnv, filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := config.LoadConfig()
	assert.ErrorContains(t, err, "loading config file")
}

func TestObservabilityConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.ObservabilityConfig)
		wantErr string
	}{
		{name: "defaults", mutate: func(*config.ObservabilityConfig) {}},
		{
			name:    "bad level",
			mutate:  func(c *config.ObservabilityConfig) { c.Logging.Level = "verbose" },
			wantErr: "invalid logging level",
		},
		{
			name:    "bad format",
			mutate:  func(c *config.ObservabilityConfig) { c.Logging.Format = "xml" },
			wantErr: "invalid logging format",
		},
		{
			name:    "negative threshold",
			mutate:  func(c *config.ObservabilityConfig) { c.Logging.SlowQueryThreshold = -time.Second },
			wantErr: "slow_query_threshold",
		},
		{
			name:    "missing service name",
			mutate:  func(c *config.ObservabilityConfig) { c.ServiceName = "" },
			wantErr: "service_name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.DefaultObservabilityConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestObservabilityConfig_GetLogLevel(t *testing.T) {
	c := config.DefaultObservabilityConfig()
	c.Logging.Level = ""

	c.Environment = "development"
	assert.Equal(t, "debug", c.GetLogLevel())

	c.Environment = "production"
	assert.Equal(t, "info", c.GetLogLevel())
	assert.True(t, c.IsProduction())

	c.Logging.Level = "warn"
	assert.Equal(t, "warn", c.GetLogLevel())
}
