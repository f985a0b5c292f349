package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allConfigKeys = []string{
	"APP_NAME", "APP_ENV", "APP_HOST", "APP_PORT", "APP_VERSION", "HTTP_REQUEST_TIMEOUT_SECONDS",
	"STORE_DRIVER", "POSTGRES_DSN", "POSTGRES_MAX_CONNS", "POSTGRES_MIN_CONNS", "POSTGRES_RUN_MIGRATIONS",
	"POSTGRES_CONN_MAX_IDLE_SECONDS", "POSTGRES_CONN_MAX_LIFE_SECONDS", "SQLITE_PATH",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "LOG_LEVEL", "LOG_FORMAT",
	"AUTH_JWT_SECRET", "AUTH_ACCESS_TOKEN_TTL_MINUTES", "AUTH_BCRYPT_COST",
	"AUTH_LOGIN_MAX_FAILURES", "AUTH_LOGIN_LOCKOUT_MINUTES",
	"AUTH_BOOTSTRAP_ADMIN_LOGIN", "AUTH_BOOTSTRAP_ADMIN_PASSWORD", "AUDIT_WEBHOOK_URL",
	"AUDIT_WEBHOOK_TIMEOUT_SECONDS",
}

// isolateConfigEnv unsets every key Load reads and restores them afterwards.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "project-planner", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "data/project-planner.db", cfg.SQLite.Path)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 72*time.Hour, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, 15*time.Minute, cfg.Auth.LoginLockout())
	assert.Equal(t, 5, cfg.Auth.LoginMaxFailures)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Empty(t, cfg.Audit.WebhookURL)
	assert.Equal(t, 5*time.Second, cfg.Audit.WebhookTimeout())
}

func TestLoad_Overrides(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/pp.db")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "90")
	t.Setenv("AUTH_BOOTSTRAP_ADMIN_LOGIN", "  root ")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")
	t.Setenv("POSTGRES_MAX_CONNS", "not-a-number")
	t.Setenv("AUDIT_WEBHOOK_URL", " http://hooks.local/audit ")
	t.Setenv("AUDIT_WEBHOOK_TIMEOUT_SECONDS", "2")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/pp.db", cfg.SQLite.Path)
	assert.Equal(t, 90*time.Minute, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, "root", cfg.Auth.BootstrapAdminLogin)
	assert.Zero(t, cfg.App.RequestTimeout())
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
	assert.Equal(t, "http://hooks.local/audit", cfg.Audit.WebhookURL)
	assert.Equal(t, 2*time.Second, cfg.Audit.WebhookTimeout())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "invalid redis db", env: map[string]string{"REDIS_DB": "x"}},
		{name: "unknown store driver", env: map[string]string{"STORE_DRIVER": "mysql"}},
		{name: "dev secret in production", env: map[string]string{"APP_ENV": "production"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "a-real-secret")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "a-real-secret", cfg.Auth.JWTSecret)
}
