package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"SERVICE_NAME", "ENV", "LOG_LEVEL", "HTTP_ADDR", "STORE_BACKEND", "DATA_FILE",
	"DATABASE_URL", "REDIS_ADDR", "LOCK_TTL", "ADULT_AGE", "OTEL_EXPORTER_OTLP_ENDPOINT",
	"OTEL_EXPORTER_OTLP_INSECURE", "OTEL_TRACES_SAMPLER_ARG", "SHUTDOWN_TIMEOUT",
}

// clearEnv blanks every key for the test; t.Setenv restores the old values.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, BackendFile, cfg.StoreBackend)
	assert.Equal(t, "data.json", cfg.DataFile)
	assert.Equal(t, 5*time.Second, cfg.LockTTL)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 18, cfg.AdultAge)
	assert.Equal(t, 1.0, cfg.TraceSampling)
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", BackendPostgres)
	t.Setenv("DATABASE_URL", "postgres://localhost/shop")
	t.Setenv("ADULT_AGE", "21")
	t.Setenv("LOCK_TTL", "2s")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, 21, cfg.AdultAge)
	assert.Equal(t, 2*time.Second, cfg.LockTTL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestInvalidValuesAreErrors(t *testing.T) {
	tests := map[string]string{
		"ADULT_AGE":                   "adult",
		"LOCK_TTL":                    "forever",
		"SHUTDOWN_TIMEOUT":            "10",
		"STORE_BACKEND":               "mongo",
		"OTEL_EXPORTER_OTLP_INSECURE": "maybe",
		"OTEL_TRACES_SAMPLER_ARG":     "half",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := LoadFrom("")
			assert.Error(t, err)
		})
	}
}

func TestPostgresNeedsDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", BackendPostgres)
	_, err := LoadFrom("")
	require.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://localhost/shop")
	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/shop", cfg.DatabaseURL)
}

func TestRedisLockNeedsSharedBackend(t *testing.T) {
	for _, backend := range []string{BackendFile, BackendMemory} {
		t.Run(backend, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("STORE_BACKEND", backend)
			t.Setenv("REDIS_ADDR", "localhost:6379")

			_, err := LoadFrom("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "REDIS_ADDR")
		})
	}
}

func TestDotenvFileDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9000")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=:7000\n"), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
}

func TestMissingDotenvIsIgnored(t *testing.T) {
	clearEnv(t)
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
