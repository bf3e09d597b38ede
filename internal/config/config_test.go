package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvBytes(t *testing.T) {
	t.Setenv("TEST_SIZE", "10MiB")
	assert.Equal(t, int64(10<<20), envBytes("TEST_SIZE", 1))

	t.Setenv("TEST_SIZE", "2048")
	assert.Equal(t, int64(2048), envBytes("TEST_SIZE", 1))

	t.Setenv("TEST_SIZE", "lots")
	assert.Equal(t, int64(1), envBytes("TEST_SIZE", 1))

	t.Setenv("TEST_SIZE", "")
	assert.Equal(t, int64(7), envBytes("TEST_SIZE", 7))
}

func TestEnvDurationAndBool(t *testing.T) {
	t.Setenv("TEST_WAIT", "250ms")
	assert.Equal(t, 250*time.Millisecond, envDuration("TEST_WAIT", time.Second))

	t.Setenv("TEST_WAIT", "soon")
	assert.Equal(t, time.Second, envDuration("TEST_WAIT", time.Second))

	t.Setenv("TEST_FLAG", "false")
	assert.False(t, envBool("TEST_FLAG", true))

	t.Setenv("TEST_FLAG", "maybe")
	assert.True(t, envBool("TEST_FLAG", true))
}

func TestLoadTool_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORAGE_PATH", "/srv/vinnodrive")
	t.Setenv("STAGING_PATH", "")
	t.Setenv("QUOTA_LIMIT", "5GB")
	t.Setenv("STORAGE_BACKEND", "")

	cfg := LoadTool()
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "local", cfg.StorageBackend)
	assert.Equal(t, "/srv/vinnodrive/staging", cfg.StagingPath)
	assert.Equal(t, int64(5_000_000_000), cfg.QuotaLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.UploadCooldown)
}

func TestSanitized_DropsSecrets(t *testing.T) {
	cfg := &Config{
		AppName:     "VinnoDrive",
		JWTSecret:   "secret",
		S3SecretKey: "s3-secret",
		SentryDSN:   "https://key@sentry.example/1",
		QuotaLimit:  42,
	}

	safe := cfg.Sanitized()
	assert.Equal(t, "VinnoDrive", safe.AppName)
	assert.Equal(t, int64(42), safe.QuotaLimit)
	assert.Empty(t, safe.JWTSecret)
	assert.Empty(t, safe.S3SecretKey)
	assert.Empty(t, safe.SentryDSN)
}
