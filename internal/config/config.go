package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// Storage
	StorageBackend string // "local" or "s3"
	StoragePath    string // Local objects and the staging area live below this directory
	StagingPath    string

	// Quotas and ingestion
	QuotaLimit     int64         // Default per-user quota in bytes
	MaxUploadSize  int64         // Upper bound for a single upload request body
	UploadCooldown time.Duration // Minimum gap between two accepted batches of one user

	// Observability (optional)
	SentryDSN      string
	MetricsEnabled bool

	// S3-compatible object store (only read when StorageBackend is "s3")
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)
}

// Load reads the server configuration and exits on missing required settings.
func Load() *Config {
	return load(true)
}

// LoadTool reads the configuration for admin tooling, which never issues
// sessions and so does not need APP_ENV or JWT_SECRET.
func LoadTool() *Config {
	return load(false)
}

func load(server bool) *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	storagePath := envString("STORAGE_PATH", "./data/storage")

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "VinnoDrive"),
		AppEnv:  envServer(server, "APP_ENV", "development"), // Required for the server: 'development' or 'production'
		AppURL:  envString("APP_URL", "http://localhost:8090"),
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/vinnodrive.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"),

		// Security
		JWTSecret: envServer(server, "JWT_SECRET", ""),
		JWTExpiry: envDuration("JWT_EXPIRY", 24*time.Hour),

		// Storage
		StorageBackend: envString("STORAGE_BACKEND", "local"),
		StoragePath:    storagePath,
		StagingPath:    envString("STAGING_PATH", filepath.Join(storagePath, "staging")),

		// Quotas and ingestion
		QuotaLimit:     envBytes("QUOTA_LIMIT", 1<<30),        // 1 GiB
		MaxUploadSize:  envBytes("MAX_UPLOAD_SIZE", 512<<20),  // 512 MiB
		UploadCooldown: envDuration("UPLOAD_COOLDOWN", 500*time.Millisecond),

		// Observability
		SentryDSN:      envString("SENTRY_DSN", ""),
		MetricsEnabled: envBool("METRICS_ENABLED", true),

		// S3
		S3Region:    envString("S3_REGION", "us-east-1"),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),
	}

	validate(cfg, server)

	return cfg
}

// validate stops the process on settings that would only fail later at first use.
func validate(cfg *Config, server bool) {
	switch cfg.StorageBackend {
	case "local":
	case "s3":
		if cfg.S3Bucket == "" {
			slog.Error("config S3_BUCKET is required when STORAGE_BACKEND=s3")
			os.Exit(1)
		}
	default:
		slog.Error("config invalid storage backend", "value", cfg.StorageBackend, "allowed", "local, s3")
		os.Exit(1)
	}

	if server && cfg.IsProduction() && len(cfg.JWTSecret) < 32 {
		slog.Error("production deployment requires a JWT_SECRET of at least 32 characters")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envBytes accepts plain byte counts as well as sizes like "100MB" or "1GiB".
func envBytes(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := humanize.ParseBytes(v)
	if err != nil || n > 1<<62 {
		slog.Warn("config invalid size, using default", "key", key, "value", v, "default", humanize.IBytes(uint64(def)))
		return def
	}
	return int64(n)
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func envServer(server bool, key, def string) string {
	if server {
		return envRequired(key)
	}
	return envString(key, def)
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Sanitized returns a copy of the config with only public/safe fields.
// Secrets and credentials are excluded, so the result is safe to log.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:        c.AppName,
		AppEnv:         c.AppEnv,
		AppURL:         c.AppURL,
		Port:           c.Port,
		DBDriver:       c.DBDriver,
		StorageBackend: c.StorageBackend,
		StoragePath:    c.StoragePath,
		StagingPath:    c.StagingPath,
		QuotaLimit:     c.QuotaLimit,
		MaxUploadSize:  c.MaxUploadSize,
		UploadCooldown: c.UploadCooldown,
		MetricsEnabled: c.MetricsEnabled,
		S3Region:       c.S3Region,
		S3Bucket:       c.S3Bucket,
		S3Endpoint:     c.S3Endpoint,
	}
}
