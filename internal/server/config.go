package server

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageDisk  = "disk"
	StorageMinio = "minio"
)

// Config is the complete runtime configuration, read once at startup.
type Config struct {
	Addr             string
	UploadDir        string
	MaxContentLength int64

	DBUser      string
	DBPass      string
	DBHost      string
	DBName      string
	DBSSLMode   string
	AutoMigrate bool

	Storage string
	Minio   MinioConfig

	Log LogConfig
}

// MinioConfig configures the object storage backend.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// LoadConfig reads a local .env (if any) and then the process environment.
// Variables already present in the environment are never overridden by .env.
// All problems are reported together.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return ConfigFromEnv()
}

// ConfigFromEnv builds and validates a Config from the environment only.
func ConfigFromEnv() (Config, error) {
	v := NewConfigValidator()

	cfg := Config{
		Addr:      getenvDefault("PDF_ADDR", "0.0.0.0:5000"),
		UploadDir: v.ValidateRequired("UPLOAD_FOLDER"),
		DBUser:    v.ValidateRequired("DB_USER"),
		DBPass:    v.ValidateRequired("DB_PASS"),
		DBHost:    v.ValidateRequired("DB_HOST"),
		DBName:    v.ValidateRequired("DB_NAME"),
		DBSSLMode: getenvDefault("DB_SSLMODE", "disable"),
		Storage:   getenvDefault("PDF_STORAGE", StorageDisk),
		Log: LogConfig{
			Level:    getenvDefault("PDF_LOG_LEVEL", "info"),
			Format:   getenvDefault("PDF_LOG_FORMAT", "text"),
			FilePath: os.Getenv("PDF_LOG_FILE"),
		},
	}

	if raw := v.ValidateRequired("MAX_CONTENT_LENGTH"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		switch {
		case err != nil:
			v.AddError("MAX_CONTENT_LENGTH", "must be a valid integer")
		case n <= 0:
			v.AddError("MAX_CONTENT_LENGTH", "must be a positive integer")
		default:
			cfg.MaxContentLength = n
		}
	}

	cfg.AutoMigrate = true
	if raw := os.Getenv("DB_AUTO_MIGRATE"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			v.AddError("DB_AUTO_MIGRATE", "must be a boolean")
		}
		cfg.AutoMigrate = b
	}

	v.ValidateEnum("DB_SSLMODE", cfg.DBSSLMode, []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"})
	v.ValidateEnum("PDF_STORAGE", cfg.Storage, []string{StorageDisk, StorageMinio})
	v.ValidateEnum("PDF_LOG_LEVEL", cfg.Log.Level, []string{"debug", "info", "warn", "error"})
	v.ValidateEnum("PDF_LOG_FORMAT", cfg.Log.Format, []string{"text", "json"})
	v.ValidatePort("PDF_ADDR", portOf(cfg.Addr))

	if cfg.Storage == StorageMinio {
		cfg.Minio = MinioConfig{
			Endpoint:  v.ValidateRequired("PDF_S3_ENDPOINT"),
			AccessKey: v.ValidateRequired("PDF_S3_ACCESS_KEY"),
			SecretKey: v.ValidateRequired("PDF_S3_SECRET_KEY"),
			Bucket:    v.ValidateRequired("PDF_BUCKET"),
		}
	}

	if v.HasErrors() {
		return Config{}, v
	}
	return cfg, nil
}

// DSN returns the PostgreSQL connection URL for the configured database.
func (c Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPass),
		Host:   c.DBHost,
		Path:   "/" + c.DBName,
	}
	q := url.Values{}
	sslmode := c.DBSSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}

// portOf returns the port part of a listen address, or "" when there is none.
func portOf(addr string) string {
	i := strings.LastIndexByte(addr, ':')
	if i < 0 {
		return ""
	}
	return addr[i+1:]
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
