package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// StorageConfig selects and parameterizes the blob storage backend.
// Driver is one of "minio", "gcs", "memory".
type StorageConfig struct {
	Driver string
	// RemoveOnDelete controls whether soft-deleting a document also issues a
	// best-effort removal of its storage object. When false (the default)
	// the object is retained so restore never leaves a dangling file URL.
	RemoveOnDelete bool
	MinIO          MinIOConfig
	GCS            GCSConfig
}

// MinIOConfig holds object storage settings for S3-compatible buckets.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// GCSConfig holds Google Cloud Storage settings. Credentials are resolved
// from the ambient environment by the client library.
type GCSConfig struct {
	Bucket string
}

// ViewsConfig parameterizes view accounting.
// DedupWindowSec = 0 means every qualifying read increments the counter;
// any positive value is the per-reader, per-document dedup window.
type ViewsConfig struct {
	DedupWindowSec int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost    string
	Port       string
	AdminToken string
	Database   DatabaseConfig
	Storage    StorageConfig
	Views      ViewsConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:    getEnv("APP_HOST", "localhost:8080"),
		Port:       getEnv("PORT", "8080"), // default only for non-sensitive value
		AdminToken: getEnv("ADMIN_TOKEN", ""),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Storage: StorageConfig{
			Driver:         getEnv("STORAGE_DRIVER", "minio"),
			RemoveOnDelete: getEnvBool("STORAGE_REMOVE_ON_DELETE", false),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			GCS: GCSConfig{
				Bucket: getEnv("GCS_BUCKET", ""),
			},
		},
		Views: ViewsConfig{
			DedupWindowSec: getEnvInt("VIEW_DEDUP_WINDOW_SEC", 86400),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
