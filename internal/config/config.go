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

// MinIOConfig holds object storage settings when the tiers run on an
// S3-compatible backend. Leaving Endpoint empty selects local-disk tiers.
type MinIOConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBucket  string
	PrivateBucket string
	UseSSL        bool
}

// StorageConfig holds the storage-tier layout and file-identity defaults.
type StorageConfig struct {
	PublicRoot     string
	PrivateRoot    string
	PublicBaseURL  string
	PrivateBaseURL string
	// DefaultVisibility is the tier newly uploaded files land in.
	DefaultVisibility string
	// CanonicalURLTemplate renders stable retrieval URLs; %d receives the
	// canonical timestamp and %s the record id. Empty disables them.
	CanonicalURLTemplate string
	// UseLocalTime interprets the canonical epoch in the process timezone
	// instead of UTC.
	UseLocalTime bool
}

// DeliveryConfig selects and parameterizes the delivery backend.
type DeliveryConfig struct {
	// Backend is one of "direct", "nginx", "xsendfile".
	Backend string
	// AccelRedirectHeader is the redirect-instruction header for the nginx
	// backend.
	AccelRedirectHeader string
	// AccelRedirectLocation is the internal nginx location prefix mapped to
	// the private storage root.
	AccelRedirectLocation string
	// SendfileHeader is the path-instruction header for the xsendfile
	// backend.
	SendfileHeader string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not
// hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Storage  StorageConfig
	Delivery DeliveryConfig
}

// Load reads configuration from environment variables. A .env file can be
// auto-loaded by importing: _ "github.com/joho/godotenv/autoload". Real
// environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"),
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
		MinIO: MinIOConfig{
			Endpoint:      getEnv("MINIO_ENDPOINT", ""),
			AccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:     getEnv("MINIO_SECRET_KEY", ""),
			PublicBucket:  getEnv("MINIO_PUBLIC_BUCKET", ""),
			PrivateBucket: getEnv("MINIO_PRIVATE_BUCKET", ""),
			UseSSL:        getEnvBool("MINIO_USE_SSL", false),
		},
		Storage: StorageConfig{
			PublicRoot:           getEnv("STORAGE_PUBLIC_ROOT", "data/public"),
			PrivateRoot:          getEnv("STORAGE_PRIVATE_ROOT", "data/private"),
			PublicBaseURL:        getEnv("STORAGE_PUBLIC_BASE_URL", "/media"),
			PrivateBaseURL:       getEnv("STORAGE_PRIVATE_BASE_URL", ""),
			DefaultVisibility:    getEnv("STORAGE_DEFAULT_VISIBILITY", "public"),
			CanonicalURLTemplate: getEnv("CANONICAL_URL_TEMPLATE", ""),
			UseLocalTime:         getEnvBool("STORAGE_USE_LOCAL_TIME", false),
		},
		Delivery: DeliveryConfig{
			Backend:               getEnv("DELIVERY_BACKEND", "direct"),
			AccelRedirectHeader:   getEnv("DELIVERY_ACCEL_REDIRECT_HEADER", "X-Accel-Redirect"),
			AccelRedirectLocation: getEnv("DELIVERY_ACCEL_REDIRECT_LOCATION", "/protected"),
			SendfileHeader:        getEnv("DELIVERY_SENDFILE_HEADER", "X-Sendfile"),
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
