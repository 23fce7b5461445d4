package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by the portal, auth and dispatcher services.
type Config struct {
	// HTTP
	PortalPort string
	AuthPort   string

	// Categorization backend
	BackendURL     string
	BackendTimeout time.Duration

	// Dashboard
	PollInterval time.Duration

	// Sessions
	JWTSecret  string
	SessionTTL time.Duration

	// Drafts (empty MongoURI keeps drafts in memory)
	MongoURI   string
	MongoDB    string
	DraftTTL   time.Duration
	AnonEncKey string

	// Officer accounts
	PostgresDSN    string
	SeedAdminEmail string
	SeedAdminPass  string
	SeedAdminName  string

	// Events (empty RabbitMQURL disables publishing)
	RabbitMQURL string
	Exchange    string

	// Exports (empty MinioEndpoint disables CSV export)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	ExportURLTTL   time.Duration

	// Logging
	LogLevel string
}

// Load reads configuration from the environment. When envFile is non-empty
// its keys are applied first, without overriding variables already set.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		envMap, err := godotenv.Read(envFile)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	cfg := &Config{
		PortalPort: getEnvOrDefault("PORTAL_PORT", "8085"),
		AuthPort:   getEnvOrDefault("AUTH_PORT", "8081"),

		BackendURL:     strings.TrimRight(getEnvOrDefault("BACKEND_URL", "http://127.0.0.1:8000"), "/"),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 15*time.Second),

		PollInterval: getEnvDuration("DASHBOARD_POLL_INTERVAL", 5*time.Second),

		JWTSecret:  getEnvOrDefault("JWT_SECRET", "SUPER_SECRET_KEY_CHANGE_ME"),
		SessionTTL: getEnvDuration("SESSION_TTL", 24*time.Hour),

		MongoURI:   buildMongoURI(),
		MongoDB:    getEnvOrDefault("MONGO_DB", "portal_db"),
		DraftTTL:   getEnvDuration("DRAFT_TTL", 24*time.Hour),
		AnonEncKey: os.Getenv("ANON_ENC_KEY"),

		PostgresDSN:    buildPostgresDSN(),
		SeedAdminEmail: os.Getenv("SEED_ADMIN_EMAIL"),
		SeedAdminPass:  os.Getenv("SEED_ADMIN_PASSWORD"),
		SeedAdminName:  getEnvOrDefault("SEED_ADMIN_NAME", "District Admin"),

		RabbitMQURL: buildRabbitMQURL(),
		Exchange:    getEnvOrDefault("RABBITMQ_EXCHANGE", "complaints"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnvOrDefault("MINIO_BUCKET", "dashboard-exports"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		ExportURLTTL:   getEnvDuration("EXPORT_URL_TTL", 15*time.Minute),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present and sane.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL cannot be empty")
	}
	if !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		return fmt.Errorf("BACKEND_URL must start with http:// or https://")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("DASHBOARD_POLL_INTERVAL must be positive")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.SeedAdminEmail != "" && len(c.SeedAdminPass) < 8 {
		return fmt.Errorf("SEED_ADMIN_PASSWORD must be at least 8 characters when SEED_ADMIN_EMAIL is set")
	}
	if c.MinioEndpoint != "" && (c.MinioAccessKey == "" || c.MinioSecretKey == "") {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}
	return nil
}

func buildMongoURI() string {
	if v := os.Getenv("MONGO_URI"); v != "" {
		return v
	}
	if os.Getenv("MONGO_HOST") == "" {
		return ""
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%s",
		os.Getenv("MONGO_USER"),
		os.Getenv("MONGO_PASSWORD"),
		os.Getenv("MONGO_HOST"),
		getEnvOrDefault("MONGO_PORT", "27017"),
	)
}

func buildPostgresDSN() string {
	if os.Getenv("POSTGRES_HOST") == "" {
		return "host=localhost user=admin password=password dbname=auth_db port=5434 sslmode=disable TimeZone=UTC"
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		os.Getenv("POSTGRES_HOST"),
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("POSTGRES_DB"),
		getEnvOrDefault("POSTGRES_PORT", "5432"),
	)
}

func buildRabbitMQURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	if os.Getenv("RABBITMQ_HOST") == "" {
		return ""
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		getEnvOrDefault("RABBITMQ_USER", "guest"),
		getEnvOrDefault("RABBITMQ_PASS", "guest"),
		os.Getenv("RABBITMQ_HOST"),
		getEnvOrDefault("RABBITMQ_PORT", "5672"),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
