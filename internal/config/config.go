package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration for the reorder engine server
// and CLI.
type Config struct {
	// Application settings
	AppEnv  string
	AppPort int

	// Repository backend selection
	RepositoryBackend string // csv | sqlite | postgres
	CSVDataDir        string
	SQLitePath        string
	DatabaseURL       string // postgres DSN, only used when RepositoryBackend == "postgres"
	RunMigrations     bool

	// Settings tree
	SettingsPath string // path to a nested settings file; not read by any code here

	// CORS settings
	CORSAllowedOrigins   string
	CORSAllowCredentials bool

	// Logging
	LogLevel  string
	LogFormat string

	// NATS settings (explain/audit event publishing)
	NATSURL     string
	NATSEnabled bool

	// Batch execution
	MaxConcurrentSKUs int
	BatchTimeout      time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnvAsInt("APP_PORT", 8080),

		RepositoryBackend: getEnv("REPOSITORY_BACKEND", "csv"),
		CSVDataDir:        getEnv("CSV_DATA_DIR", "./data"),
		SQLitePath:        getEnv("SQLITE_PATH", "./reorder.db"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RunMigrations:     getEnvAsBool("RUN_MIGRATIONS", false),

		SettingsPath: getEnv("SETTINGS_PATH", "./settings.yaml"),

		CORSAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		CORSAllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", true),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		NATSURL:     getEnv("NATS_URL", "nats://localhost:4222"),
		NATSEnabled: getEnvAsBool("NATS_ENABLED", false),

		MaxConcurrentSKUs: getEnvAsInt("MAX_CONCURRENT_SKUS", 0), // 0 = runtime.GOMAXPROCS(0)
		BatchTimeout:      getEnvAsDuration("BATCH_TIMEOUT", 10*time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and consistent.
func (c *Config) Validate() error {
	switch c.RepositoryBackend {
	case "csv":
		if c.CSVDataDir == "" {
			return fmt.Errorf("CSV_DATA_DIR is required when REPOSITORY_BACKEND=csv")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when REPOSITORY_BACKEND=sqlite")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when REPOSITORY_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown REPOSITORY_BACKEND: %s", c.RepositoryBackend)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
