package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"mondesavoir/database"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL      string
	DatabaseName     string
	DatabaseMaxConns int32 // 0 keeps the pgx default

	// HTTP configuration
	Port        int
	CORSOrigins []string // Allowed origins, "*" allows any

	// User cache configuration (disabled when RedisURL is empty)
	RedisURL     string
	UserCacheTTL time.Duration

	// Event forwarding configuration (disabled when NATSURL is empty)
	NATSURL           string
	NATSSubjectPrefix string

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// ListenAddr returns the address the HTTP server binds to
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A missing .env file is fine, the environment may already be populated
	if err := godotenv.Load(); err == nil {
		log.Debug("Loaded environment from .env")
	}

	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// HTTP defaults
		Port:        3001,
		CORSOrigins: parseList(getEnvWithDefault("CORS_ORIGINS", "*")),

		// User cache
		RedisURL:     os.Getenv("REDIS_URL"),
		UserCacheTTL: 10 * time.Minute,

		// Event forwarding
		NATSURL:           os.Getenv("NATS_URL"),
		NATSSubjectPrefix: getEnvWithDefault("NATS_SUBJECT_PREFIX", "mondesavoir.events"),

		// Logging
		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if port := os.Getenv("PORT"); port != "" {
		parsedPort, err := strconv.Atoi(port)
		if err != nil || parsedPort <= 0 || parsedPort > 65535 {
			return nil, fmt.Errorf("PORT must be a valid TCP port, got %q", port)
		}
		config.Port = parsedPort
	}
	if maxConns := os.Getenv("DATABASE_MAX_CONNS"); maxConns != "" {
		parsed, err := strconv.ParseInt(maxConns, 10, 32)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("DATABASE_MAX_CONNS must be a non-negative integer, got %q", maxConns)
		}
		config.DatabaseMaxConns = int32(parsed)
	}
	if ttl := os.Getenv("USER_CACHE_TTL"); ttl != "" {
		parsedTTL, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("USER_CACHE_TTL must be a duration: %w", err)
		}
		config.UserCacheTTL = parsedTTL
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// ConfigureLogging applies the configured level and formatter to the global logger
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("Unknown log level, falling back to info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if c.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseList splits a comma-separated value, dropping blanks and trailing slashes
func parseList(value string) []string {
	var items []string
	for _, part := range strings.Split(value, ",") {
		if item := strings.TrimRight(strings.TrimSpace(part), "/"); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:       "test",
		Port:              3001,
		CORSOrigins:       []string{"*"},
		UserCacheTTL:      time.Minute,
		NATSSubjectPrefix: "mondesavoir.events",
		LogLevel:          "debug",
	}
}
