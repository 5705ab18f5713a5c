package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Places    PlacesConfig
	Search    SearchConfig
	Breaker   BreakerConfig
	Analytics AnalyticsConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	Env            string
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// PlacesConfig holds the provider directory (Google Places) configuration
type PlacesConfig struct {
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	CacheTTLSeconds int
}

// SearchConfig holds the fixed parameters of a nearby provider search
type SearchConfig struct {
	RadiusMeters     int
	Category         string
	MaxDistanceMiles float64
}

// BreakerConfig holds circuit breaker settings for the provider directory
type BreakerConfig struct {
	Enabled             bool
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// AnalyticsConfig toggles search analytics persistence
type AnalyticsConfig struct {
	Enabled bool
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Env:            getEnv("APP_ENV", "development"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "healthassist"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Places: PlacesConfig{
			APIKey:          getEnv("PLACES_API_KEY", ""),
			BaseURL:         getEnv("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place/nearbysearch/json"),
			Timeout:         time.Duration(getEnvAsInt("PLACES_TIMEOUT_MS", 8000)) * time.Millisecond,
			CacheTTLSeconds: getEnvAsInt("PLACES_CACHE_TTL_SECONDS", 600),
		},
		Search: SearchConfig{
			RadiusMeters:     getEnvAsInt("SEARCH_RADIUS_METERS", 80000),
			Category:         getEnv("SEARCH_CATEGORY", "doctor"),
			MaxDistanceMiles: getEnvAsFloat("SEARCH_MAX_DISTANCE_MILES", 50),
		},
		Breaker: BreakerConfig{
			Enabled:             getEnvAsBool("BREAKER_ENABLED", true),
			ConsecutiveFailures: uint32(getEnvAsInt("BREAKER_CONSECUTIVE_FAILURES", 5)),
			OpenTimeout:         time.Duration(getEnvAsInt("BREAKER_OPEN_TIMEOUT_MS", 30000)) * time.Millisecond,
		},
		Analytics: AnalyticsConfig{
			Enabled: getEnvAsBool("ANALYTICS_ENABLED", false),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "healthassist-api"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Search.RadiusMeters <= 0 {
		return fmt.Errorf("SEARCH_RADIUS_METERS must be positive, got %d", c.Search.RadiusMeters)
	}
	if c.Search.MaxDistanceMiles <= 0 {
		return fmt.Errorf("SEARCH_MAX_DISTANCE_MILES must be positive, got %v", c.Search.MaxDistanceMiles)
	}
	if c.Places.Timeout <= 0 {
		return fmt.Errorf("PLACES_TIMEOUT_MS must be positive")
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
