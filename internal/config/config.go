package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Log      LogConfig
	Auth     AuthConfig
	Pricing  PricingConfig
	Redis    RedisConfig
	Jobs     JobsConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level       string
	Encoding    string // "json" or "console"
	Development bool
}

// AuthConfig holds session token verification settings.
// With no keys configured, requests identify the user via the X-User-ID header.
type AuthConfig struct {
	FernetKeys []string
	TokenTTL   time.Duration
}

// PricingConfig holds price oracle and quote cache settings
type PricingConfig struct {
	CacheTTL         time.Duration
	CacheMode        string // "session" or "fixed"
	FetchTimeout     time.Duration
	FetchConcurrency int
	MarketTimezone   string
}

// RedisConfig holds the optional shared quote cache connection
type RedisConfig struct {
	URL string
}

// JobsConfig holds background job schedules
type JobsConfig struct {
	WarmupSchedule string // cron spec with seconds; empty disables the job
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/brokerage.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost",
			}),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Encoding:    getEnv("LOG_ENCODING", "json"),
			Development: getEnv("APP_ENV", "production") == "development",
		},
		Auth: AuthConfig{
			FernetKeys: getEnvList("AUTH_FERNET_KEYS", nil),
		},
		Pricing: PricingConfig{
			CacheMode:      getEnv("PRICE_CACHE_MODE", "session"),
			MarketTimezone: getEnv("MARKET_TIMEZONE", "Asia/Taipei"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Jobs: JobsConfig{
			WarmupSchedule: os.Getenv("PRICE_WARMUP_SCHEDULE"),
		},
	}
	if _, set := os.LookupEnv("PRICE_WARMUP_SCHEDULE"); !set {
		config.Jobs.WarmupSchedule = "0 */5 9-13 * * 1-5"
	}

	var err error
	if config.Auth.TokenTTL, err = getEnvDuration("AUTH_TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if config.Pricing.CacheTTL, err = getEnvDuration("PRICE_CACHE_TTL", 60*time.Second); err != nil {
		return nil, err
	}
	if config.Pricing.FetchTimeout, err = getEnvDuration("PRICE_FETCH_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}
	if config.Pricing.FetchConcurrency, err = getEnvInt("PRICE_FETCH_CONCURRENCY", 4); err != nil {
		return nil, err
	}

	switch config.Pricing.CacheMode {
	case "session", "fixed":
	default:
		return nil, fmt.Errorf("PRICE_CACHE_MODE must be session or fixed, got %q", config.Pricing.CacheMode)
	}
	if _, err := time.LoadLocation(config.Pricing.MarketTimezone); err != nil {
		return nil, fmt.Errorf("invalid MARKET_TIMEZONE: %w", err)
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// Location returns the market timezone; Load has already validated it.
func (c PricingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.MarketTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvList splits a comma-separated variable, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
