package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Tokens and sessions
	JWTSecret            string
	JWTIssuer            string
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration

	// Login throttling (attempts per minute per email)
	LoginRatePerMinute int

	// Logging
	LogRetentionDays int

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string
	SentryDSN   string
}

// Load reads configuration from the environment. A local .env file, when
// present, is loaded first and never overrides variables that are already set.
func Load() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "portal_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:            getEnv("JWT_SECRET", ""),
		JWTIssuer:            getEnv("JWT_ISSUER", "carebridge-portal"),
		SessionTTL:           parseDuration(getEnv("SESSION_TTL", "168h"), 7*24*time.Hour),
		SessionSweepInterval: parseDuration(getEnv("SESSION_SWEEP_INTERVAL", "1h"), time.Hour),

		LoginRatePerMinute: parseInt(getEnv("LOGIN_RATE_PER_MINUTE", "5"), 5),

		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
