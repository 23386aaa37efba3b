package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer       string        // Issuer claim for session tokens (default: turma-digital)
	TokenSecret  string        // Required: HMAC secret for session tokens
	SessionTTL   time.Duration // Session lifetime (default: 12h)
	DatabaseFile string        // Path to SQLite database file (default: ./turma.db)
	PepperFile   string        // Path to password pepper file (default: ./pepper)

	RedisAddr string // Optional: redis address for the role cache
	AMQPURL   string // Optional: RabbitMQ URL for notification events

	AdminEmail    string // Optional: bootstrap admin account email
	AdminPassword string // Optional: bootstrap admin account password

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:       getEnvOrDefault("TURMA_ISSUER", "turma-digital"),
		TokenSecret:  os.Getenv("TURMA_TOKEN_SECRET"),
		SessionTTL:   getEnvDurationOrDefault("TURMA_SESSION_TTL", 12*time.Hour),
		DatabaseFile: getEnvOrDefault("TURMA_DATABASE_FILE", "turma.db"),
		PepperFile:   getEnvOrDefault("TURMA_PEPPER_FILE", "pepper"),

		RedisAddr: os.Getenv("TURMA_REDIS_ADDR"),
		AMQPURL:   os.Getenv("TURMA_AMQP_URL"),

		AdminEmail:    os.Getenv("TURMA_ADMIN_EMAIL"),
		AdminPassword: os.Getenv("TURMA_ADMIN_PASSWORD"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
