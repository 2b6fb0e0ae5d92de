package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Config struct {
	HTTPAddr     string
	MySQLDSN     string
	RedisAddr    string
	RabbitMQURL  string // empty disables reconciliation events
	OTLPEndpoint string // empty disables tracing
	TaxRate      decimal.Decimal
	MenuCacheTTL time.Duration
}

// Load reads configuration from the environment, picking up a local .env
// file when present. Malformed values fall back to the default with a
// warning; a silently wrong tax rate would miscalculate every total.
func Load(logger *zap.Logger) Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:     getEnvOrDefault("HTTP_ADDR", ":8080"),
		MySQLDSN:     getEnvOrDefault("MYSQL_DSN", "root:root@tcp(localhost:3306)/tillsync?parseTime=true"),
		RedisAddr:    getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RabbitMQURL:  os.Getenv("RABBITMQ_URL"),
		OTLPEndpoint: os.Getenv("OTLP_ENDPOINT"),
		TaxRate:      getDecimalOrDefault(logger, "TAX_RATE", decimal.New(8, -2)),
		MenuCacheTTL: getDurationOrDefault(logger, "MENU_CACHE_TTL", 5*time.Minute),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getDecimalOrDefault(logger *zap.Logger, key string, defaultValue decimal.Decimal) decimal.Decimal {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		logger.Warn("malformed decimal in environment, using default",
			zap.String("key", key),
			zap.String("value", value),
			zap.String("default", defaultValue.String()),
			zap.Error(err))
		return defaultValue
	}
	return parsed
}

func getDurationOrDefault(logger *zap.Logger, key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn("malformed duration in environment, using default",
			zap.String("key", key),
			zap.String("value", value),
			zap.Duration("default", defaultValue),
			zap.Error(err))
		return defaultValue
	}
	return parsed
}
