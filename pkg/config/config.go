package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort int

	PostgresHost string
	PostgresPort int
	PostgresUser string
	PostgresPass string
	PostgresDB   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// GuestStateTTL bounds the lifetime of guest cart/wishlist keys.
	// Zero keeps them until an explicit clear or merge.
	GuestStateTTL time.Duration

	EnrichConcurrency int
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPPort: getEnvInt("HTTP_PORT", 8080),

		PostgresHost: getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvInt("POSTGRES_PORT", 5432),
		PostgresUser: getEnv("POSTGRES_USER", "spicemart"),
		PostgresPass: getEnv("POSTGRES_PASSWORD", "spicemart"),
		PostgresDB:   getEnv("POSTGRES_DB", "spicemart_db"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GuestStateTTL: time.Duration(getEnvInt("GUEST_STATE_TTL", 0)) * time.Second,

		EnrichConcurrency: getEnvInt("ENRICH_CONCURRENCY", 10),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}
