// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Config centralizes runtime settings for the API server.
type Config struct {
	Port string

	DatabaseDSN string

	JWTSecret string
	JWTExpiry time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	EngineURL   string
	EngineToken string

	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel string
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		DatabaseDSN: getEnv("DATABASE_DSN",
			"host=localhost user=postgres password=postgres dbname=labeleven port=5432 sslmode=disable"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: time.Duration(getEnvInt("JWT_EXPIRATION_MINUTES", 60)) * time.Minute,

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "label-uploads"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		EngineURL:   getEnv("ENGINE_URL", ""),
		EngineToken: getEnv("ENGINE_TOKEN", ""),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
