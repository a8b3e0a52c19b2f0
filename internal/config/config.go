package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseURL string
	BaseURL     string // Public base URL for short links
	FrontendURL string // Frontend base URL (for QR codes)
	RedisURL    string
	GeoIPDBPath string // Local MaxMind City database; empty disables geo resolution

	JWTSecret string
	JWTTTL    int // JWT token expiration time in hours

	MinPayout float64 // Minimum withdrawal amount in dollars

	RateLimitRPS        float64
	RateLimitBurst      int
	RateLimitAuthRPS    float64
	RateLimitAuthBurst  int
	RateLimitGateRPS    float64
	RateLimitGateBurst  int
	RateLimitShortenRPS float64
	RateLimitShortenBurst int
}

func Load() *Config {
	// Try to load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("No .env file found, using environment variables or defaults")
	}

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		GeoIPDBPath: getEnv("GEOIP_DB_PATH", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getEnvInt("JWT_TTL_HOURS", 24),

		MinPayout: getEnvFloat("MIN_PAYOUT", 5),

		RateLimitRPS:          getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:        getEnvInt("RATE_LIMIT_BURST", 20),
		RateLimitAuthRPS:      getEnvFloat("RATE_LIMIT_AUTH_RPS", 5),
		RateLimitAuthBurst:    getEnvInt("RATE_LIMIT_AUTH_BURST", 10),
		RateLimitGateRPS:      getEnvFloat("RATE_LIMIT_GATE_RPS", 30),
		RateLimitGateBurst:    getEnvInt("RATE_LIMIT_GATE_BURST", 60),
		RateLimitShortenRPS:   getEnvFloat("RATE_LIMIT_SHORTEN_RPS", 2),
		RateLimitShortenBurst: getEnvInt("RATE_LIMIT_SHORTEN_BURST", 5),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
