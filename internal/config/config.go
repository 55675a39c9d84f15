package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	JWTSecret       string
	JWTAccessExpiry time.Duration

	CacheSize          int
	CacheTTL           time.Duration
	SessionStepTimeout time.Duration

	// Guild ids entitled to the elevated limit tier.
	ElevatedGuilds []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	accessExpiry, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "5m"))
	if err != nil {
		cacheTTL = 5 * time.Minute
	}

	stepTimeout, err := time.ParseDuration(getEnv("SESSION_STEP_TIMEOUT", "2m"))
	if err != nil {
		stepTimeout = 2 * time.Minute
	}

	cacheSize, err := strconv.Atoi(getEnv("CACHE_SIZE", "1024"))
	if err != nil || cacheSize < 1 {
		cacheSize = 1024
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:       getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry: accessExpiry,

		CacheSize:          cacheSize,
		CacheTTL:           cacheTTL,
		SessionStepTimeout: stepTimeout,

		ElevatedGuilds: splitList(getEnv("ELEVATED_GUILDS", "")),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
