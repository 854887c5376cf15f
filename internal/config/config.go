package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// OpenRouter
	OpenRouterAPIKey      string
	OpenRouterEndpoint    string
	OpenRouterTemperature float64
	OpenRouterMaxTokens   int
	OpenRouterTimeout     time.Duration
	AllowedModels         []string

	// Workers
	TitleWorkers int

	// Storage
	StoragePath string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                  getEnvOrDefault("PORT", "8080"),
		Env:                   getEnvOrDefault("ENV", "development"),
		DatabaseURL:           mustGetEnv("DATABASE_URL"),
		RedisURL:              mustGetEnv("REDIS_URL"),
		JWTSecret:             mustGetEnv("JWT_SECRET"),
		OpenRouterAPIKey:      mustGetEnv("OPENROUTER_API_KEY"),
		OpenRouterEndpoint:    getEnvOrDefault("OPENROUTER_ENDPOINT", "https://openrouter.ai/api/v1/chat/completions"),
		OpenRouterTemperature: getEnvAsFloatOrDefault("OPENROUTER_TEMPERATURE", 0.7),
		OpenRouterMaxTokens:   getEnvAsIntOrDefault("OPENROUTER_MAX_TOKENS", 4000),
		OpenRouterTimeout:     getEnvAsDurationOrDefault("OPENROUTER_RESPONSE_TIMEOUT", 2*time.Minute),
		AllowedModels:         getEnvAsListOrDefault("ALLOWED_MODELS", []string{"openai/gpt-4o", "deepseek/deepseek-chat"}),
		TitleWorkers:          getEnvAsIntOrDefault("TITLE_WORKERS", 2),
		StoragePath:           getEnvOrDefault("STORAGE_PATH", "./uploads"),
		FrontendURL:           getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
