package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultGatewayBaseURL = "https://gateway.ai.cloudflare.com/v1"

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// AI Gateway
	GatewayBaseURL string
	AccountID      string
	GatewayName    string
	GatewayToken   string

	// Providers
	OpenAIToken        string
	WorkersAIToken     string
	WorkersAIMaxTokens int
	UpstreamTimeout    time.Duration

	// HTTP
	MaxBodyBytes   int64
	AllowedOrigins []string

	// Redis (optional usage ledger)
	RedisURL string

	// Model catalog override
	ModelsFile string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:     getEnvOrDefault("PORT", "8080"),
		Env:      getEnvOrDefault("ENV", "development"),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),

		GatewayBaseURL: strings.TrimRight(getEnvOrDefault("GATEWAY_BASE_URL", DefaultGatewayBaseURL), "/"),
		AccountID:      mustGetEnv("ACCOUNT_ID"),
		GatewayName:    mustGetEnv("GATEWAY_NAME"),
		GatewayToken:   mustGetEnv("AI_GATEWAY_TOKEN"),

		OpenAIToken:        mustGetEnv("OPENAI_TOKEN"),
		WorkersAIToken:     mustGetEnv("WORKERSAI_TOKEN"),
		WorkersAIMaxTokens: getEnvAsPositiveIntOrDefault("WORKERSAI_MAX_TOKENS", 1000),
		UpstreamTimeout:    time.Duration(getEnvAsPositiveIntOrDefault("UPSTREAM_TIMEOUT_SECONDS", 120)) * time.Second,

		MaxBodyBytes:   int64(getEnvAsPositiveIntOrDefault("MAX_BODY_BYTES", 1<<20)),
		AllowedOrigins: splitComma(os.Getenv("ALLOWED_ORIGINS")),

		RedisURL:   getEnvOrDefault("REDIS_URL", ""),
		ModelsFile: getEnvOrDefault("MODELS_FILE", ""),
	}

	return cfg
}

// IsDevelopment reports whether the server runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Redacted returns the configuration as loggable key/value pairs with every
// credential masked.
func (c *Config) Redacted() map[string]string {
	return map[string]string{
		"port":             c.Port,
		"env":              c.Env,
		"gateway_base_url": c.GatewayBaseURL,
		"account_id":       Mask(c.AccountID),
		"gateway_name":     c.GatewayName,
		"gateway_token":    Mask(c.GatewayToken),
		"openai_token":     Mask(c.OpenAIToken),
		"workersai_token":  Mask(c.WorkersAIToken),
		"upstream_timeout": c.UpstreamTimeout.String(),
		"redis_url":        maskURL(c.RedisURL),
		"models_file":      c.ModelsFile,
	}
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

// getEnvAsPositiveIntOrDefault is getEnvAsIntOrDefault for settings where
// zero or a negative value would disable a limit.
func getEnvAsPositiveIntOrDefault(key string, defaultVal int) int {
	n := getEnvAsIntOrDefault(key, defaultVal)
	if n <= 0 {
		return defaultVal
	}
	return n
}

func splitComma(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
