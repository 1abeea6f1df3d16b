package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	AppURL      string
	LogLevel    string

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	Stripe    StripeConfig
	OpenAI    OpenAIConfig
	RateLimit RateLimitConfig
}

type StripeConfig struct {
	SecretKey       string
	WebhookSecret   string
	PriceSingle     string
	PriceTicket10   string
	PriceSubMonthly string
}

type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ReadingRate   float64
	ReadingBurst  int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "tarot-app"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		AppURL:      strings.TrimRight(strings.TrimSpace(getenv("APP_URL", "")), "/"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		DBType:     getenv("DATABASE_TYPE", "postgres"),
		DBHost:     getenv("DATABASE_HOST", "localhost"),
		DBPort:     getenv("DATABASE_PORT", "5432"),
		DBName:     getenv("DATABASE_NAME", "tarot"),
		DBUser:     getenv("DATABASE_USER", "postgres"),
		DBPassword: getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:  getenv("DATABASE_SSLMODE", "disable"),

		Stripe: StripeConfig{
			SecretKey:       strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
			WebhookSecret:   strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
			PriceSingle:     strings.TrimSpace(getenv("STRIPE_PRICE_SINGLE_READING", "")),
			PriceTicket10:   strings.TrimSpace(getenv("STRIPE_PRICE_TICKET_10", "")),
			PriceSubMonthly: strings.TrimSpace(getenv("STRIPE_PRICE_SUB_MONTHLY", "")),
		},
		OpenAI: OpenAIConfig{
			APIKey:         strings.TrimSpace(getenv("OPENAI_API_KEY", "")),
			BaseURL:        strings.TrimRight(getenv("OPENAI_BASE_URL", "https://api.openai.com"), "/"),
			Model:          getenv("OPENAI_MODEL", "gpt-4o-mini"),
			TimeoutSeconds: getenvInt("OPENAI_TIMEOUT_SECONDS", 30),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword: getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			ReadingRate:   getenvFloat("RATE_LIMIT_READING_RATE", 0.5),
			ReadingBurst:  getenvInt("RATE_LIMIT_READING_BURST", 5),
		},
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
