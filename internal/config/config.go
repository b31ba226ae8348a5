package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port  string
	DBUrl string

	JWTSecret    string
	SessionTTL   time.Duration
	CookieSecure bool

	// BaseURL is the externally visible origin used to build provider callback URLs.
	BaseURL             string
	StripeSecretKey     string
	StripeWebhookSecret string
	StripeTimeout       time.Duration
	Currency            string

	// AdminEmail registers with the admin role. Other admins are granted via the CLI.
	AdminEmail string

	LogLevel  string
	LogFormat string

	RateLimitRPS   float64
	RateLimitBurst int
}

const defaultJWTSecret = "default-secret-key-change-in-production"

func LoadConfig() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println(".env file not found, using defaults")
	}

	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		DBUrl:               getEnv("DB_URL", "root:root@tcp(127.0.0.1:3306)/shop"),
		JWTSecret:           getEnv("JWT_SECRET", defaultJWTSecret),
		SessionTTL:          getDuration("SESSION_TTL", 24*time.Hour),
		CookieSecure:        getBool("COOKIE_SECURE", false),
		BaseURL:             strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeTimeout:       getDuration("STRIPE_TIMEOUT", 10*time.Second),
		Currency:            "usd",
		AdminEmail:          strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "console"),
		RateLimitRPS:        getFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:      getInt("RATE_LIMIT_BURST", 20),
	}

	if cfg.JWTSecret == defaultJWTSecret {
		log.Println("JWT_SECRET not set, using default key")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		log.Printf("invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		log.Printf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return i
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
