package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port               string
	LogLevel           string
	DatabasePath       string
	MaxUploadSizeBytes int64

	// Session tokens identify which statement pipeline belongs to which browser.
	SessionSecret string
	SessionTTL    time.Duration
	ReportTTL     time.Duration

	// NBU exchange rates are fetched through a caching proxy.
	RateProxyURL          string
	RateUpstreamHost      string
	RateCacheControl      string
	RateCurrency          string
	RateRequestTimeout    time.Duration
	RateRequestsPerSecond float64

	AllowedOrigins []string

	PersonalIncomeTaxRate string
	MilitaryTaxRate       string
	DividendTaxRate       string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	sessionSecret := getEnv("SESSION_SECRET", "change-me-to-a-long-random-session-secret-of-32-bytes")
	if sessionSecret == "change-me-to-a-long-random-session-secret-of-32-bytes" {
		log.Println("WARNING: Using default insecure SESSION_SECRET. Set SESSION_SECRET environment variable for production.")
	}
	if len(sessionSecret) < 32 {
		log.Fatalf("FATAL: SESSION_SECRET must be at least 32 bytes long. Current length: %d", len(sessionSecret))
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "20971520")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 20MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 20 * 1024 * 1024
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabasePath:       getEnv("DATABASE_PATH", "./rates.db"),
		MaxUploadSizeBytes: maxUploadSizeBytes,

		SessionSecret: sessionSecret,
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		ReportTTL:     getEnvAsDuration("REPORT_TTL", 2*time.Hour),

		RateProxyURL:          getEnv("RATE_PROXY_URL", "https://proxy.marchenko-alexandr.workers.dev/NBU_Exchange/exchange_site"),
		RateUpstreamHost:      getEnv("RATE_UPSTREAM_HOST", "bank.gov.ua"),
		RateCacheControl:      getEnv("RATE_CACHE_CONTROL", "public, max-age=604800"),
		RateCurrency:          getEnv("RATE_CURRENCY", "USD"),
		RateRequestTimeout:    getEnvAsDuration("RATE_REQUEST_TIMEOUT", 20*time.Second),
		RateRequestsPerSecond: getEnvAsFloat("RATE_REQUESTS_PER_SECOND", 2),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),

		PersonalIncomeTaxRate: getEnv("PERSONAL_INCOME_TAX_RATE", "0.18"),
		MilitaryTaxRate:       getEnv("MILITARY_TAX_RATE", "0.05"),
		DividendTaxRate:       getEnv("DIVIDEND_TAX_RATE", "0.09"),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, RateProxy=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.RateProxyURL)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Float value for %s not set or empty, using default: %g", key, fallback)
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
