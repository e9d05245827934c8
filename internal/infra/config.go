package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	// JWTSecret is optional; when empty the API accepts unauthenticated
	// requests scoped by the X-Workspace-ID header.
	JWTSecret string

	AllowedOrigins []string
	DefaultLocale  string
	GeoIPDBPath    string

	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIImageModel string
	OpenAIBaseURL    string
	OpenAIOrg        string

	ModelMaxAttempts    int
	ModelAttemptTimeout time.Duration
	ModelBackoff        time.Duration
	ImageMaxAttempts    int
	ImageAttemptTimeout time.Duration
	RepairMaxAttempts   int

	WorkerPollInterval time.Duration
	// QueueClaimLease is how long a claimed job may run unacked before
	// another worker may reclaim it; set it above the longest expected job.
	QueueClaimLease time.Duration
	StreamKeepAlive time.Duration

	HTTPReadTimeout time.Duration
	// HTTPWriteTimeout defaults to zero: a write deadline would cut
	// long-lived event streams.
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		AllowedOrigins: splitCSV(os.Getenv("ALLOWED_ORIGINS")),
		DefaultLocale:  getEnv("DEFAULT_LOCALE", "en"),
		GeoIPDBPath:    os.Getenv("GEOIP_DB_PATH"),

		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIImageModel: getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:        os.Getenv("OPENAI_ORG"),

		ModelMaxAttempts:    getEnvInt("MODEL_MAX_ATTEMPTS", 3),
		ModelAttemptTimeout: time.Second * time.Duration(getEnvInt("MODEL_ATTEMPT_TIMEOUT_SECONDS", 60)),
		ModelBackoff:        time.Second * time.Duration(getEnvInt("MODEL_BACKOFF_SECONDS", 2)),
		ImageMaxAttempts:    getEnvInt("IMAGE_MAX_ATTEMPTS", 2),
		ImageAttemptTimeout: time.Second * time.Duration(getEnvInt("IMAGE_ATTEMPT_TIMEOUT_SECONDS", 120)),
		RepairMaxAttempts:   getEnvInt("REPAIR_MAX_ATTEMPTS", 2),

		WorkerPollInterval: time.Millisecond * time.Duration(getEnvInt("WORKER_POLL_INTERVAL_MS", 500)),
		QueueClaimLease:    time.Second * time.Duration(getEnvInt("QUEUE_CLAIM_LEASE_SECONDS", 300)),
		StreamKeepAlive:    time.Second * time.Duration(getEnvInt("STREAM_KEEPALIVE_SECONDS", 15)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
