package infra

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	StoragePath        string
	StorageBaseURL     string
	GeoIPDBPath        string
	DetectionBaseURL   string
	DetectionAPIKey    string
	DetectionCacheSize int
	CORSOrigins        []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	PacingDelay        time.Duration
	AutoResetDelay     time.Duration
	SessionTTL         time.Duration
	CreatedListLimit   int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. DATABASE_URL and DETECTION_BASE_URL may be empty;
// main falls back to in-memory persistence and the stub detector so the
// service stays runnable in local environments.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:     getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		DetectionBaseURL:   os.Getenv("DETECTION_BASE_URL"),
		DetectionAPIKey:    os.Getenv("DETECTION_API_KEY"),
		DetectionCacheSize: getEnvInt("DETECTION_CACHE_SIZE", 32),
		CORSOrigins:        getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		PacingDelay:        time.Millisecond * time.Duration(getEnvInt("CARD_PACING_DELAY_MS", 300)),
		AutoResetDelay:     time.Second * time.Duration(getEnvInt("AUTO_RESET_DELAY_SECONDS", 5)),
		SessionTTL:         time.Hour * time.Duration(getEnvInt("SESSION_TTL_HOURS", 72)),
		CreatedListLimit:   getEnvInt("CREATED_LIST_LIMIT", 50),
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

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var items []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
