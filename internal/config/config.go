package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultCamaraAPIURL = "https://dadosabertos.camara.leg.br/api/v2"

type Config struct {
	// HTTP Server
	Port        string
	CORSOrigins []string
	RateLimit   int // requests per minute per client IP on /api/

	// Upstream API
	CamaraAPIURL     string
	UpstreamTimeout  time.Duration
	FetchConcurrency int

	// Listing memo
	CacheTTL  time.Duration
	CacheSize int
	RedisURL  string // optional shared listing memo; empty keeps it in memory

	// Dashboard
	YearsBack int

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8081"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),
		RateLimit:   getEnvInt("RATE_LIMIT_RPM", 120),

		CamaraAPIURL:     getEnv("CAMARA_API_URL", DefaultCamaraAPIURL),
		UpstreamTimeout:  getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		FetchConcurrency: getEnvInt("FETCH_CONCURRENCY", 12),

		CacheTTL:  getEnvDuration("CACHE_TTL", 60*time.Second),
		CacheSize: getEnvInt("CACHE_SIZE", 64),
		RedisURL:  getEnv("REDIS_URL", ""),

		YearsBack: getEnvInt("YEARS_BACK", 4),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if parsedURL, err := url.Parse(c.CamaraAPIURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid CAMARA_API_URL '%s': %v", c.CamaraAPIURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid CAMARA_API_URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	} else if parsedURL.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid CAMARA_API_URL '%s': missing host", c.CamaraAPIURL))
	}

	if c.UpstreamTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid upstream timeout %v: must be at least 100ms", c.UpstreamTimeout))
	} else if c.UpstreamTimeout > 2*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid upstream timeout %v: must be at most 2 minutes", c.UpstreamTimeout))
	}

	if c.FetchConcurrency < 1 || c.FetchConcurrency > 12 {
		errors = append(errors, fmt.Sprintf("invalid fetch concurrency %d: must be between 1 and 12", c.FetchConcurrency))
	}

	if c.CacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid cache ttl %v: must be positive", c.CacheTTL))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}

	if c.RedisURL != "" && strings.Contains(c.RedisURL, "://") {
		if u, err := url.Parse(c.RedisURL); err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			errors = append(errors, fmt.Sprintf("invalid REDIS_URL '%s': must use redis:// or rediss://", c.RedisURL))
		}
	}

	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimit))
	}

	if c.YearsBack < 1 || c.YearsBack > 30 {
		errors = append(errors, fmt.Sprintf("invalid years back %d: must be between 1 and 30", c.YearsBack))
	}

	if len(c.CORSOrigins) == 0 {
		errors = append(errors, "CORS_ORIGINS cannot be empty")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
