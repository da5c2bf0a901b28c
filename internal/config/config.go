// internal/config/config.go
// Package config loads service configuration from environment variables.
// Local development values can be placed in .env / .env.local files, which
// are loaded on init and never override the real environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	// Missing files are fine; the environment wins over file values.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
}

// Config holds all service configuration.
type Config struct {
	// HTTP
	ListenAddr      string
	ShutdownTimeout time.Duration

	// Storage
	DatabaseURL string // empty selects the in-memory store

	// Cache
	RedisURL       string // empty selects the in-process cache
	CacheOpTimeout time.Duration
	ListingTTL     time.Duration
	MarketplaceTTL time.Duration
	DetailTTL      time.Duration
	ProfileTTL     time.Duration
	DirectoryTTL   time.Duration

	// Access policy
	ListingFraction float64
	DetailFraction  float64

	// Auth
	JWTSecret string

	// Payment gateway
	GatewayBaseURL string // empty selects the mock gateway
	GatewayKeyID   string
	GatewaySecret  string

	// Events
	NATSURL string // empty selects the noop publisher

	// Media
	MediaBaseURL string
	S3Bucket     string // non-empty selects presigned S3 URLs
	S3Region     string

	// Uploads
	UploadDir string

	// Telemetry
	TracingEnabled bool
}

// Load reads configuration from the environment, applying defaults and
// validating what must be present.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:      envString("MKT_LISTEN_ADDR", ":8080"),
		ShutdownTimeout: envDuration("MKT_SHUTDOWN_TIMEOUT", 10*time.Second),

		DatabaseURL: os.Getenv("MKT_DATABASE_URL"),

		RedisURL:       os.Getenv("MKT_REDIS_URL"),
		CacheOpTimeout: envDuration("MKT_CACHE_OP_TIMEOUT", 250*time.Millisecond),
		ListingTTL:     envDuration("MKT_LISTING_TTL", 5*time.Minute),
		MarketplaceTTL: envDuration("MKT_MARKETPLACE_TTL", 5*time.Minute),
		DetailTTL:      envDuration("MKT_DETAIL_TTL", 10*time.Minute),
		ProfileTTL:     envDuration("MKT_PROFILE_TTL", 10*time.Minute),
		DirectoryTTL:   envDuration("MKT_DIRECTORY_TTL", time.Hour),

		ListingFraction: envFloat("MKT_LISTING_FRACTION", 0.25),
		DetailFraction:  envFloat("MKT_DETAIL_FRACTION", 0.30),

		JWTSecret: os.Getenv("MKT_JWT_SECRET"),

		GatewayBaseURL: os.Getenv("MKT_GATEWAY_BASE_URL"),
		GatewayKeyID:   os.Getenv("MKT_GATEWAY_KEY_ID"),
		GatewaySecret:  os.Getenv("MKT_GATEWAY_SECRET"),

		NATSURL: os.Getenv("MKT_NATS_URL"),

		MediaBaseURL: envString("MKT_MEDIA_BASE_URL", "http://localhost:8080/media"),
		S3Bucket:     os.Getenv("MKT_S3_BUCKET"),
		S3Region:     envString("MKT_S3_REGION", "ap-south-1"),

		UploadDir: envString("MKT_UPLOAD_DIR", "uploads"),

		TracingEnabled: envBool("MKT_TRACING_ENABLED", false),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("MKT_JWT_SECRET is required")
	}
	if cfg.GatewayBaseURL != "" && cfg.GatewaySecret == "" {
		return nil, fmt.Errorf("MKT_GATEWAY_SECRET is required when a gateway URL is set")
	}
	if cfg.ListingFraction <= 0 || cfg.ListingFraction > 1 {
		return nil, fmt.Errorf("MKT_LISTING_FRACTION must be in (0, 1], got %v", cfg.ListingFraction)
	}
	if cfg.DetailFraction <= 0 || cfg.DetailFraction > 1 {
		return nil, fmt.Errorf("MKT_DETAIL_FRACTION must be in (0, 1], got %v", cfg.DetailFraction)
	}
	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
