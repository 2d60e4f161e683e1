package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the server needs at startup. Every field has a
// working default so a bare `go run ./cmd/server` comes up with in-memory
// collaborators only.
type Config struct {
	Addr        string
	MaxBodySize int64

	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig

	RateLimit RateLimitConfig

	LogLevel  string
	LogFormat string
}

// RedisConfig drives the optional reference registry backend. An empty URL
// means Redis is not configured and the in-memory registry is used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig drives the optional audit event sink. Empty brokers means
// audit events stay in memory.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RateLimitConfig bounds validation requests per client.
type RateLimitConfig struct {
	Enabled bool
	Limit   int
	Window  time.Duration
}

// RegistryTTL caps how long a registered MessageRefId is held for duplicate
// detection in the in-memory registry.
var RegistryTTL = 24 * time.Hour

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr:        envOr("CBCR_ADDR", ":8080"),
		MaxBodySize: envInt64("CBCR_MAX_BODY_BYTES", 32<<20),
		DatabaseURL: os.Getenv("CBCR_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("CBCR_REDIS_URL"),
			PoolSize:     envInt("CBCR_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CBCR_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("CBCR_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("CBCR_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("CBCR_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("CBCR_KAFKA_BROKERS")),
			Topic:   envOr("CBCR_KAFKA_AUDIT_TOPIC", "cbcr.audit"),
		},
		RateLimit: RateLimitConfig{
			Enabled: os.Getenv("CBCR_RATELIMIT_DISABLED") != "true",
			Limit:   envInt("CBCR_RATELIMIT_LIMIT", 60),
			Window:  envDuration("CBCR_RATELIMIT_WINDOW", time.Minute),
		},
		LogLevel:  envOr("CBCR_LOG_LEVEL", "info"),
		LogFormat: envOr("CBCR_LOG_FORMAT", "json"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if part := s[start:i]; part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}
