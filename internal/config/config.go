package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// RequiredKeys must all be set to a non-empty value before the server starts.
var RequiredKeys = []string{
	"DATABASE_URL",
	"JWT_SECRET",
	"ADMIN_JWT_SECRET",
	"ALLOWED_ORIGINS",
}

// EnvProduction is the APP_ENV value that hides internal error details from clients.
const EnvProduction = "production"

// Source looks up a configuration key. os.LookupEnv satisfies it.
type Source func(key string) (string, bool)

// MapSource adapts a plain map to a Source.
func MapSource(m map[string]string) Source {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// MissingKeyError reports a required key that is absent or empty.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%s not defined in environment", e.Key)
}

// Config holds application configuration
type Config struct {
	DatabaseURL      string
	JWTSecret        string
	AdminJWTSecret   string
	AllowedOrigins   string
	Port             string
	Environment      string
	ServerDebugMode  bool
	UploadDir        string
	MaxUploadBytes   int64
	TokenTTL         time.Duration
	AuthRateLimit    string
	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	WorkerDebugMode  bool
	EnableHSTS       bool
	TrustProxy       bool
	OTELEnabled      bool
	OTELEndpoint     string
}

// IsProduction reports whether error details must be withheld from responses.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Validate checks that every key in keys resolves to a non-empty value.
// It stops at the first missing key, in list order.
func Validate(src Source, keys []string) error {
	for _, key := range keys {
		v, ok := src(key)
		if !ok || strings.TrimSpace(v) == "" {
			return &MissingKeyError{Key: key}
		}
	}
	return nil
}

// DotEnvSource loads an optional .env file into the process environment and
// returns a Source over it. Variables already set are not overridden.
func DotEnvSource() Source {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()
	return os.LookupEnv
}

// Load reads an optional .env file and then loads configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(DotEnvSource())
}

// LoadFrom validates the required keys and builds a Config from src.
func LoadFrom(src Source) (*Config, error) {
	if err := Validate(src, RequiredKeys); err != nil {
		return nil, err
	}

	get := func(key, def string) string {
		if v, ok := src(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		DatabaseURL:      get("DATABASE_URL", ""),
		JWTSecret:        get("JWT_SECRET", ""),
		AdminJWTSecret:   get("ADMIN_JWT_SECRET", ""),
		AllowedOrigins:   get("ALLOWED_ORIGINS", ""),
		Port:             get("PORT", "4000"),
		Environment:      strings.ToLower(get("APP_ENV", EnvProduction)),
		ServerDebugMode:  parseBool(get("SERVER_DEBUG_MODE", ""), false),
		UploadDir:        get("UPLOAD_DIR", "uploads"),
		MaxUploadBytes:   parseInt64(get("MAX_UPLOAD_BYTES", ""), 5<<20),
		TokenTTL:         parseDuration(get("TOKEN_TTL", ""), 24*time.Hour),
		AuthRateLimit:    get("AUTH_RATE_LIMIT", "10-M"),
		RedisURL:         get("REDIS_URL", ""),
		RabbitMQURL:      get("RABBITMQ_URL", ""),
		RabbitMQPrefetch: int(parseInt64(get("RABBITMQ_PREFETCH", ""), 1)),
		WorkerDebugMode:  parseBool(get("WORKER_DEBUG_MODE", ""), false),
		EnableHSTS:       parseBool(get("ENABLE_HSTS", ""), false),
		TrustProxy:       parseBool(get("TRUST_PROXY", ""), false),
		OTELEnabled:      parseBool(get("OTEL_ENABLED", ""), false),
		OTELEndpoint:     get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	return cfg, nil
}

func parseBool(value string, defaultValue bool) bool {
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func parseInt64(value string, defaultValue int64) int64 {
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
