// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database targets, object storage, the
// generative-AI client, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-trip-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// AuthConfig describes how bearer identity tokens are verified.
type AuthConfig struct {
	JWTSecret string // AUTH_JWT_SECRET (HS256 shared secret)
	Issuer    string // AUTH_ISSUER expected iss claim; empty disables the check
	Audience  string // AUTH_AUDIENCE expected aud claim; empty disables the check
}

// DBConfig selects the relational database target.
type DBConfig struct {
	Driver string // DB_DRIVER: postgres|sqlite
	DSN    string // DB_DSN (postgres) or file path (sqlite)
}

// MongoConfig selects the document database target.
type MongoConfig struct {
	URI      string // MONGO_URI
	Database string // MONGO_DB
	Timeout  time.Duration
}

// StorageConfig configures the avatar object-storage bucket.
type StorageConfig struct {
	Bucket          string // AVATAR_BUCKET
	CredentialsFile string // GOOGLE_APPLICATION_CREDENTIALS (optional; ADC otherwise)
	MaxUploadBytes  int64  // AVATAR_MAX_BYTES
}

// AIConfig configures the travel-suggestion generator.
type AIConfig struct {
	BaseURL        string        // AI_BASE_URL (empty uses the provider default)
	APIKey         string        // AI_API_KEY
	Model          string        // AI_MODEL
	TokenCap       int64         // AI_TOKEN_CAP primary completion-token cap
	RetryTokenCap  int64         // AI_RETRY_TOKEN_CAP enlarged cap for the truncation retry
	NetworkRetries int           // AI_NETWORK_RETRIES per-call retries for network failures
	RetryBackoff   time.Duration // AI_RETRY_BACKOFF linear backoff unit
	CallTimeout    time.Duration // AI_CALL_TIMEOUT hard timeout for one provider call
	SoftBudget     time.Duration // AI_SOFT_BUDGET foreground race budget
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Stores
	DB      DBConfig
	Mongo   MongoConfig
	Storage StorageConfig

	// AI
	AI AIConfig

	// Auth
	Auth AuthConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Stores
		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			DSN:    getenv("DB_DSN", "trips.db"),
		},
		Mongo: MongoConfig{
			URI:      getenv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getenv("MONGO_DB", "tripdb"),
			Timeout:  getdur("MONGO_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Bucket:          getenv("AVATAR_BUCKET", ""),
			CredentialsFile: getenv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			MaxUploadBytes:  int64(getint("AVATAR_MAX_BYTES", 5<<20)),
		},

		// AI
		AI: AIConfig{
			BaseURL:        getenv("AI_BASE_URL", ""),
			APIKey:         getenv("AI_API_KEY", ""),
			Model:          getenv("AI_MODEL", "gpt-4o-mini"),
			TokenCap:       int64(getint("AI_TOKEN_CAP", 256)),
			RetryTokenCap:  int64(getint("AI_RETRY_TOKEN_CAP", 1024)),
			NetworkRetries: getint("AI_NETWORK_RETRIES", 2),
			RetryBackoff:   getdur("AI_RETRY_BACKOFF", 500*time.Millisecond),
			CallTimeout:    getdur("AI_CALL_TIMEOUT", 30*time.Second),
			SoftBudget:     getdur("AI_SOFT_BUDGET", 2500*time.Millisecond),
		},

		// Auth
		Auth: AuthConfig{
			JWTSecret: getenv("AUTH_JWT_SECRET", ""),
			Issuer:    getenv("AUTH_ISSUER", ""),
			Audience:  getenv("AUTH_AUDIENCE", ""),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-trip-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "postgres", "sqlite":
	default:
		return cfg, errors.New("DB_DRIVER must be postgres or sqlite")
	}
	if strings.TrimSpace(cfg.DB.DSN) == "" {
		return cfg, errors.New("DB_DSN must not be empty")
	}
	if strings.TrimSpace(cfg.Mongo.URI) == "" {
		return cfg, errors.New("MONGO_URI must not be empty")
	}
	if strings.TrimSpace(cfg.Mongo.Database) == "" {
		return cfg, errors.New("MONGO_DB must not be empty")
	}
	if cfg.Storage.MaxUploadBytes <= 0 {
		return cfg, errors.New("AVATAR_MAX_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.AI.Model) == "" {
		return cfg, errors.New("AI_MODEL must not be empty")
	}
	if cfg.AI.TokenCap <= 0 || cfg.AI.RetryTokenCap <= 0 {
		return cfg, errors.New("AI token caps must be > 0")
	}
	if cfg.AI.RetryTokenCap < cfg.AI.TokenCap {
		return cfg, errors.New("AI_RETRY_TOKEN_CAP must be >= AI_TOKEN_CAP")
	}
	if cfg.AI.NetworkRetries < 0 {
		return cfg, errors.New("AI_NETWORK_RETRIES must be >= 0")
	}
	if cfg.AI.SoftBudget <= 0 || cfg.AI.CallTimeout <= 0 {
		return cfg, errors.New("AI timeouts must be positive durations")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
