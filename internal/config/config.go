// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, the SQLite store, the LLM client, email routing, optional side-effect
// integrations (Slack, Google Sheets, AMQP, Redis), scheduled jobs and tracing.
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "chatguus-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// OpenAIConfig configures the chat-completion client. An empty APIKey disables
// the LLM and makes the generator answer from templates.
type OpenAIConfig struct {
	APIKey      string        // OPENAI_API_KEY
	Model       string        // OPENAI_MODEL
	Temperature float64       // OPENAI_TEMPERATURE in [0..2]
	MaxTokens   int           // OPENAI_MAX_TOKENS
	Timeout     time.Duration // OPENAI_TIMEOUT
	BaseURL     string        // OPENAI_BASE_URL (optional, for proxies)
}

// Enabled reports whether an API key is configured.
func (c OpenAIConfig) Enabled() bool { return strings.TrimSpace(c.APIKey) != "" }

// EmailConfig holds SMTP credentials and the default department addresses
// used when a tenant routing table leaves a department empty.
type EmailConfig struct {
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	From     string

	General  string // EMAIL_GENERAL
	IT       string // EMAIL_IT
	Cleaning string // EMAIL_CLEANING
	Events   string // EMAIL_EVENTS
}

// SMTPConfigured reports whether outbound mail can be delivered.
func (c EmailConfig) SMTPConfigured() bool {
	return strings.TrimSpace(c.SMTPHost) != "" && strings.TrimSpace(c.SMTPUser) != ""
}

// IntegrationsConfig lists optional side-effect sinks. Every field may be empty.
type IntegrationsConfig struct {
	SlackWebhookURL   string // SLACK_WEBHOOK_URL
	SheetsID          string // GOOGLE_SHEETS_ID
	ServiceAccountKey string // GOOGLE_SERVICE_ACCOUNT_KEY (JSON)
	AMQPURL           string // AMQP_URL
	AMQPExchange      string // AMQP_EXCHANGE
	RedisURL          string // REDIS_URL
	MongoURIPresent   bool   // MONGODB_URI set (reported by /health only)

	SlackConfigured  bool
	SheetsConfigured bool
	AMQPConfigured   bool
	RedisConfigured  bool
}

// JobsConfig controls the cron scheduler. Specs use six fields (with seconds).
type JobsConfig struct {
	Enabled       bool   // JOBS_ENABLED
	DashboardWarm string // DASHBOARD_WARM_SPEC
	Housekeeping  string // HOUSEKEEPING_SPEC
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

	// App
	Env           string        // APP_ENV / NODE_ENV (development|production|test)
	Version       string        // APP_VERSION
	DBPath        string        // SQLite path
	PublicBaseURL string        // base URL used in widget links
	CacheTTL      time.Duration // dashboard and tenant artifact cache TTL
	AnalyticsSalt string        // ANALYTICS_SALT, mixed into anonymous visitor ids

	// Integrations
	OpenAI       OpenAIConfig
	Email        EmailConfig
	Integrations IntegrationsConfig
	Jobs         JobsConfig

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
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// App
		Env:           strings.ToLower(getenv("APP_ENV", getenv("NODE_ENV", "production"))),
		Version:       getenv("APP_VERSION", "1.0.0"),
		DBPath:        getenv("DB_PATH", "chatguus.db"),
		PublicBaseURL: strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		CacheTTL:      getdur("CACHE_TTL", 5*time.Minute),
		AnalyticsSalt: getenv("ANALYTICS_SALT", ""),

		OpenAI: OpenAIConfig{
			APIKey:      getenv("OPENAI_API_KEY", ""),
			Model:       getenv("OPENAI_MODEL", "gpt-3.5-turbo"),
			Temperature: getfloat("OPENAI_TEMPERATURE", 0.7),
			MaxTokens:   getint("OPENAI_MAX_TOKENS", 300),
			Timeout:     getdur("OPENAI_TIMEOUT", 15*time.Second),
			BaseURL:     getenv("OPENAI_BASE_URL", ""),
		},
		Email: EmailConfig{
			SMTPHost: getenv("SMTP_HOST", ""),
			SMTPPort: getint("SMTP_PORT", 587),
			SMTPUser: getenv("SMTP_USER", ""),
			SMTPPass: getenv("SMTP_PASS", ""),
			From:     getenv("SMTP_FROM", `"Guus van de Koepel" <noreply@cupolaxs.nl>`),
			General:  getenv("EMAIL_GENERAL", "welcome@cupolaxs.nl"),
			IT:       getenv("EMAIL_IT", "support@axs-ict.com"),
			Cleaning: getenv("EMAIL_CLEANING", "ralphcassa@gmail.com"),
			Events:   getenv("EMAIL_EVENTS", "irene@cupolaxs.nl"),
		},
		Integrations: IntegrationsConfig{
			SlackWebhookURL:   getenv("SLACK_WEBHOOK_URL", ""),
			SheetsID:          getenv("GOOGLE_SHEETS_ID", ""),
			ServiceAccountKey: getenv("GOOGLE_SERVICE_ACCOUNT_KEY", ""),
			AMQPURL:           getenv("AMQP_URL", ""),
			AMQPExchange:      getenv("AMQP_EXCHANGE", "chatguus.events"),
			RedisURL:          getenv("REDIS_URL", ""),
			MongoURIPresent:   getenv("MONGODB_URI", "") != "",
		},
		Jobs: JobsConfig{
			Enabled:       getbool("JOBS_ENABLED", true),
			DashboardWarm: getenv("DASHBOARD_WARM_SPEC", "0 */5 * * * *"),
			Housekeeping:  getenv("HOUSEKEEPING_SPEC", "0 0 * * * *"),
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
			ServiceName: getenv("OTEL_SERVICE_NAME", "chatguus-backend"),
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
	switch cfg.Env {
	case "dev":
		cfg.Env = "development"
	case "prod", "":
		cfg.Env = "production"
	}
	in := &cfg.Integrations
	in.SlackConfigured = strings.HasPrefix(in.SlackWebhookURL, "https://")
	in.SheetsConfigured = in.SheetsID != "" && in.ServiceAccountKey != ""
	in.AMQPConfigured = in.AMQPURL != ""
	in.RedisConfigured = in.RedisURL != ""

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
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.OpenAI.Temperature < 0 || cfg.OpenAI.Temperature > 2 {
		return cfg, errors.New("OPENAI_TEMPERATURE must be between 0 and 2")
	}
	if cfg.OpenAI.MaxTokens < 1 {
		return cfg, errors.New("OPENAI_MAX_TOKENS must be >= 1")
	}
	if cfg.OpenAI.Timeout <= 0 {
		return cfg, errors.New("OPENAI_TIMEOUT must be > 0")
	}
	if cfg.Email.SMTPPort <= 0 || cfg.Email.SMTPPort > 65535 {
		return cfg, errors.New("SMTP_PORT must be a valid port")
	}
	if cfg.CacheTTL <= 0 {
		return cfg, errors.New("CACHE_TTL must be > 0")
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

// IsDevelopment reports whether internal error details may be exposed.
func (c Config) IsDevelopment() bool { return c.Env == "development" }

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
