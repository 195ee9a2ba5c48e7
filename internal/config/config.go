// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, storage backends, the Discord bot, the game backend broadcast,
// rate limiting, and observability.
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "orion-relay")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// StorageConfig selects the database and the code and payload backends.
type StorageConfig struct {
	Driver       string // DB_DRIVER sqlite|postgres
	DBPath       string // DB_PATH (sqlite)
	DatabaseURL  string // DATABASE_URL (postgres)
	CodeStore    string // CODE_STORE db|redis
	RedisURL     string // REDIS_URL
	PayloadStore string // PAYLOAD_STORE db|s3
	S3           S3Config
}

// S3Config configures the S3 payload store.
type S3Config struct {
	Bucket          string // S3_BUCKET
	Region          string // S3_REGION
	Endpoint        string // S3_ENDPOINT (MinIO, B2); empty for AWS
	Prefix          string // S3_PREFIX
	AccessKeyID     string // S3_ACCESS_KEY_ID
	SecretAccessKey string // S3_SECRET_ACCESS_KEY
}

// DomainConfig holds linking, catalog and liveness settings.
type DomainConfig struct {
	CodeTTL           time.Duration // CODE_TTL
	CodePurgeInterval time.Duration // CODE_PURGE_INTERVAL
	Hubs              []string      // HUBS
	MaxFileBytes      int64         // MAX_FILE_BYTES (decoded payload cap)
	FanoutConcurrency int           // FANOUT_CONCURRENCY
	HeartbeatInterval time.Duration // HEARTBEAT_INTERVAL
	HeartbeatTimeout  time.Duration // HEARTBEAT_TIMEOUT
	BotVersion        string        // BOT_VERSION
}

// AuthConfig holds the shared keys checked by the HTTP layer.
type AuthConfig struct {
	AdminKey   string // ADMIN_KEY, header X-Admin-Key
	GameAPIKey string // GAME_API_KEY, header X-Api-Key; empty disables
}

// DiscordConfig configures the chat bot. An empty Token disables it.
type DiscordConfig struct {
	Token           string        // DISCORD_TOKEN
	LogChannelID    string        // DISCORD_LOG_CHANNEL_ID
	CommandPrefix   string        // COMMAND_PREFIX
	FlowStepTimeout time.Duration // FLOW_STEP_TIMEOUT
	FlowMaxAttempts int           // FLOW_MAX_ATTEMPTS
	MaxFetchBytes   int64         // ATTACHMENT_MAX_BYTES
}

// GameBackendConfig configures the downtime broadcast. Broadcasting is off
// unless both UniverseID and APIKey are set.
type GameBackendConfig struct {
	UniverseID       string        // GAME_UNIVERSE_ID
	APIKey           string        // GAME_API_KEY_OUTBOUND
	BaseURL          string        // GAME_MESSAGING_BASE_URL
	DowntimeTopic    string        // DOWNTIME_TOPIC
	BroadcastTimeout time.Duration // BROADCAST_TIMEOUT
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 60s, uploads are large
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // request body cap, base64 payloads included
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes; the game posts to "/"

	Storage     StorageConfig
	Domain      DomainConfig
	Auth        AuthConfig
	Discord     DiscordConfig
	GameBackend GameBackendConfig

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
		ReadTimeout:       getdur("READ_TIMEOUT", 30*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      getint64("MAX_BODY_BYTES", 50<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/")),

		Storage: StorageConfig{
			Driver:       strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			DBPath:       getenv("DB_PATH", "relay.db"),
			DatabaseURL:  getenv("DATABASE_URL", ""),
			CodeStore:    strings.ToLower(getenv("CODE_STORE", "db")),
			RedisURL:     getenv("REDIS_URL", ""),
			PayloadStore: strings.ToLower(getenv("PAYLOAD_STORE", "db")),
			S3: S3Config{
				Bucket:          getenv("S3_BUCKET", ""),
				Region:          getenv("S3_REGION", "us-east-1"),
				Endpoint:        getenv("S3_ENDPOINT", ""),
				Prefix:          getenv("S3_PREFIX", "payloads"),
				AccessKeyID:     getenv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getenv("S3_SECRET_ACCESS_KEY", ""),
			},
		},

		Domain: DomainConfig{
			CodeTTL:           getdur("CODE_TTL", 10*time.Minute),
			CodePurgeInterval: getdur("CODE_PURGE_INTERVAL", 5*time.Minute),
			Hubs:              splitCSV(getenv("HUBS", "Orion,Nebula,Titan")),
			MaxFileBytes:      getint64("MAX_FILE_BYTES", 25<<20),
			FanoutConcurrency: getint("FANOUT_CONCURRENCY", 4),
			HeartbeatInterval: getdur("HEARTBEAT_INTERVAL", 5*time.Second),
			HeartbeatTimeout:  getdur("HEARTBEAT_TIMEOUT", 10*time.Second),
			BotVersion:        getenv("BOT_VERSION", "dev"),
		},

		Auth: AuthConfig{
			AdminKey:   getenv("ADMIN_KEY", ""),
			GameAPIKey: getenv("GAME_API_KEY", ""),
		},

		Discord: DiscordConfig{
			Token:           getenv("DISCORD_TOKEN", ""),
			LogChannelID:    getenv("DISCORD_LOG_CHANNEL_ID", ""),
			CommandPrefix:   getenv("COMMAND_PREFIX", "!"),
			FlowStepTimeout: getdur("FLOW_STEP_TIMEOUT", 60*time.Second),
			FlowMaxAttempts: getint("FLOW_MAX_ATTEMPTS", 3),
			MaxFetchBytes:   getint64("ATTACHMENT_MAX_BYTES", 25<<20),
		},

		GameBackend: GameBackendConfig{
			UniverseID:       getenv("GAME_UNIVERSE_ID", ""),
			APIKey:           getenv("GAME_API_KEY_OUTBOUND", ""),
			BaseURL:          getenv("GAME_MESSAGING_BASE_URL", ""),
			DowntimeTopic:    getenv("DOWNTIME_TOPIC", "DowntimeEvent"),
			BroadcastTimeout: getdur("BROADCAST_TIMEOUT", 5*time.Second),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 20.0),
		RateBurst: getint("RATE_BURST", 40),

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
			ServiceName: getenv("OTEL_SERVICE_NAME", "orion-relay"),
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
	if cfg.Storage.Driver == "postgresql" {
		cfg.Storage.Driver = "postgres"
	}
	cfg.Discord.CommandPrefix = strings.TrimSpace(cfg.Discord.CommandPrefix)
	if cfg.Discord.CommandPrefix == "" {
		cfg.Discord.CommandPrefix = "!"
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
	if cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES must be > 0")
	}
	if err := cfg.Storage.validate(); err != nil {
		return cfg, err
	}
	if cfg.Domain.CodeTTL <= 0 {
		return cfg, errors.New("CODE_TTL must be > 0")
	}
	if cfg.Domain.CodePurgeInterval <= 0 {
		return cfg, errors.New("CODE_PURGE_INTERVAL must be > 0")
	}
	if len(cfg.Domain.Hubs) == 0 {
		return cfg, errors.New("HUBS must name at least one hub")
	}
	if cfg.Domain.MaxFileBytes < 0 {
		return cfg, errors.New("MAX_FILE_BYTES must be >= 0")
	}
	if cfg.Domain.FanoutConcurrency < 1 {
		return cfg, errors.New("FANOUT_CONCURRENCY must be >= 1")
	}
	if cfg.Domain.HeartbeatInterval <= 0 || cfg.Domain.HeartbeatTimeout <= 0 {
		return cfg, errors.New("HEARTBEAT_INTERVAL and HEARTBEAT_TIMEOUT must be > 0")
	}
	if cfg.Domain.HeartbeatInterval >= cfg.Domain.HeartbeatTimeout {
		return cfg, errors.New("HEARTBEAT_INTERVAL must be shorter than HEARTBEAT_TIMEOUT")
	}
	if cfg.Discord.FlowStepTimeout <= 0 {
		return cfg, errors.New("FLOW_STEP_TIMEOUT must be > 0")
	}
	if cfg.Discord.FlowMaxAttempts < 1 {
		return cfg, errors.New("FLOW_MAX_ATTEMPTS must be >= 1")
	}
	if cfg.GameBackend.BroadcastTimeout <= 0 {
		return cfg, errors.New("BROADCAST_TIMEOUT must be > 0")
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

// BroadcastEnabled reports whether the game backend is configured.
func (g GameBackendConfig) BroadcastEnabled() bool {
	return strings.TrimSpace(g.UniverseID) != "" && strings.TrimSpace(g.APIKey) != ""
}

// BotEnabled reports whether the Discord bot should start.
func (d DiscordConfig) BotEnabled() bool { return strings.TrimSpace(d.Token) != "" }

func (s StorageConfig) validate() error {
	switch s.Driver {
	case "sqlite":
		if strings.TrimSpace(s.DBPath) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(s.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	switch s.CodeStore {
	case "db":
	case "redis":
		if strings.TrimSpace(s.RedisURL) == "" {
			return errors.New("REDIS_URL is required when CODE_STORE=redis")
		}
	default:
		return errors.New("CODE_STORE must be one of: db, redis")
	}
	switch s.PayloadStore {
	case "db":
	case "s3":
		if strings.TrimSpace(s.S3.Bucket) == "" {
			return errors.New("S3_BUCKET is required when PAYLOAD_STORE=s3")
		}
	default:
		return errors.New("PAYLOAD_STORE must be one of: db, s3")
	}
	return nil
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

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
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
