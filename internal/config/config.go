// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session storage backends accepted in SESSION_STORE.
const (
	StoreMemory   = "memory"
	StoreBolt     = "bolt"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// APIURL is the proxy API base URL (e.g. http://localhost:8000/api).
	APIURL string `mapstructure:"TRACCAR_API_URL"`
	// DefaultServer is the Traccar server URL used when the session has none persisted.
	DefaultServer string `mapstructure:"TRACCAR_DEFAULT_SERVER"`
	// APITimeout is the default per-call timeout (e.g. "15s").
	APITimeout string `mapstructure:"API_TIMEOUT"`
	// ChatTimeout is the timeout for chat calls, which wait on the assistant (e.g. "60s").
	ChatTimeout string `mapstructure:"CHAT_TIMEOUT"`

	// SessionStore selects where the session is persisted: memory, bolt, redis or postgres.
	SessionStore string `mapstructure:"SESSION_STORE"`
	// SessionBoltPath is the bolt file used when SessionStore is bolt.
	SessionBoltPath string `mapstructure:"SESSION_BOLT_PATH"`
	// RedisURL is required when SessionStore is redis.
	RedisURL string `mapstructure:"REDIS_URL"`
	// SessionRedisPrefix is prepended to every redis key.
	SessionRedisPrefix string `mapstructure:"SESSION_REDIS_PREFIX"`
	// DatabaseURL is the Postgres DSN; required when SessionStore is postgres.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// SessionNamespace separates sessions sharing one Postgres table (one per profile).
	SessionNamespace string `mapstructure:"SESSION_NAMESPACE"`
	// SessionSealKey, when set, encrypts stored values. Inline secret or "file:/path".
	SessionSealKey string `mapstructure:"SESSION_SEAL_KEY"`

	// OTLPEndpoint is the OTLP gRPC collector (e.g. localhost:4317). Empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure disables TLS to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is the OTel service.name resource attribute.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// Telemetry (optional). When Kafka brokers are set, the client emits telemetry to Kafka.
	// TelemetryKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for telemetry events.
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`

	// Worker-only: Loki URL for the telemetry worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the telemetry worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("TRACCAR_API_URL", "http://localhost:8000/api")
	v.SetDefault("TRACCAR_DEFAULT_SERVER", "https://demo2.traccar.org")
	v.SetDefault("API_TIMEOUT", "15s")
	v.SetDefault("CHAT_TIMEOUT", "60s")
	v.SetDefault("SESSION_STORE", StoreBolt)
	v.SetDefault("SESSION_BOLT_PATH", "traccar-session.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SESSION_REDIS_PREFIX", "traccarclient:")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SESSION_NAMESPACE", "default")
	v.SetDefault("SESSION_SEAL_KEY", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "traccar-client")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "traccar-client-telemetry")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "traccar-client-telemetry-worker")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.APIURL == "" {
		return nil, errors.New("config: TRACCAR_API_URL must be set")
	}
	if err := positiveDuration("API_TIMEOUT", cfg.APITimeout); err != nil {
		return nil, err
	}
	if err := positiveDuration("CHAT_TIMEOUT", cfg.ChatTimeout); err != nil {
		return nil, err
	}

	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))
	switch cfg.SessionStore {
	case StoreMemory:
	case StoreBolt:
		if cfg.SessionBoltPath == "" {
			return nil, errors.New("config: SESSION_BOLT_PATH must be set when SESSION_STORE=bolt")
		}
	case StoreRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("config: REDIS_URL must be set when SESSION_STORE=redis")
		}
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("config: DATABASE_URL must be set when SESSION_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("config: unknown SESSION_STORE %q (want memory, bolt, redis or postgres)", cfg.SessionStore)
	}

	return &cfg, nil
}

func positiveDuration(key, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("config: %s must be positive", key)
	}
	return nil
}

// RequestTimeout parses APITimeout as a time.Duration. Returns 15s if unset or invalid.
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.APITimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// ChatRequestTimeout parses ChatTimeout as a time.Duration. Returns 60s if unset or invalid.
func (c *Config) ChatRequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.ChatTimeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if telemetry is enabled (non-empty list) and to create the producer.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
