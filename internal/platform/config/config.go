// Package config loads service configuration from an optional YAML file
// overlaid with environment variables, so deployments ship a base file and
// override per environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	strs "registrar/pkg/platform/strings"
)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = "30s"

// systemPath is consulted when no config file is given explicitly.
const systemPath = "/etc/registrar/registrar.yaml"

type Config struct {
	Addr            string `yaml:"addr" envconfig:"REGISTRAR_ADDR"`
	Debug           bool   `yaml:"debug" envconfig:"REGISTRAR_DEBUG"`
	ShutdownTimeout string `yaml:"shutdownTimeout" envconfig:"REGISTRAR_SHUTDOWN_TIMEOUT"`

	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Audit    AuditConfig    `yaml:"audit"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// DatabaseConfig selects the persistence backend. An empty URL runs the
// service on in-memory stores, which is how the test suite and local
// development operate.
type DatabaseConfig struct {
	URL string `yaml:"url" envconfig:"REGISTRAR_DATABASE_URL"`
}

// RedisConfig configures the duplicate-check index. Timeouts are
// environment-only; the YAML layer carries connection identity.
type RedisConfig struct {
	URL          string        `yaml:"url" envconfig:"REGISTRAR_REDIS_URL"`
	PoolSize     int           `yaml:"poolSize" envconfig:"REGISTRAR_REDIS_POOL_SIZE"`
	MinIdleConns int           `yaml:"minIdleConns" envconfig:"REGISTRAR_REDIS_MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `yaml:"-" envconfig:"REGISTRAR_REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `yaml:"-" envconfig:"REGISTRAR_REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"-" envconfig:"REGISTRAR_REDIS_WRITE_TIMEOUT"`
}

// KafkaConfig configures the audit event mirror. No brokers means no sink.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" envconfig:"REGISTRAR_KAFKA_BROKERS"`
	Topic   string   `yaml:"topic" envconfig:"REGISTRAR_KAFKA_TOPIC"`
	Group   string   `yaml:"group" envconfig:"REGISTRAR_KAFKA_GROUP"`
	// Archive runs the consumer that materializes mirrored events back
	// into the audit_events table.
	Archive bool `yaml:"archive" envconfig:"REGISTRAR_KAFKA_ARCHIVE"`
}

type AuditConfig struct {
	// AsyncBuffer > 0 switches the publisher to buffered async mode.
	AsyncBuffer int `yaml:"asyncBuffer" envconfig:"REGISTRAR_AUDIT_ASYNC_BUFFER"`
	// SampleRate applies to operations-category events only. 1.0 keeps
	// everything.
	SampleRate float64 `yaml:"sampleRate" envconfig:"REGISTRAR_AUDIT_SAMPLE_RATE"`
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"REGISTRAR_TRACING_ENABLED"`
}

func defaults() Config {
	return Config{
		Addr:            ":8080",
		ShutdownTimeout: DefaultShutdownTimeout,
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Group: "registrar-audit-archiver",
		},
		Audit: AuditConfig{
			SampleRate: 1.0,
		},
	}
}

// Load reads the YAML file at path (or the system path when empty), then
// overlays environment variables. Missing files are only an error when the
// path was explicit.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		if _, err := os.Stat(systemPath); err == nil {
			path = systemPath
		}
	}
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process("registrar", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Broker lists arrive comma-joined from the environment and hand-edited
	// in YAML; both leave stray blanks and repeats behind.
	cfg.Kafka.Brokers = strs.DedupeAndTrim(cfg.Kafka.Brokers)
	return &cfg, nil
}

// ShutdownDuration parses the configured shutdown timeout, falling back to
// the default on malformed input rather than refusing to start.
func (c *Config) ShutdownDuration() time.Duration {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultShutdownTimeout)
	}
	return d
}
