// Package config loads the ticketflow process configuration from YAML.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config is the process configuration shared by every command.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Store   StoreConfig   `yaml:"store"`
	Redis   RedisConfig   `yaml:"redis"`
	HTTP    HTTPConfig    `yaml:"http"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Session SessionConfig `yaml:"session"`
	Engine  EngineConfig  `yaml:"engine"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// StoreConfig selects the run store and its at-rest protections.
// RedactPII masks matching fields in stored records and in the run events
// streamed over SSE. EncryptionKey and FallbackKeys are base64 encoded 32-byte
// AES keys.
type StoreConfig struct {
	Backend       string   `yaml:"backend" validate:"oneof=memory redis"`
	RedactPII     bool     `yaml:"redact_pii"`
	PIIPatterns   []string `yaml:"pii_patterns"`
	EncryptionKey string   `yaml:"encryption_key" validate:"required_with=FallbackKeys"`
	FallbackKeys  []string `yaml:"fallback_keys"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl" validate:"min=0"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
	CORS bool   `yaml:"cors"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TracingConfig selects where spans go. Output is "stdout", "stderr" or a file path.
type TracingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Output  string `yaml:"output"`
}

type SessionConfig struct {
	LockTTL time.Duration `yaml:"lock_ttl" validate:"gt=0"`
}

// EngineConfig tunes the built-in providers.
type EngineConfig struct {
	SolutionScore int `yaml:"solution_score" validate:"min=0,max=100"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info", Format: "text"},
		Store:   StoreConfig{Backend: StoreMemory},
		Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "ticketflow:"},
		HTTP:    HTTPConfig{Addr: ":8080", CORS: true},
		Metrics: MetricsConfig{Enabled: true},
		Tracing: TracingConfig{Output: "stderr"},
		Session: SessionConfig{LockTTL: 30 * time.Second},
		Engine:  EngineConfig{SolutionScore: 95},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// ${VAR} references in the file are expanded from the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(interpolate(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolate replaces ${VAR} with its environment value, leaving unset
// references untouched.
func interpolate(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return match
	})
}
