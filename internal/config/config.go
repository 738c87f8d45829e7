// Package config provides configuration loading for lifearchitect.
//
// Values come from a YAML file and are overridden by ARCHITECT_ environment
// variables. See LoadWithFile for the precedence rules.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete lifearchitect configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Observability ObservabilityConfig `koanf:"observability"`
	Logging       LoggingConfig       `koanf:"logging"`
	Storage       StorageConfig       `koanf:"storage"`
	AI            AIConfig            `koanf:"ai"`
	Scrub         ScrubConfig         `koanf:"scrub"`
	Samples       SamplesConfig       `koanf:"samples"`
	Calendar      CalendarConfig      `koanf:"calendar"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"http_host"`
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool    `koanf:"enable_telemetry"`
	ServiceName     string  `koanf:"service_name"`
	Endpoint        string  `koanf:"endpoint"`
	Protocol        string  `koanf:"protocol"` // grpc or http/protobuf
	Insecure        bool    `koanf:"insecure"`
	SampleRate      float64 `koanf:"sample_rate"`
}

// LoggingConfig selects the level and encoding of the process logger.
type LoggingConfig struct {
	Level    string `koanf:"level"`
	Format   string `koanf:"format"`
	OTEL     bool   `koanf:"otel"`
	Sampling bool   `koanf:"sampling"`
}

// StorageConfig selects the key/value backend.
type StorageConfig struct {
	Backend      string `koanf:"backend"` // memory, file, nats or nats-embedded
	Dir          string `koanf:"dir"`
	NATSURL      string `koanf:"nats_url"`
	NATSBucket   string `koanf:"nats_bucket"`
	NATSStoreDir string `koanf:"nats_store_dir"`
}

// AIConfig configures the model used by the AI flows. An empty or
// "disabled" provider turns the flows off.
type AIConfig struct {
	Provider          string   `koanf:"provider"`
	Model             string   `koanf:"model"`
	BaseURL           string   `koanf:"base_url"`
	APIKey            Secret   `koanf:"api_key"`
	Timeout           Duration `koanf:"timeout"`
	Temperature       float64  `koanf:"temperature"`
	MaxTokens         int      `koanf:"max_tokens"`
	RequestsPerMinute float64  `koanf:"requests_per_minute"`
	Burst             int      `koanf:"burst"`
	MaxRetries        int      `koanf:"max_retries"`
}

// ScrubConfig controls secret redaction of text sent to the model.
type ScrubConfig struct {
	Enabled       bool   `koanf:"enabled"`
	AllowlistPath string `koanf:"allowlist_path"`
}

// SamplesConfig controls first-visit sample data.
type SamplesConfig struct {
	Enabled bool `koanf:"enabled"`
}

// CalendarConfig holds calendar settings.
type CalendarConfig struct {
	Timezone string `koanf:"timezone"` // IANA name, "Local" or empty for the process zone
}

// Location resolves Timezone.
func (c CalendarConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

var (
	validBackends  = map[string]bool{"memory": true, "file": true, "nats": true, "nats-embedded": true}
	validProviders = map[string]bool{"": true, "disabled": true, "none": true, "openai": true, "anthropic": true, "ollama": true}
	validFormats   = map[string]bool{"json": true, "console": true}
	validProtocols = map[string]bool{"grpc": true, "http/protobuf": true}
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Observability.EnableTelemetry {
		if c.Observability.ServiceName == "" {
			return errors.New("service name required when telemetry is enabled")
		}
		if !validProtocols[c.Observability.Protocol] {
			return fmt.Errorf("invalid telemetry protocol %q (grpc or http/protobuf)", c.Observability.Protocol)
		}
	}
	if c.Observability.SampleRate < 0 || c.Observability.SampleRate > 1 {
		return fmt.Errorf("sample rate must be between 0 and 1, got %v", c.Observability.SampleRate)
	}

	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("log format must be json or console, got %q", c.Logging.Format)
	}

	if !validBackends[c.Storage.Backend] {
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "file" && c.Storage.Dir == "" {
		return errors.New("storage dir required for the file backend")
	}
	if c.Storage.Backend == "nats" && c.Storage.NATSURL == "" {
		return errors.New("nats url required for the nats backend")
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("unknown AI provider %q", c.AI.Provider)
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("AI temperature must be between 0 and 2, got %v", c.AI.Temperature)
	}
	if c.AI.MaxRetries < 0 {
		return errors.New("AI max retries cannot be negative")
	}

	if _, err := c.Calendar.Location(); err != nil {
		return fmt.Errorf("invalid calendar timezone %q: %w", c.Calendar.Timezone, err)
	}
	return nil
}
