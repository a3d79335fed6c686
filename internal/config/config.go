package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// SendBuffer is the per-connection outbox size; a full outbox evicts the client.
	SendBuffer      int           `mapstructure:"send_buffer" yaml:"send_buffer"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	PingInterval    time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	MetricsEnabled bool `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`

	Relay RelayConfig `mapstructure:"relay" yaml:"relay"`
}

// RelayConfig configures cross-instance fan-out. An empty RedisURL disables it.
type RelayConfig struct {
	RedisURL  string `mapstructure:"redis_url" yaml:"redis_url"`
	Channel   string `mapstructure:"channel" yaml:"channel"`
	QueueSize int    `mapstructure:"queue_size" yaml:"queue_size"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":3000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		SendBuffer:        64,
		WriteTimeout:      10 * time.Second,
		PingInterval:      30 * time.Second,
		MaxMessageBytes:   32 << 10,
		AllowedOrigins:    []string{"*"},
		MetricsEnabled:    true,
		Relay: RelayConfig{
			Channel:   "chatrelay:messages",
			QueueSize: 256,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.SendBuffer != 0 {
		c.SendBuffer = other.SendBuffer
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.PingInterval != 0 {
		c.PingInterval = other.PingInterval
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if len(other.AllowedOrigins) > 0 {
		c.AllowedOrigins = other.AllowedOrigins
	}
	if other.Relay.RedisURL != "" {
		c.Relay.RedisURL = other.Relay.RedisURL
	}
	if other.Relay.Channel != "" {
		c.Relay.Channel = other.Relay.Channel
	}
	if other.Relay.QueueSize != 0 {
		c.Relay.QueueSize = other.Relay.QueueSize
	}
}

// Validate reports values the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("addr is required")
	case c.SendBuffer <= 0:
		return fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer)
	case c.MaxMessageBytes <= 0:
		return fmt.Errorf("max_message_bytes must be positive, got %d", c.MaxMessageBytes)
	case c.WriteTimeout <= 0:
		return fmt.Errorf("write_timeout must be positive, got %s", c.WriteTimeout)
	case c.Relay.RedisURL != "" && c.Relay.Channel == "":
		return errors.New("relay.channel is required when relay.redis_url is set")
	}
	return nil
}
