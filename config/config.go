package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Runner  RunnerConfig  `mapstructure:"runner"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds transport configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
}

// RunnerConfig holds the execution resource envelope. The defaults are the
// envelope every run gets: 60 s wall clock, 512 MiB memory with no swap
// headroom, one full CPU core, 128 processes, bridge networking, non-root.
type RunnerConfig struct {
	Image       string `mapstructure:"image"`
	TimeoutSec  int    `mapstructure:"timeout_sec"`
	MemoryMB    int    `mapstructure:"memory_mb"`
	CPUQuota    int64  `mapstructure:"cpu_quota"`
	CPUPeriod   int64  `mapstructure:"cpu_period"`
	PidsLimit   int64  `mapstructure:"pids_limit"`
	NetworkMode string `mapstructure:"network_mode"`
	User        string `mapstructure:"user"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// New loads and validates the application configuration
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Set default values
	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.http_port", 8080)

	v.SetDefault("runner.image", "polyrun-runtime")
	v.SetDefault("runner.timeout_sec", 60)
	v.SetDefault("runner.memory_mb", 512)
	v.SetDefault("runner.cpu_quota", 100000)
	v.SetDefault("runner.cpu_period", 100000)
	v.SetDefault("runner.pids_limit", 128)
	v.SetDefault("runner.network_mode", "bridge")
	v.SetDefault("runner.user", "nobody")

	v.SetDefault("logging.mode", "production")
	v.SetDefault("logging.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	switch c.Server.Transport {
	case "stdio", "http", "web":
	default:
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio', 'http' or 'web'", c.Server.Transport)
	}

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port must be a valid port, got: %d", c.Server.HTTPPort)
	}

	if c.Runner.Image == "" {
		return fmt.Errorf("runner.image must not be empty")
	}

	if c.Runner.TimeoutSec <= 0 {
		return fmt.Errorf("runner.timeout_sec must be positive, got: %d", c.Runner.TimeoutSec)
	}

	if c.Runner.MemoryMB <= 0 {
		return fmt.Errorf("runner.memory_mb must be positive, got: %d", c.Runner.MemoryMB)
	}

	if c.Runner.CPUQuota <= 0 || c.Runner.CPUPeriod <= 0 {
		return fmt.Errorf("runner.cpu_quota and runner.cpu_period must be positive, got: %d/%d",
			c.Runner.CPUQuota, c.Runner.CPUPeriod)
	}

	if c.Runner.PidsLimit <= 0 {
		return fmt.Errorf("runner.pids_limit must be positive, got: %d", c.Runner.PidsLimit)
	}

	switch c.Runner.NetworkMode {
	case "bridge", "none":
	default:
		return fmt.Errorf("unsupported runner.network_mode: %s", c.Runner.NetworkMode)
	}

	if c.Runner.User == "" || c.Runner.User == "root" {
		return fmt.Errorf("runner.user must be a non-root user, got: %q", c.Runner.User)
	}

	return nil
}

// GetTimeout returns the execution timeout as a duration
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Runner.TimeoutSec) * time.Second
}

// MemoryBytes returns the memory ceiling in bytes
func (c *Config) MemoryBytes() int64 {
	return int64(c.Runner.MemoryMB) * 1024 * 1024
}
