// Package config loads the demo server's configuration from a YAML file,
// with values overridable by environment variables and a .env file.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/adatp-project/adatp/internal/logger"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig controls the cmd/adatp server demo's network listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// HandshakeConfig holds the handshake timeout. Load parses and defaults it;
// cmd/adatp serve does not apply it, so its handshakes run without a
// deadline.
type HandshakeConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig mirrors pkg/session.RegistryConfig in a serializable form.
type SessionConfig struct {
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// LoggingConfig holds the configured log level. cmd/adatp serve does not
// apply it; internal/logger takes its level from ADATP_LOG_LEVEL only.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig controls whether and where internal/metrics exposes its
// Prometheus handler.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Config is the top-level configuration for the demo server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Handshake HandshakeConfig `yaml:"handshake"`
	Session   SessionConfig   `yaml:"session"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Host: "127.0.0.1", Port: 8443},
		Handshake: HandshakeConfig{Timeout: 10 * time.Second},
		Session: SessionConfig{
			IdleTimeout:   10 * time.Minute,
			SweepInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
		Metrics: MetricsConfig{Enabled: true, Addr: "127.0.0.1:9090"},
	}
}

// Load reads a .env file if present (ignored if missing), then loads YAML
// configuration from path, applying environment variable substitution and
// filling any unset fields with Default's values. An empty path skips the
// file read and returns Default with environment overrides applied.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, logger.NewStructuredError(logger.ErrCodeConfigurationError,
				fmt.Sprintf("read %s", path), err)
		}
		if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), cfg); err != nil {
			return nil, logger.NewStructuredError(logger.ErrCodeConfigurationError,
				fmt.Sprintf("parse %s", path), err)
		}
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// substituteEnvVars replaces ${VAR} or ${VAR:default} with environment
// variable values before the YAML is parsed.
func substituteEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		varName, defaultValue := parts[1], ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// applyEnvOverrides lets a small set of well-known environment variables
// override the YAML-loaded values without requiring a file edit, following
// the same host/port override shape as the reference server's own
// environment-driven configuration.
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("ADATP_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("ADATP_PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil {
			cfg.Server.Port = p
		}
	}
	if level := os.Getenv("ADATP_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

func setDefaults(cfg *Config) {
	d := Default()
	if cfg.Server.Host == "" {
		cfg.Server.Host = d.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = d.Server.Port
	}
	if cfg.Handshake.Timeout == 0 {
		cfg.Handshake.Timeout = d.Handshake.Timeout
	}
	if cfg.Session.IdleTimeout == 0 {
		cfg.Session.IdleTimeout = d.Session.IdleTimeout
	}
	if cfg.Session.SweepInterval == 0 {
		cfg.Session.SweepInterval = d.Session.SweepInterval
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = d.Metrics.Addr
	}
}
