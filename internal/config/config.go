// Package config provides configuration management for the casedesk server and CLI.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/vyrodovalexey/casedesk/internal/model"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "APP_"

// Default configuration values.
const (
	DefaultServerPort      = 8080
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultNamespace       = "universal"
	DefaultProbePort       = 9090
	DefaultStoreDriver     = StoreDriverMemory
	DefaultStoreDSN        = "file:casedesk.db"
	DefaultCORSOrigin      = "*"
	DefaultCORSMaxAge      = 24 * time.Hour
)

// Supported store drivers.
const (
	StoreDriverMemory = "memory"
	StoreDriverSQLite = "sqlite"
)

// Environment variable names.
const (
	EnvServerPort      = "APP_SERVER_PORT"
	EnvLogLevel        = "APP_LOG_LEVEL"
	EnvShutdownTimeout = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled  = "APP_METRICS_ENABLED"
	EnvNamespace       = "APP_NAMESPACE"
	EnvProbePort       = "APP_PROBE_PORT"
	EnvStoreDriver     = "APP_STORE_DRIVER"
	EnvStoreDSN        = "APP_STORE_DSN"
	EnvCORSOrigins     = "APP_CORS_ALLOWED_ORIGINS"
	EnvCORSMaxAge      = "APP_CORS_MAX_AGE"
	EnvClientBaseURL   = "APP_CLIENT_BASE_URL"
	EnvClientNamespace = "APP_CLIENT_NAMESPACE"
	EnvClientTimeout   = "APP_CLIENT_TIMEOUT"
)

// Config holds the application configuration.
type Config struct {
	Server Server
	Store  Store  `envPrefix:"STORE_"`
	CORS   CORS   `envPrefix:"CORS_"`
	Client Client `envPrefix:"CLIENT_"`
}

// Server holds the HTTP server settings.
type Server struct {
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ProbePort       int           `env:"PROBE_PORT" envDefault:"9090"` // 0 disables the probe server.
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	MetricsEnabled  bool          `env:"METRICS_ENABLED" envDefault:"true"`
	Namespace       string        `env:"NAMESPACE" envDefault:"universal"`
}

// Store selects the item store backing the server.
type Store struct {
	Driver string `env:"DRIVER" envDefault:"memory"`
	DSN    string `env:"DSN" envDefault:"file:casedesk.db"`
}

// CORS controls which browser origins may call the API.
type CORS struct {
	// AllowedOrigins is a comma-separated list of origins, or "*".
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	MaxAge         time.Duration `env:"MAX_AGE" envDefault:"24h"`
}

// Client holds the collection client settings used by casectl.
type Client struct {
	// BaseURL is empty by default, which targets the co-hosted server.
	BaseURL   string        `env:"BASE_URL"`
	Namespace string        `env:"NAMESPACE" envDefault:"universal"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"0s"` // 0 means no timeout.
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidProbePort       = errors.New("probe port must be between 0 and 65535")
	ErrProbePortConflict      = errors.New(
		"probe port must differ from server port when probe port is not 0",
	)
	ErrInvalidNamespace   = errors.New("namespace must be a valid path segment of [a-z0-9_-]")
	ErrInvalidStoreDriver = errors.New("store driver must be one of: memory, sqlite")
	ErrMissingStoreDSN    = errors.New("store DSN must be set when store driver is sqlite")
	ErrMissingCORSOrigins = errors.New("at least one CORS origin must be allowed")
	ErrInvalidCORSOrigin  = errors.New(`CORS origins must be "*" or scheme://host[:port]`)
	ErrInvalidCORSMaxAge  = errors.New("CORS max age must not be negative")
	ErrInvalidBaseURL     = errors.New("client base URL must be an absolute http or https URL")
	ErrInvalidTimeout     = errors.New("client timeout must not be negative")
)

// Load reads configuration from environment variables with defaults.
// Environment variables have priority over default values.
func Load() (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{
		Prefix: EnvPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// LoadClient reads only the APP_CLIENT_ settings. It does not depend on the
// server settings being valid.
func LoadClient() (*Client, error) {
	cfg, err := env.ParseAsWithOptions[Client](env.Options{
		Prefix: EnvPrefix + "CLIENT_",
	})
	if err != nil {
		return nil, fmt.Errorf("loading client config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating client config: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}

	if err := c.Store.Validate(); err != nil {
		return err
	}

	if err := c.CORS.Validate(); err != nil {
		return err
	}

	return c.Client.Validate()
}

// Validate validates server-related configuration.
func (s *Server) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return ErrInvalidServerPort
	}

	if s.ProbePort < 0 || s.ProbePort > 65535 {
		return ErrInvalidProbePort
	}

	if s.ProbePort != 0 && s.ProbePort == s.Port {
		return ErrProbePortConflict
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[s.LogLevel] {
		return ErrInvalidLogLevel
	}

	if s.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	if model.ValidateCollectionName(s.Namespace) != nil {
		return ErrInvalidNamespace
	}

	return nil
}

// Validate validates the store selection.
func (s *Store) Validate() error {
	switch s.Driver {
	case StoreDriverMemory:
		return nil
	case StoreDriverSQLite:
		if s.DSN == "" {
			return ErrMissingStoreDSN
		}
		return nil
	default:
		return ErrInvalidStoreDriver
	}
}

// Validate validates the CORS settings.
func (c *CORS) Validate() error {
	if len(c.AllowedOrigins) == 0 {
		return ErrMissingCORSOrigins
	}

	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" ||
			u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
			return ErrInvalidCORSOrigin
		}
	}

	if c.MaxAge < 0 {
		return ErrInvalidCORSMaxAge
	}

	return nil
}

// Validate validates the collection client settings.
func (c *Client) Validate() error {
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrInvalidBaseURL
		}
	}

	if model.ValidateCollectionName(c.Namespace) != nil {
		return ErrInvalidNamespace
	}

	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// ProbeAddress returns the probe server address in host:port format.
func (c *Config) ProbeAddress() string {
	return fmt.Sprintf(":%d", c.Server.ProbePort)
}
