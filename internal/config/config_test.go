package config

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	// Arrange - Clear all environment variables
	clearEnvVars(t)

	// Act
	cfg, err := Load()

	// Assert
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultServerPort)
	}
	if cfg.Server.ProbePort != DefaultProbePort {
		t.Errorf("Server.ProbePort = %d, want %d", cfg.Server.ProbePort, DefaultProbePort)
	}
	if cfg.Server.LogLevel != DefaultLogLevel {
		t.Errorf("Server.LogLevel = %s, want %s", cfg.Server.LogLevel, DefaultLogLevel)
	}
	if cfg.Server.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("Server.ShutdownTimeout = %v, want %v", cfg.Server.ShutdownTimeout, DefaultShutdownTimeout)
	}
	if cfg.Server.MetricsEnabled != DefaultMetricsEnabled {
		t.Errorf("Server.MetricsEnabled = %v, want %v", cfg.Server.MetricsEnabled, DefaultMetricsEnabled)
	}
	if cfg.Server.Namespace != DefaultNamespace {
		t.Errorf("Server.Namespace = %s, want %s", cfg.Server.Namespace, DefaultNamespace)
	}
	if cfg.Store.Driver != DefaultStoreDriver {
		t.Errorf("Store.Driver = %s, want %s", cfg.Store.Driver, DefaultStoreDriver)
	}
	if cfg.Store.DSN != DefaultStoreDSN {
		t.Errorf("Store.DSN = %s, want %s", cfg.Store.DSN, DefaultStoreDSN)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != DefaultCORSOrigin {
		t.Errorf("CORS.AllowedOrigins = %v, want [%s]", cfg.CORS.AllowedOrigins, DefaultCORSOrigin)
	}
	if cfg.CORS.MaxAge != DefaultCORSMaxAge {
		t.Errorf("CORS.MaxAge = %v, want %v", cfg.CORS.MaxAge, DefaultCORSMaxAge)
	}
	if cfg.Client.BaseURL != "" {
		t.Errorf("Client.BaseURL = %s, want empty string", cfg.Client.BaseURL)
	}
	if cfg.Client.Namespace != DefaultNamespace {
		t.Errorf("Client.Namespace = %s, want %s", cfg.Client.Namespace, DefaultNamespace)
	}
	if cfg.Client.Timeout != 0 {
		t.Errorf("Client.Timeout = %v, want 0", cfg.Client.Timeout)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(*testing.T, *Config)
	}{
		{
			name:    "custom server port",
			envVars: map[string]string{EnvServerPort: "3000"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != 3000 {
					t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
				}
			},
		},
		{
			name:    "probe server disabled",
			envVars: map[string]string{EnvProbePort: "0"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Server.ProbePort != 0 {
					t.Errorf("Server.ProbePort = %d, want 0", cfg.Server.ProbePort)
				}
			},
		},
		{
			name:    "custom shutdown timeout",
			envVars: map[string]string{EnvShutdownTimeout: "60s"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Server.ShutdownTimeout != 60*time.Second {
					t.Errorf("Server.ShutdownTimeout = %v, want 60s", cfg.Server.ShutdownTimeout)
				}
			},
		},
		{
			name:    "metrics disabled",
			envVars: map[string]string{EnvMetricsEnabled: "false"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Server.MetricsEnabled {
					t.Error("Server.MetricsEnabled = true, want false")
				}
			},
		},
		{
			name: "sqlite store",
			envVars: map[string]string{
				EnvStoreDriver: StoreDriverSQLite,
				EnvStoreDSN:    "file:/var/lib/casedesk/cases.db",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Store.Driver != StoreDriverSQLite {
					t.Errorf("Store.Driver = %s, want sqlite", cfg.Store.Driver)
				}
				if cfg.Store.DSN != "file:/var/lib/casedesk/cases.db" {
					t.Errorf("Store.DSN = %s", cfg.Store.DSN)
				}
			},
		},
		{
			name: "CORS origin list",
			envVars: map[string]string{
				EnvCORSOrigins: "https://pericia.example.org,http://localhost:3000",
				EnvCORSMaxAge:  "10m",
			},
			validate: func(t *testing.T, cfg *Config) {
				want := []string{"https://pericia.example.org", "http://localhost:3000"}
				if len(cfg.CORS.AllowedOrigins) != len(want) {
					t.Fatalf("CORS.AllowedOrigins = %v, want %v", cfg.CORS.AllowedOrigins, want)
				}
				for i, origin := range want {
					if cfg.CORS.AllowedOrigins[i] != origin {
						t.Errorf("CORS.AllowedOrigins[%d] = %s, want %s", i, cfg.CORS.AllowedOrigins[i], origin)
					}
				}
				if cfg.CORS.MaxAge != 10*time.Minute {
					t.Errorf("CORS.MaxAge = %v, want 10m", cfg.CORS.MaxAge)
				}
			},
		},
		{
			name: "client settings",
			envVars: map[string]string{
				EnvClientBaseURL:   "https://pericia.example.org",
				EnvClientNamespace: "forense",
				EnvClientTimeout:   "15s",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Client.BaseURL != "https://pericia.example.org" {
					t.Errorf("Client.BaseURL = %s", cfg.Client.BaseURL)
				}
				if cfg.Client.Namespace != "forense" {
					t.Errorf("Client.Namespace = %s, want forense", cfg.Client.Namespace)
				}
				if cfg.Client.Timeout != 15*time.Second {
					t.Errorf("Client.Timeout = %v, want 15s", cfg.Client.Timeout)
				}
			},
		},
		{
			name: "server and client namespaces are independent",
			envVars: map[string]string{
				EnvNamespace: "laudos",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Server.Namespace != "laudos" {
					t.Errorf("Server.Namespace = %s, want laudos", cfg.Server.Namespace)
				}
				if cfg.Client.Namespace != DefaultNamespace {
					t.Errorf("Client.Namespace = %s, want %s", cfg.Client.Namespace, DefaultNamespace)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load()

			// Assert
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr error
	}{
		{
			name:    "invalid server port - zero",
			envVars: map[string]string{EnvServerPort: "0"},
			wantErr: ErrInvalidServerPort,
		},
		{
			name:    "invalid server port - too high",
			envVars: map[string]string{EnvServerPort: "65536"},
			wantErr: ErrInvalidServerPort,
		},
		{
			name:    "probe port conflicts with server port",
			envVars: map[string]string{EnvServerPort: "9090", EnvProbePort: "9090"},
			wantErr: ErrProbePortConflict,
		},
		{
			name:    "invalid log level",
			envVars: map[string]string{EnvLogLevel: "verbose"},
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "invalid shutdown timeout - zero",
			envVars: map[string]string{EnvShutdownTimeout: "0s"},
			wantErr: ErrInvalidShutdownTimeout,
		},
		{
			name:    "invalid namespace",
			envVars: map[string]string{EnvNamespace: "Universal/API"},
			wantErr: ErrInvalidNamespace,
		},
		{
			name:    "unknown store driver",
			envVars: map[string]string{EnvStoreDriver: "postgres"},
			wantErr: ErrInvalidStoreDriver,
		},
		{
			name:    "CORS origin with path",
			envVars: map[string]string{EnvCORSOrigins: "https://pericia.example.org/app"},
			wantErr: ErrInvalidCORSOrigin,
		},
		{
			name:    "negative CORS max age",
			envVars: map[string]string{EnvCORSMaxAge: "-1m"},
			wantErr: ErrInvalidCORSMaxAge,
		},
		{
			name:    "relative client base URL",
			envVars: map[string]string{EnvClientBaseURL: "localhost:8080"},
			wantErr: ErrInvalidBaseURL,
		},
		{
			name:    "negative client timeout",
			envVars: map[string]string{EnvClientTimeout: "-5s"},
			wantErr: ErrInvalidTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load()

			// Assert
			if err == nil {
				t.Fatalf("Load() expected error, got nil")
			}
			if cfg != nil {
				t.Errorf("Load() expected nil config on error, got %+v", cfg)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "invalid server port - not a number",
			envVars: map[string]string{EnvServerPort: "abc"},
		},
		{
			name:    "invalid shutdown timeout - bad format",
			envVars: map[string]string{EnvShutdownTimeout: "invalid"},
		},
		{
			name:    "invalid metrics enabled - not a bool",
			envVars: map[string]string{EnvMetricsEnabled: "notabool"},
		},
		{
			name:    "invalid client timeout - bad format",
			envVars: map[string]string{EnvClientTimeout: "soon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load()

			// Assert
			if err == nil {
				t.Fatalf("Load() expected error, got nil")
			}
			if cfg != nil {
				t.Errorf("Load() expected nil config on error, got %+v", cfg)
			}
		})
	}
}

func TestLoadClient(t *testing.T) {
	// Arrange - invalid server settings must not affect the client
	clearEnvVars(t)
	t.Setenv(EnvServerPort, "0")
	t.Setenv(EnvClientBaseURL, "http://casedesk.internal:8080")
	t.Setenv(EnvClientTimeout, "2s")

	// Act
	cfg, err := LoadClient()

	// Assert
	if err != nil {
		t.Fatalf("LoadClient() returned unexpected error: %v", err)
	}
	if cfg.BaseURL != "http://casedesk.internal:8080" {
		t.Errorf("BaseURL = %s", cfg.BaseURL)
	}
	if cfg.Namespace != DefaultNamespace {
		t.Errorf("Namespace = %s, want %s", cfg.Namespace, DefaultNamespace)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", cfg.Timeout)
	}
}

func TestLoadClient_Invalid(t *testing.T) {
	// Arrange
	clearEnvVars(t)
	t.Setenv(EnvClientBaseURL, "not a url")

	// Act
	cfg, err := LoadClient()

	// Assert
	if !errors.Is(err, ErrInvalidBaseURL) {
		t.Errorf("LoadClient() error = %v, want %v", err, ErrInvalidBaseURL)
	}
	if cfg != nil {
		t.Errorf("LoadClient() expected nil config on error, got %+v", cfg)
	}
}

func validConfig() Config {
	return Config{
		Server: Server{
			Port:            8080,
			ProbePort:       9090,
			LogLevel:        "info",
			ShutdownTimeout: 30 * time.Second,
			MetricsEnabled:  true,
			Namespace:       "universal",
		},
		Store: Store{
			Driver: StoreDriverMemory,
		},
		CORS: CORS{
			AllowedOrigins: []string{DefaultCORSOrigin},
			MaxAge:         DefaultCORSMaxAge,
		},
		Client: Client{
			Namespace: "universal",
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "valid config - probe disabled",
			mutate:  func(c *Config) { c.Server.ProbePort = 0 },
			wantErr: nil,
		},
		{
			name:    "valid config - maximum port",
			mutate:  func(c *Config) { c.Server.Port = 65535 },
			wantErr: nil,
		},
		{
			name:    "invalid port - negative",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: ErrInvalidServerPort,
		},
		{
			name:    "invalid probe port - negative",
			mutate:  func(c *Config) { c.Server.ProbePort = -1 },
			wantErr: ErrInvalidProbePort,
		},
		{
			name:    "invalid probe port - too high",
			mutate:  func(c *Config) { c.Server.ProbePort = 70000 },
			wantErr: ErrInvalidProbePort,
		},
		{
			name:    "invalid shutdown timeout - negative",
			mutate:  func(c *Config) { c.Server.ShutdownTimeout = -time.Second },
			wantErr: ErrInvalidShutdownTimeout,
		},
		{
			name:    "empty namespace",
			mutate:  func(c *Config) { c.Server.Namespace = "" },
			wantErr: ErrInvalidNamespace,
		},
		{
			name: "sqlite without DSN",
			mutate: func(c *Config) {
				c.Store.Driver = StoreDriverSQLite
				c.Store.DSN = ""
			},
			wantErr: ErrMissingStoreDSN,
		},
		{
			name: "sqlite with DSN",
			mutate: func(c *Config) {
				c.Store.Driver = StoreDriverSQLite
				c.Store.DSN = "file::memory:"
			},
			wantErr: nil,
		},
		{
			name:    "no CORS origins",
			mutate:  func(c *Config) { c.CORS.AllowedOrigins = nil },
			wantErr: ErrMissingCORSOrigins,
		},
		{
			name:    "CORS origin without scheme",
			mutate:  func(c *Config) { c.CORS.AllowedOrigins = []string{"pericia.example.org"} },
			wantErr: ErrInvalidCORSOrigin,
		},
		{
			name:    "CORS origin list",
			mutate:  func(c *Config) { c.CORS.AllowedOrigins = []string{"http://localhost:3000", "https://a.example.org:8443"} },
			wantErr: nil,
		},
		{
			name:    "base URL with ftp scheme",
			mutate:  func(c *Config) { c.Client.BaseURL = "ftp://files.example.org" },
			wantErr: ErrInvalidBaseURL,
		},
		{
			name:    "base URL over http",
			mutate:  func(c *Config) { c.Client.BaseURL = "http://127.0.0.1:8080" },
			wantErr: nil,
		},
		{
			name:    "client namespace invalid",
			mutate:  func(c *Config) { c.Client.Namespace = "a b" },
			wantErr: ErrInvalidNamespace,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cfg := validConfig()
			tt.mutate(&cfg)

			// Act
			err := cfg.Validate()

			// Assert
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Address(t *testing.T) {
	tests := []struct {
		name       string
		serverPort int
		probePort  int
		want       string
		wantProbe  string
	}{
		{
			name:       "default ports",
			serverPort: 8080,
			probePort:  9090,
			want:       ":8080",
			wantProbe:  ":9090",
		},
		{
			name:       "custom ports",
			serverPort: 3000,
			probePort:  3001,
			want:       ":3000",
			wantProbe:  ":3001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cfg := &Config{Server: Server{Port: tt.serverPort, ProbePort: tt.probePort}}

			// Act
			got := cfg.Address()
			gotProbe := cfg.ProbeAddress()

			// Assert
			if got != tt.want {
				t.Errorf("Address() = %s, want %s", got, tt.want)
			}
			if gotProbe != tt.wantProbe {
				t.Errorf("ProbeAddress() = %s, want %s", gotProbe, tt.wantProbe)
			}
		})
	}
}

func TestValidLogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			// Arrange
			cfg := validConfig()
			cfg.Server.LogLevel = level

			// Act & Assert
			if err := cfg.Validate(); err != nil {
				t.Errorf("Validate() with log level %q: %v", level, err)
			}
		})
	}
}

// clearEnvVars unsets every variable Load reads and restores them after the test.
func clearEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		EnvServerPort,
		EnvLogLevel,
		EnvShutdownTimeout,
		EnvMetricsEnabled,
		EnvNamespace,
		EnvProbePort,
		EnvStoreDriver,
		EnvStoreDSN,
		EnvCORSOrigins,
		EnvCORSMaxAge,
		EnvClientBaseURL,
		EnvClientNamespace,
		EnvClientTimeout,
	}
	for _, env := range envVars {
		t.Setenv(env, "")
		if err := os.Unsetenv(env); err != nil {
			t.Fatalf("failed to unset env var %s: %v", env, err)
		}
	}
}
