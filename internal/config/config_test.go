package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: dashboard-test
server:
  port: 9000
broker:
  key_id: PKTEST
  secret_key: secret
  feed: iex
database:
  postgres:
    host: localhost
    port: 5432
    name: test_db
    user: testuser
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "dashboard-test" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "dashboard-test")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9000)
	}
	if cfg.Broker.KeyID != "PKTEST" {
		t.Errorf("Broker.KeyID = %q, want %q", cfg.Broker.KeyID, "PKTEST")
	}
	if cfg.Database.Postgres.Host != "localhost" {
		t.Errorf("Database.Postgres.Host = %q, want %q", cfg.Database.Postgres.Host, "localhost")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")
	t.Setenv("TEST_ALPACA_SECRET", "alpaca-secret")

	yaml := `
instance:
  id: dashboard-test
broker:
  key_id: PKTEST
  secret_key: ${TEST_ALPACA_SECRET}
database:
  postgres:
    host: localhost
    name: test_db
    user: testuser
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Postgres.Password != "secret123" {
		t.Errorf("Database.Postgres.Password = %q, want %q", cfg.Database.Postgres.Password, "secret123")
	}
	if cfg.Broker.SecretKey != "alpaca-secret" {
		t.Errorf("Broker.SecretKey = %q, want %q", cfg.Broker.SecretKey, "alpaca-secret")
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("TRADERGRAIL_TEST_ENV_KEY=from-dotenv\n"), 0644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("TRADERGRAIL_TEST_ENV_KEY") })

	if err := LoadEnvFiles(filepath.Join(dir, "missing.env"), envPath); err != nil {
		t.Fatalf("LoadEnvFiles failed: %v", err)
	}

	if got := os.Getenv("TRADERGRAIL_TEST_ENV_KEY"); got != "from-dotenv" {
		t.Errorf("TRADERGRAIL_TEST_ENV_KEY = %q, want %q", got, "from-dotenv")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: dashboard-test
broker:
  key_id: PKTEST
  secret_key: secret
database:
  postgres:
    host: localhost
    name: test_db
    user: testuser
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, DefaultServerPort)
	}
	if cfg.Broker.TradingURL != DefaultTradingURL {
		t.Errorf("Broker.TradingURL = %q, want default %q", cfg.Broker.TradingURL, DefaultTradingURL)
	}
	if cfg.Broker.Feed != DefaultFeed {
		t.Errorf("Broker.Feed = %q, want default %q", cfg.Broker.Feed, DefaultFeed)
	}
	if cfg.Database.Postgres.Port != DefaultDBPort {
		t.Errorf("Database.Postgres.Port = %d, want default %d", cfg.Database.Postgres.Port, DefaultDBPort)
	}
	if cfg.Database.Postgres.MaxConns != DefaultMaxConns {
		t.Errorf("Database.Postgres.MaxConns = %d, want default %d", cfg.Database.Postgres.MaxConns, DefaultMaxConns)
	}
	if cfg.Sync.Concurrency != DefaultSyncConcurrency {
		t.Errorf("Sync.Concurrency = %d, want default %d", cfg.Sync.Concurrency, DefaultSyncConcurrency)
	}
	if cfg.Sync.FetchTimeout != DefaultFetchTimeout {
		t.Errorf("Sync.FetchTimeout = %v, want default %v", cfg.Sync.FetchTimeout, DefaultFetchTimeout)
	}
	if cfg.Auth.MaxRetries == nil || *cfg.Auth.MaxRetries != DefaultAuthMaxRetries {
		t.Errorf("Auth.MaxRetries = %v, want default %d", cfg.Auth.MaxRetries, DefaultAuthMaxRetries)
	}
	if cfg.View.DefaultLimit != 24 {
		t.Errorf("View.DefaultLimit = %d, want 24", cfg.View.DefaultLimit)
	}
	if cfg.View.DefaultTimeframe != "1Hour" {
		t.Errorf("View.DefaultTimeframe = %q, want 1Hour", cfg.View.DefaultTimeframe)
	}
	if cfg.View.ClientRefreshInterval != time.Minute {
		t.Errorf("View.ClientRefreshInterval = %v, want 1m", cfg.View.ClientRefreshInterval)
	}
}

func TestLoadWithDefaults_ExplicitZeroRetries(t *testing.T) {
	yaml := `
instance:
  id: dashboard-test
auth:
  scheduler_token: cron-token
  max_retries: 0
broker:
  key_id: PKTEST
  secret_key: secret
database:
  postgres:
    host: localhost
    name: test_db
    user: testuser
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
	if cfg.Auth.MaxRetries == nil || *cfg.Auth.MaxRetries != 0 {
		t.Errorf("Auth.MaxRetries = %v, want explicit 0 kept", cfg.Auth.MaxRetries)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Instance: InstanceConfig{ID: "test"},
			Server:   ServerConfig{Port: 8080},
			Auth:     AuthConfig{SchedulerToken: "cron-token"},
			Broker:   BrokerConfig{KeyID: "PK", SecretKey: "sk", Feed: "iex"},
			Database: DatabaseConfig{
				Postgres: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 10, MinConns: 2},
			},
			Sync: SyncConfig{Concurrency: 4, FetchTimeout: time.Second, BarsTimeframe: "1Hour"},
			View: ViewConfig{DefaultTimeframe: "1Hour", DefaultLimit: 24},
			Log:  LogConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing instance id",
			mutate:  func(c *Config) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name:    "no auth source",
			mutate:  func(c *Config) { c.Auth = AuthConfig{} },
			wantErr: "auth.provider_url or auth.scheduler_token is required",
		},
		{
			name:    "missing broker key",
			mutate:  func(c *Config) { c.Broker.KeyID = "" },
			wantErr: "broker.key_id is required",
		},
		{
			name:    "bad feed",
			mutate:  func(c *Config) { c.Broker.Feed = "otc" },
			wantErr: `broker.feed must be iex or sip, got "otc"`,
		},
		{
			name:    "missing postgres password",
			mutate:  func(c *Config) { c.Database.Postgres.Password = "" },
			wantErr: "database.postgres.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Database.Postgres.MaxConns = 5
				c.Database.Postgres.MinConns = 10
			},
			wantErr: "database.postgres.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Sync.Concurrency = 0 },
			wantErr: "sync.concurrency must be >= 1",
		},
		{
			name:    "unknown view timeframe",
			mutate:  func(c *Config) { c.View.DefaultTimeframe = "2Hour" },
			wantErr: `view.default_timeframe "2Hour" is not supported`,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: `log.level "verbose" is not supported`,
		},
		{
			name:    "negative auth retries",
			mutate:  func(c *Config) { n := -1; c.Auth.MaxRetries = &n },
			wantErr: "auth.max_retries must be >= 0, got -1",
		},
		{
			name:    "zero auth retries",
			mutate:  func(c *Config) { n := 0; c.Auth.MaxRetries = &n },
			wantErr: "",
		},
		{
			name:    "view default limit above cap",
			mutate:  func(c *Config) { c.View.DefaultLimit = 5000 },
			wantErr: "view.default_limit must be between 1 and 1000, got 5000",
		},
		{
			name:    "view default limit at cap",
			mutate:  func(c *Config) { c.View.DefaultLimit = MaxViewLimit },
			wantErr: "",
		},
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLogLevel(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
