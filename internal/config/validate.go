package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var validTimeframes = map[string]bool{
	"1Min":  true,
	"5Min":  true,
	"15Min": true,
	"1Hour": true,
	"1Day":  true,
}

// ValidTimeframe reports whether tf is a supported bar timeframe.
func ValidTimeframe(tf string) bool {
	return validTimeframes[tf]
}

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Auth.ProviderURL == "" && c.Auth.SchedulerToken == "" {
		return errors.New("auth.provider_url or auth.scheduler_token is required")
	}
	if c.Auth.MaxRetries != nil && *c.Auth.MaxRetries < 0 {
		return fmt.Errorf("auth.max_retries must be >= 0, got %d", *c.Auth.MaxRetries)
	}

	if c.Broker.KeyID == "" {
		return errors.New("broker.key_id is required")
	}
	if c.Broker.SecretKey == "" {
		return errors.New("broker.secret_key is required")
	}
	if c.Broker.Feed != "iex" && c.Broker.Feed != "sip" {
		return fmt.Errorf("broker.feed must be iex or sip, got %q", c.Broker.Feed)
	}

	if err := c.Database.Postgres.validate("database.postgres"); err != nil {
		return err
	}

	if c.Sync.Concurrency < 1 {
		return errors.New("sync.concurrency must be >= 1")
	}
	if c.Sync.FetchTimeout <= 0 {
		return errors.New("sync.fetch_timeout must be > 0")
	}
	if !ValidTimeframe(c.Sync.BarsTimeframe) {
		return fmt.Errorf("sync.bars_timeframe %q is not supported", c.Sync.BarsTimeframe)
	}

	if !ValidTimeframe(c.View.DefaultTimeframe) {
		return fmt.Errorf("view.default_timeframe %q is not supported", c.View.DefaultTimeframe)
	}
	if c.View.DefaultLimit < 1 || c.View.DefaultLimit > MaxViewLimit {
		return fmt.Errorf("view.default_limit must be between 1 and %d, got %d", MaxViewLimit, c.View.DefaultLimit)
	}

	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

// ParseLogLevel maps a config level name to a slog.Level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level %q is not supported", level)
}
