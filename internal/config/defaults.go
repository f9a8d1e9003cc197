package config

import "time"

// MaxViewLimit caps the number of bars one market view may return.
const MaxViewLimit = 1000

// Default values for optional configuration fields.
const (
	DefaultServerPort            = 8080
	DefaultReadTimeout           = 15 * time.Second
	DefaultWriteTimeout          = 2 * time.Minute
	DefaultShutdownTimeout       = 10 * time.Second
	DefaultAuthTimeout           = 10 * time.Second
	DefaultAuthMaxRetries        = 2
	DefaultAuthBackoff           = 200 * time.Millisecond
	DefaultTradingURL            = "https://paper-api.alpaca.markets"
	DefaultDataURL               = "https://data.alpaca.markets"
	DefaultFeed                  = "iex"
	DefaultAIModel               = "gemini-2.0-flash"
	DefaultAITimeout             = 60 * time.Second
	DefaultDBPort                = 5432
	DefaultDBSSLMode             = "prefer"
	DefaultMaxConns              = 10
	DefaultMinConns              = 2
	DefaultCacheTTL              = 24 * time.Hour
	DefaultSyncConcurrency       = 4
	DefaultFetchTimeout          = 10 * time.Second
	DefaultBarsTimeframe         = "1Hour"
	DefaultBarsLimit             = 24
	DefaultViewTimeframe         = "1Hour"
	DefaultViewLimit             = 24
	DefaultClientRefreshInterval = 60 * time.Second
	DefaultLogLevel              = "info"
)

func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Auth defaults
	if c.Auth.Timeout == 0 {
		c.Auth.Timeout = DefaultAuthTimeout
	}
	if c.Auth.MaxRetries == nil {
		n := DefaultAuthMaxRetries
		c.Auth.MaxRetries = &n
	}

	// Broker defaults
	if c.Broker.TradingURL == "" {
		c.Broker.TradingURL = DefaultTradingURL
	}
	if c.Broker.DataURL == "" {
		c.Broker.DataURL = DefaultDataURL
	}
	if c.Broker.Feed == "" {
		c.Broker.Feed = DefaultFeed
	}

	// AI defaults
	if c.AI.Model == "" {
		c.AI.Model = DefaultAIModel
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = DefaultAITimeout
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Cache defaults
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	// Sync defaults
	if c.Sync.Concurrency == 0 {
		c.Sync.Concurrency = DefaultSyncConcurrency
	}
	if c.Sync.FetchTimeout == 0 {
		c.Sync.FetchTimeout = DefaultFetchTimeout
	}
	if c.Sync.BarsTimeframe == "" {
		c.Sync.BarsTimeframe = DefaultBarsTimeframe
	}
	if c.Sync.BarsLimit == 0 {
		c.Sync.BarsLimit = DefaultBarsLimit
	}

	// View defaults
	if c.View.DefaultTimeframe == "" {
		c.View.DefaultTimeframe = DefaultViewTimeframe
	}
	if c.View.DefaultLimit == 0 {
		c.View.DefaultLimit = DefaultViewLimit
	}
	if c.View.ClientRefreshInterval == 0 {
		c.View.ClientRefreshInterval = DefaultClientRefreshInterval
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
