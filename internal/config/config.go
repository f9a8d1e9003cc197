package config

import "time"

// Config is the root configuration for the dashboard backend.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Broker   BrokerConfig   `yaml:"broker"`
	AI       AIConfig       `yaml:"ai"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Sync     SyncConfig     `yaml:"sync"`
	View     ViewConfig     `yaml:"view"`
	Log      LogConfig      `yaml:"log"`
}

// InstanceConfig identifies this deployment.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"` // empty disables CORS headers
}

// AuthConfig holds the managed auth provider settings.
type AuthConfig struct {
	ProviderURL    string        `yaml:"provider_url"`     // e.g. https://<project>.supabase.co
	ProviderAPIKey string        `yaml:"provider_api_key"` // anon key sent as "apikey" header
	SchedulerToken string        `yaml:"scheduler_token"`  // static bearer token for cron triggers
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     *int          `yaml:"max_retries"` // nil means the default; 0 disables retries
}

// BrokerConfig holds Alpaca settings. Paper trading unless TradingURL says otherwise.
type BrokerConfig struct {
	KeyID      string `yaml:"key_id"`
	SecretKey  string `yaml:"secret_key"`
	TradingURL string `yaml:"trading_url"`
	DataURL    string `yaml:"data_url"`
	Feed       string `yaml:"feed"` // "iex" or "sip"
}

// AIConfig holds generative-AI settings.
type AIConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// DatabaseConfig holds the Postgres connection.
type DatabaseConfig struct {
	Postgres    DBConfig `yaml:"postgres"`
	AutoMigrate bool     `yaml:"auto_migrate"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// CacheConfig holds the optional Redis latest-quote cache. Empty Addr disables it.
type CacheConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// SyncConfig holds sync run settings.
type SyncConfig struct {
	Concurrency   int           `yaml:"concurrency"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	BackfillBars  bool          `yaml:"backfill_bars"`
	BarsTimeframe string        `yaml:"bars_timeframe"`
	BarsLimit     int           `yaml:"bars_limit"`
}

// ViewConfig holds read API settings.
type ViewConfig struct {
	DefaultTimeframe      string        `yaml:"default_timeframe"`
	DefaultLimit          int           `yaml:"default_limit"`
	ClientRefreshInterval time.Duration `yaml:"client_refresh_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
