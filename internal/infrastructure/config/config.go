package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/erp/orderdesk/internal/domain/shared/valueobject"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides (ORDERDESK_REMOTE_BASE_URL, ...)
const EnvPrefix = "ORDERDESK"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	Remote    RemoteConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Store     StoreConfig
	Sync      SyncConfig
	Draft     DraftConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// RemoteConfig describes the order backend this desk talks to
type RemoteConfig struct {
	BaseURL        string
	OrgID          int
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	LoginRedirect  string // where callers are sent when the backend answers 401
}

// CacheConfig selects the read cache for customers and products
type CacheConfig struct {
	Driver    string // memory, redis, sqlite
	TTL       time.Duration
	KeyPrefix string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// StoreConfig locates the SQLite client store (tokens and cache blobs)
type StoreConfig struct {
	Path string
}

// SyncConfig holds defaults for remote list fetches
type SyncConfig struct {
	OrderPageSize          int
	TemplatePageSize       int
	MockDocumentTemplateID string // requesting this id serves the built-in template
}

// DraftConfig holds order draft defaults
type DraftConfig struct {
	DefaultCurrency string
	ExchangeRates   map[string]string
}

// ExchangeRateTable parses the configured rates
func (d DraftConfig) ExchangeRateTable() (valueobject.ExchangeRates, error) {
	if len(d.ExchangeRates) == 0 {
		return valueobject.DefaultExchangeRates(), nil
	}
	return valueobject.NewExchangeRates(d.ExchangeRates)
}

// HTTPConfig holds the local API server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxUploadSize    int64
	CORSAllowOrigins []string
	MetricsEnabled   bool
}

// TelemetryConfig holds OpenTelemetry tracing settings.
// Spans are only exported when CollectorEndpoint is set.
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string // OTLP gRPC endpoint, e.g. localhost:4317
	SamplingRatio     float64
	Insecure          bool
}

// IsProduction returns true when running with app.env=production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Load reads .env (if present), config.toml and ORDERDESK_* environment variables.
// Priority (highest to lowest): environment, config.toml, built-in defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}
	return LoadFrom(".", "./config", "/etc/orderdesk")
}

// LoadFrom is Load without the .env step, searching config.toml in paths
func LoadFrom(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Remote: RemoteConfig{
			BaseURL:        v.GetString("remote.base_url"),
			OrgID:          v.GetInt("remote.org_id"),
			Timeout:        v.GetDuration("remote.timeout"),
			MaxRetries:     v.GetInt("remote.max_retries"),
			RetryDelay:     v.GetDuration("remote.retry_delay"),
			RateLimitRPS:   v.GetFloat64("remote.rate_limit_rps"),
			RateLimitBurst: v.GetInt("remote.rate_limit_burst"),
			LoginRedirect:  v.GetString("remote.login_redirect"),
		},
		Cache: CacheConfig{
			Driver:    v.GetString("cache.driver"),
			TTL:       v.GetDuration("cache.ttl"),
			KeyPrefix: v.GetString("cache.key_prefix"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Store: StoreConfig{
			Path: v.GetString("store.path"),
		},
		Sync: SyncConfig{
			OrderPageSize:          v.GetInt("sync.order_page_size"),
			TemplatePageSize:       v.GetInt("sync.template_page_size"),
			MockDocumentTemplateID: v.GetString("sync.mock_document_template_id"),
		},
		Draft: DraftConfig{
			DefaultCurrency: v.GetString("draft.default_currency"),
			ExchangeRates:   v.GetStringMapString("draft.exchange_rates"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxUploadSize:    v.GetInt64("http.max_upload_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			MetricsEnabled:   v.GetBool("http.metrics_enabled"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	applyDefaults(cfg, v)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config, v *viper.Viper) {
	if cfg.App.Name == "" {
		cfg.App.Name = "orderdesk"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8090"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Remote.BaseURL == "" {
		cfg.Remote.BaseURL = "https://orq-dev.synque.ca"
	}
	if cfg.Remote.OrgID == 0 {
		cfg.Remote.OrgID = 63
	}
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = 30 * time.Second
	}
	if !v.IsSet("remote.max_retries") {
		cfg.Remote.MaxRetries = 2
	}
	if cfg.Remote.RetryDelay == 0 {
		cfg.Remote.RetryDelay = 200 * time.Millisecond
	}
	if cfg.Remote.RateLimitRPS == 0 {
		cfg.Remote.RateLimitRPS = 10
	}
	if cfg.Remote.RateLimitBurst == 0 {
		cfg.Remote.RateLimitBurst = 5
	}
	if cfg.Remote.LoginRedirect == "" {
		cfg.Remote.LoginRedirect = "/login"
	}
	if cfg.Cache.Driver == "" {
		cfg.Cache.Driver = "memory"
	}
	if !v.IsSet("cache.ttl") {
		cfg.Cache.TTL = 5 * time.Minute
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "orderdesk:cache:"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "orderdesk.db"
	}
	if cfg.Sync.OrderPageSize == 0 {
		cfg.Sync.OrderPageSize = 10
	}
	if cfg.Sync.TemplatePageSize == 0 {
		cfg.Sync.TemplatePageSize = 5
	}
	if cfg.Sync.MockDocumentTemplateID == "" {
		cfg.Sync.MockDocumentTemplateID = "jimmy"
	}
	if cfg.Draft.DefaultCurrency == "" {
		cfg.Draft.DefaultCurrency = string(valueobject.DefaultCurrency)
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 45 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxUploadSize == 0 {
		cfg.HTTP.MaxUploadSize = 20 << 20 // 20MB
	}
	if !v.IsSet("telemetry.sampling_ratio") {
		cfg.Telemetry.SamplingRatio = 1.0
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	u, err := url.Parse(c.Remote.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("remote.base_url must be an absolute URL, got %q", c.Remote.BaseURL)
	}
	if c.Remote.MaxRetries < 0 {
		return fmt.Errorf("remote.max_retries cannot be negative")
	}
	if c.Remote.RateLimitRPS < 0 {
		return fmt.Errorf("remote.rate_limit_rps cannot be negative")
	}
	switch c.Cache.Driver {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("cache.driver must be one of memory, redis, sqlite, got %q", c.Cache.Driver)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl cannot be negative")
	}
	if c.Sync.OrderPageSize < 0 || c.Sync.TemplatePageSize < 0 {
		return fmt.Errorf("sync page sizes cannot be negative")
	}
	if _, err := valueobject.ParseCurrency(c.Draft.DefaultCurrency); err != nil {
		return fmt.Errorf("draft.default_currency: %w", err)
	}
	if _, err := c.Draft.ExchangeRateTable(); err != nil {
		return fmt.Errorf("draft.exchange_rates: %w", err)
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1, got %v", c.Telemetry.SamplingRatio)
	}

	if c.IsProduction() {
		if u.Scheme != "https" {
			return fmt.Errorf("remote.base_url must use https in production")
		}
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("http.cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}
	return nil
}
