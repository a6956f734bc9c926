package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/erp/orderdesk/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o600))
	return dir
}

func TestLoadFrom(t *testing.T) {
	t.Run("defaults when no file or env", func(t *testing.T) {
		cfg, err := LoadFrom(t.TempDir())
		require.NoError(t, err)

		assert.Equal(t, "orderdesk", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "https://orq-dev.synque.ca", cfg.Remote.BaseURL)
		assert.Equal(t, 63, cfg.Remote.OrgID)
		assert.Equal(t, 2, cfg.Remote.MaxRetries)
		assert.Equal(t, "/login", cfg.Remote.LoginRedirect)
		assert.Equal(t, "memory", cfg.Cache.Driver)
		assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
		assert.Equal(t, 10, cfg.Sync.OrderPageSize)
		assert.Equal(t, 5, cfg.Sync.TemplatePageSize)
		assert.Equal(t, "jimmy", cfg.Sync.MockDocumentTemplateID)
		assert.Equal(t, "USD", cfg.Draft.DefaultCurrency)
		assert.False(t, cfg.Telemetry.Enabled)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)

		rates, err := cfg.Draft.ExchangeRateTable()
		require.NoError(t, err)
		assert.Equal(t, valueobject.DefaultExchangeRates(), rates)
	})

	t.Run("reads config.toml", func(t *testing.T) {
		dir := writeConfig(t, `
[remote]
base_url = "http://localhost:8055"
org_id = 7
max_retries = 0

[cache]
driver = "sqlite"
ttl = "90s"

[draft]
default_currency = "eur"

[draft.exchange_rates]
USD = "1"
EUR = "0.9"
`)
		cfg, err := LoadFrom(dir)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8055", cfg.Remote.BaseURL)
		assert.Equal(t, 7, cfg.Remote.OrgID)
		assert.Equal(t, 0, cfg.Remote.MaxRetries)
		assert.Equal(t, "sqlite", cfg.Cache.Driver)
		assert.Equal(t, 90*time.Second, cfg.Cache.TTL)

		rates, err := cfg.Draft.ExchangeRateTable()
		require.NoError(t, err)
		eur, ok := rates.Rate(valueobject.EUR)
		require.True(t, ok)
		assert.True(t, eur.Equal(decimal.RequireFromString("0.9")))
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		dir := writeConfig(t, "[app]\nport = \"9000\"\n")
		t.Setenv("ORDERDESK_APP_PORT", "9100")
		t.Setenv("ORDERDESK_REMOTE_ORG_ID", "12")

		cfg, err := LoadFrom(dir)
		require.NoError(t, err)
		assert.Equal(t, "9100", cfg.App.Port)
		assert.Equal(t, 12, cfg.Remote.OrgID)
	})

	t.Run("rejects an unknown cache driver", func(t *testing.T) {
		t.Setenv("ORDERDESK_CACHE_DRIVER", "memcached")
		_, err := LoadFrom(t.TempDir())
		assert.ErrorContains(t, err, "cache.driver")
	})

	t.Run("reads telemetry settings", func(t *testing.T) {
		dir := writeConfig(t, "[telemetry]\nenabled = true\ncollector_endpoint = \"otel:4317\"\nsampling_ratio = 0.2\n")
		cfg, err := LoadFrom(dir)
		require.NoError(t, err)
		assert.True(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "otel:4317", cfg.Telemetry.CollectorEndpoint)
		assert.Equal(t, 0.2, cfg.Telemetry.SamplingRatio)
	})

	t.Run("rejects a sampling ratio above one", func(t *testing.T) {
		t.Setenv("ORDERDESK_TELEMETRY_SAMPLING_RATIO", "1.5")
		_, err := LoadFrom(t.TempDir())
		assert.ErrorContains(t, err, "telemetry.sampling_ratio")
	})

	t.Run("rejects a malformed file", func(t *testing.T) {
		_, err := LoadFrom(writeConfig(t, "[app\nname="))
		assert.Error(t, err)
	})
}

func TestValidate_Production(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadFrom(t.TempDir())
		require.NoError(t, err)
		cfg.App.Env = "production"
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, base().validate())
	})

	t.Run("requires https", func(t *testing.T) {
		cfg := base()
		cfg.Remote.BaseURL = "http://orders.example.test"
		assert.ErrorContains(t, cfg.validate(), "https")
	})

	t.Run("requires a positive cache ttl", func(t *testing.T) {
		cfg := base()
		cfg.Cache.TTL = 0
		assert.ErrorContains(t, cfg.validate(), "cache.ttl")
	})

	t.Run("rejects wildcard CORS", func(t *testing.T) {
		cfg := base()
		cfg.HTTP.CORSAllowOrigins = []string{"*"}
		assert.ErrorContains(t, cfg.validate(), "cors")
	})

	t.Run("rejects a bad exchange rate", func(t *testing.T) {
		cfg := base()
		cfg.Draft.ExchangeRates = map[string]string{"USD": "one"}
		assert.ErrorContains(t, cfg.validate(), "exchange_rates")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
