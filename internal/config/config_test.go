package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewwphillips/restaurantql/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MONGO_URL", "mongodb://db:27017")
	t.Setenv("API_KEY", "secret")

	v, err := config.New(nil, "")
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "/graphql", cfg.Path)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, config.DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "mongodb://db:27017", cfg.Store.MongoURL)
	assert.Equal(t, "agenda", cfg.Store.Database)
	assert.Equal(t, "restaurants", cfg.Store.Collection)
	assert.Equal(t, "secret", cfg.Upstream.APIKey)
	assert.Equal(t, "https://api.api-ninjas.com/v1", cfg.Upstream.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 0, cfg.Upstream.RetryMax)
	assert.Equal(t, 8, cfg.EnrichConcurrency)
}

func TestLoadPrefixedEnv(t *testing.T) {
	t.Setenv("RESTAURANTQL_UPSTREAM_API_KEY", "k")
	t.Setenv("RESTAURANTQL_STORE_DRIVER", "bolt")
	t.Setenv("RESTAURANTQL_STORE_BOLT_PATH", "/tmp/x.db")
	t.Setenv("RESTAURANTQL_UPSTREAM_BASE_URL", "http://localhost:9999/v1/")
	t.Setenv("RESTAURANTQL_UPSTREAM_RETRY_MAX", "2")

	v, err := config.New(nil, "")
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, config.DriverBolt, cfg.Store.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.Store.BoltPath)
	assert.Equal(t, "http://localhost:9999/v1", cfg.Upstream.BaseURL, "trailing slash removed")
	assert.Equal(t, 2, cfg.Upstream.RetryMax)
}

func TestLoadFlags(t *testing.T) {
	t.Setenv("API_KEY", "k")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--store_driver=bolt", "--addr=:9090", "--log_level=debug"}))

	v, err := config.New(fs, "")
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, config.DriverBolt, cfg.Store.Driver)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("API_KEY", "k")
	file := filepath.Join(t.TempDir(), "restaurantql.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
store:
  driver: bolt
  bolt_path: data.db
enrich_concurrency: 3
`), 0600))

	v, err := config.New(nil, file)
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, "data.db", cfg.Store.BoltPath)
	assert.Equal(t, 3, cfg.EnrichConcurrency)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Path:              "/graphql",
			RequestTimeout:    time.Second,
			EnrichConcurrency: 1,
			Store:             config.StoreConfig{Driver: config.DriverMongo, MongoURL: "mongodb://x", Database: "d", Collection: "c"},
			Upstream:          config.UpstreamConfig{BaseURL: "http://x", APIKey: "k", Timeout: time.Second},
		}
	}
	tests := map[string]struct {
		modify func(*config.Config)
		errMsg string // empty if valid
	}{
		"valid":         {func(*config.Config) {}, ""},
		"no_api_key":    {func(c *config.Config) { c.Upstream.APIKey = "" }, "upstream API key is required"},
		"no_mongo_url":  {func(c *config.Config) { c.Store.MongoURL = "" }, "mongo connection string is required"},
		"bolt_no_url":   {func(c *config.Config) { c.Store = config.StoreConfig{Driver: config.DriverBolt, BoltPath: "x.db"} }, ""},
		"bad_driver":    {func(c *config.Config) { c.Store.Driver = "redis" }, `unknown store driver "redis"`},
		"bad_path":      {func(c *config.Config) { c.Path = "graphql" }, `invalid GraphQL path "graphql"`},
		"zero_timeout":  {func(c *config.Config) { c.Upstream.Timeout = 0 }, "timeouts must be positive"},
		"no_enrich":     {func(c *config.Config) { c.EnrichConcurrency = 0 }, "enrich concurrency must be at least 1"},
		"negative_retr": {func(c *config.Config) { c.Upstream.RetryMax = -1 }, "retry max must not be negative"},
	}
	for name, tt := range tests {
		cfg := valid()
		tt.modify(&cfg)
		err := cfg.Validate()
		if tt.errMsg == "" {
			assert.NoError(t, err, name)
		} else if assert.Error(t, err, name) {
			assert.Contains(t, err.Error(), tt.errMsg, name)
		}
	}
}
