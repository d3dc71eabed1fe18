// Package config loads the process configuration.
//
// Values come (in increasing precedence) from defaults, an optional config file, a .env
// file, environment variables (prefix RESTAURANTQL_, plus the historical MONGO_URL and
// API_KEY names), and command line flags.  The result is a plain Config struct that is
// passed explicitly to the components that need it.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to the upper-cased key of every setting, eg RESTAURANTQL_STORE_DRIVER
const EnvPrefix = "RESTAURANTQL"

// Store drivers
const (
	DriverMongo = "mongo"
	DriverBolt  = "bolt"
)

// Setting keys
const (
	KeyAddr              = "addr"
	KeyPath              = "path"
	KeyRequestTimeout    = "request_timeout"
	KeyNoIntrospection   = "no_introspection"
	KeyEnrichConcurrency = "enrich_concurrency"
	KeyAuthSecret        = "auth.secret"
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
	KeyStoreDriver       = "store.driver"
	KeyMongoURL          = "store.mongo_url"
	KeyDatabase          = "store.database"
	KeyCollection        = "store.collection"
	KeyBoltPath          = "store.bolt_path"
	KeyAPIKey            = "upstream.api_key"
	KeyBaseURL           = "upstream.base_url"
	KeyUpstreamTimeout   = "upstream.timeout"
	KeyRetryMax          = "upstream.retry_max"
)

type (
	// Config holds everything needed to start the server.
	Config struct {
		Addr              string        // listen address
		Path              string        // URL path of the GraphQL endpoint
		RequestTimeout    time.Duration // limit on a whole GraphQL request
		NoIntrospection   bool
		EnrichConcurrency int // max restaurants enriched in parallel for one list
		AuthSecret        string
		Log               LogConfig
		Store             StoreConfig
		Upstream          UpstreamConfig
	}

	LogConfig struct {
		Level  string // debug, info, warn, error
		Format string // json or console
	}

	StoreConfig struct {
		Driver     string
		MongoURL   string
		Database   string
		Collection string
		BoltPath   string
	}

	UpstreamConfig struct {
		BaseURL  string
		APIKey   string
		Timeout  time.Duration // per upstream call
		RetryMax int
	}
)

// SetDefaults registers the default value of every setting.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyPath, "/graphql")
	v.SetDefault(KeyRequestTimeout, 15*time.Second)
	v.SetDefault(KeyNoIntrospection, false)
	v.SetDefault(KeyEnrichConcurrency, 8)
	v.SetDefault(KeyAuthSecret, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyStoreDriver, DriverMongo)
	v.SetDefault(KeyMongoURL, "")
	v.SetDefault(KeyDatabase, "agenda")
	v.SetDefault(KeyCollection, "restaurants")
	v.SetDefault(KeyBoltPath, "restaurants.db")
	v.SetDefault(KeyAPIKey, "")
	v.SetDefault(KeyBaseURL, "https://api.api-ninjas.com/v1")
	v.SetDefault(KeyUpstreamTimeout, 5*time.Second)
	v.SetDefault(KeyRetryMax, 0)
}

// BindFlags adds a flag for the most commonly overridden settings to fs.
// The flags still need to be bound to a viper instance with BindPFlags.
func BindFlags(fs *pflag.FlagSet) {
	fs.String(KeyAddr, ":8080", "Address to listen on.")
	fs.String(KeyPath, "/graphql", "URL path of the GraphQL endpoint.")
	fs.Duration(KeyRequestTimeout, 15*time.Second, "Maximum time to handle one GraphQL request.")
	fs.Bool(KeyNoIntrospection, false, "Reject GraphQL introspection queries.")
	fs.String("store_driver", DriverMongo, "Document store backend, one of [mongo, bolt].")
	fs.String("bolt_path", "restaurants.db", "BoltDB file used when store_driver=bolt.")
	fs.String("log_level", "info", "Log level, one of [debug, info, warn, error].")
	fs.String("log_format", "json", "Log format, one of [json, console].")
}

// New returns a viper instance with defaults, environment bindings and flags (if fs is
// not nil) ready to be read by Load.  If configFile is not empty it is read as well.
func New(fs *pflag.FlagSet, configFile string) (*viper.Viper, error) {
	// A missing .env file is normal in production, where the environment is set directly.
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(KeyMongoURL, EnvPrefix+"_STORE_MONGO_URL", "MONGO_URL"); err != nil {
		return nil, err
	}
	if err := v.BindEnv(KeyAPIKey, EnvPrefix+"_UPSTREAM_API_KEY", "API_KEY"); err != nil {
		return nil, err
	}

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, errors.Wrap(err, "binding flags")
		}
		// flag names can't contain dots so a few are aliased onto nested keys
		for key, flag := range map[string]string{
			KeyStoreDriver: "store_driver",
			KeyBoltPath:    "bolt_path",
			KeyLogLevel:    "log_level",
			KeyLogFormat:   "log_format",
		} {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "binding flag %s", flag)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", configFile)
		}
	}
	return v, nil
}

// Load extracts and validates the configuration.  An error means the process must not start.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Addr:              v.GetString(KeyAddr),
		Path:              v.GetString(KeyPath),
		RequestTimeout:    v.GetDuration(KeyRequestTimeout),
		NoIntrospection:   v.GetBool(KeyNoIntrospection),
		EnrichConcurrency: v.GetInt(KeyEnrichConcurrency),
		AuthSecret:        v.GetString(KeyAuthSecret),
		Log: LogConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
		Store: StoreConfig{
			Driver:     strings.ToLower(v.GetString(KeyStoreDriver)),
			MongoURL:   v.GetString(KeyMongoURL),
			Database:   v.GetString(KeyDatabase),
			Collection: v.GetString(KeyCollection),
			BoltPath:   v.GetString(KeyBoltPath),
		},
		Upstream: UpstreamConfig{
			BaseURL:  strings.TrimRight(v.GetString(KeyBaseURL), "/"),
			APIKey:   v.GetString(KeyAPIKey),
			Timeout:  v.GetDuration(KeyUpstreamTimeout),
			RetryMax: v.GetInt(KeyRetryMax),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks for missing or inconsistent settings.
func (c *Config) Validate() error {
	if c.Upstream.APIKey == "" {
		return errors.New("upstream API key is required (set API_KEY or " + EnvPrefix + "_UPSTREAM_API_KEY)")
	}
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream base URL is required")
	}
	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.MongoURL == "" {
			return errors.New("mongo connection string is required (set MONGO_URL or " + EnvPrefix + "_STORE_MONGO_URL)")
		}
		if c.Store.Database == "" || c.Store.Collection == "" {
			return errors.New("mongo database and collection names are required")
		}
	case DriverBolt:
		if c.Store.BoltPath == "" {
			return errors.New("bolt file path is required")
		}
	default:
		return errors.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Path == "" || c.Path[0] != '/' {
		return errors.Errorf("invalid GraphQL path %q", c.Path)
	}
	if c.RequestTimeout <= 0 || c.Upstream.Timeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.EnrichConcurrency < 1 {
		return errors.Errorf("enrich concurrency must be at least 1, got %d", c.EnrichConcurrency)
	}
	if c.Upstream.RetryMax < 0 {
		return errors.Errorf("retry max must not be negative, got %d", c.Upstream.RetryMax)
	}
	return nil
}
