package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
)

// HTTP routers.
const (
	RouterGin  = "gin"
	RouterEcho = "echo"
)

// Identity verification modes.
const (
	IdentityRemote = "remote" // ask the identity service who owns the bearer token
	IdentityJWT    = "jwt"    // verify the HS256 session JWT locally
)

// ServerConfig holds all configuration for the indexer.
// Tags use mapstructure for Viper unmarshalling; every key can be set from the environment.
type ServerConfig struct {
	HTTPPort        string `mapstructure:"HTTP_PORT"`
	HTTPRouter      string `mapstructure:"HTTP_ROUTER"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	LogPretty       bool   `mapstructure:"LOG_PRETTY"`
	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	StoreDriver   string `mapstructure:"STORE_DRIVER"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDBName   string `mapstructure:"MONGO_DB_NAME"`
	SQLDSN        string `mapstructure:"SQL_DSN"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPrefix   string `mapstructure:"REDIS_PREFIX"`

	IdentityMode      string `mapstructure:"IDENTITY_MODE"`
	IdentityURL       string `mapstructure:"IDENTITY_URL"`
	IdentityAPIKey    string `mapstructure:"IDENTITY_API_KEY"`
	IdentityJWTSecret string `mapstructure:"IDENTITY_JWT_SECRET"`

	GoogleTokenURL      string        `mapstructure:"GOOGLE_TOKEN_URL"`
	GoogleIndexingURL   string        `mapstructure:"GOOGLE_INDEXING_URL"`
	GoogleIndexingScope string        `mapstructure:"GOOGLE_INDEXING_SCOPE"`
	UpstreamTimeout     time.Duration `mapstructure:"UPSTREAM_TIMEOUT"`
	BulkMaxURLs         int           `mapstructure:"BULK_MAX_URLS"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("HTTP_ROUTER", RouterGin)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("OTEL_SERVICE_NAME", "indexer")

	v.SetDefault("STORE_DRIVER", StoreMongo)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB_NAME", "indexer")
	v.SetDefault("SQL_DSN", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", "indexer")

	v.SetDefault("IDENTITY_MODE", IdentityRemote)
	v.SetDefault("IDENTITY_URL", "")
	v.SetDefault("IDENTITY_API_KEY", "")
	v.SetDefault("IDENTITY_JWT_SECRET", "")

	v.SetDefault("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token")
	v.SetDefault("GOOGLE_INDEXING_URL", "https://indexing.googleapis.com/v3/urlNotifications:publish")
	v.SetDefault("GOOGLE_INDEXING_SCOPE", "https://www.googleapis.com/auth/indexing")
	v.SetDefault("UPSTREAM_TIMEOUT", 10*time.Second)
	v.SetDefault("BULK_MAX_URLS", 100)
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*ServerConfig, error) {
	return load(viper.New(), true)
}

func load(v *viper.Viper, searchPaths bool) (*ServerConfig, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if searchPaths {
		v.AddConfigPath("/etc/indexer/")
		v.AddConfigPath("$HOME/.indexer")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file means defaults and env vars only.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.IdentityMode = strings.ToLower(strings.TrimSpace(cfg.IdentityMode))
	cfg.HTTPRouter = strings.ToLower(strings.TrimSpace(cfg.HTTPRouter))

	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *ServerConfig) Validate() error {
	var errs []error

	if c.HTTPRouter != RouterGin && c.HTTPRouter != RouterEcho {
		errs = append(errs, fmt.Errorf("unknown HTTP_ROUTER %q", c.HTTPRouter))
	}

	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo store"))
		}
	case StorePostgres, StoreSQLite:
		if c.SQLDSN == "" {
			errs = append(errs, fmt.Errorf("SQL_DSN is required for the %s store", c.StoreDriver))
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.IdentityMode {
	case IdentityRemote:
		if c.IdentityURL == "" {
			errs = append(errs, errors.New("IDENTITY_URL is required in remote identity mode"))
		}
	case IdentityJWT:
		if c.IdentityJWTSecret == "" {
			errs = append(errs, errors.New("IDENTITY_JWT_SECRET is required in jwt identity mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown IDENTITY_MODE %q", c.IdentityMode))
	}

	if c.GoogleTokenURL == "" {
		errs = append(errs, errors.New("GOOGLE_TOKEN_URL is required"))
	}
	if c.GoogleIndexingURL == "" {
		errs = append(errs, errors.New("GOOGLE_INDEXING_URL is required"))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("UPSTREAM_TIMEOUT must be positive"))
	}
	if c.BulkMaxURLs <= 0 {
		errs = append(errs, errors.New("BULK_MAX_URLS must be positive"))
	}

	return errors.Join(errs...)
}
