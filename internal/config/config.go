// Package config loads runtime settings from an optional YAML file and
// VITRINA_ environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/erazemk/vitrina/internal/auth"
	"github.com/erazemk/vitrina/internal/describe"
	"github.com/erazemk/vitrina/internal/imaging"
	"github.com/erazemk/vitrina/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. VITRINA_SERVER_ADDR.
const EnvPrefix = "VITRINA"

// Config holds all runtime settings.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	AI      AIConfig      `mapstructure:"ai"`
	Orders  OrdersConfig  `mapstructure:"orders"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type CacheConfig struct {
	Path string `mapstructure:"path"`
}

// RemoteConfig points at the PostgreSQL catalog. An empty URL runs the
// storefront from the local cache only.
type RemoteConfig struct {
	URL string `mapstructure:"url"`
}

type AIConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Endpoint string `mapstructure:"endpoint"`
}

type OrdersConfig struct {
	URL string `mapstructure:"url"`
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type CatalogConfig struct {
	DefaultPrice   string `mapstructure:"default_price"`
	MaxImageWidth  int    `mapstructure:"max_image_width"`
	MaxImageHeight int    `mapstructure:"max_image_height"`
}

type LogConfig struct {
	Path string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("cache.path", "vitrina.db")
	v.SetDefault("remote.url", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", describe.DefaultModel)
	v.SetDefault("ai.endpoint", "")
	v.SetDefault("orders.url", "")
	v.SetDefault("admin.username", auth.DefaultUsername)
	v.SetDefault("admin.password", auth.DefaultPassword)
	v.SetDefault("catalog.default_price", "18.00")
	v.SetDefault("catalog.max_image_width", imaging.MaxWidth)
	v.SetDefault("catalog.max_image_height", imaging.MaxHeight)
	v.SetDefault("log.path", "")
}

// Load reads configuration. With an empty path, vitrina.yaml is looked up in
// the working directory and a missing file is not an error; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("vitrina")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Debug("no config file found, using defaults and environment")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("cache.path must not be empty")
	}
	if c.Admin.Username == "" || c.Admin.Password == "" {
		return fmt.Errorf("admin.username and admin.password must not be empty")
	}
	if _, err := c.DefaultPrice(); err != nil {
		return err
	}
	if c.Catalog.MaxImageWidth <= 0 || c.Catalog.MaxImageHeight <= 0 {
		return fmt.Errorf("catalog image bounds must be positive, got %dx%d",
			c.Catalog.MaxImageWidth, c.Catalog.MaxImageHeight)
	}
	return nil
}

// DefaultPrice parses catalog.default_price.
func (c *Config) DefaultPrice() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Catalog.DefaultPrice)
	if err != nil {
		return decimal.Zero, fmt.Errorf("catalog.default_price: %w", err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("catalog.default_price must not be negative")
	}
	if !d.Equal(d.Round(model.PriceScale)) {
		return decimal.Zero, fmt.Errorf("catalog.default_price must have at most %d decimal places", model.PriceScale)
	}
	return d, nil
}
