package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP bind address.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the host:port string the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// UpstreamConfig holds the provider endpoints and the per-call timeout.
type UpstreamConfig struct {
	RatesURL  string        `mapstructure:"rates_url"`
	PricesURL string        `mapstructure:"prices_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds the freshness windows for the two feeds.
type CacheConfig struct {
	FiatTTL   time.Duration `mapstructure:"fiat_ttl"`
	CryptoTTL time.Duration `mapstructure:"crypto_ttl"`
}

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Cache    CacheConfig    `mapstructure:"cache"`
	LogLevel string         `mapstructure:"log_level"`
}

// LoadConfig reads configuration from an optional config.yaml in the working
// directory and from FXCRYPTO_* environment variables. Every knob has a
// default, so the service runs with no configuration present at all.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("upstream.rates_url", "https://api.exchangerate.host/latest")
	v.SetDefault("upstream.prices_url", "https://api.coingecko.com/api/v3/simple/price")
	v.SetDefault("upstream.timeout", 10*time.Second)
	v.SetDefault("cache.fiat_ttl", 30*time.Minute)
	v.SetDefault("cache.crypto_ttl", time.Minute)
	v.SetDefault("log_level", "info")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FXCRYPTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
