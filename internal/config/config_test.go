package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "https://api.exchangerate.host/latest", cfg.Upstream.RatesURL)
	assert.Equal(t, "https://api.coingecko.com/api/v3/simple/price", cfg.Upstream.PricesURL)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Cache.FiatTTL)
	assert.Equal(t, time.Minute, cfg.Cache.CryptoTTL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("FXCRYPTO_SERVER_PORT", "9090")
	t.Setenv("FXCRYPTO_CACHE_CRYPTO_TTL", "90s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Cache.CryptoTTL)
}
