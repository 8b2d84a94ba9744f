package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.RateLimitQPS)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "https://clob.polymarket.com", cfg.CLOB.BaseURL)
	assert.Equal(t, int64(137), cfg.Wallet.ChainID)
	assert.Equal(t, float64(100), cfg.Trading.MaxOrderNotionalUSD)
	assert.Equal(t, 300, cfg.Metadata.TTLSeconds)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.Trading.DryRun)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("POLYAGENT_TRADING_DRY_RUN", "true")
	t.Setenv("POLYAGENT_SERVER_PORT", "9090")
	t.Setenv("POLYAGENT_WALLET_PRIVATE_KEY", "abc123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Trading.DryRun)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.HasPrivateKey())
	assert.Equal(t, "abc123", cfg.Wallet.PrivateKey)
}

// Keys that only ever arrive through the environment must still reach
// Unmarshal; viper drops env-only keys it has never seen a default for.
func TestLoad_EnvOnlyKeys(t *testing.T) {
	t.Setenv("POLYAGENT_WALLET_FUNDER_ADDRESS", "0x2222222222222222222222222222222222222222")
	t.Setenv("POLYAGENT_CREDS_API_KEY", "k")
	t.Setenv("POLYAGENT_CREDS_API_SECRET", "s")
	t.Setenv("POLYAGENT_CREDS_API_PASSPHRASE", "p")
	t.Setenv("POLYAGENT_AUTH_API_KEY", "gw-key")
	t.Setenv("POLYAGENT_REDIS_ADDR", "localhost:6379")
	t.Setenv("POLYAGENT_DATABASE_DSN", "postgres://x")
	t.Setenv("POLYAGENT_TRADING_MAX_DAILY_ORDERS", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0x2222222222222222222222222222222222222222", cfg.Wallet.FunderAddress)
	assert.True(t, cfg.HasL2Creds())
	assert.Equal(t, "gw-key", cfg.Auth.APIKey)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "postgres://x", cfg.Database.DSN)
	assert.Equal(t, 25, cfg.Trading.MaxDailyOrders)
}

func TestHasL2Creds(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.HasL2Creds())

	cfg.Creds.APIKey = "k"
	cfg.Creds.APISecret = "s"
	assert.False(t, cfg.HasL2Creds())

	cfg.Creds.APIPassphrase = "p"
	assert.True(t, cfg.HasL2Creds())
}

func TestHasPrivateKey_TrimsWhitespace(t *testing.T) {
	cfg := &Config{}
	cfg.Wallet.PrivateKey = "   "
	assert.False(t, cfg.HasPrivateKey())
}
