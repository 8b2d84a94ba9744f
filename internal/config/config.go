package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	CLOB     CLOBConfig     `mapstructure:"clob"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Creds    CredsConfig    `mapstructure:"creds"`
	Trading  TradingConfig  `mapstructure:"trading"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Stream   StreamConfig   `mapstructure:"stream"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

type ServerConfig struct {
	Port     string `mapstructure:"port"`
	ReadOnly bool   `mapstructure:"read_only"`
	// Requests per second allowed through the gateway, with 2x burst.
	RateLimitQPS int `mapstructure:"rate_limit_qps"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// AuthConfig guards the gateway's own HTTP surface, not the exchange.
type AuthConfig struct {
	RequireAPIKey bool   `mapstructure:"require_api_key"`
	APIKey        string `mapstructure:"api_key"`
}

type CLOBConfig struct {
	BaseURL string `mapstructure:"base_url"`
	WSURL   string `mapstructure:"ws_url"`
}

// WalletConfig is the L1 credential material. PrivateKey absent means every
// trading operation reports CREDENTIALS_MISSING; read-only market lookups
// keep working.
type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key"`
	// FunderAddress is the proxy/funder wallet holding USDC. Defaults to the
	// EOA derived from the private key.
	FunderAddress string `mapstructure:"funder_address"`
	ChainID       int64  `mapstructure:"chain_id"`
}

// CredsConfig holds pre-provisioned L2 API credentials. When empty they are
// derived from the wallet key during the auth handshake.
type CredsConfig struct {
	APIKey        string `mapstructure:"api_key"`
	APISecret     string `mapstructure:"api_secret"`
	APIPassphrase string `mapstructure:"api_passphrase"`
}

// TradingConfig is the operator-defined safety envelope. Immutable for the
// process lifetime once loaded.
type TradingConfig struct {
	DryRun              bool     `mapstructure:"dry_run"`
	MaxOrderNotionalUSD float64  `mapstructure:"max_order_notional_usd"`
	MinOrderSize        float64  `mapstructure:"min_order_size"`
	MaxDailyNotionalUSD float64  `mapstructure:"max_daily_notional_usd"`
	MaxDailyOrders      int      `mapstructure:"max_daily_orders"`
	MaxSlippage         float64  `mapstructure:"max_slippage"` // 0 disables the live book check
	BlockedTokenIDs     []string `mapstructure:"blocked_token_ids"`
}

type MetadataConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type StreamConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type AuditConfig struct {
	Dir string `mapstructure:"dir"`
}

// HasPrivateKey reports whether signing credential material was provided.
func (c *Config) HasPrivateKey() bool {
	return strings.TrimSpace(c.Wallet.PrivateKey) != ""
}

// HasL2Creds reports whether pre-provisioned API credentials are complete.
func (c *Config) HasL2Creds() bool {
	return c.Creds.APIKey != "" && c.Creds.APISecret != "" && c.Creds.APIPassphrase != ""
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables, e.g. POLYAGENT_WALLET_PRIVATE_KEY,
	// POLYAGENT_TRADING_DRY_RUN.
	viper.SetEnvPrefix("polyagent")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_only", false)
	viper.SetDefault("server.rate_limit_qps", 10)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("auth.require_api_key", false)
	viper.SetDefault("auth.api_key", "")
	viper.SetDefault("clob.base_url", "https://clob.polymarket.com")
	viper.SetDefault("clob.ws_url", "wss://ws-subscriptions-clob.polymarket.com/ws/user")
	viper.SetDefault("wallet.chain_id", 137)
	// Keys without a meaningful default still need one registered, or
	// AutomaticEnv never surfaces them to Unmarshal.
	viper.SetDefault("wallet.private_key", "")
	viper.SetDefault("wallet.funder_address", "")
	viper.SetDefault("creds.api_key", "")
	viper.SetDefault("creds.api_secret", "")
	viper.SetDefault("creds.api_passphrase", "")
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("trading.dry_run", false)
	viper.SetDefault("trading.max_order_notional_usd", 100)
	viper.SetDefault("trading.min_order_size", 0)
	viper.SetDefault("trading.max_daily_notional_usd", 0)
	viper.SetDefault("trading.max_daily_orders", 0)
	viper.SetDefault("trading.max_slippage", 0)
	viper.SetDefault("trading.blocked_token_ids", []string{})
	viper.SetDefault("metadata.ttl_seconds", 300)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("stream.enabled", false)
	viper.SetDefault("audit.dir", "./logs")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
