package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Auth     AuthConfig     `mapstructure:"auth"`
	AES      AESConfig      `mapstructure:"aes"`
	Limiter  LimiterConfig  `mapstructure:"limiter"`
	Sweeper  SweeperConfig  `mapstructure:"sweeper"`
	ErrTrack ErrTrackConfig `mapstructure:"errtrack"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"` // debug, release, test
	TLSCert string `mapstructure:"tls_cert"`
	TLSKey  string `mapstructure:"tls_key"`
}

// Addr returns the listen address string.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TLSEnabled reports whether both certificate and key paths are set.
func (s ServerConfig) TLSEnabled() bool {
	return s.TLSCert != "" && s.TLSKey != ""
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LedgerConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	Commitment     string        `mapstructure:"commitment"`      // processed, confirmed, finalized
	SignatureLimit int           `mapstructure:"signature_limit"` // recent signatures scanned per verification
	Timeout        time.Duration `mapstructure:"timeout"`         // per ledger call
}

type PaymentConfig struct {
	MerchantWallet string        `mapstructure:"merchant_wallet"`
	Label          string        `mapstructure:"label"`
	RecordTTL      time.Duration `mapstructure:"record_ttl"`
	QRCodeDir      string        `mapstructure:"qr_code_dir"`
}

type AuthConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type AESConfig struct {
	Key string `mapstructure:"key"` // 32-byte hex-encoded key for AES-256
}

type LimiterConfig struct {
	Rate  int `mapstructure:"rate"`  // permits replenished per second
	Burst int `mapstructure:"burst"` // bucket capacity
}

type SweeperConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	RetryInterval time.Duration `mapstructure:"retry_interval"` // shorter reschedule after a failed pass
}

type ErrTrackConfig struct {
	Endpoint string `mapstructure:"endpoint"` // empty disables reporting
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: SVG_ (Solana Vend Gateway).
// Nested keys use underscore: SVG_REDIS_HOST, SVG_AUTH_API_KEY, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.tls_cert", "")
	v.SetDefault("server.tls_key", "")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("ledger.rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("ledger.commitment", "confirmed")
	v.SetDefault("ledger.signature_limit", 10)
	v.SetDefault("ledger.timeout", "10s")
	v.SetDefault("payment.merchant_wallet", "")
	v.SetDefault("payment.label", "Necta Vending")
	v.SetDefault("payment.record_ttl", "1h")
	v.SetDefault("payment.qr_code_dir", "qr_codes")
	v.SetDefault("auth.api_key", "")
	v.SetDefault("aes.key", "")
	v.SetDefault("limiter.rate", 10)
	v.SetDefault("limiter.burst", 10)
	v.SetDefault("sweeper.interval", "1h")
	v.SetDefault("sweeper.retry_interval", "1m")
	v.SetDefault("errtrack.endpoint", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: SVG_LEDGER_RPC_URL -> ledger.rpc_url
	v.SetEnvPrefix("SVG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Signature scan is bounded to cap verification cost.
	if cfg.Ledger.SignatureLimit < 1 {
		cfg.Ledger.SignatureLimit = 1
	}
	if cfg.Ledger.SignatureLimit > 50 {
		cfg.Ledger.SignatureLimit = 50
	}

	return &cfg, nil
}
