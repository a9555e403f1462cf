// Package config defines the top-level configuration for the dexhunter bot
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by DEXHUNTER_* environment variables.
type Config struct {
	Wallet   WalletConfig   `toml:"wallet"`
	Chain    ChainConfig    `toml:"chain"`
	Feed     FeedConfig     `toml:"feed"`
	Filter   FilterConfig   `toml:"filter"`
	Weird    WeirdConfig    `toml:"weird"`
	Engine   EngineConfig   `toml:"engine"`
	Rotation RotationConfig `toml:"rotation"`
	Relay    RelayConfig    `toml:"relay"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// WalletConfig holds the signing key for relay bundles and transactions.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// ChainConfig holds RPC and contract parameters for the target chain.
type ChainConfig struct {
	RPCURL          string `toml:"rpc_url"`
	ContractAddress string `toml:"contract_address"`
	ChainID         int64  `toml:"chain_id"`
	// Chain is the market-data feed's chain selector (e.g. "base").
	Chain string `toml:"chain"`
	// ProbeToken is the token used for the startup contract reachability
	// check (getBalance call). Defaults to WETH on Base.
	ProbeToken string `toml:"probe_token"`
}

// FeedConfig holds market-data feed parameters.
type FeedConfig struct {
	BaseURL string `toml:"base_url"`
	// TokenAddresses are queried each scan; when empty, SearchTerms are used.
	TokenAddresses []string `toml:"token_addresses"`
	SearchTerms    []string `toml:"search_terms"`
	// CallDelay is the fixed pause between successive feed queries.
	CallDelay duration `toml:"call_delay"`
	Timeout   duration `toml:"timeout"`
	// CacheTTL bounds how long fetched pair snapshots are reused.
	CacheTTL duration `toml:"cache_ttl"`
}

// FilterConfig holds the low-competition thresholds. The defaults are
// empirically chosen and intentionally preserved as-is.
type FilterConfig struct {
	MaxVolume24h      float64 `toml:"max_volume_24h"`
	MaxTxCount24h     int     `toml:"max_tx_count_24h"`
	MinLiquidityUSD   float64 `toml:"min_liquidity_usd"`
	MaxLiquidityUSD   float64 `toml:"max_liquidity_usd"`
	MaxPriceChangePct float64 `toml:"max_price_change_pct"`
	// AllowedExchanges are substrings matched against the venue identifier.
	AllowedExchanges []string `toml:"allowed_exchanges"`
}

// WeirdConfig holds the obscure-pair thresholds and token allow-lists.
type WeirdConfig struct {
	MaxVolume24h    float64  `toml:"max_volume_24h"`
	MaxTxCount24h   int      `toml:"max_tx_count_24h"`
	MinLiquidityUSD float64  `toml:"min_liquidity_usd"`
	MaxLiquidityUSD float64  `toml:"max_liquidity_usd"`
	CommonSymbols   []string `toml:"common_symbols"`
	// WeirdThreshold is the weirdness score at or above which a pair is
	// flagged as weird.
	WeirdThreshold int `toml:"weird_threshold"`
	// PrioritizeWeird selects the weird-first sort order for ranked output.
	PrioritizeWeird bool `toml:"prioritize_weird"`
}

// EngineConfig holds decision-engine gates and sizing parameters.
type EngineConfig struct {
	ScanInterval        duration `toml:"scan_interval"`
	MinPriceDiffPct     float64  `toml:"min_price_diff_pct"`
	MaxCompetitionScore float64  `toml:"max_competition_score"`
	MinProfitUSD        float64  `toml:"min_profit_usd"`
	MaxGasPriceGwei     float64  `toml:"max_gas_price_gwei"`
	// TradeCapWei caps the trade size; the engine uses
	// min(10% of contract balance, TradeCapWei). Decimal string in wei.
	TradeCapWei string `toml:"trade_cap_wei"`
	// ProbeAmountWei is the small amount used for the first profit estimate.
	ProbeAmountWei string `toml:"probe_amount_wei"`
	// SlippageBps is the fixed slippage tolerance applied to expected
	// output (500 = 5%). Not configurable per call.
	SlippageBps int64 `toml:"slippage_bps"`
	// UniswapFeeTier is the V3 fee tier used for the directional trades.
	UniswapFeeTier int64 `toml:"uniswap_fee_tier"`
	// SnapshotPath is the per-scan ranked-opportunity artifact file.
	SnapshotPath string `toml:"snapshot_path"`
	SnapshotTopN int    `toml:"snapshot_top_n"`
}

// RotationConfig holds route-rotation parameters.
type RotationConfig struct {
	Period duration `toml:"period"`
	// DropFraction of the most-used routes is retired on each rotation.
	DropFraction float64 `toml:"drop_fraction"`
	// TokenUniverse seeds combinatorial route generation.
	TokenUniverse []string `toml:"token_universe"`
	// FlashLoanAmountWei is the borrowed amount for flash-loan attempts.
	FlashLoanAmountWei string `toml:"flash_loan_amount_wei"`
}

// RelayConfig holds MEV-protection relay endpoints.
type RelayConfig struct {
	PrimaryURL   string `toml:"primary_url"`
	SecondaryURL string `toml:"secondary_url"`
	// BundleWindow is how long past the target block a bundle stays valid.
	BundleWindow duration `toml:"bundle_window"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
}

// S3Config holds S3-compatible object storage parameters for snapshot
// archiving.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP status API parameters.
type ServerConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "30s", "168h").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "30s" or "7h".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Base network well-known token addresses.
const (
	TokenWETH = "0x4200000000000000000000000000000000000006"
	TokenUSDC = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	TokenDAI  = "0x50c5725949A6F0c72E6C4a641F24049A917E0D6E"
	TokenUSDT = "0xfde4C96c8593536E31F229EA8f37b2ADa2699bb2"
)

// Defaults returns a Config populated with the documented default values.
// Scoring and filter thresholds are empirically tuned and carried over
// unchanged; treat them as opaque.
func Defaults() Config {
	return Config{
		Chain: ChainConfig{
			RPCURL:     "https://mainnet.base.org",
			ChainID:    8453,
			Chain:      "base",
			ProbeToken: TokenWETH,
		},
		Feed: FeedConfig{
			BaseURL:        "https://api.dexscreener.com/latest/dex",
			TokenAddresses: []string{TokenWETH, TokenUSDC, TokenDAI},
			SearchTerms:    []string{"WETH", "USDC", "DAI", "USDT", "base", "test", "meme", "new"},
			CallDelay:      duration{500 * time.Millisecond},
			Timeout:        duration{10 * time.Second},
			CacheTTL:       duration{time.Minute},
		},
		Filter: FilterConfig{
			MaxVolume24h:      100_000,
			MaxTxCount24h:     200,
			MinLiquidityUSD:   100,
			MaxLiquidityUSD:   500_000,
			MaxPriceChangePct: 100,
			AllowedExchanges:  []string{"uniswap", "moonwell", "base", "aerodrome", "swap"},
		},
		Weird: WeirdConfig{
			MaxVolume24h:    50_000,
			MaxTxCount24h:   50,
			MinLiquidityUSD: 500,
			MaxLiquidityUSD: 50_000,
			CommonSymbols:   []string{"weth", "eth", "usdc", "usdt", "dai", "wbtc", "btc", "bnb", "matic", "avax"},
			WeirdThreshold:  50,
			PrioritizeWeird: true,
		},
		Engine: EngineConfig{
			ScanInterval:        duration{30 * time.Second},
			MinPriceDiffPct:     0.5,
			MaxCompetitionScore: 200,
			MinProfitUSD:        2.0,
			MaxGasPriceGwei:     2.0,
			TradeCapWei:         "10000000000000000",  // 0.01 token
			ProbeAmountWei:      "100000000000000000", // 0.1 token
			SlippageBps:         500,
			UniswapFeeTier:      3000,
			SnapshotPath:        "opportunities.json",
			SnapshotTopN:        10,
		},
		Rotation: RotationConfig{
			Period:             duration{7 * 24 * time.Hour},
			DropFraction:       0.2,
			TokenUniverse:      []string{TokenWETH, TokenUSDC, TokenDAI, TokenUSDT},
			FlashLoanAmountWei: "1000000000000000000", // 1 token
		},
		Relay: RelayConfig{
			PrimaryURL:   "https://relay.flashbots.net",
			SecondaryURL: "https://rpc.mevblocker.io",
			BundleWindow: duration{2 * time.Minute},
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "dexhunter",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "dexhunter-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Enabled: false,
			Port:    8000,
		},
		Mode:     "scan",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":  true, // detect and rank only; no transactions
	"trade": true, // full pipeline including execution
	"full":  true, // trade + status server
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, trade, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Wallet — trading modes must be able to sign.
	needsWallet := c.Mode == "trade" || c.Mode == "full"
	if needsWallet {
		if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
			errs = append(errs, "wallet: either private_key or encrypted_key_path must be set for mode "+c.Mode)
		}
		if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
			errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
		}
		if c.Chain.ContractAddress == "" {
			errs = append(errs, "chain: contract_address must be set for mode "+c.Mode)
		}
		if c.Relay.PrimaryURL == "" {
			errs = append(errs, "relay: primary_url must not be empty for mode "+c.Mode)
		}
	}

	if c.Chain.RPCURL == "" {
		errs = append(errs, "chain: rpc_url must not be empty")
	}
	if c.Chain.ChainID <= 0 {
		errs = append(errs, "chain: chain_id must be positive")
	}
	if c.Chain.Chain == "" {
		errs = append(errs, "chain: chain selector must not be empty")
	}

	if c.Feed.BaseURL == "" {
		errs = append(errs, "feed: base_url must not be empty")
	}
	if c.Feed.CallDelay.Duration < 0 {
		errs = append(errs, "feed: call_delay must not be negative")
	}

	if c.Filter.MinLiquidityUSD > c.Filter.MaxLiquidityUSD {
		errs = append(errs, "filter: min_liquidity_usd must not exceed max_liquidity_usd")
	}
	if c.Weird.MinLiquidityUSD > c.Weird.MaxLiquidityUSD {
		errs = append(errs, "weird: min_liquidity_usd must not exceed max_liquidity_usd")
	}

	if c.Engine.ScanInterval.Duration <= 0 {
		errs = append(errs, "engine: scan_interval must be positive")
	}
	if c.Engine.MinPriceDiffPct < 0 {
		errs = append(errs, "engine: min_price_diff_pct must not be negative")
	}
	if c.Engine.MinProfitUSD < 0 {
		errs = append(errs, "engine: min_profit_usd must not be negative")
	}
	if c.Engine.MaxGasPriceGwei <= 0 {
		errs = append(errs, "engine: max_gas_price_gwei must be positive")
	}
	if c.Engine.SlippageBps < 0 || c.Engine.SlippageBps >= 10_000 {
		errs = append(errs, fmt.Sprintf("engine: slippage_bps must be in [0, 10000), got %d", c.Engine.SlippageBps))
	}
	if c.Engine.SnapshotTopN <= 0 {
		errs = append(errs, "engine: snapshot_top_n must be positive")
	}

	if c.Rotation.Period.Duration <= 0 {
		errs = append(errs, "rotation: period must be positive")
	}
	if c.Rotation.DropFraction < 0 || c.Rotation.DropFraction > 1 {
		errs = append(errs, "rotation: drop_fraction must be in [0, 1]")
	}
	if len(c.Rotation.TokenUniverse) < 2 {
		errs = append(errs, "rotation: token_universe needs at least two tokens")
	}

	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}

	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
