package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies DEXHUNTER_* environment variable overrides, and
// returns the final Config. A missing file is not an error: the defaults plus
// environment overrides make a runnable scan-mode configuration on their own.
// The returned Config has NOT been validated; the caller should invoke
// Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known DEXHUNTER_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "DEXHUNTER_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.PrivateKey, "PRIVATE_KEY") // compatibility alias
	setStr(&cfg.Wallet.EncryptedKeyPath, "DEXHUNTER_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "DEXHUNTER_WALLET_KEY_PASSWORD")

	// ── Chain ──
	setStr(&cfg.Chain.RPCURL, "DEXHUNTER_CHAIN_RPC_URL")
	setStr(&cfg.Chain.RPCURL, "RPC_URL") // compatibility alias
	setStr(&cfg.Chain.ContractAddress, "DEXHUNTER_CHAIN_CONTRACT_ADDRESS")
	setStr(&cfg.Chain.ContractAddress, "CONTRACT_ADDRESS") // compatibility alias
	setInt64(&cfg.Chain.ChainID, "DEXHUNTER_CHAIN_CHAIN_ID")
	setStr(&cfg.Chain.Chain, "DEXHUNTER_CHAIN_CHAIN")
	setStr(&cfg.Chain.ProbeToken, "DEXHUNTER_CHAIN_PROBE_TOKEN")

	// ── Feed ──
	setStr(&cfg.Feed.BaseURL, "DEXHUNTER_FEED_BASE_URL")
	setStringSlice(&cfg.Feed.TokenAddresses, "DEXHUNTER_FEED_TOKEN_ADDRESSES")
	setStringSlice(&cfg.Feed.SearchTerms, "DEXHUNTER_FEED_SEARCH_TERMS")
	setDuration(&cfg.Feed.CallDelay, "DEXHUNTER_FEED_CALL_DELAY")
	setDuration(&cfg.Feed.CacheTTL, "DEXHUNTER_FEED_CACHE_TTL")

	// ── Filter ──
	setFloat64(&cfg.Filter.MaxVolume24h, "DEXHUNTER_FILTER_MAX_VOLUME_24H")
	setInt(&cfg.Filter.MaxTxCount24h, "DEXHUNTER_FILTER_MAX_TX_COUNT_24H")
	setFloat64(&cfg.Filter.MinLiquidityUSD, "DEXHUNTER_FILTER_MIN_LIQUIDITY_USD")
	setFloat64(&cfg.Filter.MaxLiquidityUSD, "DEXHUNTER_FILTER_MAX_LIQUIDITY_USD")
	setFloat64(&cfg.Filter.MaxPriceChangePct, "DEXHUNTER_FILTER_MAX_PRICE_CHANGE_PCT")
	setStringSlice(&cfg.Filter.AllowedExchanges, "DEXHUNTER_FILTER_ALLOWED_EXCHANGES")

	// ── Weird ──
	setFloat64(&cfg.Weird.MaxVolume24h, "DEXHUNTER_WEIRD_MAX_VOLUME_24H")
	setInt(&cfg.Weird.MaxTxCount24h, "DEXHUNTER_WEIRD_MAX_TX_COUNT_24H")
	setFloat64(&cfg.Weird.MinLiquidityUSD, "DEXHUNTER_WEIRD_MIN_LIQUIDITY_USD")
	setFloat64(&cfg.Weird.MaxLiquidityUSD, "DEXHUNTER_WEIRD_MAX_LIQUIDITY_USD")
	setStringSlice(&cfg.Weird.CommonSymbols, "DEXHUNTER_WEIRD_COMMON_SYMBOLS")
	setInt(&cfg.Weird.WeirdThreshold, "DEXHUNTER_WEIRD_THRESHOLD")
	setBool(&cfg.Weird.PrioritizeWeird, "DEXHUNTER_WEIRD_PRIORITIZE")

	// ── Engine ──
	setDuration(&cfg.Engine.ScanInterval, "DEXHUNTER_ENGINE_SCAN_INTERVAL")
	setSeconds(&cfg.Engine.ScanInterval, "SCAN_INTERVAL_SECONDS") // compatibility alias
	setFloat64(&cfg.Engine.MinPriceDiffPct, "DEXHUNTER_ENGINE_MIN_PRICE_DIFF_PCT")
	setFloat64(&cfg.Engine.MaxCompetitionScore, "DEXHUNTER_ENGINE_MAX_COMPETITION_SCORE")
	setFloat64(&cfg.Engine.MinProfitUSD, "DEXHUNTER_ENGINE_MIN_PROFIT_USD")
	setFloat64(&cfg.Engine.MinProfitUSD, "MIN_PROFIT_USD") // compatibility alias
	setFloat64(&cfg.Engine.MaxGasPriceGwei, "DEXHUNTER_ENGINE_MAX_GAS_PRICE_GWEI")
	setFloat64(&cfg.Engine.MaxGasPriceGwei, "MAX_GAS_PRICE_GWEI") // compatibility alias
	setStr(&cfg.Engine.TradeCapWei, "DEXHUNTER_ENGINE_TRADE_CAP_WEI")
	setStr(&cfg.Engine.ProbeAmountWei, "DEXHUNTER_ENGINE_PROBE_AMOUNT_WEI")
	setInt64(&cfg.Engine.SlippageBps, "DEXHUNTER_ENGINE_SLIPPAGE_BPS")
	setInt64(&cfg.Engine.UniswapFeeTier, "DEXHUNTER_ENGINE_UNISWAP_FEE_TIER")
	setStr(&cfg.Engine.SnapshotPath, "DEXHUNTER_ENGINE_SNAPSHOT_PATH")
	setInt(&cfg.Engine.SnapshotTopN, "DEXHUNTER_ENGINE_SNAPSHOT_TOP_N")

	// ── Rotation ──
	setDuration(&cfg.Rotation.Period, "DEXHUNTER_ROTATION_PERIOD")
	setFloat64(&cfg.Rotation.DropFraction, "DEXHUNTER_ROTATION_DROP_FRACTION")
	setStringSlice(&cfg.Rotation.TokenUniverse, "DEXHUNTER_ROTATION_TOKEN_UNIVERSE")
	setStr(&cfg.Rotation.FlashLoanAmountWei, "DEXHUNTER_ROTATION_FLASH_LOAN_AMOUNT_WEI")

	// ── Relay ──
	setStr(&cfg.Relay.PrimaryURL, "DEXHUNTER_RELAY_PRIMARY_URL")
	setStr(&cfg.Relay.SecondaryURL, "DEXHUNTER_RELAY_SECONDARY_URL")
	setDuration(&cfg.Relay.BundleWindow, "DEXHUNTER_RELAY_BUNDLE_WINDOW")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "DEXHUNTER_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "DEXHUNTER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "DEXHUNTER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "DEXHUNTER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "DEXHUNTER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "DEXHUNTER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "DEXHUNTER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "DEXHUNTER_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "DEXHUNTER_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "DEXHUNTER_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "DEXHUNTER_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "DEXHUNTER_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "DEXHUNTER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "DEXHUNTER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "DEXHUNTER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "DEXHUNTER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "DEXHUNTER_REDIS_MAX_RETRIES")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "DEXHUNTER_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "DEXHUNTER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "DEXHUNTER_S3_REGION")
	setStr(&cfg.S3.Bucket, "DEXHUNTER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "DEXHUNTER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "DEXHUNTER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "DEXHUNTER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "DEXHUNTER_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "DEXHUNTER_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "DEXHUNTER_SERVER_PORT")

	// ── Top-level ──
	setStr(&cfg.Mode, "DEXHUNTER_MODE")
	setStr(&cfg.LogLevel, "DEXHUNTER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

// setSeconds reads a plain integer number of seconds (legacy env format).
func setSeconds(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			dst.Duration = time.Duration(n) * time.Second
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
