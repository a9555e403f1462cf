package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValidForScanMode(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "scan", cfg.Mode)
	assert.Equal(t, int64(8453), cfg.Chain.ChainID)
	assert.Equal(t, 30*time.Second, cfg.Engine.ScanInterval.Duration)
	assert.Equal(t, 7*24*time.Hour, cfg.Rotation.Period.Duration)
	assert.Equal(t, 0.5, cfg.Engine.MinPriceDiffPct)
	assert.Equal(t, int64(500), cfg.Engine.SlippageBps)
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "backtest"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateTradeModeNeedsWalletContractAndRelay(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.Relay.PrimaryURL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private_key or encrypted_key_path")
	assert.Contains(t, err.Error(), "contract_address")
	assert.Contains(t, err.Error(), "primary_url")

	cfg.Wallet.PrivateKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	cfg.Chain.ContractAddress = "0x1111111111111111111111111111111111111111"
	cfg.Relay.PrimaryURL = "https://relay.flashbots.net"
	require.NoError(t, cfg.Validate())
}

func TestValidateEncryptedKeyNeedsPassword(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.Chain.ContractAddress = "0x1111111111111111111111111111111111111111"
	cfg.Wallet.EncryptedKeyPath = "/secrets/key.json"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key_password")
}

func TestValidateSlippageRange(t *testing.T) {
	cfg := Defaults()
	cfg.Engine.SlippageBps = 10_000

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slippage_bps")
}

func TestValidatePostgresOnlyWhenEnabled(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Host = ""

	// Disabled postgres is never validated.
	require.NoError(t, cfg.Validate())

	cfg.Postgres.Enabled = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: host")

	// A DSN stands in for the host/port/database trio.
	cfg.Postgres.DSN = "postgres://user:pass@db:5432/dexhunter"
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, "scan", cfg.Mode)
	assert.Equal(t, "https://api.dexscreener.com/latest/dex", cfg.Feed.BaseURL)
}

func TestLoadParsesTomlAndDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
mode = "scan"
log_level = "debug"

[engine]
scan_interval = "45s"
min_profit_usd = 3.5

[rotation]
period = "72h"

[feed]
call_delay = "250ms"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 45*time.Second, cfg.Engine.ScanInterval.Duration)
	assert.Equal(t, 3.5, cfg.Engine.MinProfitUSD)
	assert.Equal(t, 72*time.Hour, cfg.Rotation.Period.Duration)
	assert.Equal(t, 250*time.Millisecond, cfg.Feed.CallDelay.Duration)

	// Fields the file does not mention keep their defaults.
	assert.Equal(t, 0.5, cfg.Engine.MinPriceDiffPct)
	assert.Equal(t, "base", cfg.Chain.Chain)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DEXHUNTER_MODE", "trade")
	t.Setenv("DEXHUNTER_ENGINE_MIN_PROFIT_USD", "5.5")
	t.Setenv("DEXHUNTER_ENGINE_SCAN_INTERVAL", "90s")
	t.Setenv("DEXHUNTER_FILTER_ALLOWED_EXCHANGES", "uniswap, aerodrome")
	t.Setenv("DEXHUNTER_REDIS_ENABLED", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "trade", cfg.Mode)
	assert.Equal(t, 5.5, cfg.Engine.MinProfitUSD)
	assert.Equal(t, 90*time.Second, cfg.Engine.ScanInterval.Duration)
	assert.Equal(t, []string{"uniswap", "aerodrome"}, cfg.Filter.AllowedExchanges)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLegacyEnvAliases(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "deadbeef")
	t.Setenv("SCAN_INTERVAL_SECONDS", "120")
	t.Setenv("MIN_PROFIT_USD", "4")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "deadbeef", cfg.Wallet.PrivateKey)
	assert.Equal(t, 2*time.Minute, cfg.Engine.ScanInterval.Duration)
	assert.Equal(t, 4.0, cfg.Engine.MinProfitUSD)
}
