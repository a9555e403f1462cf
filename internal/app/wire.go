package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	s3blob "github.com/alanyoungcy/dexhunter/internal/blob/s3"
	"github.com/alanyoungcy/dexhunter/internal/cache/redis"
	"github.com/alanyoungcy/dexhunter/internal/chain"
	"github.com/alanyoungcy/dexhunter/internal/config"
	"github.com/alanyoungcy/dexhunter/internal/crypto"
	"github.com/alanyoungcy/dexhunter/internal/domain"
	"github.com/alanyoungcy/dexhunter/internal/engine"
	"github.com/alanyoungcy/dexhunter/internal/platform/dexscreener"
	"github.com/alanyoungcy/dexhunter/internal/scanner"
	"github.com/alanyoungcy/dexhunter/internal/store/postgres"
)

// Dependencies bundles every component the application modes need to operate.
// Optional pieces (stores, caches, trading) are nil when the configuration
// disables them or the mode does not require them. It is constructed by Wire
// and torn down by the returned cleanup function.
type Dependencies struct {
	Scanner *scanner.Scanner
	Ledger  *engine.UsageLedger
	Rotator *engine.Rotator

	// Trading components, nil in scan mode.
	Signer   *crypto.Signer
	Chain    *chain.Client
	Contract *chain.ArbContract
	Decision *engine.DecisionEngine
	Executor *engine.Executor

	// Persistence, nil when postgres is disabled.
	ScanStore      domain.ScanStore
	ExecutionStore domain.ExecutionStore

	// Snapshots reads archived scan artifacts, nil when S3 is disabled.
	Snapshots domain.BlobReader
}

// needsChain returns true for modes that sign and submit transactions.
func needsChain(mode string) bool {
	return mode == "trade" || mode == "full"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Market-data feed (optionally backed by the Redis pair cache) ---
	feedOpts := []dexscreener.Option{
		dexscreener.WithTimeout(cfg.Feed.Timeout.Duration),
		dexscreener.WithCallDelay(cfg.Feed.CallDelay.Duration),
	}
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		feedOpts = append(feedOpts, dexscreener.WithCache(
			redis.NewPairCache(redisClient, cfg.Feed.CacheTTL.Duration),
		))
	}
	feed := dexscreener.New(cfg.Feed.BaseURL, cfg.Chain.Chain, logger, feedOpts...)

	// --- Snapshot archiving (optional) ---
	var scanOpts []scanner.Option
	if cfg.S3.Enabled {
		blobClient, err := s3blob.New(ctx, cfg.S3)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = blobClient.Close() })
		scanOpts = append(scanOpts, scanner.WithArchiver(
			s3blob.NewSnapshotArchiver(s3blob.NewWriter(blobClient)),
		))
		deps.Snapshots = s3blob.NewReader(blobClient)
	}
	deps.Scanner = scanner.New(feed, cfg, logger, scanOpts...)

	// --- Route rotation ---
	deps.Ledger = engine.NewUsageLedger()
	deps.Rotator = engine.NewRotator(cfg.Rotation, deps.Ledger, logger)

	// --- PostgreSQL history (optional) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.ScanStore = postgres.NewScanStore(pool)
		deps.ExecutionStore = postgres.NewExecutionStore(pool)
	}

	// --- Chain, contract, and execution (trading modes only) ---
	if needsChain(cfg.Mode) {
		key, err := crypto.LoadKey(crypto.KeyConfig{
			RawPrivateKey:    cfg.Wallet.PrivateKey,
			EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
			KeyPassword:      cfg.Wallet.KeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: load key: %w", err)
		}
		signer, err := crypto.NewSigner(key, cfg.Chain.ChainID)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: signer: %w", err)
		}
		deps.Signer = signer

		chainClient, err := chain.Dial(ctx, cfg.Chain.RPCURL, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: chain: %w", err)
		}
		closers = append(closers, chainClient.Close)
		deps.Chain = chainClient

		contract, err := chain.NewArbContract(
			common.HexToAddress(cfg.Chain.ContractAddress), chainClient.Eth(), signer,
		)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: contract: %w", err)
		}
		deps.Contract = contract

		// The contract must be reachable before trading starts. This is the
		// only wiring failure that is not recoverable by configuration.
		if err := chainClient.Probe(ctx, contract, common.HexToAddress(cfg.Chain.ProbeToken)); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: contract probe: %w", err)
		}

		decision, err := engine.NewDecisionEngine(contract, chainClient, cfg.Engine, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: decision engine: %w", err)
		}
		deps.Decision = decision

		primary := chain.NewRelayClient(
			cfg.Relay.PrimaryURL, cfg.Relay.BundleWindow.Duration, signer, logger,
		)
		var secondary engine.Relay
		if cfg.Relay.SecondaryURL != "" {
			secondary = chain.NewRelayClient(
				cfg.Relay.SecondaryURL, cfg.Relay.BundleWindow.Duration, signer, logger,
			)
		}

		executor, err := engine.NewExecutor(
			contract, chainClient, primary, secondary,
			deps.Ledger, cfg.Engine, cfg.Rotation, logger,
		)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: executor: %w", err)
		}
		deps.Executor = executor
	}

	return deps, cleanup, nil
}
