package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// ExecutionStore implements domain.ExecutionStore using PostgreSQL.
type ExecutionStore struct {
	pool *pgxpool.Pool
}

// NewExecutionStore creates a new ExecutionStore.
func NewExecutionStore(pool *pgxpool.Pool) *ExecutionStore {
	return &ExecutionStore{pool: pool}
}

// Create inserts one execution outcome.
func (s *ExecutionStore) Create(ctx context.Context, rec domain.ExecutionRecord) error {
	var scanID *string
	if rec.ScanID != "" {
		scanID = &rec.ScanID
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO executions (id, scan_id, token_pair_key, buy_venue, sell_venue, price_diff_pct, profit_usd, via, tx_hash, bundle_id, success, failure, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.ID, scanID, rec.TokenPairKey, rec.BuyVenue, rec.SellVenue,
		rec.PriceDiffPct, rec.ProfitUSD, string(rec.Via),
		rec.TxHash, rec.BundleID, rec.Success, string(rec.Failure), rec.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert execution: %w", err)
	}
	return nil
}

// ListRecent returns execution outcomes newest first.
func (s *ExecutionStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.ExecutionRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, COALESCE(scan_id::text, ''), token_pair_key, buy_venue, sell_venue, price_diff_pct, profit_usd, via, tx_hash, bundle_id, success, failure, submitted_at
		FROM executions ORDER BY submitted_at DESC LIMIT $1 OFFSET $2`,
		limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list executions: %w", err)
	}
	defer rows.Close()

	var list []domain.ExecutionRecord
	for rows.Next() {
		var rec domain.ExecutionRecord
		var via, failure string
		if err := rows.Scan(&rec.ID, &rec.ScanID, &rec.TokenPairKey, &rec.BuyVenue, &rec.SellVenue,
			&rec.PriceDiffPct, &rec.ProfitUSD, &via, &rec.TxHash, &rec.BundleID,
			&rec.Success, &failure, &rec.SubmittedAt); err != nil {
			return nil, err
		}
		rec.Via = domain.ExecutionPath(via)
		rec.Failure = domain.FailureKind(failure)
		list = append(list, rec)
	}
	return list, rows.Err()
}

// Compile-time interface check.
var _ domain.ExecutionStore = (*ExecutionStore)(nil)
