package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// ScanStore implements domain.ScanStore using PostgreSQL.
type ScanStore struct {
	pool *pgxpool.Pool
}

// NewScanStore creates a new ScanStore.
func NewScanStore(pool *pgxpool.Pool) *ScanStore {
	return &ScanStore{pool: pool}
}

// CreateScan inserts a scan summary and its ranked opportunities.
func (s *ScanStore) CreateScan(ctx context.Context, scan domain.ScanRecord, top []domain.Opportunity) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO scans (id, started_at, duration_ms, pairs_fetched, pairs_filtered, opportunities, weird_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		scan.ID, scan.StartedAt, scan.DurationMs,
		scan.PairsFetched, scan.PairsFiltered, scan.Opportunities, scan.WeirdCount,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert scan: %w", err)
	}

	for rank, opp := range top {
		_, err = tx.Exec(ctx, `
			INSERT INTO scan_opportunities (scan_id, rank, token_pair_key, base_symbol, quote_symbol, buy_venue, sell_venue, price_diff_pct, competition_score, weirdness_score, is_weird_pair)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			scan.ID, rank, opp.TokenPairKey, opp.BaseToken.Symbol, opp.QuoteToken.Symbol,
			opp.BuyVenue, opp.SellVenue, opp.PriceDiffPct,
			opp.CompetitionScore, opp.WeirdnessScore, opp.IsWeirdPair,
		)
		if err != nil {
			return fmt.Errorf("postgres: insert scan_opportunity: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListScans returns scan summaries newest first.
func (s *ScanStore) ListScans(ctx context.Context, opts domain.ListOpts) ([]domain.ScanRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, started_at, duration_ms, pairs_fetched, pairs_filtered, opportunities, weird_count
		FROM scans ORDER BY started_at DESC LIMIT $1 OFFSET $2`,
		limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list scans: %w", err)
	}
	defer rows.Close()

	var list []domain.ScanRecord
	for rows.Next() {
		var rec domain.ScanRecord
		if err := rows.Scan(&rec.ID, &rec.StartedAt, &rec.DurationMs,
			&rec.PairsFetched, &rec.PairsFiltered, &rec.Opportunities, &rec.WeirdCount); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// Compile-time interface check.
var _ domain.ScanStore = (*ScanStore)(nil)
