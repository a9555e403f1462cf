package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// PairCache implements domain.PairCache using Redis string values. Each feed
// query's result set is stored JSON-encoded at key "pairs:{query}" with a
// short TTL, so repeated queries within one scan window reuse the snapshot
// instead of hitting the rate-limited feed again.
type PairCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPairCache creates a PairCache backed by the given Client.
func NewPairCache(c *Client, ttl time.Duration) *PairCache {
	return &PairCache{rdb: c.Underlying(), ttl: ttl}
}

func pairKey(query string) string {
	return "pairs:" + query
}

// Set stores a query's pair records with the cache TTL.
func (pc *PairCache) Set(ctx context.Context, query string, records []domain.PairRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("redis: encode pairs %s: %w", query, err)
	}
	if err := pc.rdb.Set(ctx, pairKey(query), data, pc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set pairs %s: %w", query, err)
	}
	return nil
}

// Get retrieves a query's cached pair records. The second return value is
// false when the key is absent or expired.
func (pc *PairCache) Get(ctx context.Context, query string) ([]domain.PairRecord, bool, error) {
	data, err := pc.rdb.Get(ctx, pairKey(query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get pairs %s: %w", query, err)
	}

	var records []domain.PairRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("redis: decode pairs %s: %w", query, err)
	}
	return records, true, nil
}

// Compile-time interface check.
var _ domain.PairCache = (*PairCache)(nil)
