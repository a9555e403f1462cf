// Package dexscreener is the REST client for the DexScreener market-data
// feed. It is the bot's market snapshot fetcher: it queries pairs by token
// address or free-text search, filters the mixed-chain responses down to the
// configured target chain, and fails open — a feed outage yields an empty
// snapshot, never an aborted scan cycle.
package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// Client queries the DexScreener API.
type Client struct {
	baseURL    string
	chain      string
	callDelay  time.Duration
	httpClient *http.Client
	cache      domain.PairCache
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithCache attaches a short-lived snapshot cache consulted before hitting
// the feed.
func WithCache(cache domain.PairCache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithTimeout overrides the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithCallDelay sets the fixed pause between successive feed queries,
// keeping the client under the feed's rate limits.
func WithCallDelay(d time.Duration) Option {
	return func(c *Client) { c.callDelay = d }
}

// New creates a Client for the given API root (e.g.
// "https://api.dexscreener.com/latest/dex") and target chain selector.
func New(baseURL, chain string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		chain:     chain,
		callDelay: 500 * time.Millisecond,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With(slog.String("component", "dexscreener")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns pair snapshots for the given token addresses, or for the
// fallback search terms when addresses is empty. It never returns an error:
// individual query failures are logged and contribute nothing, so a feed
// outage degrades to an empty scan rather than aborting the cycle. A fixed
// delay separates successive queries.
func (c *Client) Fetch(ctx context.Context, addresses, searchTerms []string) []domain.PairRecord {
	queries := make([]query, 0, len(addresses)+len(searchTerms))
	if len(addresses) > 0 {
		for _, addr := range addresses {
			queries = append(queries, query{kind: byToken, value: addr})
		}
	} else {
		for _, term := range searchTerms {
			queries = append(queries, query{kind: bySearch, value: term})
		}
	}

	var all []domain.PairRecord
	for i, q := range queries {
		if i > 0 {
			select {
			case <-ctx.Done():
				return all
			case <-time.After(c.callDelay):
			}
		}

		records, err := c.run(ctx, q)
		if err != nil {
			c.logger.Warn("feed query failed, continuing",
				slog.String("query", q.value),
				slog.String("error", err.Error()),
			)
			continue
		}
		all = append(all, records...)
	}
	return all
}

type queryKind int

const (
	byToken queryKind = iota
	bySearch
)

type query struct {
	kind  queryKind
	value string
}

func (q query) cacheKey() string {
	if q.kind == byToken {
		return "token:" + q.value
	}
	return "search:" + q.value
}

// run executes one feed query, consulting the snapshot cache first.
func (c *Client) run(ctx context.Context, q query) ([]domain.PairRecord, error) {
	if c.cache != nil {
		if cached, ok, err := c.cache.Get(ctx, q.cacheKey()); err == nil && ok {
			return cached, nil
		}
	}

	var records []domain.PairRecord
	var err error
	switch q.kind {
	case byToken:
		records, err = c.PairsByToken(ctx, q.value)
	default:
		records, err = c.Search(ctx, q.value)
	}
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if cerr := c.cache.Set(ctx, q.cacheKey(), records); cerr != nil {
			c.logger.Debug("pair cache write failed", slog.String("error", cerr.Error()))
		}
	}
	return records, nil
}

// PairsByToken returns all pairs listing the given token, restricted to the
// target chain.
func (c *Client) PairsByToken(ctx context.Context, tokenAddress string) ([]domain.PairRecord, error) {
	path := "/tokens/" + url.PathEscape(tokenAddress)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("dexscreener: pairs for token %s: %w", tokenAddress, err)
	}
	return c.decodePairs(body)
}

// Search returns pairs matching the free-text query, restricted to the
// target chain.
func (c *Client) Search(ctx context.Context, q string) ([]domain.PairRecord, error) {
	params := url.Values{}
	params.Set("q", q)
	path := "/search?" + params.Encode()

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("dexscreener: search %q: %w", q, err)
	}
	return c.decodePairs(body)
}

// decodePairs parses a pairs response and keeps only records on the target
// chain. The feed mixes chains in search results, so this filter is applied
// client-side on every response.
func (c *Client) decodePairs(body []byte) ([]domain.PairRecord, error) {
	var resp pairsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("dexscreener: decode pairs: %w", err)
	}

	records := make([]domain.PairRecord, 0, len(resp.Pairs))
	for i := range resp.Pairs {
		if resp.Pairs[i].ChainID != c.chain {
			continue
		}
		records = append(records, resp.Pairs[i].ToDomain())
	}
	return records, nil
}

// doGet sends an unauthenticated GET request to the feed.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: status 429", domain.ErrFeedUnavailable)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrFeedUnavailable, resp.StatusCode, truncate(body, 200))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
