package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/alanyoungcy/dexhunter/internal/crypto"
	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// RelayClient submits signed transaction bundles to an MEV-protection relay
// over authenticated JSON-RPC.
type RelayClient struct {
	url          string
	bundleWindow time.Duration
	signer       *crypto.Signer
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewRelayClient creates a relay client for the given endpoint. bundleWindow
// bounds how long past submission the bundle stays valid.
func NewRelayClient(url string, bundleWindow time.Duration, signer *crypto.Signer, logger *slog.Logger) *RelayClient {
	return &RelayClient{
		url:          url,
		bundleWindow: bundleWindow,
		signer:       signer,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger.With(slog.String("component", "relay"), slog.String("url", url)),
	}
}

// URL returns the relay endpoint.
func (r *RelayClient) URL() string {
	return r.url
}

type bundleParams struct {
	Txs          []string `json:"txs"`
	BlockNumber  string   `json:"blockNumber"`
	MinTimestamp int64    `json:"minTimestamp"`
	MaxTimestamp int64    `json:"maxTimestamp"`
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result struct {
		BundleHash string `json:"bundleHash"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SendBundle submits the signed transactions as one bundle targeting the
// block after head. It returns the relay's bundle identifier. All failures
// wrap domain.ErrRelayRejected so the executor can fall through to the next
// path.
func (r *RelayClient) SendBundle(ctx context.Context, txs []*types.Transaction, headBlock uint64) (string, error) {
	raw := make([]string, 0, len(txs))
	for _, tx := range txs {
		enc, err := crypto.RawTx(tx)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrRelayRejected, err)
		}
		raw = append(raw, enc)
	}

	now := time.Now()
	params := bundleParams{
		Txs:          raw,
		BlockNumber:  hexutil.EncodeUint64(headBlock + 1),
		MinTimestamp: now.Unix(),
		MaxTimestamp: now.Add(r.bundleWindow).Unix(),
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_sendBundle",
		Params:  []interface{}{params},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", domain.ErrRelayRejected, err)
	}

	signature, err := r.signer.SignRelayPayload(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrRelayRejected, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrRelayRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Flashbots-Signature", signature)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrRelayRejected, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrRelayRejected, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrRelayRejected, resp.StatusCode, truncate(respBody, 200))
	}

	var decoded rpcResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrRelayRejected, err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("%w: code %d: %s", domain.ErrRelayRejected, decoded.Error.Code, decoded.Error.Message)
	}

	r.logger.Info("bundle accepted",
		slog.String("bundle_hash", decoded.Result.BundleHash),
		slog.Uint64("target_block", headBlock+1),
	)
	return decoded.Result.BundleHash, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
