// Package chain wraps the JSON-RPC node connection and the arbitrage
// contract bindings: read-only profit estimation, balance queries, the
// directional trade entry points, and the startup reachability probe.
package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// weiPerGwei converts the node's wei-denominated gas price to gwei.
var weiPerGwei = big.NewFloat(1e9)

// Client is the bot's connection to an EVM node.
type Client struct {
	eth    *ethclient.Client
	logger *slog.Logger
}

// Dial connects to the node at rpcURL.
func Dial(ctx context.Context, rpcURL string, logger *slog.Logger) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", rpcURL, err)
	}
	return &Client{
		eth:    eth,
		logger: logger.With(slog.String("component", "chain")),
	}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// Eth exposes the underlying ethclient for contract binding.
func (c *Client) Eth() *ethclient.Client {
	return c.eth
}

// GasPriceGwei returns the node's suggested gas price in gwei.
func (c *Client) GasPriceGwei(ctx context.Context) (float64, error) {
	price, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return 0, fmt.Errorf("chain: suggest gas price: %w", err)
	}
	gwei, _ := new(big.Float).Quo(new(big.Float).SetInt(price), weiPerGwei).Float64()
	return gwei, nil
}

// BlockNumber returns the current head block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("chain: block number: %w", err)
	}
	return n, nil
}

// SendTransaction broadcasts a signed transaction through the node's public
// mempool. Used only by the own-capital fallback path.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := c.eth.SendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("chain: send transaction %s: %w", tx.Hash().Hex(), err)
	}
	return nil
}

// WaitReceipt polls for a transaction receipt until the context expires. A
// submitted transaction cannot be cancelled, so the only terminal states are
// a receipt or context expiry.
func (c *Client) WaitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("chain: waiting for receipt of %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// Probe verifies the arbitrage contract is reachable by reading its balance
// of the probe token. A probe failure means the configuration is unusable
// and the caller is expected to stop the process.
func (c *Client) Probe(ctx context.Context, contract *ArbContract, probeToken common.Address) error {
	balance, err := contract.GetBalance(ctx, probeToken)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrContractProbe, err)
	}
	c.logger.Info("contract probe ok",
		slog.String("token", probeToken.Hex()),
		slog.String("balance_wei", balance.String()),
	)
	return nil
}
