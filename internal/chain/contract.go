package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/alanyoungcy/dexhunter/internal/crypto"
	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// arbContractABI covers the entry points the bot calls. Profit figures in
// USD come back scaled by 1e8.
const arbContractABI = `[
	{"type":"function","name":"estimateProfit","stateMutability":"view","inputs":[{"name":"path","type":"address[]"},{"name":"amountIn","type":"uint256"}],"outputs":[{"name":"amountOut","type":"uint256"},{"name":"profit","type":"uint256"},{"name":"profitUsd","type":"uint256"}]},
	{"type":"function","name":"getBalance","stateMutability":"view","inputs":[{"name":"token","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"deposit","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"executeV2ToV3Trade","stateMutability":"nonpayable","inputs":[{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"},{"name":"fee","type":"uint24"},{"name":"minAmountOut","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"executeV3ToV2Trade","stateMutability":"nonpayable","inputs":[{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"},{"name":"fee","type":"uint24"},{"name":"minAmountOut","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"startFlashLoan","stateMutability":"nonpayable","inputs":[{"name":"asset","type":"address"},{"name":"amount","type":"uint256"},{"name":"tradePercent","type":"uint256"},{"name":"path","type":"address[]"},{"name":"minAmountOut","type":"uint256"},{"name":"routeHash","type":"bytes32"}],"outputs":[]},
	{"type":"function","name":"executeOwnCapitalTrade","stateMutability":"nonpayable","inputs":[{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"amountIn","type":"uint256"},{"name":"minAmountOut","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"getRiskParams","stateMutability":"view","inputs":[],"outputs":[{"name":"minProfitUsd","type":"uint256"},{"name":"maxGasPriceGwei","type":"uint256"}]},
	{"type":"function","name":"updateRiskParams","stateMutability":"nonpayable","inputs":[{"name":"minProfitUsd","type":"uint256"},{"name":"maxGasPriceGwei","type":"uint256"}],"outputs":[]}
]`

// profitUsdScale converts the contract's fixed-point USD figure to a float.
var profitUsdScale = big.NewFloat(1e8)

// Estimate is the result of the contract's read-only profit estimator.
type Estimate struct {
	AmountOut *big.Int
	Profit    *big.Int
	ProfitUSD float64
}

// ArbContract is a typed wrapper around the deployed arbitrage contract.
type ArbContract struct {
	address common.Address
	abi     abi.ABI
	bound   *bind.BoundContract
	signer  *crypto.Signer
}

// NewArbContract binds the arbitrage contract at address. The signer may be
// nil for scan-only use; transactional methods then fail.
func NewArbContract(address common.Address, backend bind.ContractBackend, signer *crypto.Signer) (*ArbContract, error) {
	parsed, err := abi.JSON(strings.NewReader(arbContractABI))
	if err != nil {
		return nil, fmt.Errorf("chain: parse contract abi: %w", err)
	}
	return &ArbContract{
		address: address,
		abi:     parsed,
		bound:   bind.NewBoundContract(address, parsed, backend, backend, backend),
		signer:  signer,
	}, nil
}

// Address returns the deployed contract address.
func (c *ArbContract) Address() common.Address {
	return c.address
}

// EstimateProfit calls the read-only estimator for the given route and input
// amount. Failures wrap domain.ErrEstimationFailed so the decision engine can
// treat them uniformly.
func (c *ArbContract) EstimateProfit(ctx context.Context, path []common.Address, amountIn *big.Int) (*Estimate, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := c.bound.Call(opts, &out, "estimateProfit", path, amountIn); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEstimationFailed, err)
	}

	amountOut := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	profit := *abi.ConvertType(out[1], new(*big.Int)).(**big.Int)
	profitUsdRaw := *abi.ConvertType(out[2], new(*big.Int)).(**big.Int)

	usd, _ := new(big.Float).Quo(new(big.Float).SetInt(profitUsdRaw), profitUsdScale).Float64()
	return &Estimate{
		AmountOut: amountOut,
		Profit:    profit,
		ProfitUSD: usd,
	}, nil
}

// GetBalance returns the contract's balance of the given token.
func (c *ArbContract) GetBalance(ctx context.Context, token common.Address) (*big.Int, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := c.bound.Call(opts, &out, "getBalance", token); err != nil {
		return nil, fmt.Errorf("chain: getBalance(%s): %w", token.Hex(), err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// GetRiskParams reads the contract's on-chain risk thresholds.
func (c *ArbContract) GetRiskParams(ctx context.Context) (minProfitUSD, maxGasPriceGwei *big.Int, err error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := c.bound.Call(opts, &out, "getRiskParams"); err != nil {
		return nil, nil, fmt.Errorf("chain: getRiskParams: %w", err)
	}
	minProfitUSD = *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	maxGasPriceGwei = *abi.ConvertType(out[1], new(*big.Int)).(**big.Int)
	return minProfitUSD, maxGasPriceGwei, nil
}

// Deposit moves tokens from the caller into the contract's working balance.
func (c *ArbContract) Deposit(ctx context.Context, token common.Address, amount *big.Int) (*types.Transaction, error) {
	opts, err := c.transactOpts(ctx, false)
	if err != nil {
		return nil, err
	}
	tx, err := c.bound.Transact(opts, "deposit", token, amount)
	if err != nil {
		return nil, fmt.Errorf("chain: deposit: %w", err)
	}
	return tx, nil
}

// UpdateRiskParams writes new on-chain risk thresholds.
func (c *ArbContract) UpdateRiskParams(ctx context.Context, minProfitUSD, maxGasPriceGwei *big.Int) (*types.Transaction, error) {
	opts, err := c.transactOpts(ctx, false)
	if err != nil {
		return nil, err
	}
	tx, err := c.bound.Transact(opts, "updateRiskParams", minProfitUSD, maxGasPriceGwei)
	if err != nil {
		return nil, fmt.Errorf("chain: updateRiskParams: %w", err)
	}
	return tx, nil
}

// TradeParams carries the directional trade arguments. Direction selects
// which venue's router handles the first leg.
type TradeParams struct {
	TokenIn      common.Address
	TokenOut     common.Address
	AmountIn     *big.Int
	Path         []common.Address
	FeeTier      *big.Int // Uniswap V3 fee tier (uint24)
	MinAmountOut *big.Int
	V3First      bool
}

// BuildTrade creates a signed, unsent directional trade transaction, ready
// for bundle submission to a relay.
func (c *ArbContract) BuildTrade(ctx context.Context, p TradeParams) (*types.Transaction, error) {
	opts, err := c.transactOpts(ctx, true)
	if err != nil {
		return nil, err
	}
	method := "executeV2ToV3Trade"
	if p.V3First {
		method = "executeV3ToV2Trade"
	}
	tx, err := c.bound.Transact(opts, method, p.TokenIn, p.TokenOut, p.AmountIn, p.Path, p.FeeTier, p.MinAmountOut)
	if err != nil {
		return nil, fmt.Errorf("chain: %s: %w", method, err)
	}
	return tx, nil
}

// FlashLoanParams carries the borrowed-capital trade arguments.
type FlashLoanParams struct {
	Asset        common.Address
	Amount       *big.Int
	TradePercent *big.Int
	Path         []common.Address
	MinAmountOut *big.Int
	RouteHash    common.Hash
}

// BuildFlashLoan creates a signed, unsent flash-loan transaction, ready for
// bundle submission to a relay.
func (c *ArbContract) BuildFlashLoan(ctx context.Context, p FlashLoanParams) (*types.Transaction, error) {
	opts, err := c.transactOpts(ctx, true)
	if err != nil {
		return nil, err
	}
	tx, err := c.bound.Transact(opts, "startFlashLoan", p.Asset, p.Amount, p.TradePercent, p.Path, p.MinAmountOut, p.RouteHash)
	if err != nil {
		return nil, fmt.Errorf("chain: startFlashLoan: %w", err)
	}
	return tx, nil
}

// OwnCapitalTrade creates a signed, unsent trade funded by the contract's
// own balance. This is the last-resort execution path when both relays
// reject the bundle; the caller broadcasts it through the public mempool.
func (c *ArbContract) OwnCapitalTrade(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, minAmountOut *big.Int) (*types.Transaction, error) {
	opts, err := c.transactOpts(ctx, true)
	if err != nil {
		return nil, err
	}
	tx, err := c.bound.Transact(opts, "executeOwnCapitalTrade", tokenIn, tokenOut, amountIn, minAmountOut)
	if err != nil {
		return nil, fmt.Errorf("chain: executeOwnCapitalTrade: %w", err)
	}
	return tx, nil
}

// transactOpts builds signing options from the bound signer. noSend keeps the
// signed transaction local for relay bundling instead of broadcasting it.
func (c *ArbContract) transactOpts(ctx context.Context, noSend bool) (*bind.TransactOpts, error) {
	if c.signer == nil {
		return nil, fmt.Errorf("chain: no signer bound, contract is read-only")
	}
	return &bind.TransactOpts{
		From: c.signer.Address(),
		Signer: func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
			if addr != c.signer.Address() {
				return nil, bind.ErrNotAuthorized
			}
			return c.signer.SignTx(tx)
		},
		Context: ctx,
		NoSend:  noSend,
	}, nil
}
