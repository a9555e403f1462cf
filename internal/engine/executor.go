package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"math/rand"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/alanyoungcy/dexhunter/internal/chain"
	"github.com/alanyoungcy/dexhunter/internal/config"
	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// Trade-percent bounds for flash-loan attempts. The executed share of the
// borrowed amount is randomized per attempt so the contract's trades do not
// leave a constant-size footprint.
const (
	tradePercentMin  = 50
	tradePercentSpan = 22 // yields 50..71 inclusive
)

// TradeBuilder is the transactional contract surface the executor needs.
type TradeBuilder interface {
	BuildTrade(ctx context.Context, p chain.TradeParams) (*types.Transaction, error)
	BuildFlashLoan(ctx context.Context, p chain.FlashLoanParams) (*types.Transaction, error)
	OwnCapitalTrade(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, minAmountOut *big.Int) (*types.Transaction, error)
}

// Relay accepts signed transaction bundles.
type Relay interface {
	SendBundle(ctx context.Context, txs []*types.Transaction, headBlock uint64) (string, error)
	URL() string
}

// Node is the node surface the executor needs: head tracking for bundle
// targeting, mempool broadcast for the own-capital fallback, and receipt
// confirmation.
type Node interface {
	BlockNumber(ctx context.Context) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	WaitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Executor submits approved plans: primary relay first, secondary relay on
// rejection, and an own-capital trade through the public mempool as the last
// resort. A submitted transaction cannot be rolled back, so no path retries
// after a confirmed failure.
type Executor struct {
	contract  TradeBuilder
	node      Node
	primary   Relay
	secondary Relay
	ledger    *UsageLedger

	flashAmount *big.Int
	feeTier     *big.Int

	rng    *rand.Rand
	logger *slog.Logger
}

// NewExecutor creates an Executor. secondary may be nil to disable the
// fallback relay.
func NewExecutor(contract TradeBuilder, node Node, primary, secondary Relay, ledger *UsageLedger, engineCfg config.EngineConfig, rotationCfg config.RotationConfig, logger *slog.Logger) (*Executor, error) {
	flashAmount, ok := new(big.Int).SetString(rotationCfg.FlashLoanAmountWei, 10)
	if !ok {
		return nil, fmt.Errorf("engine: invalid flash_loan_amount_wei %q", rotationCfg.FlashLoanAmountWei)
	}
	return &Executor{
		contract:    contract,
		node:        node,
		primary:     primary,
		secondary:   secondary,
		ledger:      ledger,
		flashAmount: flashAmount,
		feeTier:     big.NewInt(engineCfg.UniswapFeeTier),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:      logger.With(slog.String("component", "executor")),
	}, nil
}

// Execute runs the submission pipeline for an approved plan and returns the
// terminal result. The plan's state is updated to Executed or Failed.
func (x *Executor) Execute(ctx context.Context, plan *domain.ExecutionPlan) domain.ExecutionResult {
	result := domain.ExecutionResult{
		PlanID:      plan.ID,
		SubmittedAt: time.Now(),
	}

	bundleTx, err := x.buildBundleTx(ctx, plan)
	if err != nil {
		plan.State = domain.PlanFailed
		result.Failure = domain.ClassifyRevert(err.Error())
		x.logger.Error("bundle build failed",
			slog.String("plan_id", plan.ID),
			slog.String("error", err.Error()),
		)
		return result
	}

	// Relay paths: primary, then secondary.
	for _, attempt := range []struct {
		relay Relay
		via   domain.ExecutionPath
	}{
		{x.primary, domain.PathPrimaryRelay},
		{x.secondary, domain.PathSecondaryRelay},
	} {
		if attempt.relay == nil {
			continue
		}
		bundleID, err := x.submitBundle(ctx, attempt.relay, bundleTx)
		if err != nil {
			x.logger.Warn("relay submission failed",
				slog.String("plan_id", plan.ID),
				slog.String("via", string(attempt.via)),
				slog.String("relay", attempt.relay.URL()),
				slog.String("error", err.Error()),
			)
			continue
		}

		plan.State = domain.PlanExecuted
		x.ledger.RecordUse(plan.Route)
		result.Success = true
		result.Via = attempt.via
		result.BundleID = bundleID
		result.TxHash = bundleTx.Hash().Hex()
		x.logger.Info("bundle submitted",
			slog.String("plan_id", plan.ID),
			slog.String("via", string(attempt.via)),
			slog.String("bundle_id", bundleID),
		)
		return result
	}

	// Last resort: trade the contract's own balance through the public
	// mempool with half the borrowed-path amount.
	return x.ownCapital(ctx, plan, result)
}

// buildBundleTx creates the signed, unsent transaction for the relay bundle.
// Direct 2-hop routes use the directional trade entry point; deeper routes
// borrow via flash loan.
func (x *Executor) buildBundleTx(ctx context.Context, plan *domain.ExecutionPlan) (*types.Transaction, error) {
	path := routeAddresses(plan.Route)
	if len(path) < 2 {
		return nil, fmt.Errorf("engine: route needs at least two hops, got %d", len(path))
	}

	if plan.Route.HopCount == 2 {
		return x.contract.BuildTrade(ctx, chain.TradeParams{
			TokenIn:      path[0],
			TokenOut:     path[len(path)-1],
			AmountIn:     plan.TradeAmount,
			Path:         path,
			FeeTier:      x.feeTier,
			MinAmountOut: plan.MinAmountOut,
			V3First:      buysOnV3(plan.Opportunity.BuyVenue),
		})
	}

	tradePercent := big.NewInt(int64(tradePercentMin + x.rng.Intn(tradePercentSpan)))
	return x.contract.BuildFlashLoan(ctx, chain.FlashLoanParams{
		Asset:        path[0],
		Amount:       x.flashAmount,
		TradePercent: tradePercent,
		Path:         path,
		MinAmountOut: plan.MinAmountOut,
		RouteHash:    plan.Route.Hash(),
	})
}

// submitBundle targets the block after the current head.
func (x *Executor) submitBundle(ctx context.Context, relay Relay, tx *types.Transaction) (string, error) {
	head, err := x.node.BlockNumber(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrRelayRejected, err)
	}
	return relay.SendBundle(ctx, []*types.Transaction{tx}, head)
}

// ownCapital executes the fallback trade and waits for its receipt. The
// minimum output is the plan's output floor rescaled to the fallback input
// size, so it stays denominated in the output token.
func (x *Executor) ownCapital(ctx context.Context, plan *domain.ExecutionPlan, result domain.ExecutionResult) domain.ExecutionResult {
	result.Via = domain.PathOwnCapital

	path := routeAddresses(plan.Route)
	amount := new(big.Int).Div(x.flashAmount, big.NewInt(2))

	if plan.TradeAmount == nil || plan.TradeAmount.Sign() <= 0 || plan.MinAmountOut == nil {
		plan.State = domain.PlanFailed
		result.Failure = domain.FailureUncategorized
		x.logger.Error("own-capital sizing unavailable, plan has no output floor",
			slog.String("plan_id", plan.ID),
		)
		return result
	}
	minOut := new(big.Int).Div(new(big.Int).Mul(plan.MinAmountOut, amount), plan.TradeAmount)

	tx, err := x.contract.OwnCapitalTrade(ctx, path[0], path[len(path)-1], amount, minOut)
	if err != nil {
		plan.State = domain.PlanFailed
		result.Failure = domain.ClassifyRevert(err.Error())
		x.logger.Error("own-capital trade failed",
			slog.String("plan_id", plan.ID),
			slog.String("failure", string(result.Failure)),
			slog.String("error", err.Error()),
		)
		return result
	}

	result.TxHash = tx.Hash().Hex()

	if err := x.node.SendTransaction(ctx, tx); err != nil {
		plan.State = domain.PlanFailed
		result.Failure = domain.ClassifyRevert(err.Error())
		x.logger.Error("own-capital broadcast failed",
			slog.String("plan_id", plan.ID),
			slog.String("tx", tx.Hash().Hex()),
			slog.String("error", err.Error()),
		)
		return result
	}

	receipt, err := x.node.WaitReceipt(ctx, tx.Hash())
	if err != nil {
		plan.State = domain.PlanFailed
		result.Failure = domain.FailureUncategorized
		x.logger.Error("own-capital receipt wait failed",
			slog.String("plan_id", plan.ID),
			slog.String("tx", tx.Hash().Hex()),
			slog.String("error", err.Error()),
		)
		return result
	}

	result.BlockNumber = receipt.BlockNumber.Uint64()
	if receipt.Status != types.ReceiptStatusSuccessful {
		plan.State = domain.PlanFailed
		result.Failure = domain.FailureUncategorized
		x.logger.Error("own-capital trade reverted",
			slog.String("plan_id", plan.ID),
			slog.String("tx", tx.Hash().Hex()),
		)
		return result
	}

	plan.State = domain.PlanExecuted
	x.ledger.RecordUse(plan.Route)
	result.Success = true
	x.logger.Info("own-capital trade confirmed",
		slog.String("plan_id", plan.ID),
		slog.String("tx", tx.Hash().Hex()),
		slog.Uint64("block", result.BlockNumber),
	)
	return result
}

// buysOnV3 reports whether the buy side is a Uniswap V3 pool, which selects
// the V3-first directional entry point.
func buysOnV3(buyVenue string) bool {
	return strings.Contains(strings.ToLower(buyVenue), "uniswap")
}
