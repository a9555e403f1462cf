// Package engine contains the execution side of the bot: the per-opportunity
// decision state machine, the relay-then-fallback execution pipeline, the
// route rotation scheduler, and the periodic drivers that tie them together.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/alanyoungcy/dexhunter/internal/chain"
	"github.com/alanyoungcy/dexhunter/internal/config"
	"github.com/alanyoungcy/dexhunter/internal/domain"
)

// Estimator is the read-only contract surface the decision engine needs.
type Estimator interface {
	EstimateProfit(ctx context.Context, path []common.Address, amountIn *big.Int) (*chain.Estimate, error)
	GetBalance(ctx context.Context, token common.Address) (*big.Int, error)
}

// GasOracle reports the network's current gas price.
type GasOracle interface {
	GasPriceGwei(ctx context.Context) (float64, error)
}

// DecisionEngine walks one opportunity through the per-cycle state machine
// Candidate -> Estimated -> {GatedSkip | Approved} -> handed to the executor.
// Nothing is retried within a cycle; the next scan re-evaluates from scratch.
type DecisionEngine struct {
	contract Estimator
	gas      GasOracle
	cfg      config.EngineConfig

	tradeCap    *big.Int
	probeAmount *big.Int

	logger *slog.Logger
}

// NewDecisionEngine creates a DecisionEngine. It fails if the wei-denominated
// config amounts do not parse.
func NewDecisionEngine(contract Estimator, gas GasOracle, cfg config.EngineConfig, logger *slog.Logger) (*DecisionEngine, error) {
	tradeCap, ok := new(big.Int).SetString(cfg.TradeCapWei, 10)
	if !ok {
		return nil, fmt.Errorf("engine: invalid trade_cap_wei %q", cfg.TradeCapWei)
	}
	probe, ok := new(big.Int).SetString(cfg.ProbeAmountWei, 10)
	if !ok {
		return nil, fmt.Errorf("engine: invalid probe_amount_wei %q", cfg.ProbeAmountWei)
	}
	return &DecisionEngine{
		contract:    contract,
		gas:         gas,
		cfg:         cfg,
		tradeCap:    tradeCap,
		probeAmount: probe,
		logger:      logger.With(slog.String("component", "decision")),
	}, nil
}

// Evaluate runs the gate sequence for one opportunity over the given route
// and returns the resulting plan. The cheap local gates run before any
// on-chain call; an estimator failure yields a Failed plan that is discarded
// for this cycle.
func (e *DecisionEngine) Evaluate(ctx context.Context, opp domain.Opportunity, route domain.TradeRoute) *domain.ExecutionPlan {
	plan := &domain.ExecutionPlan{
		ID:          uuid.NewString(),
		Opportunity: opp,
		Route:       route,
		State:       domain.PlanCandidate,
		CreatedAt:   time.Now(),
	}

	// Local gates first, no on-chain traffic for hopeless candidates.
	if opp.PriceDiffPct < e.cfg.MinPriceDiffPct {
		return e.gateSkip(plan, fmt.Sprintf("price diff %.3f%% below %.3f%%", opp.PriceDiffPct, e.cfg.MinPriceDiffPct))
	}
	if opp.CompetitionScore > e.cfg.MaxCompetitionScore {
		return e.gateSkip(plan, fmt.Sprintf("competition %.1f above %.1f", opp.CompetitionScore, e.cfg.MaxCompetitionScore))
	}

	path := routeAddresses(route)

	// Probe estimate with a small fixed amount.
	probe, err := e.contract.EstimateProfit(ctx, path, e.probeAmount)
	if err != nil {
		plan.State = domain.PlanFailed
		plan.Decision = domain.DecisionSkip
		plan.SkipReason = err.Error()
		e.logger.Warn("probe estimate failed",
			slog.String("plan_id", plan.ID),
			slog.String("pair", opp.TokenPairKey),
			slog.String("error", err.Error()),
		)
		return plan
	}
	plan.State = domain.PlanEstimated
	plan.ProfitUSD = probe.ProfitUSD

	if probe.ProfitUSD < e.cfg.MinProfitUSD {
		return e.gateSkip(plan, fmt.Sprintf("profit $%.2f below $%.2f", probe.ProfitUSD, e.cfg.MinProfitUSD))
	}

	gasGwei, err := e.gas.GasPriceGwei(ctx)
	if err != nil {
		plan.State = domain.PlanFailed
		plan.Decision = domain.DecisionSkip
		plan.SkipReason = err.Error()
		return plan
	}
	plan.GasPriceGwei = gasGwei
	if gasGwei > e.cfg.MaxGasPriceGwei {
		return e.gateSkip(plan, fmt.Sprintf("gas %.2f gwei above %.2f", gasGwei, e.cfg.MaxGasPriceGwei))
	}

	// Approved: size the trade from the contract's working balance.
	entry := common.HexToAddress(route.First())
	balance, err := e.contract.GetBalance(ctx, entry)
	if err != nil {
		plan.State = domain.PlanFailed
		plan.Decision = domain.DecisionSkip
		plan.SkipReason = err.Error()
		return plan
	}
	if balance.Sign() == 0 {
		return e.gateSkip(plan, domain.ErrNoContractFunds.Error())
	}

	plan.TradeAmount = tradeSize(balance, e.tradeCap)

	// Re-estimate with the real amount for the output figure.
	real, err := e.contract.EstimateProfit(ctx, path, plan.TradeAmount)
	if err != nil {
		plan.State = domain.PlanFailed
		plan.Decision = domain.DecisionSkip
		plan.SkipReason = err.Error()
		return plan
	}
	plan.ExpectedOutput = real.AmountOut
	plan.ProfitUSD = real.ProfitUSD
	plan.MinAmountOut = applySlippage(real.AmountOut, e.cfg.SlippageBps)

	plan.State = domain.PlanApproved
	plan.Decision = domain.DecisionExecute

	e.logger.Info("plan approved",
		slog.String("plan_id", plan.ID),
		slog.String("pair", opp.TokenPairKey),
		slog.String("amount_wei", plan.TradeAmount.String()),
		slog.Float64("profit_usd", plan.ProfitUSD),
		slog.Float64("gas_gwei", plan.GasPriceGwei),
	)
	return plan
}

// gateSkip marks a plan rejected by an economic gate. Gate skips are
// informational, not errors.
func (e *DecisionEngine) gateSkip(plan *domain.ExecutionPlan, reason string) *domain.ExecutionPlan {
	plan.State = domain.PlanGatedSkip
	plan.Decision = domain.DecisionSkip
	plan.SkipReason = reason
	e.logger.Info("plan gated",
		slog.String("plan_id", plan.ID),
		slog.String("pair", plan.Opportunity.TokenPairKey),
		slog.String("reason", reason),
	)
	return plan
}

// tradeSize returns min(10% of balance, cap).
func tradeSize(balance, cap *big.Int) *big.Int {
	size := new(big.Int).Div(balance, big.NewInt(10))
	if size.Cmp(cap) > 0 {
		return new(big.Int).Set(cap)
	}
	return size
}

// applySlippage returns amount * (10000 - bps) / 10000.
func applySlippage(amount *big.Int, bps int64) *big.Int {
	out := new(big.Int).Mul(amount, big.NewInt(10_000-bps))
	return out.Div(out, big.NewInt(10_000))
}

// routeAddresses converts the route's hex path into checksummed addresses.
func routeAddresses(route domain.TradeRoute) []common.Address {
	addrs := make([]common.Address, 0, len(route.Path))
	for _, hop := range route.Path {
		addrs = append(addrs, common.HexToAddress(hop))
	}
	return addrs
}
