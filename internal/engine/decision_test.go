package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/dexhunter/internal/chain"
	"github.com/alanyoungcy/dexhunter/internal/config"
	"github.com/alanyoungcy/dexhunter/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// fakeContract scripts the estimator and balance responses and records how
// many estimate calls were made.
type fakeContract struct {
	estimates     []*chain.Estimate
	estimateErr   error
	estimateCalls int
	balance       *big.Int
	balanceErr    error
}

func (f *fakeContract) EstimateProfit(_ context.Context, _ []common.Address, _ *big.Int) (*chain.Estimate, error) {
	if f.estimateErr != nil {
		return nil, f.estimateErr
	}
	idx := f.estimateCalls
	f.estimateCalls++
	if idx >= len(f.estimates) {
		idx = len(f.estimates) - 1
	}
	return f.estimates[idx], nil
}

func (f *fakeContract) GetBalance(context.Context, common.Address) (*big.Int, error) {
	return f.balance, f.balanceErr
}

type fakeGas struct {
	gwei float64
	err  error
}

func (f fakeGas) GasPriceGwei(context.Context) (float64, error) {
	return f.gwei, f.err
}

func testOpportunity() domain.Opportunity {
	return domain.Opportunity{
		TokenPairKey:     "0xaaa-0xbbb",
		BaseToken:        domain.Token{Address: "0xaaa", Symbol: "OBSC"},
		QuoteToken:       domain.Token{Address: "0xbbb", Symbol: "MYST"},
		BuyVenue:         "uniswap",
		SellVenue:        "aerodrome",
		PriceDiffPct:     3.0,
		CompetitionScore: 100,
	}
}

func testRoute() domain.TradeRoute {
	return domain.NewTradeRoute("0xaaa", "0xbbb")
}

func newTestEngine(t *testing.T, contract *fakeContract, gas GasOracle) *DecisionEngine {
	t.Helper()
	e, err := NewDecisionEngine(contract, gas, config.Defaults().Engine, discardLogger())
	require.NoError(t, err)
	return e
}

func TestEvaluateRejectsHighCompetitionBeforeAnyCall(t *testing.T) {
	contract := &fakeContract{}
	e := newTestEngine(t, contract, fakeGas{gwei: 1})

	opp := testOpportunity()
	opp.CompetitionScore = 250

	plan := e.Evaluate(context.Background(), opp, testRoute())
	assert.Equal(t, domain.PlanGatedSkip, plan.State)
	assert.Equal(t, domain.DecisionSkip, plan.Decision)
	assert.Zero(t, contract.estimateCalls, "no on-chain call before local gates")
}

func TestEvaluateRejectsDiffBelowFloorBeforeAnyCall(t *testing.T) {
	contract := &fakeContract{}
	e := newTestEngine(t, contract, fakeGas{gwei: 1})

	opp := testOpportunity()
	opp.PriceDiffPct = 0.4

	plan := e.Evaluate(context.Background(), opp, testRoute())
	assert.Equal(t, domain.PlanGatedSkip, plan.State)
	assert.Zero(t, contract.estimateCalls)
}

func TestEvaluateSkipsOnLowProfit(t *testing.T) {
	contract := &fakeContract{
		estimates: []*chain.Estimate{{AmountOut: big.NewInt(1), Profit: big.NewInt(1), ProfitUSD: 1.50}},
		balance:   big.NewInt(1_000_000),
	}
	e := newTestEngine(t, contract, fakeGas{gwei: 1})

	plan := e.Evaluate(context.Background(), testOpportunity(), testRoute())
	assert.Equal(t, domain.PlanGatedSkip, plan.State)
	assert.Equal(t, domain.DecisionSkip, plan.Decision)
	assert.Contains(t, plan.SkipReason, "profit")
	assert.Equal(t, 1, contract.estimateCalls, "probe only, no re-estimate")
}

func TestEvaluateSkipsOnHighGas(t *testing.T) {
	contract := &fakeContract{
		estimates: []*chain.Estimate{{AmountOut: big.NewInt(1), Profit: big.NewInt(1), ProfitUSD: 5}},
		balance:   big.NewInt(1_000_000),
	}
	e := newTestEngine(t, contract, fakeGas{gwei: 3.5})

	plan := e.Evaluate(context.Background(), testOpportunity(), testRoute())
	assert.Equal(t, domain.PlanGatedSkip, plan.State)
	assert.Contains(t, plan.SkipReason, "gas")
}

func TestEvaluateFailsLocallyOnEstimatorError(t *testing.T) {
	contract := &fakeContract{estimateErr: errors.New("execution reverted")}
	e := newTestEngine(t, contract, fakeGas{gwei: 1})

	plan := e.Evaluate(context.Background(), testOpportunity(), testRoute())
	assert.Equal(t, domain.PlanFailed, plan.State)
	assert.Equal(t, domain.DecisionSkip, plan.Decision)
}

func TestEvaluateApprovesAndSizesTrade(t *testing.T) {
	// Balance of 50e15: 10% = 5e15, below the 1e16 cap.
	contract := &fakeContract{
		estimates: []*chain.Estimate{
			{AmountOut: big.NewInt(100), Profit: big.NewInt(1), ProfitUSD: 5},
			{AmountOut: big.NewInt(1_000_000), Profit: big.NewInt(2), ProfitUSD: 6},
		},
		balance: big.NewInt(50_000_000_000_000_000),
	}
	e := newTestEngine(t, contract, fakeGas{gwei: 1})

	plan := e.Evaluate(context.Background(), testOpportunity(), testRoute())
	require.Equal(t, domain.PlanApproved, plan.State)
	assert.Equal(t, domain.DecisionExecute, plan.Decision)
	assert.Equal(t, "5000000000000000", plan.TradeAmount.String())
	assert.Equal(t, int64(1_000_000), plan.ExpectedOutput.Int64())
	// minAmountOut = expected * 95%.
	assert.Equal(t, int64(950_000), plan.MinAmountOut.Int64())
	assert.InDelta(t, 6.0, plan.ProfitUSD, 1e-9)
	assert.Equal(t, 2, contract.estimateCalls)
}

func TestEvaluateTradeSizeRespectsCap(t *testing.T) {
	// Huge balance: 10% exceeds the cap, so the cap wins.
	contract := &fakeContract{
		estimates: []*chain.Estimate{
			{AmountOut: big.NewInt(100), Profit: big.NewInt(1), ProfitUSD: 5},
			{AmountOut: big.NewInt(100), Profit: big.NewInt(1), ProfitUSD: 5},
		},
		balance: new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1_000_000_000_000_000)),
	}
	e := newTestEngine(t, contract, fakeGas{gwei: 1})

	plan := e.Evaluate(context.Background(), testOpportunity(), testRoute())
	require.Equal(t, domain.PlanApproved, plan.State)
	assert.Equal(t, "10000000000000000", plan.TradeAmount.String())
}

func TestEvaluateSkipsOnEmptyContractBalance(t *testing.T) {
	contract := &fakeContract{
		estimates: []*chain.Estimate{{AmountOut: big.NewInt(100), Profit: big.NewInt(1), ProfitUSD: 5}},
		balance:   big.NewInt(0),
	}
	e := newTestEngine(t, contract, fakeGas{gwei: 1})

	plan := e.Evaluate(context.Background(), testOpportunity(), testRoute())
	assert.Equal(t, domain.PlanGatedSkip, plan.State)
	assert.Equal(t, domain.ErrNoContractFunds.Error(), plan.SkipReason)
}

func TestApplySlippage(t *testing.T) {
	assert.Equal(t, int64(95), applySlippage(big.NewInt(100), 500).Int64())
	assert.Equal(t, int64(100), applySlippage(big.NewInt(100), 0).Int64())
}
