package engine

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/dexhunter/internal/chain"
	"github.com/alanyoungcy/dexhunter/internal/config"
	"github.com/alanyoungcy/dexhunter/internal/domain"
)

func unsentTx(nonce uint64) *types.Transaction {
	to := common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(8453),
		Nonce:     nonce,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       300_000,
		To:        &to,
	})
}

// fakeBuilder records which contract entry point was used.
type fakeBuilder struct {
	tradeCalls     int
	flashCalls     int
	ownCalls       int
	lastOwnAmount  *big.Int
	lastOwnMinOut  *big.Int
	lastFlashHash  common.Hash
	ownCapitalErr  error
	lastTradeV3    bool
	lastTradePath  []common.Address
	lastFlashAsset common.Address
}

func (f *fakeBuilder) BuildTrade(_ context.Context, p chain.TradeParams) (*types.Transaction, error) {
	f.tradeCalls++
	f.lastTradeV3 = p.V3First
	f.lastTradePath = p.Path
	return unsentTx(1), nil
}

func (f *fakeBuilder) BuildFlashLoan(_ context.Context, p chain.FlashLoanParams) (*types.Transaction, error) {
	f.flashCalls++
	f.lastFlashHash = p.RouteHash
	f.lastFlashAsset = p.Asset
	return unsentTx(2), nil
}

func (f *fakeBuilder) OwnCapitalTrade(_ context.Context, _, _ common.Address, amountIn, minAmountOut *big.Int) (*types.Transaction, error) {
	f.ownCalls++
	f.lastOwnAmount = amountIn
	f.lastOwnMinOut = minAmountOut
	if f.ownCapitalErr != nil {
		return nil, f.ownCapitalErr
	}
	return unsentTx(3), nil
}

type fakeNode struct {
	head          uint64
	receiptStatus uint64
	receiptErr    error
	sendErr       error
	sentTxs       int
}

func (f *fakeNode) BlockNumber(context.Context) (uint64, error) {
	return f.head, nil
}

func (f *fakeNode) SendTransaction(_ context.Context, _ *types.Transaction) error {
	f.sentTxs++
	return f.sendErr
}

func (f *fakeNode) WaitReceipt(_ context.Context, _ common.Hash) (*types.Receipt, error) {
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	return &types.Receipt{Status: f.receiptStatus, BlockNumber: big.NewInt(1001)}, nil
}

type fakeRelay struct {
	url      string
	bundleID string
	err      error
	calls    int
}

func (f *fakeRelay) SendBundle(context.Context, []*types.Transaction, uint64) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.bundleID, nil
}

func (f *fakeRelay) URL() string { return f.url }

func approvedPlan(route domain.TradeRoute) *domain.ExecutionPlan {
	return &domain.ExecutionPlan{
		ID:             "plan-1",
		Opportunity:    testOpportunity(),
		Route:          route,
		TradeAmount:    big.NewInt(5_000),
		ExpectedOutput: big.NewInt(10_000),
		MinAmountOut:   big.NewInt(9_500),
		State:          domain.PlanApproved,
		Decision:       domain.DecisionExecute,
	}
}

func newTestExecutor(t *testing.T, builder TradeBuilder, node Node, primary, secondary Relay, ledger *UsageLedger) *Executor {
	t.Helper()
	cfg := config.Defaults()
	x, err := NewExecutor(builder, node, primary, secondary, ledger, cfg.Engine, cfg.Rotation, discardLogger())
	require.NoError(t, err)
	return x
}

func TestExecutePrimaryRelaySucceeds(t *testing.T) {
	builder := &fakeBuilder{}
	primary := &fakeRelay{url: "primary", bundleID: "0xbundle"}
	secondary := &fakeRelay{url: "secondary"}
	ledger := NewUsageLedger()
	x := newTestExecutor(t, builder, &fakeNode{head: 1000}, primary, secondary, ledger)

	plan := approvedPlan(testRoute())
	result := x.Execute(context.Background(), plan)

	assert.True(t, result.Success)
	assert.Equal(t, domain.PathPrimaryRelay, result.Via)
	assert.Equal(t, "0xbundle", result.BundleID)
	assert.Equal(t, domain.PlanExecuted, plan.State)
	assert.Zero(t, secondary.calls)
	assert.Zero(t, builder.ownCalls)
	assert.Equal(t, uint64(1), ledger.Count(plan.Route.Hash()))
}

func TestExecuteFallsBackToSecondaryRelay(t *testing.T) {
	builder := &fakeBuilder{}
	primary := &fakeRelay{url: "primary", err: domain.ErrRelayRejected}
	secondary := &fakeRelay{url: "secondary", bundleID: "0xsecond"}
	x := newTestExecutor(t, builder, &fakeNode{head: 1000}, primary, secondary, NewUsageLedger())

	plan := approvedPlan(testRoute())
	result := x.Execute(context.Background(), plan)

	assert.True(t, result.Success)
	assert.Equal(t, domain.PathSecondaryRelay, result.Via)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
	assert.Zero(t, builder.ownCalls)
}

func TestExecuteFallsBackToOwnCapital(t *testing.T) {
	builder := &fakeBuilder{}
	primary := &fakeRelay{url: "primary", err: domain.ErrRelayRejected}
	secondary := &fakeRelay{url: "secondary", err: domain.ErrRelayRejected}
	node := &fakeNode{head: 1000, receiptStatus: types.ReceiptStatusSuccessful}
	ledger := NewUsageLedger()
	x := newTestExecutor(t, builder, node, primary, secondary, ledger)

	plan := approvedPlan(testRoute())
	result := x.Execute(context.Background(), plan)

	assert.True(t, result.Success)
	assert.Equal(t, domain.PathOwnCapital, result.Via)
	assert.Equal(t, uint64(1001), result.BlockNumber)
	assert.Equal(t, domain.PlanExecuted, plan.State)
	assert.Equal(t, 1, builder.ownCalls)
	// Own-capital trades commit half the borrowed-path amount.
	assert.Equal(t, "500000000000000000", builder.lastOwnAmount.String())
	// The trade is broadcast through the node, not by the contract binding.
	assert.Equal(t, 1, node.sentTxs)
	assert.Equal(t, uint64(1), ledger.Count(plan.Route.Hash()))
}

func TestOwnCapitalMinOutTracksPlanOutput(t *testing.T) {
	builder := &fakeBuilder{}
	primary := &fakeRelay{url: "primary", err: domain.ErrRelayRejected}
	node := &fakeNode{head: 1000, receiptStatus: types.ReceiptStatusSuccessful}
	x := newTestExecutor(t, builder, node, primary, nil, NewUsageLedger())

	// Plan: 5_000 in, floor 9_500 out. The fallback trades 5e17 in, so the
	// floor rescales to 9_500 * 5e17 / 5_000 and stays output-denominated.
	plan := approvedPlan(testRoute())
	x.Execute(context.Background(), plan)

	require.NotNil(t, builder.lastOwnMinOut)
	assert.Equal(t, "950000000000000000", builder.lastOwnMinOut.String())
}

func TestOwnCapitalBroadcastFailure(t *testing.T) {
	builder := &fakeBuilder{}
	primary := &fakeRelay{url: "primary", err: domain.ErrRelayRejected}
	node := &fakeNode{head: 1000, sendErr: errors.New("execution reverted: SLIPPAGE")}
	ledger := NewUsageLedger()
	x := newTestExecutor(t, builder, node, primary, nil, ledger)

	plan := approvedPlan(testRoute())
	result := x.Execute(context.Background(), plan)

	assert.False(t, result.Success)
	assert.Equal(t, domain.PathOwnCapital, result.Via)
	assert.Equal(t, domain.FailureSlippage, result.Failure)
	assert.Equal(t, domain.PlanFailed, plan.State)
	assert.Zero(t, ledger.Count(plan.Route.Hash()))
}

func TestExecuteAllPathsFail(t *testing.T) {
	builder := &fakeBuilder{ownCapitalErr: errors.New("execution reverted: LOW_PROFIT")}
	primary := &fakeRelay{url: "primary", err: domain.ErrRelayRejected}
	secondary := &fakeRelay{url: "secondary", err: domain.ErrRelayRejected}
	ledger := NewUsageLedger()
	x := newTestExecutor(t, builder, &fakeNode{head: 1000}, primary, secondary, ledger)

	plan := approvedPlan(testRoute())
	result := x.Execute(context.Background(), plan)

	assert.False(t, result.Success)
	assert.Equal(t, domain.PathOwnCapital, result.Via)
	assert.Equal(t, domain.FailureLowProfit, result.Failure)
	assert.Equal(t, domain.PlanFailed, plan.State)
	assert.Zero(t, ledger.Count(plan.Route.Hash()), "failed trades leave no usage fingerprint")
}

func TestExecuteRevertedOwnCapitalReceipt(t *testing.T) {
	builder := &fakeBuilder{}
	primary := &fakeRelay{url: "primary", err: domain.ErrRelayRejected}
	node := &fakeNode{head: 1000, receiptStatus: types.ReceiptStatusFailed}
	x := newTestExecutor(t, builder, node, primary, nil, NewUsageLedger())

	plan := approvedPlan(testRoute())
	result := x.Execute(context.Background(), plan)

	assert.False(t, result.Success)
	assert.Equal(t, domain.FailureUncategorized, result.Failure)
	assert.Equal(t, domain.PlanFailed, plan.State)
}

func TestExecuteDirectRouteUsesDirectionalTrade(t *testing.T) {
	builder := &fakeBuilder{}
	primary := &fakeRelay{url: "primary", bundleID: "0xbundle"}
	x := newTestExecutor(t, builder, &fakeNode{head: 1000}, primary, nil, NewUsageLedger())

	x.Execute(context.Background(), approvedPlan(testRoute()))

	assert.Equal(t, 1, builder.tradeCalls)
	assert.Zero(t, builder.flashCalls)
	assert.True(t, builder.lastTradeV3, "buy venue uniswap selects the V3-first entry")
}

func TestExecuteDeepRouteUsesFlashLoan(t *testing.T) {
	builder := &fakeBuilder{}
	primary := &fakeRelay{url: "primary", bundleID: "0xbundle"}
	x := newTestExecutor(t, builder, &fakeNode{head: 1000}, primary, nil, NewUsageLedger())

	route := domain.NewTradeRoute("0xaaa", "0xccc", "0xbbb")
	x.Execute(context.Background(), approvedPlan(route))

	assert.Equal(t, 1, builder.flashCalls)
	assert.Zero(t, builder.tradeCalls)
	assert.Equal(t, route.Hash(), builder.lastFlashHash)
	assert.Equal(t, common.HexToAddress("0xaaa"), builder.lastFlashAsset)
}
